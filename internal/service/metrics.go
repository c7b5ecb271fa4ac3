package service

import (
	"context"
	"errors"
	"time"

	"github.com/katakuxiko/safety-chat/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess        = "success"
	OutcomeHTTPError      = "http_error"
	OutcomeDecodeError    = "decode_error"
	OutcomeTransportError = "transport_error"
)

// InstrumentedClient records per-outcome counts and latency for every Ask.
type InstrumentedClient struct {
	next     RAGClient
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewInstrumentedClient(next RAGClient, reg prometheus.Registerer) *InstrumentedClient {
	c := &InstrumentedClient{
		next: next,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety_chat",
			Name:      "ask_requests_total",
			Help:      "Questions forwarded to the RAG backend, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safety_chat",
			Name:      "ask_duration_seconds",
			Help:      "Round-trip time of POST /ask.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(c.requests, c.duration)
	}
	return c
}

func (c *InstrumentedClient) Ask(ctx context.Context, req model.AskRequest) (*model.AskResponse, error) {
	start := time.Now()
	res, err := c.next.Ask(ctx, req)
	c.duration.Observe(time.Since(start).Seconds())
	c.requests.WithLabelValues(Outcome(err)).Inc()
	return res, err
}

// Outcome classifies an Ask error for metrics and logs.
func Outcome(err error) string {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &httpErr):
		return OutcomeHTTPError
	case errors.Is(err, ErrDecode):
		return OutcomeDecodeError
	default:
		return OutcomeTransportError
	}
}
