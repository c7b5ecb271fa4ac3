package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/katakuxiko/safety-chat/internal/model"
	"github.com/katakuxiko/safety-chat/internal/service"
	"github.com/samber/mo"
)

// FailureMessage is shown for every failed submission. The cause only goes to the log.
const FailureMessage = "Something went wrong talking to the backend."

// State is a snapshot of one chat form.
type State struct {
	Question     string
	Response     mo.Option[model.AskResponse]
	Loading      bool
	ErrorMessage string
}

// AskRecord describes one resolved submission.
type AskRecord struct {
	Question string
	TopK     int
	Answer   string
	Chunks   int
	Err      string
	Duration time.Duration
	At       time.Time
}

// Recorder receives an AskRecord after each submission resolves.
type Recorder interface {
	RecordAsk(ctx context.Context, rec AskRecord) error
}

type Option func(*View)

func WithTopK(k int) Option {
	return func(v *View) {
		if k > 0 {
			v.topK = k
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(v *View) {
		v.recorder = r
	}
}

// View is the state machine behind the chat form: Idle, Loading, then Success or
// Failure, after which it accepts the next submission.
//
// Submissions are not serialised. If a second one is made while the first is in
// flight, whichever resolves last overwrites the response or error.
type View struct {
	client   service.RAGClient
	topK     int
	logger   *slog.Logger
	recorder Recorder

	mu    sync.Mutex
	state State
}

func NewView(client service.RAGClient, opts ...Option) *View {
	v := &View{
		client: client,
		topK:   model.DefaultTopK,
		logger: slog.Default(),
		state:  State{Response: mo.None[model.AskResponse]()},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *View) SetQuestion(q string) {
	v.mu.Lock()
	v.state.Question = q
	v.mu.Unlock()
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Submit starts asking the current question. It returns nil, and changes nothing,
// when the trimmed question is empty. Otherwise the view is already loading when
// Submit returns and the Pending resolves once the outcome has been applied.
//
// The request runs detached from ctx cancellation; only ctx values are kept.
func (v *View) Submit(ctx context.Context) *Pending {
	v.mu.Lock()
	trimmed := strings.TrimSpace(v.state.Question)
	if trimmed == "" {
		v.mu.Unlock()
		return nil
	}
	v.state.ErrorMessage = ""
	v.state.Loading = true
	v.mu.Unlock()

	req := model.AskRequest{Question: trimmed, TopK: v.topK}
	p := &Pending{done: make(chan struct{})}
	go v.run(context.WithoutCancel(ctx), req, p)
	return p
}

func (v *View) run(ctx context.Context, req model.AskRequest, p *Pending) {
	start := time.Now()
	res, err := v.client.Ask(ctx, req)
	elapsed := time.Since(start)
	if err == nil && res == nil {
		err = fmt.Errorf("%w: empty response", service.ErrDecode)
	}

	v.mu.Lock()
	if err != nil {
		v.state.ErrorMessage = FailureMessage
	} else {
		v.state.Response = mo.Some(*res)
	}
	v.state.Loading = false
	v.mu.Unlock()

	rec := AskRecord{Question: req.Question, TopK: req.TopK, Duration: elapsed, At: start}
	if err != nil {
		v.logger.Error("ask failed",
			"outcome", service.Outcome(err),
			"error", err,
			"duration", elapsed,
		)
		rec.Err = err.Error()
	} else {
		v.logger.Info("ask answered", "chunks", len(res.Chunks), "duration", elapsed)
		rec.Answer = res.Answer
		rec.Chunks = len(res.Chunks)
	}

	p.res, p.err = res, err
	close(p.done)

	if v.recorder != nil {
		if rerr := v.recorder.RecordAsk(ctx, rec); rerr != nil {
			v.logger.Warn("record ask", "error", rerr)
		}
	}
}

// Pending is the result of one submission.
type Pending struct {
	done chan struct{}
	res  *model.AskResponse
	err  error
}

// Done is closed after the view has applied the outcome.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the submission resolves or ctx ends. Giving up on the wait
// does not cancel the request.
func (p *Pending) Wait(ctx context.Context) (*model.AskResponse, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
