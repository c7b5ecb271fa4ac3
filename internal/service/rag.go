package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/katakuxiko/safety-chat/internal/model"
	"github.com/katakuxiko/safety-chat/internal/util"
)

// ErrDecode marks a 2xx reply whose body did not match the expected shape.
var ErrDecode = errors.New("decode response")

// HTTPError is returned for any non-2xx reply from the backend.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("rag backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("rag backend returned status %d: %s", e.StatusCode, e.Body)
}

// RAGClient asks the remote question-answering service.
type RAGClient interface {
	Ask(ctx context.Context, req model.AskRequest) (*model.AskResponse, error)
}

// HTTPRAGClient talks to the backend over HTTP. It keeps no state between calls.
type HTTPRAGClient struct {
	http    *fiber.Client
	baseURL string
}

// NewHTTPRAGClient wraps a shared fiber client. A nil client gets a fresh one.
func NewHTTPRAGClient(client *fiber.Client, baseURL string) *HTTPRAGClient {
	if client == nil {
		client = &fiber.Client{}
	}
	return &HTTPRAGClient{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *HTTPRAGClient) BaseURL() string {
	return c.baseURL
}

// Ask sends one POST {baseURL}/ask. There is no retry.
func (c *HTTPRAGClient) Ask(ctx context.Context, req model.AskRequest) (*model.AskResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := c.http.Post(c.baseURL + "/ask").JSON(req)
	withDeadline(ctx, a)

	body, err := do(a)
	if err != nil {
		return nil, err
	}

	var res model.AskResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if res.Chunks == nil {
		res.Chunks = []model.RetrievedChunk{}
	}
	return &res, nil
}

// Health reads GET {baseURL}/health.
func (c *HTTPRAGClient) Health(ctx context.Context) (*model.BackendHealth, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := c.http.Get(c.baseURL + "/health")
	withDeadline(ctx, a)

	body, err := do(a)
	if err != nil {
		return nil, err
	}

	var h model.BackendHealth
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &h, nil
}

func withDeadline(ctx context.Context, a *fiber.Agent) {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			a.Timeout(d)
		}
	}
}

// do executes the agent and releases it.
func do(a *fiber.Agent) ([]byte, error) {
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("rag request: %w", errors.Join(errs...))
	}
	if code < 200 || code > 299 {
		return nil, &HTTPError{StatusCode: code, Body: util.OneLine(string(body), 200)}
	}
	return body, nil
}
