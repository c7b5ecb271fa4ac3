package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/katakuxiko/safety-chat/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestAskSendsJSONPost(t *testing.T) {
	var got model.AskRequest
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ask", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"answer": "Use a harness.",
			"chunks": [
				{"id": "c1", "text_preview": "...", "metadata": {"doc_id": "d1", "page_num": 2, "chunk_idx": 0}},
				{"id": "c2", "text_preview": "more", "metadata": {"doc_id": "d1", "page_num": 3, "chunk_idx": 1}}
			]
		}`))
	})

	client := NewHTTPRAGClient(nil, srv.URL+"/")
	res, err := client.Ask(context.Background(), model.AskRequest{Question: "What is PPE?", TopK: 4})
	require.NoError(t, err)

	assert.Equal(t, model.AskRequest{Question: "What is PPE?", TopK: 4}, got)
	assert.Equal(t, "Use a harness.", res.Answer)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "c1", res.Chunks[0].ID)
	assert.Equal(t, model.ChunkMetadata{DocID: "d1", PageNum: 2, ChunkIdx: 0}, res.Chunks[0].Metadata)
	assert.Equal(t, "c2", res.Chunks[1].ID)
}

func TestAskNormalisesNullChunks(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer": "Hard hats and gloves.", "chunks": null}`))
	})

	res, err := NewHTTPRAGClient(nil, srv.URL).Ask(context.Background(), model.NewAskRequest("q"))
	require.NoError(t, err)
	assert.NotNil(t, res.Chunks)
	assert.Empty(t, res.Chunks)
}

func TestAskNon2xx(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("llm\nunavailable"))
	})

	_, err := NewHTTPRAGClient(nil, srv.URL).Ask(context.Background(), model.NewAskRequest("q"))
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, "llm unavailable", httpErr.Body)
	assert.Equal(t, OutcomeHTTPError, Outcome(err))
}

func TestAskDecodeFailure(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer": ["not", "a", "string"]}`))
	})

	_, err := NewHTTPRAGClient(nil, srv.URL).Ask(context.Background(), model.NewAskRequest("q"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, OutcomeDecodeError, Outcome(err))
}

func TestAskTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPRAGClient(nil, url).Ask(context.Background(), model.NewAskRequest("q"))
	require.Error(t, err)
	assert.Equal(t, OutcomeTransportError, Outcome(err))
}

func TestAskHonoursDeadline(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{"answer": "late", "chunks": []}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPRAGClient(nil, srv.URL).Ask(ctx, model.NewAskRequest("q"))
	assert.Error(t, err)
}

func TestAskCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPRAGClient(nil, "http://127.0.0.1:1").Ask(ctx, model.NewAskRequest("q"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealth(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "ok", "collection": "nsw_heights", "llm_model": "llama3"}`))
	})

	h, err := NewHTTPRAGClient(nil, srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.BackendHealth{Status: "ok", Collection: "nsw_heights", LLMModel: "llama3"}, *h)
}
