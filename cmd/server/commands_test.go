package main

import (
	"bytes"
	"testing"

	"github.com/katakuxiko/safety-chat/internal/chat"
	"github.com/katakuxiko/safety-chat/internal/model"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestPrintStateAnswerWithSources(t *testing.T) {
	var buf bytes.Buffer
	err := printState(&buf, chat.State{Response: mo.Some(model.AskResponse{
		Answer: "Use guardrails or a harness.",
		Chunks: []model.RetrievedChunk{
			{ID: "c1", TextPreview: "Falls from\nheight are\n the leading cause", Metadata: model.ChunkMetadata{DocID: "code-of-practice", PageNum: 4, ChunkIdx: 2}},
		},
	})})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Use guardrails or a harness.\n")
	assert.Contains(t, out, "[1] code-of-practice p.4 #2 (c1)")
	assert.Contains(t, out, "Falls from height are the leading cause")
}

func TestPrintStateNoChunks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printState(&buf, chat.State{Response: mo.Some(model.AskResponse{Answer: "Hard hats and gloves."})}))
	assert.Equal(t, "Hard hats and gloves.\n", buf.String())
}

func TestPrintStateError(t *testing.T) {
	var buf bytes.Buffer
	err := printState(&buf, chat.State{ErrorMessage: chat.FailureMessage})

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
	assert.Empty(t, buf.String())
}
