package anthropic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	assert.InDelta(t, 0.80+2.00, u.EstimateCost("claude-haiku-4-5-20251001"), 0.0001)
	assert.InDelta(t, 3.00+7.50, u.EstimateCost("claude-sonnet-4-5-20250929"), 0.0001)
	assert.Zero(t, u.EstimateCost("unknown-model"))
}

func TestResponseText(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "hello "},
		{Type: "tool_use", Text: "ignored"},
		{Text: "world"},
	}}
	assert.Equal(t, "hello world", resp.Text())

	var nilResp *MessageResponse
	assert.Empty(t, nilResp.Text())
}

func TestToSDKMessages(t *testing.T) {
	out := toSDKMessages([]Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "user", string(out[0].Role))
	assert.Equal(t, "assistant", string(out[1].Role))
}

type countingClient struct {
	calls int
}

func (c *countingClient) CreateMessage(_ context.Context, _ MessageRequest) (*MessageResponse, error) {
	c.calls++
	return &MessageResponse{}, nil
}

func TestNewRateLimitedPassthrough(t *testing.T) {
	inner := &countingClient{}
	assert.Same(t, Client(inner), NewRateLimited(inner, 0))
}

func TestRateLimitedAllowsFirstCall(t *testing.T) {
	inner := &countingClient{}
	c := NewRateLimited(inner, 60)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := c.CreateMessage(ctx, MessageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitedHonorsCancellation(t *testing.T) {
	inner := &countingClient{}
	c := NewRateLimited(inner, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Burst of 1 is consumed by the first call; the second must wait a
	// full minute and should fail on the deadline instead.
	_, err := c.CreateMessage(ctx, MessageRequest{})
	require.NoError(t, err)

	_, err = c.CreateMessage(ctx, MessageRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
