// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"fmt"
	"io"

	al "github.com/microsoft/agent-loop/go/agentloop"
)

// Client implements [agentloop.ChatClient] using the OpenAI Chat Completions
// API. Use [New] to create one.
type Client struct {
	tp    transport
	model string
}

// Verify interface compliance at compile time.
var _ al.ChatClient = (*Client)(nil)

// New creates an OpenAI [Client] with the given API key and options.
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
func New(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return &Client{
		tp:    newHTTPTransport(apiKey, cfg),
		model: cfg.model,
	}
}

// newWithTransport creates a Client with a custom transport (for testing).
func newWithTransport(tp transport, model string) *Client {
	return &Client{tp: tp, model: model}
}

// Response sends a chat completion request and returns the complete response.
func (c *Client) Response(ctx context.Context, messages []al.Message, opts *al.ChatOptions) (*al.ChatResponse, error) {
	req := buildRequest(messages, opts, c.model)

	resp, err := c.tp.do(ctx, "POST", "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", al.ErrService, err)
	}

	raw, err := unmarshalChatResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", al.ErrService, err)
	}

	result := parseChatResponse(raw)
	result.Raw = raw
	return result, nil
}
