// Copyright (c) Microsoft. All rights reserved.

package agentloop

import "context"

// ChatClient is the interface for interacting with an LLM backend. Provider
// packages (e.g., openai) implement this interface. The returned response
// contains either a final text answer or one or more function call requests;
// the loop inspects which.
type ChatClient interface {
	// Response sends messages to the model and returns a complete response.
	Response(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)
}
