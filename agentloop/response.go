// Copyright (c) Microsoft. All rights reserved.

package agentloop

import "strings"

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// UsageDetails holds token consumption statistics for a model response.
type UsageDetails struct {
	InputTokens  int `json:"inputTokenCount,omitempty"`
	OutputTokens int `json:"outputTokenCount,omitempty"`
	TotalTokens  int `json:"totalTokenCount,omitempty"`
}

// ChatResponse is the complete response from a [ChatClient].
type ChatResponse struct {
	Messages     []Message
	ResponseID   string
	ModelID      string
	FinishReason FinishReason
	Usage        UsageDetails
	Raw          any
}

// Text returns the concatenated text of all messages in this response.
func (r *ChatResponse) Text() string {
	var b strings.Builder
	for i := range r.Messages {
		b.WriteString(r.Messages[i].Text())
	}
	return b.String()
}

// FunctionCalls returns every function call requested across the response's
// messages, in order.
func (r *ChatResponse) FunctionCalls() []*FunctionCallContent {
	var calls []*FunctionCallContent
	for i := range r.Messages {
		calls = append(calls, r.Messages[i].FunctionCalls()...)
	}
	return calls
}
