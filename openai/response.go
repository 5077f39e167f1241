// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"encoding/json"

	al "github.com/microsoft/agent-loop/go/agentloop"
)

// chatCompletionResponse is the Chat Completions API response body.
type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage,omitempty"`
}

type choice struct {
	Index        int         `json:"index"`
	Message      respMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type respMessage struct {
	Role      string     `json:"role"`
	Content   *string    `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// unmarshalChatResponse parses the JSON response body.
func unmarshalChatResponse(data []byte) (*chatCompletionResponse, error) {
	var resp chatCompletionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// parseChatResponse lifts the wire response into loop types. Only the first
// choice is used; the loop never requests n > 1.
func parseChatResponse(raw *chatCompletionResponse) *al.ChatResponse {
	resp := &al.ChatResponse{
		ResponseID: raw.ID,
		ModelID:    raw.Model,
	}
	if raw.Usage != nil {
		resp.Usage = al.UsageDetails{
			InputTokens:  raw.Usage.PromptTokens,
			OutputTokens: raw.Usage.CompletionTokens,
			TotalTokens:  raw.Usage.TotalTokens,
		}
	}
	if len(raw.Choices) == 0 {
		return resp
	}

	c := raw.Choices[0]
	resp.FinishReason = finishReasonFor(c.FinishReason)
	resp.Messages = []al.Message{{
		Role:     al.Role(c.Message.Role),
		Contents: choiceContents(c.Message),
	}}
	return resp
}

func choiceContents(m respMessage) al.Contents {
	var contents al.Contents
	if m.Content != nil && *m.Content != "" {
		contents = append(contents, &al.TextContent{Text: *m.Content})
	}
	for _, tc := range m.ToolCalls {
		contents = append(contents, &al.FunctionCallContent{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return contents
}

func finishReasonFor(s string) al.FinishReason {
	switch s {
	case "stop":
		return al.FinishReasonStop
	case "length":
		return al.FinishReasonLength
	case "tool_calls":
		return al.FinishReasonToolCalls
	case "content_filter":
		return al.FinishReasonContentFilter
	default:
		return al.FinishReason(s)
	}
}
