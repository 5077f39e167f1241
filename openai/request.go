// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"encoding/json"
	"strings"

	al "github.com/microsoft/agent-loop/go/agentloop"
)

// chatRequest is the Chat Completions API request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_completion_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Seed        *int          `json:"seed,omitempty"`
	Tools       []toolSpec    `json:"tools,omitempty"`
	ToolChoice  any           `json:"tool_choice,omitempty"`
	User        string        `json:"user,omitempty"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// buildRequest converts loop messages and options into a wire request.
func buildRequest(messages []al.Message, opts *al.ChatOptions, defaultModel string) *chatRequest {
	req := &chatRequest{Model: defaultModel}
	for i := range messages {
		req.Messages = append(req.Messages, wireMessage(&messages[i]))
	}
	if opts == nil {
		return req
	}

	if opts.ModelID != "" {
		req.Model = opts.ModelID
	}
	req.Temperature = opts.Temperature
	req.TopP = opts.TopP
	req.MaxTokens = opts.MaxTokens
	req.Stop = opts.Stop
	req.Seed = opts.Seed
	req.User = opts.User
	req.ToolChoice = wireToolChoice(opts.ToolChoice)

	for _, t := range opts.Tools {
		req.Tools = append(req.Tools, toolSpec{
			Type: "function",
			Function: functionSpec{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return req
}

// wireMessage flattens one loop message into its wire shape. Assistant
// messages may carry text and tool calls side by side; tool messages carry
// exactly one function result.
func wireMessage(msg *al.Message) chatMessage {
	cm := chatMessage{Role: string(msg.Role)}

	switch msg.Role {
	case al.RoleAssistant:
		for _, c := range msg.Contents {
			switch v := c.(type) {
			case *al.TextContent:
				cm.Content += v.Text
			case *al.FunctionCallContent:
				cm.ToolCalls = append(cm.ToolCalls, toolCall{
					ID:   v.CallID,
					Type: "function",
					Function: functionCall{
						Name:      v.Name,
						Arguments: v.Arguments,
					},
				})
			}
		}

	case al.RoleTool:
		for _, c := range msg.Contents {
			if fr, ok := c.(*al.FunctionResultContent); ok {
				cm.ToolCallID = fr.CallID
				cm.Content = fr.Result
				break
			}
		}

	default:
		cm.Content = msg.Text()
	}
	return cm
}

func wireToolChoice(tc al.ToolChoice) any {
	switch tc {
	case "":
		return nil
	case al.ToolChoiceAuto, al.ToolChoiceRequired, al.ToolChoiceNone:
		return string(tc)
	}
	// "function:<name>" forces a specific tool.
	if name, ok := strings.CutPrefix(string(tc), "function:"); ok && name != "" {
		return map[string]any{
			"type":     "function",
			"function": map[string]string{"name": name},
		}
	}
	return string(tc)
}
