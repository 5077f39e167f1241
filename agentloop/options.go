// Copyright (c) Microsoft. All rights reserved.

package agentloop

// ToolChoice controls how the model selects tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

// ToolChoiceFunction returns a ToolChoice that forces the model to call the
// named function.
func ToolChoiceFunction(name string) ToolChoice {
	return ToolChoice("function:" + name)
}

// ChatOptions configures a single chat completion request. Pointer fields use
// nil to represent "unset" (use provider default). The loop fills Tools from
// the agent's registry on every iteration.
type ChatOptions struct {
	ModelID     string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Stop        []string
	Seed        *int
	ToolChoice  ToolChoice
	Tools       []Tool
	User        string
}

// Clone returns a shallow copy with its own Tools slice, so per-request tool
// injection never mutates the agent's defaults.
func (o *ChatOptions) Clone() *ChatOptions {
	if o == nil {
		return &ChatOptions{}
	}
	cp := *o
	if len(o.Tools) > 0 {
		cp.Tools = make([]Tool, len(o.Tools))
		copy(cp.Tools, o.Tools)
	}
	return &cp
}
