// Copyright (c) Microsoft. All rights reserved.

package agentloop

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultMaxIterations bounds the tool-calling loop when no explicit budget
// is configured.
const DefaultMaxIterations = 10

// Agent owns one conversation's state and tool set. It drives the
// think/act/observe cycle against a [ChatClient] until the model produces a
// final answer or the iteration budget runs out.
//
// Create one with [NewAgent] and functional options:
//
//	agent := agentloop.NewAgent(client,
//	    agentloop.WithInstructions("You are helpful."),
//	    agentloop.WithTools(weatherTool),
//	    agentloop.WithMaxIterations(5),
//	)
//	answer, err := agent.Chat(ctx, "What's the weather in Oslo?")
//
// An Agent is safe for use from multiple goroutines, but turns are strictly
// serialized: exactly one chat turn runs at a time, because each turn's input
// is the previous turn's output.
type Agent struct {
	name               string
	client             ChatClient
	registry           *Registry
	history            *History
	store              MessageStore
	maxIterations      int
	toolTimeout        time.Duration
	sequentialTools    bool
	defaultOptions     *ChatOptions
	chatMiddleware     []ChatMiddleware
	functionMiddleware []FunctionMiddleware

	mu sync.Mutex // serializes Chat/Reset/Save/Load
}

// AgentOption configures an [Agent] via [NewAgent].
type AgentOption func(*Agent)

// WithName sets the agent's display name, used in log records.
func WithName(name string) AgentOption {
	return func(a *Agent) { a.name = name }
}

// WithInstructions sets the system message that prefixes the conversation
// and survives [Agent.Reset].
func WithInstructions(instructions string) AgentOption {
	return func(a *Agent) { a.history = NewHistory(instructions) }
}

// WithTools registers tools at construction time. Registration failures
// (duplicate or invalid names) panic: they are configuration errors that
// must surface before any loop runs, not be silently ignored. Use
// [Agent.RegisterTool] for an error-returning path.
func WithTools(tools ...Tool) AgentOption {
	return func(a *Agent) {
		for _, t := range tools {
			if err := a.registry.Register(t); err != nil {
				panic(err)
			}
		}
	}
}

// WithRegistry shares an existing [Registry] instead of the agent-private one.
// The registry must not be mutated while any agent using it is mid-turn.
func WithRegistry(r *Registry) AgentOption {
	return func(a *Agent) {
		if r != nil {
			a.registry = r
		}
	}
}

// WithMaxIterations sets the loop's iteration budget. Values below 1 keep
// the default.
func WithMaxIterations(n int) AgentOption {
	return func(a *Agent) {
		if n >= 1 {
			a.maxIterations = n
		}
	}
}

// WithToolTimeout bounds each individual tool invocation. A timed-out tool
// yields an error tool-result and the loop continues; it never aborts the
// turn.
func WithToolTimeout(d time.Duration) AgentOption {
	return func(a *Agent) { a.toolTimeout = d }
}

// WithSequentialTools dispatches parallel tool calls one at a time instead of
// concurrently. Result ordering in history is identical either way.
func WithSequentialTools() AgentOption {
	return func(a *Agent) { a.sequentialTools = true }
}

// WithStore attaches a [MessageStore] used by [Agent.Save] and [Agent.Load].
func WithStore(store MessageStore) AgentOption {
	return func(a *Agent) { a.store = store }
}

// WithChatOptions sets default request options for every backend call.
func WithChatOptions(opts *ChatOptions) AgentOption {
	return func(a *Agent) { a.defaultOptions = opts }
}

// WithChatMiddleware adds [ChatMiddleware] around every backend call.
func WithChatMiddleware(mws ...ChatMiddleware) AgentOption {
	return func(a *Agent) { a.chatMiddleware = append(a.chatMiddleware, mws...) }
}

// WithFunctionMiddleware adds [FunctionMiddleware] around every tool invocation.
func WithFunctionMiddleware(mws ...FunctionMiddleware) AgentOption {
	return func(a *Agent) { a.functionMiddleware = append(a.functionMiddleware, mws...) }
}

// NewAgent creates an Agent with the given [ChatClient] and options.
func NewAgent(client ChatClient, opts ...AgentOption) *Agent {
	a := &Agent{
		client:        client,
		registry:      NewRegistry(),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.history == nil {
		a.history = NewHistory("")
	}
	return a
}

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Registry returns the agent's tool registry.
func (a *Agent) Registry() *Registry { return a.registry }

// RegisterTool adds a tool to the agent's registry. Tools registered between
// turns are advertised on the next backend call; registering mid-turn has no
// effect on the turn already in flight.
func (a *Agent) RegisterTool(tool Tool) error {
	return a.registry.Register(tool)
}

// RegisterTools registers multiple tools, stopping at the first failure.
func (a *Agent) RegisterTools(tools ...Tool) error {
	for _, t := range tools {
		if err := a.registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Chat sends a user message and blocks until the loop terminates. It returns
// exactly one of three outcomes: the model's final answer, an
// [ErrMaxIterations] failure when the budget is exhausted, or an
// [ErrBackend]-wrapped failure when the model backend errors. Tool failures
// are none of these; they are folded into the conversation and the loop
// continues.
func (a *Agent) Chat(ctx context.Context, message string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history.Append(NewUserMessage(message))
	return a.runLoop(ctx)
}

// Reset clears conversation history back to the system message, if any. The
// tool registry is untouched. Reset is idempotent.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history.Reset()
}

// History returns a snapshot of the conversation so far.
func (a *Agent) History() []Message {
	return a.history.Messages()
}

// Save writes the full conversation history to the configured store,
// replacing whatever the store held.
func (a *Agent) Save(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return fmt.Errorf("%w: no message store configured", ErrAgent)
	}
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	if err := a.store.AddMessages(ctx, a.history.Messages()); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Load replaces the conversation history with the store's contents.
func (a *Agent) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return fmt.Errorf("%w: no message store configured", ErrAgent)
	}
	msgs, err := a.store.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	a.history.Restore(msgs)
	return nil
}
