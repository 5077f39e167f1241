// Copyright (c) Microsoft. All rights reserved.

package agentloop

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is. Callers of [Agent.Chat] can always
// distinguish the three terminal conditions: a final answer (nil error), an
// exhausted iteration budget (ErrMaxIterations), and a backend failure
// (ErrBackend).
var (
	// ErrAgent is the base error for agent-related failures.
	ErrAgent = errors.New("agent error")

	// ErrBackend indicates a model backend failure during a chat turn. The
	// loop never retries internally; wrap the backend with a
	// [ChatMiddleware] such as [RetryChatMiddleware] if retries are wanted.
	ErrBackend = fmt.Errorf("%w: backend", ErrAgent)

	// ErrMaxIterations indicates the loop reached its iteration budget
	// without the model producing a final answer.
	ErrMaxIterations = fmt.Errorf("%w: max iterations", ErrAgent)

	// ErrTool is the base error for tool registration failures. Tool
	// execution failures never surface as errors; they are folded back into
	// the conversation as tool-result text.
	ErrTool = errors.New("tool error")

	// ErrDuplicateTool is returned when registering a tool under a name
	// already present in the registry.
	ErrDuplicateTool = fmt.Errorf("%w: duplicate name", ErrTool)

	// ErrInvalidTool is returned when a tool cannot be registered because
	// its name or schema is unusable.
	ErrInvalidTool = fmt.Errorf("%w: invalid definition", ErrTool)

	// ErrService is the base error for backend service failures.
	ErrService = errors.New("service error")

	// ErrContentFilter indicates the request was rejected by a content filter.
	ErrContentFilter = fmt.Errorf("%w: content filter", ErrService)

	// ErrInvalidRequest indicates the request was malformed or invalid.
	ErrInvalidRequest = fmt.Errorf("%w: invalid request", ErrService)

	// ErrAuth indicates an authentication or authorization failure.
	ErrAuth = fmt.Errorf("%w: authentication", ErrService)
)

// ServiceError provides rich context for backend service failures.
// Use errors.As to extract it from a wrapped error chain.
type ServiceError struct {
	StatusCode int
	Message    string
	Code       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ToolError provides context for tool registration failures.
type ToolError struct {
	ToolName string
	Message  string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %s", e.ToolName, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }
