// Copyright (c) Microsoft. All rights reserved.

package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// Registry keeps the mapping between tool names and implementations. It is
// the shared catalogue a loop dispatches against: registration happens at
// setup time, after which the read path (Tools, Invoke) is safe for
// concurrent use by any number of agents.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
	order   []string
}

type registryEntry struct {
	tool   Tool
	schema *jsonSchema
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register inserts a tool when its name is not in use. The tool's parameter
// schema is parsed once here and reused to validate every invocation.
// Registering two tools under one name is a configuration error, reported as
// [ErrDuplicateTool].
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("%w: tool is nil", ErrInvalidTool)
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("%w: tool name is empty", ErrInvalidTool)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return &ToolError{ToolName: name, Message: "already registered", Err: ErrDuplicateTool}
	}

	r.entries[name] = &registryEntry{tool: tool, schema: parseSchema(tool.Parameters())}
	r.order = append(r.order, name)
	return nil
}

// Get fetches a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// Tools returns all registered tools in registration order. The snapshot is
// what gets advertised to the model backend on each loop iteration.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].tool)
	}
	return tools
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Invoke resolves name, validates args against the stored schema, executes
// the tool, and serializes its return value to text for re-insertion into
// conversation history.
//
// Invoke never returns an error: an unknown name, malformed or invalid
// arguments, a tool error, a panic, or a timeout all come back as an
// "Error: ..." result string. The model sees the failure as conversation
// data and may self-correct; the host program is never crashed by a tool.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) string {
	return r.invoke(ctx, name, args, nil)
}

func (r *Registry) invoke(ctx context.Context, name string, args json.RawMessage, mws []FunctionMiddleware) string {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", name)
	}

	parsed, err := parseArguments(args)
	if err != nil {
		return fmt.Sprintf("Error: invalid arguments for %q: %v", name, err)
	}
	if err := validateArguments(parsed, e.schema); err != nil {
		return fmt.Sprintf("Error: invalid arguments for %q: %v", name, err)
	}

	result, err := safeInvoke(ctx, e.tool, args, mws)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Sprintf("Error: tool %q did not finish: %v", name, ctx.Err())
		}
		return fmt.Sprintf("Error: %v", err)
	}

	text, err := serializeResult(result)
	if err != nil {
		return fmt.Sprintf("Error: tool %q returned an unserializable value: %v", name, err)
	}
	return text
}

// safeInvoke runs the tool through the function middleware chain and converts
// panics into errors so one faulty tool cannot take down the conversation.
func safeInvoke(ctx context.Context, tool Tool, args json.RawMessage, mws []FunctionMiddleware) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "tool panicked", "tool", tool.Name(), "panic", rec)
			err = fmt.Errorf("tool %q panicked: %v", tool.Name(), rec)
		}
	}()

	handler := func(ctx context.Context, t Tool, a json.RawMessage) (any, error) {
		return t.Invoke(ctx, a)
	}
	return chainFunctionMiddleware(handler, mws...)(ctx, tool, args)
}

// parseArguments decodes the model-provided JSON payload. An empty payload is
// an empty argument map.
func parseArguments(args json.RawMessage) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, err
	}
	if parsed == nil {
		parsed = map[string]any{}
	}
	return parsed, nil
}

// validateArguments checks required fields and primitive types against the
// tool's parameter schema. Coercions the JSON decoder already performs
// (numbers arriving as float64) are accepted; anything else is rejected
// before the tool runs.
func validateArguments(args map[string]any, schema *jsonSchema) error {
	if schema == nil {
		return nil
	}

	for _, field := range schema.Required {
		if _, exists := args[field]; !exists {
			return fmt.Errorf("missing required field %q", field)
		}
	}

	for key, value := range args {
		prop, ok := schema.Properties[key]
		if !ok || prop.Type == "" {
			continue
		}
		if err := validateType(value, prop.Type); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}

	return nil
}

func validateType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		switch value.(type) {
		case float32, float64, int, int64, json.Number:
			return nil
		}
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return nil
		case float64:
			if math.Trunc(v) == v {
				return nil
			}
		case json.Number:
			if _, err := v.Int64(); err == nil {
				return nil
			}
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	case "null":
		if value == nil {
			return nil
		}
	default:
		// Unrecognized schema types pass through unchecked.
		return nil
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

// serializeResult flattens a tool return value into the single text string
// that becomes the tool-result message. Strings pass through; everything else
// is JSON-encoded.
func serializeResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
