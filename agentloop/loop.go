// Copyright (c) Microsoft. All rights reserved.

package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// runLoop drives one chat turn: call the backend, dispatch any requested
// tool calls, fold the results into history, and repeat until the model
// answers without requesting tools or the iteration budget runs out.
//
// History ordering is the loop's core invariant: the assistant message
// carrying the function calls is appended before any of its results, and the
// results follow immediately, in request order. Parallel calls may execute
// concurrently, but reinsertion order never depends on execution order.
func (a *Agent) runLoop(ctx context.Context) (string, error) {
	handler := chainChatMiddleware(a.client.Response, a.chatMiddleware...)

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		opts := a.defaultOptions.Clone()
		opts.Tools = a.registry.Tools()

		slog.DebugContext(ctx, "loop iteration",
			"agent", a.name,
			"iteration", iteration,
			"max_iterations", a.maxIterations,
			"history_len", a.history.Len(),
			"tool_count", len(opts.Tools),
		)

		resp, err := handler(ctx, a.history.Messages(), opts)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrBackend, err)
		}
		if resp == nil || len(resp.Messages) == 0 {
			return "", fmt.Errorf("%w: backend returned an empty response", ErrBackend)
		}

		a.history.Append(resp.Messages...)

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			answer := resp.Text()
			slog.InfoContext(ctx, "final answer",
				"agent", a.name,
				"iterations", iteration,
			)
			return answer, nil
		}

		slog.InfoContext(ctx, "dispatching tool calls",
			"agent", a.name,
			"iteration", iteration,
			"call_count", len(calls),
		)
		a.history.Append(a.dispatchCalls(ctx, calls)...)
	}

	return "", fmt.Errorf("%w: no final answer after %d iterations", ErrMaxIterations, a.maxIterations)
}

// dispatchCalls executes the turn's tool calls and returns one tool-result
// message per call, positionally matched to the request order. Calls run
// concurrently unless the agent was configured sequential; each gets its own
// timeout when one is configured.
func (a *Agent) dispatchCalls(ctx context.Context, calls []*FunctionCallContent) []Message {
	results := make([]Message, len(calls))

	if a.sequentialTools || len(calls) == 1 {
		for i, call := range calls {
			results[i] = a.executeCall(ctx, call)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call *FunctionCallContent) {
			defer wg.Done()
			results[i] = a.executeCall(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

// executeCall invokes a single tool through the registry and wraps the
// outcome, success or failure, as a tool-result message.
func (a *Agent) executeCall(ctx context.Context, call *FunctionCallContent) Message {
	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
	}

	result := a.registry.invoke(ctx, call.Name, json.RawMessage(call.Arguments), a.functionMiddleware)

	slog.DebugContext(ctx, "tool call finished",
		"agent", a.name,
		"tool", call.Name,
		"call_id", call.CallID,
	)
	return NewToolResultMessage(call.CallID, result)
}
