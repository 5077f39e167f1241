// Copyright (c) Microsoft. All rights reserved.

package agentloop

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// ChatHandler is the function signature for processing a chat request.
type ChatHandler func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

// ChatMiddleware wraps a [ChatHandler] to add cross-cutting behavior around
// each backend call. Retry, backoff, and rate limiting belong here, outside
// the loop's state machine.
type ChatMiddleware func(next ChatHandler) ChatHandler

// FunctionHandler is the function signature for invoking a tool.
type FunctionHandler func(ctx context.Context, tool Tool, args json.RawMessage) (any, error)

// FunctionMiddleware wraps a [FunctionHandler] to add cross-cutting behavior
// around each tool invocation.
type FunctionMiddleware func(next FunctionHandler) FunctionHandler

// chainChatMiddleware applies middleware in order (first in list = outermost wrapper).
func chainChatMiddleware(handler ChatHandler, mws ...ChatMiddleware) ChatHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// chainFunctionMiddleware applies middleware in order.
func chainFunctionMiddleware(handler FunctionHandler, mws ...FunctionMiddleware) FunctionHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// LoggingChatMiddleware returns a [ChatMiddleware] that logs each backend
// round trip using slog.
func LoggingChatMiddleware(logger *slog.Logger) ChatMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ChatHandler) ChatHandler {
		return func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
			start := time.Now()
			resp, err := next(ctx, messages, opts)
			duration := time.Since(start)
			if err != nil {
				logger.ErrorContext(ctx, "backend call failed",
					"duration", duration,
					"message_count", len(messages),
					"error", err,
				)
				return nil, err
			}
			logger.DebugContext(ctx, "backend call completed",
				"duration", duration,
				"message_count", len(messages),
				"finish_reason", resp.FinishReason,
				"input_tokens", resp.Usage.InputTokens,
				"output_tokens", resp.Usage.OutputTokens,
			)
			return resp, nil
		}
	}
}

// RetryChatMiddleware returns a [ChatMiddleware] that retries failed backend
// calls up to attempts times with a fixed backoff between tries. Context
// cancellation is never retried. This is the sanctioned place for retry
// policy; the loop itself never retries.
func RetryChatMiddleware(attempts int, backoff time.Duration) ChatMiddleware {
	if attempts < 1 {
		attempts = 1
	}
	return func(next ChatHandler) ChatHandler {
		return func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
			var lastErr error
			for attempt := 1; attempt <= attempts; attempt++ {
				resp, err := next(ctx, messages, opts)
				if err == nil {
					return resp, nil
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, err
				}
				lastErr = err
				if attempt < attempts {
					slog.WarnContext(ctx, "backend call failed, retrying",
						"attempt", attempt,
						"error", err,
					)
					select {
					case <-time.After(backoff):
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
			}
			return nil, lastErr
		}
	}
}
