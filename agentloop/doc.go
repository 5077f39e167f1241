// Copyright (c) Microsoft. All rights reserved.

// Package agentloop implements an autonomous tool-calling loop over any
// chat-completion-style LLM backend: consult the model, execute the tools it
// requests, fold the results back into conversation history, and repeat
// until the model produces a final answer or an iteration budget runs out.
//
// # Quick Start
//
// Create a ChatClient (e.g., from the openai package) and build an Agent:
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-4o"))
//
//	agent := agentloop.NewAgent(client,
//	    agentloop.WithInstructions("You are helpful."),
//	    agentloop.WithTools(weatherTool),
//	)
//
//	answer, err := agent.Chat(ctx, "What's the weather in Oslo?")
//
// # Architecture
//
// The package is organized around these abstractions:
//
//   - [Agent]: owns one conversation's [History] and drives the loop.
//   - [Registry]: the catalogue of named, schema-described tools; resolves
//     and executes calls by name.
//   - [ChatClient]: interface for LLM backends (implemented by provider
//     packages).
//   - [MessageStore]: pluggable persistence for conversation history.
//   - Middleware: chat-level and function-level hooks for retries, logging,
//     and other cross-cutting concerns.
//
// # Tools
//
// Use [NewTypedTool] for type-safe tools with automatic JSON Schema generation:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name,required"`
//	    Unit     string `json:"unit"     jsonschema:"enum=celsius|fahrenheit"`
//	}
//
//	tool := agentloop.NewTypedTool("get_weather", "Get current weather",
//	    func(ctx context.Context, args WeatherArgs) (any, error) {
//	        return fetchWeather(args.Location, args.Unit)
//	    },
//	)
//
// # Failure model
//
// Tool failures are conversation data: an unknown tool name, bad arguments,
// a tool error, a panic, or a per-tool timeout all become an "Error: ..."
// tool-result the model can react to, and the loop continues. Only two
// conditions end a turn unsuccessfully, and both are typed: a backend
// failure ([ErrBackend]) and an exhausted iteration budget
// ([ErrMaxIterations]). Retries belong in a [ChatMiddleware] such as
// [RetryChatMiddleware], never inside the loop.
package agentloop
