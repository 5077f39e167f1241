// Copyright (c) Microsoft. All rights reserved.

// Command chat demonstrates a multi-turn tool-calling loop at the terminal.
//
// It works with both direct OpenAI and Azure AI Foundry endpoints.
//
// Usage with OpenAI:
//
//	export OPENAI_API_KEY=sk-...
//	go run .
//
// Usage with Azure AI Foundry:
//
//	export AZURE_FOUNDRY_ENDPOINT=https://<project>.services.ai.azure.com/openai/deployments/<deployment>
//	export AZURE_FOUNDRY_KEY=<your-key>
//	export AZURE_FOUNDRY_MODEL=gpt-4o          # optional, defaults to gpt-4o
//	go run .
//
// An optional YAML config file tunes the loop:
//
//	go run . -config agent.yaml
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"
	al "github.com/microsoft/agent-loop/go/agentloop"
	"github.com/microsoft/agent-loop/go/config"
	"github.com/microsoft/agent-loop/go/openai"
	"github.com/microsoft/agent-loop/go/sqlitestore"
)

func main() {
	// Load .env file if present (ignored if missing).
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	setupLogging(cfg.LogLevel)

	client := newChatClient(cfg)

	opts := []al.AgentOption{
		al.WithName("assistant"),
		al.WithInstructions(instructions(cfg)),
		al.WithTools(calculatorTools()...),
		al.WithMaxIterations(cfg.MaxIterations),
		al.WithToolTimeout(time.Duration(cfg.Tools.TimeoutMS) * time.Millisecond),
		al.WithChatMiddleware(al.LoggingChatMiddleware(slog.Default())),
	}
	if cfg.Tools.Sequential {
		opts = append(opts, al.WithSequentialTools())
	}

	// Durable history when a database path is configured.
	if cfg.HistoryDB != "" {
		store, err := sqlitestore.Open(cfg.HistoryDB, cfg.ConversationID)
		if err != nil {
			log.Fatalf("open history store: %v", err)
		}
		defer store.Close()
		opts = append(opts, al.WithStore(store))
		fmt.Printf("Conversation %s persisted to %s\n", store.ConversationID(), cfg.HistoryDB)
	}

	agent := al.NewAgent(client, opts...)

	fmt.Println("Chat with the assistant (type 'quit' to exit, '/reset' to clear history)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		ctx := context.Background()

		switch input {
		case "/reset":
			agent.Reset()
			fmt.Println("History cleared.")
			continue
		case "/save":
			if err := agent.Save(ctx); err != nil {
				log.Printf("Save: %v", err)
			} else {
				fmt.Println("History saved.")
			}
			continue
		case "/load":
			if err := agent.Load(ctx); err != nil {
				log.Printf("Load: %v", err)
			} else {
				fmt.Printf("History loaded (%d messages).\n", len(agent.History()))
			}
			continue
		}

		answer, err := agent.Chat(ctx, input)
		if err != nil {
			switch {
			case errors.Is(err, al.ErrMaxIterations):
				log.Printf("No final answer within the iteration budget: %v", err)
			case errors.Is(err, al.ErrBackend):
				log.Printf("Backend failure: %v", err)
			default:
				log.Printf("Error: %v", err)
			}
			continue
		}

		fmt.Printf("Assistant: %s\n\n", answer)
	}
}

func instructions(cfg config.Config) string {
	if cfg.Instructions != "" {
		return cfg.Instructions
	}
	return "You are a helpful assistant. Use the available tools for arithmetic " +
		"instead of computing yourself. Keep responses concise."
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})))
}

// calculatorTools returns the demo tool set: basic arithmetic the model is
// told to delegate.
func calculatorTools() []al.Tool {
	add := al.NewTypedTool("add",
		"Add two numbers and return the sum.",
		func(ctx context.Context, args struct {
			A float64 `json:"a" jsonschema:"description=First operand,required"`
			B float64 `json:"b" jsonschema:"description=Second operand,required"`
		}) (any, error) {
			return args.A + args.B, nil
		},
	)

	multiply := al.NewTypedTool("multiply",
		"Multiply two numbers and return the product.",
		func(ctx context.Context, args struct {
			A float64 `json:"a" jsonschema:"description=First operand,required"`
			B float64 `json:"b" jsonschema:"description=Second operand,required"`
		}) (any, error) {
			return args.A * args.B, nil
		},
	)

	divide := al.NewTypedTool("divide",
		"Divide a by b and return the quotient.",
		func(ctx context.Context, args struct {
			A float64 `json:"a" jsonschema:"description=Dividend,required"`
			B float64 `json:"b" jsonschema:"description=Divisor,required"`
		}) (any, error) {
			if args.B == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return args.A / args.B, nil
		},
	)

	return []al.Tool{add, multiply, divide}
}

// newChatClient creates an OpenAI-compatible client, choosing between Azure AI
// Foundry and direct OpenAI based on which environment variables are set.
func newChatClient(cfg config.Config) *openai.Client {
	timeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond

	// Azure AI Foundry — uses the OpenAI-compatible endpoint.
	if endpoint := os.Getenv("AZURE_FOUNDRY_ENDPOINT"); endpoint != "" {
		key := os.Getenv("AZURE_FOUNDRY_KEY")
		model := os.Getenv("AZURE_FOUNDRY_MODEL")
		if model == "" {
			model = "gpt-4o"
		}

		fmt.Printf("Using Azure AI Foundry: %s\n", endpoint)

		// If no key provided, use Azure AD authentication.
		if key == "" {
			fmt.Println("Using Azure AD authentication (DefaultAzureCredential)")
			cred, err := azidentity.NewDefaultAzureCredential(nil)
			if err != nil {
				log.Fatalf("Failed to create Azure credential: %v", err)
			}
			return openai.New("", // empty key when using Azure AD
				openai.WithBaseURL(endpoint),
				openai.WithModel(model),
				openai.WithAzureCredential(cred),
				openai.WithRequestTimeout(timeout),
			)
		}

		return openai.New(key,
			openai.WithBaseURL(endpoint),
			openai.WithModel(model),
			openai.WithHeaders(map[string]string{
				"api-key": key, // Azure uses api-key header instead of Bearer token
			}),
			openai.WithRequestTimeout(timeout),
		)
	}

	// Direct OpenAI.
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("set OPENAI_API_KEY or AZURE_FOUNDRY_ENDPOINT")
	}

	clientOpts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(apiKey, clientOpts...)
}
