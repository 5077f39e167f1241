// Copyright (c) Microsoft. All rights reserved.

// Package openai provides an [agentloop.ChatClient] implementation backed by
// the OpenAI Chat Completions API. It also works against Azure OpenAI
// deployments via [WithBaseURL] plus either an api-key header or
// [WithAzureCredential].
//
// Create a client with [New] and pass it to [agentloop.NewAgent]:
//
//	client := openai.New(apiKey, openai.WithModel("gpt-4o"))
//	agent  := agentloop.NewAgent(client)
package openai
