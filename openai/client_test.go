// Copyright (c) Microsoft. All rights reserved.

package openai_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	al "github.com/microsoft/agent-loop/go/agentloop"
	"github.com/microsoft/agent-loop/go/openai"
)

// mockTransportFunc is a RoundTripper that delegates to a function.
type mockTransportFunc func(*http.Request) (*http.Response, error)

func (f mockTransportFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newMockHTTPClient(fn func(*http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: mockTransportFunc(fn)}
}

func jsonResponse(status int, body any) *http.Response {
	b, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

func TestClient_Response_Basic(t *testing.T) {
	content := "Hello there!"
	apiResp := map[string]any{
		"id":     "chatcmpl-123",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
			},
		}},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
		},
	}

	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.Method != "POST" {
			t.Errorf("method = %q", req.Method)
		}
		if !strings.HasSuffix(req.URL.Path, "/chat/completions") {
			t.Errorf("path = %q", req.URL.Path)
		}
		if req.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("auth = %q", req.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(req.Body)
		var reqBody map[string]any
		json.Unmarshal(body, &reqBody)
		if reqBody["model"] != "gpt-4o" {
			t.Errorf("request model = %v", reqBody["model"])
		}

		return jsonResponse(200, apiResp), nil
	})

	client := openai.New("test-key",
		openai.WithModel("gpt-4o"),
		openai.WithHTTPClient(httpClient),
	)

	resp, err := client.Response(context.Background(),
		[]al.Message{al.NewUserMessage("hi")},
		nil,
	)
	if err != nil {
		t.Fatalf("Response: %v", err)
	}

	if resp.ResponseID != "chatcmpl-123" {
		t.Errorf("ResponseID = %q", resp.ResponseID)
	}
	if resp.FinishReason != al.FinishReasonStop {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 8 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if resp.Text() != content {
		t.Errorf("Text = %q", resp.Text())
	}
}

func TestClient_Response_ToolCalls(t *testing.T) {
	apiResp := map[string]any{
		"id":    "chatcmpl-456",
		"model": "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "tool_calls",
			"message": map[string]any{
				"role": "assistant",
				"tool_calls": []map[string]any{{
					"id":   "call_abc",
					"type": "function",
					"function": map[string]any{
						"name":      "get_weather",
						"arguments": `{"city":"Oslo"}`,
					},
				}},
			},
		}},
	}

	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, apiResp), nil
	})

	client := openai.New("test-key",
		openai.WithModel("gpt-4o"),
		openai.WithHTTPClient(httpClient),
	)

	resp, err := client.Response(context.Background(),
		[]al.Message{al.NewUserMessage("weather in Oslo?")},
		nil,
	)
	if err != nil {
		t.Fatalf("Response: %v", err)
	}

	if resp.FinishReason != al.FinishReasonToolCalls {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	calls := resp.FunctionCalls()
	if len(calls) != 1 {
		t.Fatalf("FunctionCalls len = %d, want 1", len(calls))
	}
	if calls[0].CallID != "call_abc" || calls[0].Name != "get_weather" {
		t.Errorf("call = %+v", calls[0])
	}
	if calls[0].Arguments != `{"city":"Oslo"}` {
		t.Errorf("arguments = %q", calls[0].Arguments)
	}
}

func TestClient_Response_AdvertisesTools(t *testing.T) {
	tool := al.NewTypedTool("get_weather", "Returns the weather",
		func(ctx context.Context, args struct {
			City string `json:"city" jsonschema:"description=City name,required"`
		}) (any, error) {
			return "sunny", nil
		})

	var captured map[string]any
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		json.Unmarshal(body, &captured)
		return jsonResponse(200, map[string]any{
			"id":    "r",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"message": map[string]any{"role": "assistant", "content": "ok"},
			}},
		}), nil
	})

	client := openai.New("test-key", openai.WithHTTPClient(httpClient))
	_, err := client.Response(context.Background(),
		[]al.Message{al.NewUserMessage("hi")},
		&al.ChatOptions{ModelID: "gpt-4o", Tools: []al.Tool{tool}},
	)
	if err != nil {
		t.Fatalf("Response: %v", err)
	}

	tools, ok := captured["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("tools = %v", captured["tools"])
	}
	spec := tools[0].(map[string]any)
	if spec["type"] != "function" {
		t.Errorf("tool type = %v", spec["type"])
	}
	fn := spec["function"].(map[string]any)
	if fn["name"] != "get_weather" {
		t.Errorf("tool name = %v", fn["name"])
	}
	params := fn["parameters"].(map[string]any)
	if params["type"] != "object" {
		t.Errorf("parameters = %v", params)
	}
}

func TestClient_Response_SendsConversation(t *testing.T) {
	var captured struct {
		Messages []map[string]any `json:"messages"`
	}
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		json.Unmarshal(body, &captured)
		return jsonResponse(200, map[string]any{
			"id":    "r",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"message": map[string]any{"role": "assistant", "content": "5"},
			}},
		}), nil
	})

	client := openai.New("test-key", openai.WithHTTPClient(httpClient))

	assistant := al.Message{
		Role: al.RoleAssistant,
		Contents: al.Contents{
			&al.FunctionCallContent{CallID: "c1", Name: "add", Arguments: `{"a":2,"b":3}`},
		},
	}
	msgs := []al.Message{
		al.NewSystemMessage("be terse"),
		al.NewUserMessage("2+3?"),
		assistant,
		al.NewToolResultMessage("c1", "5"),
	}

	if _, err := client.Response(context.Background(), msgs, nil); err != nil {
		t.Fatalf("Response: %v", err)
	}

	if len(captured.Messages) != 4 {
		t.Fatalf("sent %d messages, want 4", len(captured.Messages))
	}
	if captured.Messages[0]["role"] != "system" || captured.Messages[0]["content"] != "be terse" {
		t.Errorf("system message = %v", captured.Messages[0])
	}

	// Assistant message carries the tool call, not text.
	tcs := captured.Messages[2]["tool_calls"].([]any)
	tc := tcs[0].(map[string]any)
	if tc["id"] != "c1" {
		t.Errorf("tool call = %v", tc)
	}

	// Tool result references its call.
	if captured.Messages[3]["role"] != "tool" ||
		captured.Messages[3]["tool_call_id"] != "c1" ||
		captured.Messages[3]["content"] != "5" {
		t.Errorf("tool message = %v", captured.Messages[3])
	}
}

func TestClient_Response_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		wantErr  error
		wantText string
	}{
		{"auth", 401, "invalid_api_key", al.ErrAuth, "invalid_api_key"},
		{"bad request", 400, "invalid_request_error", al.ErrInvalidRequest, ""},
		{"content filter", 400, "content_filter", al.ErrContentFilter, ""},
		{"server error", 500, "", al.ErrService, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tt.status, map[string]any{
					"error": map[string]any{
						"message": "request rejected",
						"code":    tt.code,
					},
				}), nil
			})

			client := openai.New("test-key", openai.WithHTTPClient(httpClient))
			_, err := client.Response(context.Background(),
				[]al.Message{al.NewUserMessage("hi")}, nil)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}

			var svcErr *al.ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatal("want a ServiceError in the chain")
			}
			if svcErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", svcErr.StatusCode, tt.status)
			}
			if tt.wantText != "" && !strings.Contains(svcErr.Code, tt.wantText) {
				t.Errorf("Code = %q", svcErr.Code)
			}
		})
	}
}

func TestClient_Response_AzureAPIKeyHeader(t *testing.T) {
	httpClient := newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("api-key") != "azure-key" {
			t.Errorf("api-key header = %q", req.Header.Get("api-key"))
		}
		if req.Header.Get("Authorization") != "" {
			t.Errorf("Authorization should be empty with api-key auth, got %q",
				req.Header.Get("Authorization"))
		}
		return jsonResponse(200, map[string]any{
			"id":    "r",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"message": map[string]any{"role": "assistant", "content": "ok"},
			}},
		}), nil
	})

	client := openai.New("azure-key",
		openai.WithBaseURL("https://example.openai.azure.com/openai/v1"),
		openai.WithHTTPClient(httpClient),
		openai.WithHeaders(map[string]string{"api-key": "azure-key"}),
	)

	if _, err := client.Response(context.Background(),
		[]al.Message{al.NewUserMessage("hi")}, nil); err != nil {
		t.Fatalf("Response: %v", err)
	}
}
