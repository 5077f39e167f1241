// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	al "github.com/microsoft/agent-loop/go/agentloop"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"

	// Token scope for Azure AD authentication against Azure OpenAI.
	azureScope = "https://cognitiveservices.azure.com/.default"
)

// transport abstracts the HTTP round trip so tests can inject a mock through
// [WithHTTPClient] or replace the whole thing.
type transport interface {
	do(ctx context.Context, method, path string, body any) (*http.Response, error)
}

type httpTransport struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	org        string
	headers    map[string]string
	credential azcore.TokenCredential
}

func newHTTPTransport(apiKey string, cfg *clientConfig) *httpTransport {
	t := &httpTransport{
		client:     cfg.httpClient,
		baseURL:    cfg.baseURL,
		apiKey:     apiKey,
		org:        cfg.organization,
		headers:    cfg.headers,
		credential: cfg.azureCredential,
	}
	if t.baseURL == "" {
		t.baseURL = defaultBaseURL
	}
	if t.client == nil {
		// The timeout covers the full request including body read.
		t.client = &http.Client{Timeout: cfg.requestTimeout}
	}
	return t
}

func (t *httpTransport) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	req, err := t.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, serviceErrorFrom(resp)
	}
	return resp, nil
}

func (t *httpTransport) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.org != "" {
		req.Header.Set("OpenAI-Organization", t.org)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	if err := t.authorize(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// authorize attaches credentials: an Azure AD bearer token when a credential
// is configured, otherwise the API key. An explicit "api-key" header (Azure
// key auth) suppresses the Authorization header entirely.
func (t *httpTransport) authorize(ctx context.Context, req *http.Request) error {
	if t.credential != nil {
		token, err := t.credential.GetToken(ctx, policy.TokenRequestOptions{
			Scopes: []string{azureScope},
		})
		if err != nil {
			return fmt.Errorf("get azure token: %w", err)
		}
		slog.DebugContext(ctx, "using Azure AD token authentication",
			"token_expires_on", token.ExpiresOn)
		req.Header.Set("Authorization", "Bearer "+token.Token)
		return nil
	}
	if req.Header.Get("api-key") == "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	return nil
}

// serviceErrorFrom reads a non-2xx response body and maps it onto the loop's
// error tree.
func serviceErrorFrom(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = string(body)
	}

	svcErr := &al.ServiceError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Code:       apiErr.Error.Code,
	}
	switch {
	case apiErr.Error.Code == "content_filter":
		svcErr.Err = al.ErrContentFilter
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		svcErr.Err = al.ErrAuth
	case resp.StatusCode == http.StatusBadRequest:
		svcErr.Err = al.ErrInvalidRequest
	default:
		svcErr.Err = al.ErrService
	}
	return svcErr
}
