// Copyright (c) Microsoft. All rights reserved.

package agentloop_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	al "github.com/microsoft/agent-loop/go/agentloop"
)

func echoTool(name string) al.Tool {
	return al.NewTool(name, "Echoes its input", nil,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return string(args), nil
		})
}

func TestRegistry_Register(t *testing.T) {
	reg := al.NewRegistry()

	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}

	tool, ok := reg.Get("echo")
	if !ok || tool.Name() != "echo" {
		t.Errorf("Get(echo) = %v, %v", tool, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(missing) should report absence")
	}
}

func TestRegistry_RegisterRejectsBadTools(t *testing.T) {
	reg := al.NewRegistry()

	if err := reg.Register(nil); !errors.Is(err, al.ErrInvalidTool) {
		t.Errorf("Register(nil) = %v, want ErrInvalidTool", err)
	}
	if err := reg.Register(echoTool("")); !errors.Is(err, al.ErrInvalidTool) {
		t.Errorf("Register(empty name) = %v, want ErrInvalidTool", err)
	}

	if err := reg.Register(echoTool("dup")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := reg.Register(echoTool("dup"))
	if !errors.Is(err, al.ErrDuplicateTool) {
		t.Errorf("duplicate = %v, want ErrDuplicateTool", err)
	}
	if !errors.Is(err, al.ErrTool) {
		t.Error("ErrDuplicateTool should wrap ErrTool")
	}
	if reg.Len() != 1 {
		t.Errorf("failed registrations must not grow the registry: Len = %d", reg.Len())
	}
}

func TestRegistry_ToolsRegistrationOrder(t *testing.T) {
	reg := al.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(echoTool(name)); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	var got []string
	for _, tool := range reg.Tools() {
		got = append(got, tool.Name())
	}
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tools order = %v, want %v", got, want)
		}
	}
}

func TestRegistry_InvokeUnknownTool(t *testing.T) {
	reg := al.NewRegistry()
	result := reg.Invoke(context.Background(), "ghost", nil)
	if !strings.Contains(result, "unknown tool") || !strings.Contains(result, "ghost") {
		t.Errorf("result = %q", result)
	}
}

func TestRegistry_InvokeMalformedArguments(t *testing.T) {
	reg := al.NewRegistry()
	if err := reg.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	result := reg.Invoke(context.Background(), "echo", json.RawMessage(`{not json`))
	if !strings.HasPrefix(result, "Error: invalid arguments") {
		t.Errorf("result = %q", result)
	}
}

func TestRegistry_InvokeValidatesSchema(t *testing.T) {
	type args struct {
		City string `json:"city" jsonschema:"description=City name,required"`
		Days int    `json:"days"`
	}
	tool := al.NewTypedTool("forecast", "Weather forecast",
		func(ctx context.Context, a args) (any, error) {
			return fmt.Sprintf("%s:%d", a.City, a.Days), nil
		})

	reg := al.NewRegistry()
	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name string
		args string
		want string
	}{
		{"valid", `{"city":"Oslo","days":3}`, "Oslo:3"},
		{"missing required", `{"days":3}`, `Error: invalid arguments for "forecast": missing required field "city"`},
		{"wrong type", `{"city":42}`, `Error: invalid arguments for "forecast": field "city": expected string but got float64`},
		{"non-integer", `{"city":"Oslo","days":1.5}`, `Error: invalid arguments for "forecast": field "days": expected integer but got float64`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Invoke(context.Background(), "forecast", json.RawMessage(tt.args))
			if got != tt.want {
				t.Errorf("Invoke = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistry_InvokeEmptyArguments(t *testing.T) {
	called := false
	tool := al.NewTool("ping", "d", nil,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			called = true
			return "pong", nil
		})

	reg := al.NewRegistry()
	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got := reg.Invoke(context.Background(), "ping", nil); got != "pong" {
		t.Errorf("Invoke = %q, want pong", got)
	}
	if !called {
		t.Error("tool was not invoked")
	}
}

func TestRegistry_InvokeRecoversPanic(t *testing.T) {
	tool := al.NewTool("bomb", "Panics", nil,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			panic("kaboom")
		})

	reg := al.NewRegistry()
	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register: %v", err)
	}

	result := reg.Invoke(context.Background(), "bomb", nil)
	if !strings.HasPrefix(result, "Error:") || !strings.Contains(result, "kaboom") {
		t.Errorf("result = %q, want a recovered panic error string", result)
	}
}

func TestRegistry_InvokeSerializesResults(t *testing.T) {
	reg := al.NewRegistry()

	mk := func(name string, v any) {
		t.Helper()
		tool := al.NewTool(name, "d", nil,
			func(ctx context.Context, args json.RawMessage) (any, error) { return v, nil })
		if err := reg.Register(tool); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}
	mk("str", "plain text")
	mk("bytes", []byte("raw bytes"))
	mk("num", 42)
	mk("obj", map[string]any{"temp": 21.5})
	mk("none", nil)

	tests := []struct {
		tool string
		want string
	}{
		{"str", "plain text"},
		{"bytes", "raw bytes"},
		{"num", "42"},
		{"obj", `{"temp":21.5}`},
		{"none", ""},
	}
	for _, tt := range tests {
		if got := reg.Invoke(context.Background(), tt.tool, nil); got != tt.want {
			t.Errorf("Invoke(%s) = %q, want %q", tt.tool, got, tt.want)
		}
	}
}

func TestRegistry_InvokeToolError(t *testing.T) {
	tool := al.NewTool("fail", "Always fails", nil,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return nil, fmt.Errorf("upstream unavailable")
		})

	reg := al.NewRegistry()
	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got := reg.Invoke(context.Background(), "fail", nil)
	if got != "Error: upstream unavailable" {
		t.Errorf("Invoke = %q", got)
	}
}
