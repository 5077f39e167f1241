// Copyright (c) Microsoft. All rights reserved.

package agentloop_test

import (
	"strings"
	"testing"

	al "github.com/microsoft/agent-loop/go/agentloop"
)

func TestHistory_SystemMessageSeeding(t *testing.T) {
	h := al.NewHistory("You are terse.")
	msgs := h.Messages()
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if msgs[0].Role != al.RoleSystem || msgs[0].Text() != "You are terse." {
		t.Errorf("seed message = %+v", msgs[0])
	}

	empty := al.NewHistory("")
	if empty.Len() != 0 {
		t.Errorf("empty instructions should seed nothing, Len = %d", empty.Len())
	}
}

func TestHistory_AppendStampsMessageIDs(t *testing.T) {
	h := al.NewHistory("")
	h.Append(al.NewUserMessage("hi"))
	h.Append(al.Message{Role: al.RoleUser, MessageID: "fixed-id"})

	msgs := h.Messages()
	if msgs[0].MessageID == "" {
		t.Error("appended message should receive a generated ID")
	}
	if msgs[1].MessageID != "fixed-id" {
		t.Errorf("existing ID overwritten: %q", msgs[1].MessageID)
	}
}

func TestHistory_MessagesReturnsSnapshot(t *testing.T) {
	h := al.NewHistory("")
	h.Append(al.NewUserMessage("one"))

	snap := h.Messages()
	h.Append(al.NewUserMessage("two"))

	if len(snap) != 1 {
		t.Errorf("snapshot grew with later appends: len = %d", len(snap))
	}
	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
}

func TestHistory_ResetWithAndWithoutSystem(t *testing.T) {
	withSys := al.NewHistory("sys")
	withSys.Append(al.NewUserMessage("a"), al.NewAssistantMessage("b"))
	withSys.Reset()
	withSys.Reset()
	if withSys.Len() != 1 || withSys.Messages()[0].Role != al.RoleSystem {
		t.Errorf("reset with system: %+v", withSys.Messages())
	}

	noSys := al.NewHistory("")
	noSys.Append(al.NewUserMessage("a"))
	noSys.Reset()
	noSys.Reset()
	if noSys.Len() != 0 {
		t.Errorf("reset without system: Len = %d, want 0", noSys.Len())
	}
}

func TestHistory_RestoreDetectsSystemPrefix(t *testing.T) {
	h := al.NewHistory("")
	h.Restore([]al.Message{
		al.NewSystemMessage("restored"),
		al.NewUserMessage("q"),
		al.NewAssistantMessage("a"),
	})

	h.Reset()
	msgs := h.Messages()
	if len(msgs) != 1 || msgs[0].Text() != "restored" {
		t.Errorf("restored system prefix should survive reset: %+v", msgs)
	}
}

func assistantWithCalls(ids ...string) al.Message {
	m := al.Message{Role: al.RoleAssistant}
	for _, id := range ids {
		m.Contents = append(m.Contents, &al.FunctionCallContent{
			CallID: id, Name: "echo", Arguments: `{}`,
		})
	}
	return m
}

func TestHistory_CheckPairing(t *testing.T) {
	tests := []struct {
		name    string
		msgs    []al.Message
		wantErr string
	}{
		{
			name: "single call answered",
			msgs: []al.Message{
				al.NewUserMessage("q"),
				assistantWithCalls("c1"),
				al.NewToolResultMessage("c1", "ok"),
				al.NewAssistantMessage("done"),
			},
		},
		{
			name: "parallel calls answered in order",
			msgs: []al.Message{
				al.NewUserMessage("q"),
				assistantWithCalls("c1", "c2"),
				al.NewToolResultMessage("c1", "ok"),
				al.NewToolResultMessage("c2", "ok"),
				al.NewAssistantMessage("done"),
			},
		},
		{
			name: "missing result",
			msgs: []al.Message{
				assistantWithCalls("c1"),
			},
			wantErr: "no result",
		},
		{
			name: "answered out of order",
			msgs: []al.Message{
				assistantWithCalls("c1", "c2"),
				al.NewToolResultMessage("c2", "ok"),
				al.NewToolResultMessage("c1", "ok"),
			},
			wantErr: "answered by result",
		},
		{
			name: "interrupted by other role",
			msgs: []al.Message{
				assistantWithCalls("c1"),
				al.NewAssistantMessage("barged in"),
			},
			wantErr: "followed by assistant",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := al.NewHistory("")
			h.Restore(tt.msgs)
			err := h.CheckPairing()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckPairing = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckPairing = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
