// Copyright (c) Microsoft. All rights reserved.

package agentloop

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// History is the append-only conversation log owned by one [Agent]. An
// optional system message occupies the first slot and survives [History.Reset];
// every other message is discarded on reset.
//
// Messages are never mutated after append. [History.Messages] returns a
// snapshot, so a stored history can be replayed or persisted safely while the
// owning agent keeps running.
type History struct {
	mu        sync.Mutex
	messages  []Message
	hasSystem bool
}

// NewHistory creates a History, seeded with a system message when
// instructions is non-empty.
func NewHistory(instructions string) *History {
	h := &History{}
	if instructions != "" {
		h.messages = append(h.messages, stamped(NewSystemMessage(instructions)))
		h.hasSystem = true
	}
	return h
}

// Append adds messages to the end of the log. Each message receives a
// generated MessageID when it has none.
func (h *History) Append(msgs ...Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range msgs {
		h.messages = append(h.messages, stamped(m))
	}
}

// Messages returns a snapshot of the log in append order.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]Message, len(h.messages))
	copy(cp, h.messages)
	return cp
}

// Len returns the number of messages in the log.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Reset discards everything except the system message. Calling Reset on an
// already-reset history is a no-op.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasSystem {
		h.messages = h.messages[:1]
		return
	}
	h.messages = nil
}

// Restore replaces the entire log with msgs, typically loaded from a
// [MessageStore]. A leading system message becomes the reset-surviving prefix.
func (h *History) Restore(msgs []Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]Message, len(msgs))
	copy(h.messages, msgs)
	h.hasSystem = len(msgs) > 0 && msgs[0].Role == RoleSystem
}

// CheckPairing verifies the tool-call ordering invariant: every assistant
// message carrying k function calls must be immediately followed by exactly k
// tool-result messages whose call IDs match in request order, before any
// other message appears. A violation is a programming error in the loop, not
// a recoverable runtime state.
func (h *History) CheckPairing() error {
	msgs := h.Messages()
	for i := 0; i < len(msgs); i++ {
		calls := msgs[i].FunctionCalls()
		for j, call := range calls {
			k := i + 1 + j
			if k >= len(msgs) {
				return fmt.Errorf("call %q at message %d has no result", call.CallID, i)
			}
			next := msgs[k]
			if next.Role != RoleTool {
				return fmt.Errorf("call %q at message %d followed by %s message", call.CallID, i, next.Role)
			}
			fr := firstFunctionResult(next)
			if fr == nil {
				return fmt.Errorf("tool message %d has no function result", k)
			}
			if fr.CallID != call.CallID {
				return fmt.Errorf("call %q at message %d answered by result %q", call.CallID, i, fr.CallID)
			}
		}
		i += len(calls)
	}
	return nil
}

func firstFunctionResult(m Message) *FunctionResultContent {
	for _, c := range m.Contents {
		if fr, ok := c.(*FunctionResultContent); ok {
			return fr
		}
	}
	return nil
}

func stamped(m Message) Message {
	if m.MessageID == "" {
		m.MessageID = uuid.NewString()
	}
	return m
}
