// Copyright (c) Microsoft. All rights reserved.

package agentloop

import (
	"encoding/json"
	"fmt"
)

// contentEnvelope is the wire form of a [Content] value: a $type discriminator
// plus the union of all concrete fields. Fields not belonging to the
// discriminated type stay empty and are omitted.
type contentEnvelope struct {
	Type      string `json:"$type"`
	Text      string `json:"text,omitempty"`
	CallID    string `json:"callId,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Result    string `json:"result,omitempty"`
}

// MarshalContentJSON marshals a single Content value into its JSON envelope.
// The envelope carries a $type discriminator so polymorphic content survives
// a round trip through a [MessageStore].
func MarshalContentJSON(c Content) ([]byte, error) {
	var env contentEnvelope
	switch v := c.(type) {
	case *TextContent:
		env = contentEnvelope{Type: string(ContentTypeText), Text: v.Text}
	case *FunctionCallContent:
		env = contentEnvelope{
			Type:      string(ContentTypeFunctionCall),
			CallID:    v.CallID,
			Name:      v.Name,
			Arguments: v.Arguments,
		}
	case *FunctionResultContent:
		env = contentEnvelope{
			Type:   string(ContentTypeFunctionResult),
			CallID: v.CallID,
			Result: v.Result,
		}
	default:
		return nil, fmt.Errorf("unknown content type: %T", c)
	}
	return json.Marshal(env)
}

// UnmarshalContentJSON unmarshals a single Content value from its JSON envelope.
func UnmarshalContentJSON(data []byte) (Content, error) {
	var env contentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal content envelope: %w", err)
	}

	switch ContentType(env.Type) {
	case ContentTypeText:
		return &TextContent{Text: env.Text}, nil
	case ContentTypeFunctionCall:
		return &FunctionCallContent{CallID: env.CallID, Name: env.Name, Arguments: env.Arguments}, nil
	case ContentTypeFunctionResult:
		return &FunctionResultContent{CallID: env.CallID, Result: env.Result}, nil
	default:
		return nil, fmt.Errorf("unknown content $type: %q", env.Type)
	}
}

// Contents is a typed slice enabling JSON marshal/unmarshal of polymorphic
// Content arrays.
type Contents []Content

// MarshalJSON serializes each Content item using its $type discriminator.
func (cs Contents) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, 0, len(cs))
	for i, c := range cs {
		b, err := MarshalContentJSON(c)
		if err != nil {
			return nil, fmt.Errorf("marshal content[%d]: %w", i, err)
		}
		items = append(items, b)
	}
	return json.Marshal(items)
}

// UnmarshalJSON deserializes a JSON array of Content items using the $type
// discriminator.
func (cs *Contents) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Contents, 0, len(raw))
	for i, r := range raw {
		c, err := UnmarshalContentJSON(r)
		if err != nil {
			return fmt.Errorf("unmarshal content[%d]: %w", i, err)
		}
		out = append(out, c)
	}
	*cs = out
	return nil
}
