// Copyright (c) Microsoft. All rights reserved.

package agentloop

// ContentType identifies the kind of content within a message.
type ContentType string

const (
	ContentTypeText           ContentType = "text"
	ContentTypeFunctionCall   ContentType = "functionCall"
	ContentTypeFunctionResult ContentType = "functionResult"
)

// Content is a sealed interface representing a piece of content within a
// [Message]. Use a type switch to inspect the underlying type.
type Content interface {
	// Type returns the discriminator for this content item.
	Type() ContentType

	// sealed prevents external implementations.
	sealed()
}

// base is embedded by every concrete Content type to satisfy the sealed marker.
type base struct{}

func (base) sealed() {}

// TextContent holds plain text.
type TextContent struct {
	base
	Text string
}

func (c *TextContent) Type() ContentType { return ContentTypeText }

// FunctionCallContent represents a tool call requested by the model. CallID
// correlates the request with its eventual [FunctionResultContent].
type FunctionCallContent struct {
	base
	CallID    string
	Name      string
	Arguments string // JSON-encoded arguments
}

func (c *FunctionCallContent) Type() ContentType { return ContentTypeFunctionCall }

// FunctionResultContent carries the textual outcome of a tool call back into
// the conversation. Tool failures travel through here as text, never as
// host-program errors.
type FunctionResultContent struct {
	base
	CallID string
	Result string
}

func (c *FunctionResultContent) Type() ContentType { return ContentTypeFunctionResult }
