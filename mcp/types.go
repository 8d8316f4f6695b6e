// Package mcp defines the wire-format types of the Model Context Protocol
// surface this engine implements: the initialize handshake, tool and prompt
// descriptors, and their request/result payloads.
package mcp

import "encoding/json"

// Role indicates the author of a prompt message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TextContent is a typed text block inside tool results and prompt messages.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextContent builds a text content block.
func NewTextContent(text string) TextContent {
	return TextContent{Type: "text", Text: text}
}

// Capability describes a single advertised capability. Neither list change
// notifications nor subscriptions are implemented, so both flags are always
// false on the wire.
type Capability struct {
	ListChanged bool `json:"listChanged"`
	Subscribe   bool `json:"subscribe"`
}

// ServerCapabilities summarizes what the server offers. A nil entry means
// the capability is absent (no tools or prompts registered).
type ServerCapabilities struct {
	Tools   *Capability `json:"tools"`
	Prompts *Capability `json:"prompts"`
}

// ServerInfo identifies the server implementation.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolAnnotations carries the fixed behavioral hints attached to every tool
// descriptor.
type ToolAnnotations struct {
	Title           string `json:"title"`
	ReadOnlyHint    bool   `json:"readOnlyHint"`
	DestructiveHint bool   `json:"destructiveHint"`
	IdempotentHint  bool   `json:"idempotentHint"`
	OpenWorldHint   bool   `json:"openWorldHint"`
}

// Tool is the schema-rendered descriptor of a registered tool. The schemas
// are generated once at registration time and are stable across calls.
type Tool struct {
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	InputSchema  json.RawMessage `json:"inputSchema"`
	OutputSchema json.RawMessage `json:"outputSchema"`
	Annotations  ToolAnnotations `json:"annotations"`
	Meta         json.RawMessage `json:"meta,omitempty"`
}

// PromptArgument describes one named argument of a prompt.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Prompt is the descriptor of a registered prompt.
type Prompt struct {
	Name        string           `json:"name"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Arguments   []PromptArgument `json:"arguments"`
}

// PromptMessage is a role-tagged text message produced by a prompt handler.
type PromptMessage struct {
	Role    Role        `json:"role"`
	Content TextContent `json:"content"`
}
