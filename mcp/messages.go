package mcp

import "encoding/json"

// InitializeParams are the params of the initialize request. All three
// fields are required; clientInfo and capabilities are opaque to the engine.
type InitializeParams struct {
	ProtocolVersion string          `json:"protocolVersion"`
	ClientInfo      json.RawMessage `json:"clientInfo"`
	Capabilities    json.RawMessage `json:"capabilities"`
}

// InitializeResult is the result of a successful initialize exchange.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// ToolsListResult is the result of tools/list. Pagination is a single page;
// the cursor is always empty.
type ToolsListResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor"`
}

// ToolsCallParams are the params of tools/call.
type ToolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolsCallResult is the result of tools/call. A handler failure is still a
// structurally valid result: IsError is set and the error text travels as
// content.
type ToolsCallResult struct {
	Content           []TextContent   `json:"content"`
	IsError           bool            `json:"isError"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
}

// PromptsListResult is the result of prompts/list.
type PromptsListResult struct {
	Prompts []Prompt `json:"prompts"`
}

// PromptsGetParams are the params of prompts/get.
type PromptsGetParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// PromptsGetResult is the result of prompts/get. On handler failure the
// description carries the error text and the message list is empty.
type PromptsGetResult struct {
	Description string          `json:"description"`
	Messages    []PromptMessage `json:"messages"`
}
