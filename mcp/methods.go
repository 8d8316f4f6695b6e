package mcp

// Method is an MCP method identifier used in JSON-RPC messages.
type Method string

// Supported MCP method names.
const (
	InitializeMethod Method = "initialize"

	ToolsListMethod Method = "tools/list"
	ToolsCallMethod Method = "tools/call"

	PromptsListMethod Method = "prompts/list"
	PromptsGetMethod  Method = "prompts/get"
)

// ToolsMethodPrefix and PromptsMethodPrefix group the namespaced methods for
// routing.
const (
	ToolsMethodPrefix   = "tools/"
	PromptsMethodPrefix = "prompts/"
)

// IsSupportedMethod reports whether the method belongs to the closed set the
// dispatcher routes. Notification methods are recognized separately by their
// prefix.
func IsSupportedMethod(method string) bool {
	switch Method(method) {
	case InitializeMethod, ToolsListMethod, ToolsCallMethod, PromptsListMethod, PromptsGetMethod:
		return true
	default:
		return false
	}
}
