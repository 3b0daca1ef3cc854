package core

// Role identifies the speaker of a conversation message.
type Role string

const (
	// RoleSystem marks directives injected by the runtime.
	RoleSystem Role = "system"
	// RoleUser marks the original request text.
	RoleUser Role = "user"
	// RoleAssistant marks model output (text or tool call requests).
	RoleAssistant Role = "assistant"
	// RoleTool marks tool invocation results fed back to the model.
	RoleTool Role = "tool"
)

// ToolCall is a function invocation request surfaced by a model gateway,
// normalized across providers so downstream logic needs no vendor branching.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is the textual outcome of a previously requested tool call.
// Content is always text: tool failures are converted into error text rather
// than propagated, so the conversation can continue. IsError marks results
// produced by a failed or unresolved invocation.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Message is one turn of the conversation held in a Transcript. Exactly one
// of Text / ToolCalls / ToolResult is meaningful for a given role:
// assistant turns may carry tool calls instead of text, tool turns carry a
// single result.
type Message struct {
	Role       Role        `json:"role"`
	Text       string      `json:"text,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// SystemMessage creates a runtime directive turn.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

// UserMessage creates a user request turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// AssistantMessage creates a plain assistant text turn.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// AssistantToolCalls creates an assistant turn requesting tool invocations.
func AssistantToolCalls(calls []ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// ToolResultMessage creates a tool result turn answering a prior call.
func ToolResultMessage(result ToolResult) Message {
	return Message{Role: RoleTool, ToolResult: &result}
}
