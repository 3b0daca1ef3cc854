// Package tool implements the capability subsystem that lets the engine
// invoke structured tools (file access, shell commands, memory operations)
// with schema validated arguments and consistent error handling. The
// Registry maps tool names to invocable capabilities and builds the tool
// menu exposed to the model.
package tool

import (
	"context"
	"fmt"

	"github.com/solara-ai/solara/internal/schema"
)

// Tool is a named, invocable capability. Implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a minimal JSON schema for parameters
//   - Return textual results; structured data should be serialized
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description provided to the
	// model so it understands when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Invoke executes the tool. The returned string is fed back into the
	// conversation verbatim.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// ValidationError reports an argument that failed schema validation.
type ValidationError = schema.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
