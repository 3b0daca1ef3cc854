package model

import (
	"context"
	"fmt"

	"github.com/solara-ai/solara/core"
)

// ToolSpec declaratively exposes a callable capability to the model.
// Parameters is a minimal JSON Schema object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures one normalized gateway call. Instructions, when present,
// is sent as the leading system directive. Tools is optional; gateways
// without tool support ignore it and degrade to text-only.
type Request struct {
	Instructions string         `json:"instructions,omitempty"`
	Messages     []core.Message `json:"messages"`
	Tools        []ToolSpec     `json:"tools,omitempty"`
}

// Response is the gateway's answer: either free text, one or more tool call
// requests, or both. Exactly one Invoke yields exactly one Response.
type Response struct {
	Text      string          `json:"text,omitempty"`
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`
}

// HasToolCalls reports whether the model requested tool dispatch this turn.
func (r *Response) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// Info contains metadata about a gateway implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Gateway is the minimal interface the engine needs to drive generation.
// Implementations must be safe for concurrent use.
type Gateway interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
	Info() Info
}

// Set bundles the three capability tiers the engine consumes. Fast backs
// classification, Deep backs planning, reflection, and critique, Default
// backs step execution and response synthesis. Tiers may share a single
// gateway.
type Set struct {
	Fast    Gateway
	Deep    Gateway
	Default Gateway
}

// Validate reports an error when any tier is missing. A Set with no usable
// gateway is the one fatal initialization condition the engine refuses to
// run with.
func (s Set) Validate() error {
	if s.Fast == nil || s.Deep == nil || s.Default == nil {
		return fmt.Errorf("model set incomplete: all three tiers (fast, deep, default) are required")
	}
	return nil
}

// Uniform builds a Set where all tiers share one gateway.
func Uniform(g Gateway) Set {
	return Set{Fast: g, Deep: g, Default: g}
}

// GatewayFunc adapts a plain function to the Gateway interface. Handy for
// tests and composition.
type GatewayFunc func(ctx context.Context, req Request) (*Response, error)

// Invoke implements Gateway.
func (f GatewayFunc) Invoke(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Info implements Gateway.
func (f GatewayFunc) Info() Info {
	return Info{Name: "func", Provider: "func", SupportsTools: true}
}
