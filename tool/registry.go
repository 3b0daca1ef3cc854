package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/model"
)

// Registry holds the tools available to an engine run. It is safe for
// concurrent use; discovery may register and unregister tools while the
// engine is dispatching.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// RegisterAll adds every given tool.
func (r *Registry) RegisterAll(tools ...Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
}

// Unregister removes a tool by name. Removing an absent name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns the named tool, or false if it is not registered.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered tools ordered by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	tools := make([]Tool, len(names))
	for i, name := range names {
		tools[i] = r.tools[name]
	}
	return tools
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Overview renders a compact "name: description" listing for inclusion in
// prompts so the planner and executor know what capabilities exist.
func (r *Registry) Overview() string {
	tools := r.List()
	if len(tools) == 0 {
		return "No tools available."
	}
	var sb strings.Builder
	for _, t := range tools {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name(), t.Description())
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Specs returns model.ToolSpec entries for every registered tool, for
// attaching to gateway requests.
func (r *Registry) Specs() []model.ToolSpec {
	tools := r.List()
	specs := make([]model.ToolSpec, len(tools))
	for i, t := range tools {
		specs[i] = model.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return specs
}

// Dispatch resolves and invokes the tool named by the call, always returning
// a result the conversation can continue with. An unknown tool name and a
// failing invocation both become textual results rather than errors, so the
// model can observe the failure and adjust.
func (r *Registry) Dispatch(ctx context.Context, call core.ToolCall) core.ToolResult {
	t, ok := r.Get(call.Name)
	if !ok {
		return core.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("Error: tool %q not found", call.Name),
			IsError: true,
		}
	}

	content, err := t.Invoke(ctx, call.Args)
	if err != nil {
		return core.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("Error: %s", err.Error()),
			IsError: true,
		}
	}
	return core.ToolResult{CallID: call.ID, Name: call.Name, Content: content}
}
