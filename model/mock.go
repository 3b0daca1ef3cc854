package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/solara-ai/solara/core"
)

// MockGateway is a lightweight in-memory Gateway useful for tests and
// examples. Responses can be keyed on a substring of the last message or
// queued in script order; scripted responses win over keyed ones.
type MockGateway struct {
	mu        sync.Mutex
	info      Info
	keyed     map[string]*Response
	script    []*Response
	scriptErr []error
	calls     []Request
}

// NewMockGateway constructs a MockGateway with tool support enabled.
func NewMockGateway(name string) *MockGateway {
	return &MockGateway{
		info:  Info{Name: name, Provider: "mock", SupportsTools: true},
		keyed: make(map[string]*Response),
	}
}

// AddResponse registers a canned text reply for any request whose last
// message contains the given substring.
func (m *MockGateway) AddResponse(substr, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyed[substr] = &Response{Text: text}
}

// Enqueue appends a scripted response consumed in FIFO order.
func (m *MockGateway) Enqueue(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
	m.scriptErr = append(m.scriptErr, nil)
}

// EnqueueError appends a scripted failure consumed in FIFO order.
func (m *MockGateway) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, nil)
	m.scriptErr = append(m.scriptErr, err)
}

// EnqueueToolCall appends a scripted single tool call response.
func (m *MockGateway) EnqueueToolCall(name string, args map[string]any) {
	m.Enqueue(&Response{ToolCalls: []core.ToolCall{{ID: core.NewID(), Name: name, Args: args}}})
}

// Calls returns a copy of every request the gateway has seen.
func (m *MockGateway) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Invoke implements Gateway.
func (m *MockGateway) Invoke(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.script) > 0 {
		resp, err := m.script[0], m.scriptErr[0]
		m.script = m.script[1:]
		m.scriptErr = m.scriptErr[1:]
		if err != nil {
			return nil, err
		}
		return resp, nil
	}

	var last string
	if n := len(req.Messages); n > 0 {
		last = req.Messages[n-1].Text
	}
	for substr, resp := range m.keyed {
		if strings.Contains(last, substr) {
			return resp, nil
		}
	}
	return &Response{Text: fmt.Sprintf("Mock response to: %s", last)}, nil
}

// Info implements Gateway.
func (m *MockGateway) Info() Info { return m.info }
