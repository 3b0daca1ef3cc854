package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies the semantic category of an Event. The set is closed;
// consumers must ignore kinds they do not recognize so the stream can grow
// without breaking older presentation layers.
type EventKind string

const (
	// EventLog is a free-form progress note.
	EventLog EventKind = "log"
	// EventPlan carries the ordered step list produced by the planner.
	EventPlan EventKind = "plan"
	// EventStepStart announces that a plan step begins executing.
	EventStepStart EventKind = "step_start"
	// EventToolCall announces dispatch of a named tool.
	EventToolCall EventKind = "tool_call"
	// EventToolResult carries the (possibly truncated) output of a tool call.
	EventToolResult EventKind = "tool_result"
	// EventThought carries inner monologue or critique text.
	EventThought EventKind = "thought"
	// EventFinalAnswer carries the user-facing response and terminates a run.
	EventFinalAnswer EventKind = "final_answer"
	// EventError carries a fatal failure and terminates a run.
	EventError EventKind = "error"
	// EventSetupComplete signals successful engine initialization.
	EventSetupComplete EventKind = "setup_complete"
)

// Event is one immutable unit of progress produced by the execution engine.
// Payload is kind-dependent: a string for most kinds, []string for plan
// events. Ownership passes to the consumer on emission; producers must not
// mutate an event after sending it.
type Event struct {
	ID        string         `json:"id"`
	Kind      EventKind      `json:"kind"`
	Payload   any            `json:"payload"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewID generates a collision-resistant identifier used for events,
// instances and scheduled jobs.
func NewID() string { return uuid.NewString() }

// NewEvent creates an event of the given kind with payload and optional
// metadata. Prefer the kind-specific constructors below.
func NewEvent(kind EventKind, payload any, metadata map[string]any) Event {
	return Event{
		ID:        NewID(),
		Kind:      kind,
		Payload:   payload,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// NewLogEvent creates a free-form progress note.
func NewLogEvent(message string) Event {
	return NewEvent(EventLog, message, nil)
}

// NewPlanEvent creates a plan event carrying the ordered steps and the
// thinking mode that produced them.
func NewPlanEvent(steps []string, mode string) Event {
	return NewEvent(EventPlan, steps, map[string]any{"mode": mode})
}

// NewStepStartEvent announces step execution. Index is 1-based.
func NewStepStartEvent(step string, index, total int) Event {
	return NewEvent(EventStepStart, step, map[string]any{
		"step_index":  index,
		"total_steps": total,
	})
}

// NewToolCallEvent announces dispatch of a tool with its arguments.
func NewToolCallEvent(toolName string, args map[string]any) Event {
	return NewEvent(EventToolCall, toolName, map[string]any{"args": args})
}

// NewToolResultEvent carries a preview of a tool's output; the untruncated
// result rides in metadata under "full_content".
func NewToolResultEvent(preview, full string) Event {
	return NewEvent(EventToolResult, preview, map[string]any{"full_content": full})
}

// NewThoughtEvent carries inner monologue or critique text.
func NewThoughtEvent(thought string) Event {
	return NewEvent(EventThought, thought, nil)
}

// NewFinalAnswerEvent carries the synthesized user-facing response.
func NewFinalAnswerEvent(text string) Event {
	return NewEvent(EventFinalAnswer, text, nil)
}

// NewErrorEvent carries a fatal failure description.
func NewErrorEvent(message string) Event {
	return NewEvent(EventError, message, nil)
}

// NewSetupCompleteEvent signals successful initialization.
func NewSetupCompleteEvent(message string, toolCount int) Event {
	return NewEvent(EventSetupComplete, message, map[string]any{"tool_count": toolCount})
}

// Text returns the payload as a string, or "" when the payload is not a
// string (e.g. plan events).
func (e Event) Text() string {
	s, _ := e.Payload.(string)
	return s
}

// Steps returns the payload as a step list, or nil for non-plan events.
func (e Event) Steps() []string {
	steps, _ := e.Payload.([]string)
	return steps
}

// IsTerminal reports whether this event ends a run's event stream. Every run
// terminates in exactly one terminal event.
func (e Event) IsTerminal() bool {
	return e.Kind == EventFinalAnswer || e.Kind == EventError
}
