package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventAssignsIDAndTimestamp(t *testing.T) {
	ev := NewLogEvent("booting")

	require.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, EventLog, ev.Kind)
	assert.Equal(t, "booting", ev.Text())
}

func TestEventIDsAreUnique(t *testing.T) {
	a := NewLogEvent("a")
	b := NewLogEvent("b")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPlanEventCarriesStepsAndMode(t *testing.T) {
	ev := NewPlanEvent([]string{"step one", "step two"}, "DEEP")

	require.Equal(t, EventPlan, ev.Kind)
	assert.Equal(t, []string{"step one", "step two"}, ev.Steps())
	assert.Equal(t, "DEEP", ev.Metadata["mode"])
	assert.Empty(t, ev.Text(), "plan payload is not a string")
}

func TestStepStartMetadata(t *testing.T) {
	ev := NewStepStartEvent("write the file", 2, 3)

	assert.Equal(t, "write the file", ev.Text())
	assert.Equal(t, 2, ev.Metadata["step_index"])
	assert.Equal(t, 3, ev.Metadata["total_steps"])
}

func TestToolResultKeepsFullContent(t *testing.T) {
	ev := NewToolResultEvent("short…", "the full untruncated output")

	assert.Equal(t, "short…", ev.Text())
	assert.Equal(t, "the full untruncated output", ev.Metadata["full_content"])
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		name     string
		ev       Event
		terminal bool
	}{
		{"final answer", NewFinalAnswerEvent("done"), true},
		{"error", NewErrorEvent("boom"), true},
		{"log", NewLogEvent("working"), false},
		{"thought", NewThoughtEvent("hmm"), false},
		{"setup", NewSetupCompleteEvent("online", 3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.ev.IsTerminal())
		})
	}
}
