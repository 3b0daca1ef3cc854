package runner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/engine"
	"github.com/solara-ai/solara/governor"
	"github.com/solara-ai/solara/model"
	"github.com/solara-ai/solara/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptedEngine(t *testing.T, answer string) *engine.Engine {
	t.Helper()
	fast := model.NewMockGateway("fast")
	fast.Enqueue(&model.Response{Text: "SHALLOW"})
	deep := model.NewMockGateway("deep")
	deep.Enqueue(&model.Response{Text: "quick thought"})
	def := model.NewMockGateway("default")
	def.Enqueue(&model.Response{Text: "RESPONSE_INSTRUCTION: reply"})
	def.Enqueue(&model.Response{Text: answer})

	e, err := engine.New(model.Set{Fast: fast, Deep: deep, Default: def}, nil)
	require.NoError(t, err)
	return e
}

func openGovernor(t *testing.T, capacity int) *governor.Governor {
	t.Helper()
	g, err := governor.Open(filepath.Join(t.TempDir(), "instances.db"), func(o *governor.Options) {
		o.Capacity = capacity
	})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestExecute_StreamsAndReleasesSlot(t *testing.T) {
	gov := openGovernor(t, 1)
	r := New(gov, nil)
	ctx := context.Background()

	var finals []string
	err := r.Execute(ctx, scriptedEngine(t, "Hello!"), "Oi", governor.SourceTest, governor.KindInteractive, func(ev core.Event) {
		if ev.Kind == core.EventFinalAnswer {
			finals = append(finals, ev.Text())
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello!"}, finals)

	active, err := gov.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active, "slot must be released after the run")
}

func TestExecute_TracksRunPhases(t *testing.T) {
	gov := openGovernor(t, 1)
	r := New(gov, nil)
	ctx := context.Background()

	statusAt := map[core.EventKind]string{}
	err := r.Execute(ctx, scriptedEngine(t, "done"), "Oi", governor.SourceTest, governor.KindInteractive, func(ev core.Event) {
		if ev.Kind != core.EventStepStart && ev.Kind != core.EventFinalAnswer {
			return
		}
		active, err := gov.ListActive(ctx)
		if err == nil && len(active) == 1 {
			statusAt[ev.Kind] = active[0].Status
		}
	})
	require.NoError(t, err)

	assert.Equal(t, "executing", statusAt[core.EventStepStart])
	assert.Equal(t, "responding", statusAt[core.EventFinalAnswer])
}

func TestExecute_RefusedWhenFull(t *testing.T) {
	gov := openGovernor(t, 1)
	ctx := context.Background()

	_, err := gov.Register(ctx, "occupier", governor.SourceTest, governor.KindBackground)
	require.NoError(t, err)

	r := New(gov, nil)
	err = r.Execute(ctx, scriptedEngine(t, "x"), "request", governor.SourceTest, governor.KindInteractive, func(core.Event) {})
	assert.ErrorIs(t, err, governor.ErrCapacityExhausted)
}

func TestDispatchJob_RunsToCompletion(t *testing.T) {
	gov := openGovernor(t, 2)
	factory := func() (*engine.Engine, error) {
		return scriptedEngine(t, "job done"), nil
	}
	r := New(gov, factory)

	r.DispatchJob(context.Background(), scheduler.Job{ID: "j1", Description: "daily check"})

	active, err := gov.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}
