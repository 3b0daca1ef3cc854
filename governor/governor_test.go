package governor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestGovernor(t *testing.T, optFns ...func(o *Options)) *Governor {
	t.Helper()
	g, err := Open(filepath.Join(t.TempDir(), "instances.db"), optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestRegisterAndList(t *testing.T) {
	g := openTestGovernor(t)
	ctx := context.Background()

	id, err := g.Register(ctx, "interactive session", SourceTerminal, KindInteractive)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	active, err := g.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)
	assert.Equal(t, SourceTerminal, active[0].Source)
	assert.Equal(t, "starting", active[0].Status)
}

func TestCapacityBound(t *testing.T) {
	g := openTestGovernor(t, func(o *Options) {
		o.Capacity = 2
	})
	ctx := context.Background()

	_, err := g.Register(ctx, "one", SourceTest, KindBackground)
	require.NoError(t, err)
	id2, err := g.Register(ctx, "two", SourceTest, KindBackground)
	require.NoError(t, err)

	_, err = g.Register(ctx, "three", SourceTest, KindBackground)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExhausted))

	require.NoError(t, g.Unregister(ctx, id2))

	_, err = g.Register(ctx, "three again", SourceTest, KindBackground)
	assert.NoError(t, err)
}

func TestStaleReclamation(t *testing.T) {
	deadPIDs := map[int]bool{}
	g := openTestGovernor(t, func(o *Options) {
		o.Capacity = 1
		o.Alive = func(pid int) bool { return !deadPIDs[pid] }
	})
	ctx := context.Background()

	_, err := g.Register(ctx, "doomed", SourceTest, KindBackground)
	require.NoError(t, err)

	_, err = g.Register(ctx, "blocked", SourceTest, KindBackground)
	require.ErrorIs(t, err, ErrCapacityExhausted)

	// Simulate the owning process dying: the slot frees itself on the next
	// register without manual cleanup.
	active, err := g.ListActive(ctx)
	require.NoError(t, err)
	deadPIDs[active[0].PID] = true

	id, err := g.Register(ctx, "revived", SourceTest, KindBackground)
	require.NoError(t, err)

	active, err = g.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)
}

func TestStaleReclamationViaList(t *testing.T) {
	alive := true
	g := openTestGovernor(t, func(o *Options) {
		o.Alive = func(int) bool { return alive }
	})
	ctx := context.Background()

	_, err := g.Register(ctx, "ephemeral", SourceTest, KindBackground)
	require.NoError(t, err)

	alive = false
	active, err := g.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUpdateStatus(t *testing.T) {
	g := openTestGovernor(t)
	ctx := context.Background()

	id, err := g.Register(ctx, "worker", SourceScheduled, KindScheduled)
	require.NoError(t, err)

	require.NoError(t, g.UpdateStatus(ctx, id, "executing step 2/3"))

	active, err := g.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "executing step 2/3", active[0].Status)

	assert.Error(t, g.UpdateStatus(ctx, "no-such-id", "x"))
}

func TestUnregisterUnknownIsNoOp(t *testing.T) {
	g := openTestGovernor(t)
	assert.NoError(t, g.Unregister(context.Background(), "missing"))
}

func TestConcurrentRegistrationsRespectBound(t *testing.T) {
	g := openTestGovernor(t, func(o *Options) {
		o.Capacity = 3
	})
	ctx := context.Background()

	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := g.Register(ctx, "racer", SourceTest, KindBackground)
			results <- err
		}()
	}

	admitted := 0
	for i := 0; i < 10; i++ {
		if err := <-results; err == nil {
			admitted++
		} else {
			require.ErrorIs(t, err, ErrCapacityExhausted)
		}
	}
	assert.Equal(t, 3, admitted)

	active, err := g.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 3)
}
