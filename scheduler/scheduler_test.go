package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestScheduler(t *testing.T, optFns ...func(o *Options)) *Scheduler {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "jobs.db"), optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseTrigger_EveryMinutes(t *testing.T) {
	trigger, err := ParseTrigger("every 15 minutes")
	require.NoError(t, err)
	assert.True(t, trigger.Recurring)

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(15*time.Minute), trigger.Next(now))
}

func TestParseTrigger_EveryHours(t *testing.T) {
	trigger, err := ParseTrigger("Every 2 Hours")
	require.NoError(t, err)
	assert.True(t, trigger.Recurring)

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(2*time.Hour), trigger.Next(now))
}

func TestParseTrigger_Cron(t *testing.T) {
	trigger, err := ParseTrigger("30 8 * * 1-5")
	require.NoError(t, err)
	assert.True(t, trigger.Recurring)

	// Friday 2026-08-28 07:00 UTC -> same day 08:30
	now := time.Date(2026, 8, 28, 7, 0, 0, 0, time.UTC)
	next := trigger.Next(now)
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, 30, next.Minute())
}

func TestParseTrigger_OneShot(t *testing.T) {
	trigger, err := ParseTrigger("2026-09-01T08:30:00Z")
	require.NoError(t, err)
	assert.False(t, trigger.Recurring)
	assert.Equal(t, time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC), trigger.Next(time.Now()).UTC())
}

func TestParseTrigger_Malformed(t *testing.T) {
	for _, spec := range []string{"", "whenever", "every banana minutes", "every 0 minutes", "61 25 * * *"} {
		_, err := ParseTrigger(spec)
		assert.ErrorIs(t, err, ErrBadRecurrence, "spec %q", spec)
	}
}

func TestAdd_MalformedTriggerRejected(t *testing.T) {
	s := openTestScheduler(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "bad job", "sometimes, maybe")
	require.ErrorIs(t, err, ErrBadRecurrence)

	jobs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs, "rejected jobs must not be stored")
}

func TestPoll_OneShotLifecycle(t *testing.T) {
	s := openTestScheduler(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.Add(ctx, "send the report", now.Add(2*time.Second).Format(time.RFC3339))
	require.NoError(t, err)

	due, err := s.Poll(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due, "job must not fire before its trigger time")

	due, err = s.Poll(ctx, now.Add(3*time.Second))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "send the report", due[0].Description)

	jobs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs, "fired one-shot must leave the store")
}

func TestPoll_RecurringAdvances(t *testing.T) {
	s := openTestScheduler(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "check mail", "every 1 minute")
	require.NoError(t, err)

	now := time.Now().Add(90 * time.Second)
	due, err := s.Poll(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)

	jobs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].NextRun.After(now), "recurring trigger must advance past now")

	// Not due again until the next interval elapses.
	due, err = s.Poll(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRemove(t *testing.T) {
	s := openTestScheduler(t)
	ctx := context.Background()

	id, err := s.Add(ctx, "cancel me", "every 5 minutes")
	require.NoError(t, err)

	removed, err := s.Remove(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRun_DispatchesDueJobs(t *testing.T) {
	s := openTestScheduler(t, func(o *Options) {
		o.PollInterval = 20 * time.Millisecond
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := s.Add(ctx, "immediate job", time.Now().Add(-time.Second).Format(time.RFC3339))
	require.NoError(t, err)

	var mu sync.Mutex
	var dispatched []string
	done := make(chan struct{})

	go s.Run(ctx, func(_ context.Context, job Job) {
		mu.Lock()
		dispatched = append(dispatched, job.Description)
		mu.Unlock()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not dispatched")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"immediate job"}, dispatched)
}

func TestRun_PollKeepsTickingWhilePoolIsBusy(t *testing.T) {
	s := openTestScheduler(t, func(o *Options) {
		o.PollInterval = 20 * time.Millisecond
		o.BackgroundSlots = 1
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := make(chan struct{})
	defer close(block)

	now := time.Now()
	_, err := s.Add(ctx, "slow job", now.Add(-time.Second).Format(time.RFC3339))
	require.NoError(t, err)
	_, err = s.Add(ctx, "queued job", now.Add(60*time.Millisecond).Format(time.RFC3339))
	require.NoError(t, err)
	_, err = s.Add(ctx, "later job", now.Add(140*time.Millisecond).Format(time.RFC3339))
	require.NoError(t, err)

	go s.Run(ctx, func(_ context.Context, _ Job) { <-block })

	// With one slot held by the slow job, later one-shots must still be
	// polled out of the store on time instead of waiting behind the pool.
	require.Eventually(t, func() bool {
		jobs, err := s.List(ctx)
		return err == nil && len(jobs) == 0
	}, 2*time.Second, 20*time.Millisecond)
}
