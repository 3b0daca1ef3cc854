// Package scheduler persists time-triggered jobs and promotes the due ones
// into engine executions. Jobs fire once at an absolute time or recur on an
// interval or cron rule; the poll tick atomically selects due jobs, advances
// recurring triggers, and removes fired one-shots, so a crash between poll
// and dispatch can double-fire but never lose the schedule.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	_ "modernc.org/sqlite"

	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/logging"
)

// DefaultPollInterval is the gap between poll ticks.
const DefaultPollInterval = 30 * time.Second

// DefaultBackgroundSlots bounds concurrently dispatched due jobs. It is
// deliberately smaller than the governor's instance capacity so a burst of
// due jobs cannot monopolize the process.
const DefaultBackgroundSlots = 2

// Job is one persisted scheduled job.
type Job struct {
	ID          string
	Description string
	Trigger     string
	NextRun     time.Time
	Recurring   bool
	Enabled     bool
}

// Options configures a Scheduler.
type Options struct {
	PollInterval    time.Duration
	BackgroundSlots int64
	Logger          logging.Logger
}

// Scheduler owns the persisted job store and the poll loop.
type Scheduler struct {
	db           *sql.DB
	pollInterval time.Duration
	pool         *semaphore.Weighted
	logger       logging.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	trigger_spec TEXT NOT NULL,
	next_run    TIMESTAMP NOT NULL,
	recurring   INTEGER NOT NULL,
	enabled     INTEGER NOT NULL DEFAULT 1
);`

// Open creates or opens the job store at path.
func Open(path string, optFns ...func(o *Options)) (*Scheduler, error) {
	opts := Options{
		PollInterval:    DefaultPollInterval,
		BackgroundSlots: DefaultBackgroundSlots,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.BackgroundSlots <= 0 {
		opts.BackgroundSlots = DefaultBackgroundSlots
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create job store schema: %w", err)
	}

	return &Scheduler{
		db:           db,
		pollInterval: opts.PollInterval,
		pool:         semaphore.NewWeighted(opts.BackgroundSlots),
		logger:       opts.Logger,
	}, nil
}

// Close releases the job store.
func (s *Scheduler) Close() error { return s.db.Close() }

// Add persists a new job. The trigger spec is validated here; a malformed
// spec returns ErrBadRecurrence and nothing is stored.
func (s *Scheduler) Add(ctx context.Context, description, triggerSpec string) (string, error) {
	trigger, err := ParseTrigger(triggerSpec)
	if err != nil {
		return "", err
	}

	id := core.NewID()
	next := trigger.Next(time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, description, trigger_spec, next_run, recurring, enabled)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		id, description, trigger.Spec, next.UTC(), trigger.Recurring)
	if err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}

	s.logger.Info("job scheduled", "id", id, "trigger", trigger.Spec, "next_run", next)
	return id, nil
}

// Remove cancels a job, reporting whether it existed. An in-flight
// execution already dispatched for this job is not interrupted.
func (s *Scheduler) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove job: %w", err)
	}
	return n > 0, nil
}

// List returns every stored job ordered by next run time.
func (s *Scheduler) List(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, trigger_spec, next_run, recurring, enabled
		 FROM jobs ORDER BY next_run`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// Poll atomically selects jobs due as of now, advances recurring triggers,
// deletes fired one-shots, and returns the due set. Callers hand each due
// job's description to the engine as a fresh request, subject to governor
// admission.
func (s *Scheduler) Poll(ctx context.Context, now time.Time) ([]Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin poll: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, description, trigger_spec, next_run, recurring, enabled
		 FROM jobs WHERE enabled = 1 AND next_run <= ? ORDER BY next_run`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("select due jobs: %w", err)
	}
	due, err := scanJobs(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	for _, job := range due {
		if !job.Recurring {
			if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, job.ID); err != nil {
				return nil, fmt.Errorf("remove fired one-shot %s: %w", job.ID, err)
			}
			continue
		}

		trigger, err := ParseTrigger(job.Trigger)
		if err != nil {
			// Stored specs are validated at Add; a failure here means the
			// store was edited externally. Disable rather than drop.
			s.logger.Warn("stored trigger no longer parses, disabling job", "id", job.ID, "trigger", job.Trigger)
			if _, err := tx.ExecContext(ctx, `UPDATE jobs SET enabled = 0 WHERE id = ?`, job.ID); err != nil {
				return nil, fmt.Errorf("disable job %s: %w", job.ID, err)
			}
			continue
		}
		next := trigger.Next(now)
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET next_run = ? WHERE id = ?`, next.UTC(), job.ID); err != nil {
			return nil, fmt.Errorf("advance job %s: %w", job.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit poll: %w", err)
	}
	return due, nil
}

// Run polls on a fixed interval and hands each due job to its own goroutine
// immediately; the background pool throttles execution, never polling, so a
// slow or queued job cannot delay the next tick. Run returns when ctx is
// canceled; dispatched jobs run to completion.
func (s *Scheduler) Run(ctx context.Context, dispatch func(ctx context.Context, job Job)) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			due, err := s.Poll(ctx, now)
			if err != nil {
				s.logger.Error("poll failed", "error", err)
				continue
			}
			for _, job := range due {
				go func(job Job) {
					if err := s.pool.Acquire(ctx, 1); err != nil {
						return
					}
					defer s.pool.Release(1)
					dispatch(ctx, job)
				}(job)
			}
		}
	}
}

func scanJobs(rows *sql.Rows) ([]Job, error) {
	var out []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Description, &job.Trigger, &job.NextRun, &job.Recurring, &job.Enabled); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}
	return out, nil
}
