// Package runner ties governor admission to engine execution: every run,
// interactive or scheduled, goes through the same admit, execute, release
// cycle so the concurrency bound holds no matter where requests come from.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/engine"
	"github.com/solara-ai/solara/governor"
	"github.com/solara-ai/solara/logging"
	"github.com/solara-ai/solara/scheduler"
)

// EngineFactory builds a fresh engine for one run. Scheduled runs get their
// own engine so their transcripts never mix with the interactive session.
type EngineFactory func() (*engine.Engine, error)

// Options configures a Runner.
type Options struct {
	Logger logging.Logger
}

// Runner admits and executes requests under the governor's bound.
type Runner struct {
	governor *governor.Governor
	factory  EngineFactory
	logger   logging.Logger
}

// New creates a runner over the given governor and engine factory.
func New(gov *governor.Governor, factory EngineFactory, optFns ...func(o *Options)) *Runner {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{governor: gov, factory: factory, logger: opts.Logger}
}

// Execute admits the request, runs it on the given engine, and streams
// events to handle until the run terminates. The instance status follows the
// run through its phases (planning, executing, responding) so /instances
// shows where each run is. ErrCapacityExhausted passes through unchanged so
// callers can distinguish refusal from failure.
func (r *Runner) Execute(ctx context.Context, eng *engine.Engine, request string, source governor.Source, kind governor.Kind, handle func(core.Event)) error {
	id, err := r.governor.Register(ctx, truncate(request, 80), source, kind)
	if err != nil {
		return err
	}
	defer r.governor.Unregister(ctx, id)

	logger := r.logger
	if sl, ok := logger.(*logging.SolaraLogger); ok {
		logger = sl.WithInstance(id)
	}

	phase := "planning"
	r.updateStatus(ctx, logger, id, phase)

	events, errs := eng.Run(ctx, request)
	for ev := range events {
		if next, ok := phaseFor(ev.Kind); ok && next != phase {
			phase = next
			r.updateStatus(ctx, logger, id, phase)
		}
		handle(ev)
	}
	if err := <-errs; err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func (r *Runner) updateStatus(ctx context.Context, logger logging.Logger, id, phase string) {
	if err := r.governor.UpdateStatus(ctx, id, phase); err != nil {
		logger.Warn("status update failed", "instance", id, "phase", phase, "error", err)
	}
}

// phaseFor maps stream progress to the status label stored on the instance.
func phaseFor(kind core.EventKind) (string, bool) {
	switch kind {
	case core.EventStepStart:
		return "executing", true
	case core.EventFinalAnswer:
		return "responding", true
	default:
		return "", false
	}
}

// DispatchJob runs one due scheduled job to completion on a fresh engine.
// Admission refusal skips the run and logs it; the job's next occurrence
// fires normally.
func (r *Runner) DispatchJob(ctx context.Context, job scheduler.Job) {
	eng, err := r.factory()
	if err != nil {
		r.logger.Error("engine init for scheduled job failed", "job", job.ID, "error", err)
		return
	}

	err = r.Execute(ctx, eng, job.Description, governor.SourceScheduled, governor.KindScheduled, func(ev core.Event) {
		if ev.Kind == core.EventFinalAnswer {
			r.logger.Info("scheduled job finished", "job", job.ID, "answer", truncate(ev.Text(), 200))
		}
	})
	switch {
	case err == nil:
	case isCapacityRefusal(err):
		r.logger.Warn("scheduled job skipped, no capacity", "job", job.ID)
	default:
		r.logger.Error("scheduled job failed", "job", job.ID, "error", err)
	}
}

func isCapacityRefusal(err error) bool {
	return errors.Is(err, governor.ErrCapacityExhausted)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
