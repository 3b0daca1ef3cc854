package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/solara-ai/solara/cognition"
	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/logbook"
	"github.com/solara-ai/solara/logging"
	"github.com/solara-ai/solara/memory"
	"github.com/solara-ai/solara/model"
	"github.com/solara-ai/solara/tool"
)

// Config holds the engine's tuning parameters.
type Config struct {
	// MaxRetries bounds attempts per step, counting retries after critique
	// and incomplete turns. Default 5.
	MaxRetries int

	// EventBufferSize is the event channel buffer. Default 64.
	EventBufferSize int
}

// DefaultConfig is the standard engine configuration.
var DefaultConfig = Config{
	MaxRetries:      5,
	EventBufferSize: 64,
}

// Options configures an Engine via functional options.
type Options struct {
	Config  Config
	Memory  memory.Store
	Logbook logbook.Recorder
	Logger  logging.Logger

	// Persona prepends custom instructions to response synthesis, letting
	// an embedding application shape the agent's voice.
	Persona string
}

const responderInstructions = `You are Solara, a personal autonomous agent. Given the user's request and
the outcome of the work done for it, write the final reply to the user.
Be direct and helpful. Never mention internal steps, markers, or tooling
unless the user asked about them.`

// Engine runs one request at a time through classify, plan, execute, and
// synthesize, emitting events along the way. An Engine owns its transcript;
// create one engine per conversation and guard concurrent Run calls
// externally (the instance governor serves that role).
type Engine struct {
	models     model.Set
	tools      *tool.Registry
	classifier *cognition.Classifier
	planner    *cognition.Planner
	critic     *cognition.Critic
	memory     memory.Store
	logbook    logbook.Recorder
	logger     logging.Logger
	config     Config
	persona    string

	transcript *core.Transcript
}

// New creates an engine over the given model set and tool registry. An
// incomplete model set is the one fatal initialization error: without usable
// models no request can produce a coherent answer.
func New(models model.Set, tools *tool.Registry, optFns ...func(o *Options)) (*Engine, error) {
	if err := models.Validate(); err != nil {
		return nil, fmt.Errorf("engine init: %w", err)
	}
	if tools == nil {
		tools = tool.NewRegistry()
	}

	opts := Options{
		Config:  DefaultConfig,
		Memory:  memory.NoopStore{},
		Logbook: logbook.NoopRecorder{},
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.MaxRetries <= 0 {
		opts.Config.MaxRetries = DefaultConfig.MaxRetries
	}
	if opts.Config.EventBufferSize <= 0 {
		opts.Config.EventBufferSize = DefaultConfig.EventBufferSize
	}

	// A persona seeds the transcript so ResetSession re-seeds it instead of
	// clearing to empty.
	var seed *core.Message
	if opts.Persona != "" {
		m := core.SystemMessage(opts.Persona)
		seed = &m
	}

	return &Engine{
		models:     models,
		tools:      tools,
		classifier: cognition.NewClassifier(models.Fast, opts.Logger),
		planner:    cognition.NewPlanner(models.Deep, opts.Logger),
		critic:     cognition.NewCritic(models.Deep, opts.Logger),
		memory:     opts.Memory,
		logbook:    opts.Logbook,
		logger:     opts.Logger,
		config:     opts.Config,
		persona:    opts.Persona,
		transcript: core.NewTranscript(seed),
	}, nil
}

// Setup reports readiness, returning the event an embedding caller shows
// once tools are discovered and models are wired.
func (e *Engine) Setup() core.Event {
	msg := fmt.Sprintf("Solara ready (%s)", e.models.Default.Info().Name)
	return core.NewSetupCompleteEvent(msg, e.tools.Len())
}

// ResetSession discards the conversational transcript wholesale.
func (e *Engine) ResetSession() {
	e.transcript.Reset()
}

// Run executes one request and returns the event stream for it. The stream
// always terminates with exactly one final_answer or error event and is then
// closed. The returned error channel receives the fatal error, if any,
// before closing.
func (e *Engine) Run(ctx context.Context, request string) (<-chan core.Event, <-chan error) {
	events := make(chan core.Event, e.config.EventBufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)
		e.runPipeline(ctx, request, events, errs)
	}()

	return events, errs
}

func (e *Engine) runPipeline(ctx context.Context, request string, events chan<- core.Event, errs chan<- error) {
	// The stream must end with exactly one final_answer or error even when
	// the context is canceled. Terminal events are sent unconditionally;
	// only progress events may be dropped after cancellation.
	emit := func(ev core.Event) {
		if ev.IsTerminal() {
			events <- ev
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	e.record("run_start", request, nil)

	// Memory recall is best effort and never fatal.
	memCtx, err := e.memory.Recall(ctx, request)
	if err != nil {
		e.logger.Warn("memory recall failed", "error", err)
		memCtx = ""
	}

	mode := e.classifier.Classify(ctx, request, memCtx)
	emit(core.NewLogEvent(fmt.Sprintf("mode: %s", mode)))
	e.record("mode", string(mode), nil)

	steps := e.buildPlan(ctx, request, memCtx, mode, emit)
	emit(core.NewPlanEvent(steps, string(mode)))
	e.record("plan", strings.Join(steps, " | "), map[string]any{"mode": string(mode)})

	if err := ctx.Err(); err != nil {
		emit(core.NewErrorEvent(fmt.Sprintf("run canceled: %v", err)))
		errs <- err
		return
	}

	e.transcript.Append(core.UserMessage(request))
	if memCtx != "" {
		e.transcript.Append(core.SystemMessage(fmt.Sprintf("Relevant memory:\n%s", memCtx)))
	}

	executor := &stepExecutor{
		gateway:    e.models.Default,
		tools:      e.tools,
		critic:     e.critic,
		logger:     e.logger,
		maxRetries: e.config.MaxRetries,
		emit:       emit,
	}

	// An empty step result must never erase an earlier instruction.
	instruction := ""
	for i, step := range steps {
		emit(core.NewStepStartEvent(step, i+1, len(steps)))
		state := executor.run(ctx, e.transcript, step, request, mode)
		if !state.completed {
			emit(core.NewLogEvent(fmt.Sprintf("step %d exhausted after %d attempts, continuing with best effort", i+1, state.attempts)))
			e.record("step_exhausted", step, map[string]any{"attempts": state.attempts})
		}
		if state.lastResult != "" {
			instruction = state.lastResult
		}
	}

	if instruction == "" {
		instruction = e.degradedInstruction(request, memCtx)
		e.logger.Warn("no step produced a result, synthesizing degraded instruction")
	}

	answer := e.synthesize(ctx, request, instruction)
	emit(core.NewFinalAnswerEvent(answer))
	e.record("final_answer", preview(answer, 500), nil)

	if mode == cognition.ModeDeep {
		summary := fmt.Sprintf("Request: %s\nOutcome: %s", preview(request, 300), preview(answer, 300))
		if err := e.memory.Save(ctx, summary); err != nil {
			e.logger.Warn("memory save failed", "error", err)
		}
	}
}

// buildPlan produces the ordered steps for the request. Deep mode runs the
// planner and critic; shallow mode is always the single-step identity plan
// plus a short reflective thought.
func (e *Engine) buildPlan(ctx context.Context, request, memCtx string, mode cognition.Mode, emit func(core.Event)) []string {
	if mode == cognition.ModeShallow {
		if thought := e.planner.Reflect(ctx, request); thought != "" {
			emit(core.NewThoughtEvent(thought))
		}
		return []string{request}
	}

	result := e.planner.Plan(ctx, request, e.tools.Overview(), memCtx)
	if result.Monologue != "" {
		emit(core.NewThoughtEvent(result.Monologue))
	}
	if result.Note != "" {
		emit(core.NewLogEvent(result.Note))
	}
	return e.critic.Optimize(ctx, result.Steps)
}

// degradedInstruction explains an internal failure when no step yielded any
// result, offering recalled memory as a substitute when available.
func (e *Engine) degradedInstruction(request, memCtx string) string {
	if memCtx != "" {
		return fmt.Sprintf(
			"Tell the user that the request %q could not be completed internally, and share what is known from memory: %s",
			request, memCtx)
	}
	return fmt.Sprintf(
		"Tell the user that the request %q could not be completed due to an internal failure, and apologize briefly.",
		request)
}

// synthesize turns the accumulated instruction into the user-facing answer.
// On synthesis failure it falls back to a locally cleaned version of the raw
// instruction.
func (e *Engine) synthesize(ctx context.Context, request, instruction string) string {
	instructions := responderInstructions
	if e.persona != "" {
		instructions = e.persona + "\n\n" + instructions
	}

	start := time.Now()
	resp, err := e.models.Default.Invoke(ctx, model.Request{
		Instructions: instructions,
		Messages: []core.Message{core.UserMessage(fmt.Sprintf(
			"User request:\n%s\n\nOutcome of the work:\n%s", request, instruction))},
	})
	if ml, ok := e.logger.(logging.ModelCallLogger); ok {
		ml.LogModelCall("synthesis", time.Since(start), err == nil, err)
	}
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		e.logger.Warn("response synthesis failed, using cleaned instruction", "error", err)
		return cleanInstruction(instruction)
	}
	return strings.TrimSpace(resp.Text)
}

// cleanInstruction strips internal markers so a raw instruction can stand in
// for a synthesized answer.
func cleanInstruction(s string) string {
	s = strings.ReplaceAll(s, ResponseSentinel, "")
	return strings.TrimSpace(s)
}

func (e *Engine) record(kind, detail string, metadata map[string]any) {
	if err := e.logbook.Record(logbook.Entry{Kind: kind, Detail: detail, Metadata: metadata}); err != nil {
		e.logger.Warn("logbook record failed", "kind", kind, "error", err)
	}
}
