// Package solara is the embeddable facade over the agent runtime. It wires
// the model gateways, tool registry, memory, and execution engine into one
// object so host applications (terminal UIs, bots, web frontends) can run
// requests without assembling the pieces themselves.
package solara

import (
	"context"
	"fmt"

	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/engine"
	"github.com/solara-ai/solara/logbook"
	"github.com/solara-ai/solara/logging"
	"github.com/solara-ai/solara/memory"
	"github.com/solara-ai/solara/model"
	"github.com/solara-ai/solara/tool"
)

// Options configures a Solara instance.
type Options struct {
	// Tools seeds the registry. BuiltinTools and MemoryTools are not added
	// implicitly; hosts choose their capability surface.
	Tools []tool.Tool

	Memory  memory.Store
	Logbook logbook.Recorder
	Logger  logging.Logger
	Persona string

	// MaxRetries bounds attempts per plan step.
	MaxRetries int
}

// Solara bundles one engine with its collaborators.
type Solara struct {
	engine   *engine.Engine
	registry *tool.Registry
	logger   logging.Logger
}

// New creates a Solara instance over the given model set.
func New(models model.Set, optFns ...func(o *Options)) (*Solara, error) {
	opts := Options{
		Memory:  memory.NoopStore{},
		Logbook: logbook.NoopRecorder{},
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry()
	registry.RegisterAll(opts.Tools...)

	eng, err := engine.New(models, registry, func(o *engine.Options) {
		o.Memory = opts.Memory
		o.Logbook = opts.Logbook
		o.Logger = opts.Logger
		o.Persona = opts.Persona
		if opts.MaxRetries > 0 {
			o.Config.MaxRetries = opts.MaxRetries
		}
	})
	if err != nil {
		return nil, err
	}

	return &Solara{engine: eng, registry: registry, logger: opts.Logger}, nil
}

// Tools exposes the registry for late registration (discovery, plugins).
func (s *Solara) Tools() *tool.Registry { return s.registry }

// Run streams one request's events. See engine.Engine.Run.
func (s *Solara) Run(ctx context.Context, request string) (<-chan core.Event, <-chan error) {
	return s.engine.Run(ctx, request)
}

// Ask runs one request to completion and returns the final answer text.
func (s *Solara) Ask(ctx context.Context, request string) (string, error) {
	events, errs := s.engine.Run(ctx, request)

	answer := ""
	for ev := range events {
		switch ev.Kind {
		case core.EventFinalAnswer:
			answer = ev.Text()
		case core.EventError:
			return "", fmt.Errorf("run failed: %s", ev.Text())
		}
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return answer, nil
}

// ResetSession clears the conversational transcript.
func (s *Solara) ResetSession() {
	s.engine.ResetSession()
}
