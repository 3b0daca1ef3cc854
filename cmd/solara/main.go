// Command solara runs the personal agent: an interactive terminal session
// backed by the execution engine, with the scheduler promoting due jobs into
// background runs and the governor bounding how many run at once.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/solara-ai/solara/config"
	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/engine"
	"github.com/solara-ai/solara/governor"
	"github.com/solara-ai/solara/logbook"
	"github.com/solara-ai/solara/logging"
	"github.com/solara-ai/solara/memory"
	"github.com/solara-ai/solara/model"
	anthropicgw "github.com/solara-ai/solara/model/anthropic"
	openaigw "github.com/solara-ai/solara/model/openai"
	"github.com/solara-ai/solara/runner"
	"github.com/solara-ai/solara/scheduler"
	"github.com/solara-ai/solara/tool"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Output:    os.Stderr,
		Component: "solara",
	})

	models, err := buildModels(cfg)
	if err != nil {
		return err
	}

	store, err := memory.NewFileStore(cfg.MemoryPath())
	var mem memory.Store = store
	if err != nil {
		logger.Warn("memory store unavailable, continuing without memory", "error", err)
		mem = memory.NoopStore{}
	}

	journal, err := logbook.NewFileRecorder(cfg.LogbookPath())
	var recorder logbook.Recorder = journal
	if err != nil {
		logger.Warn("logbook unavailable, continuing without journal", "error", err)
		recorder = logbook.NoopRecorder{}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := tool.NewRegistry()
	registry.RegisterAll(tool.BuiltinTools(cfg.Workspace)...)
	registry.RegisterAll(tool.MemoryTools(mem)...)

	discoverer := tool.NewDiscoverer(cfg.ToolsDir, registry, logger.WithComponent("tools").WithContext("dir", cfg.ToolsDir))
	if n, err := discoverer.LoadAll(); err != nil {
		logger.Warn("tool discovery failed", "error", err)
	} else if n > 0 {
		logger.Info("discovered command tools", "count", n)
	}
	go func() {
		if err := discoverer.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("tool watcher stopped", "error", err)
		}
	}()

	newEngine := func() (*engine.Engine, error) {
		return engine.New(models, registry,
			func(o *engine.Options) {
				o.Memory = mem
				o.Logbook = recorder
				o.Logger = logger.WithComponent("engine")
				o.Persona = cfg.Persona
				o.Config.MaxRetries = cfg.MaxRetries
			})
	}

	gov, err := governor.Open(cfg.RegistryPath(), func(o *governor.Options) {
		o.Capacity = cfg.MaxInstances
		o.Logger = logger.WithComponent("governor")
	})
	if err != nil {
		return err
	}
	defer gov.Close()

	sched, err := scheduler.Open(cfg.JobStorePath(), func(o *scheduler.Options) {
		o.PollInterval = cfg.PollInterval
		o.BackgroundSlots = int64(cfg.BackgroundSlots)
		o.Logger = logger.WithComponent("scheduler")
	})
	if err != nil {
		return err
	}
	defer sched.Close()

	run := runner.New(gov, newEngine, func(o *runner.Options) {
		o.Logger = logger.WithComponent("runner")
	})

	go func() {
		if err := sched.Run(ctx, run.DispatchJob); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped", "error", err)
		}
	}()

	eng, err := newEngine()
	if err != nil {
		return err
	}
	printEvent(eng.Setup())

	return repl(ctx, cfg, eng, run, gov, sched)
}

func buildModels(cfg *config.Config) (model.Set, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return model.Set{}, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		gw := func(id string) model.Gateway {
			return openaigw.New(func(o *openaigw.Options) {
				if id != "" {
					o.Model = id
				}
			})
		}
		return model.Set{
			Fast:    gw(cfg.FastModel),
			Deep:    gw(cfg.DeepModel),
			Default: gw(cfg.DefaultModel),
		}, nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return model.Set{}, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		gw := func(id string) model.Gateway {
			return anthropicgw.New(func(o *anthropicgw.Options) {
				if id != "" {
					o.Model = anthropic.Model(id)
				}
				o.APIKey = cfg.AnthropicAPIKey
			})
		}
		return model.Set{
			Fast:    gw(cfg.FastModel),
			Deep:    gw(cfg.DeepModel),
			Default: gw(cfg.DefaultModel),
		}, nil
	case "mock":
		return model.Uniform(model.NewMockGateway("mock")), nil
	default:
		return model.Set{}, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func repl(ctx context.Context, cfg *config.Config, eng *engine.Engine, run *runner.Runner, gov *governor.Governor, sched *scheduler.Scheduler) error {
	fmt.Println(`Type a request, or /help for commands.`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, line, cfg, eng, gov, sched); quit {
				return nil
			}
			continue
		}

		err := run.Execute(ctx, eng, line, governor.SourceTerminal, governor.KindInteractive, printEvent)
		switch {
		case errors.Is(err, governor.ErrCapacityExhausted):
			fmt.Println("Busy right now: all execution slots are taken. Try again shortly.")
		case err != nil && !errors.Is(err, context.Canceled):
			fmt.Printf("run failed: %v\n", err)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func handleCommand(ctx context.Context, line string, cfg *config.Config, eng *engine.Engine, gov *governor.Governor, sched *scheduler.Scheduler) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/reset":
		eng.ResetSession()
		fmt.Println("Session reset.")
	case "/reload":
		if err := cfg.Reload(); err != nil {
			fmt.Printf("reload failed: %v\n", err)
		} else {
			fmt.Println("Configuration reloaded.")
		}
	case "/instances":
		active, err := gov.ListActive(ctx)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		if len(active) == 0 {
			fmt.Println("No active instances.")
			break
		}
		for _, inst := range active {
			fmt.Printf("%s  [%s/%s]  %s  (%s)\n", inst.ID, inst.Source, inst.Kind, inst.Status, inst.Description)
		}
	case "/jobs":
		jobs, err := sched.List(ctx)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		if len(jobs) == 0 {
			fmt.Println("No scheduled jobs.")
			break
		}
		for _, job := range jobs {
			fmt.Printf("%s  next=%s  trigger=%q  %s\n", job.ID, job.NextRun.Local().Format("2006-01-02 15:04:05"), job.Trigger, job.Description)
		}
	case "/schedule":
		// /schedule <trigger> | <description>
		trigger, description, ok := strings.Cut(rest, "|")
		if !ok {
			fmt.Println(`usage: /schedule <trigger> | <description>   e.g. /schedule every 30 minutes | check my inbox`)
			break
		}
		id, err := sched.Add(ctx, strings.TrimSpace(description), strings.TrimSpace(trigger))
		if err != nil {
			fmt.Printf("error: %v\n", err)
			break
		}
		fmt.Printf("Scheduled %s\n", id)
	case "/cancel":
		removed, err := sched.Remove(ctx, strings.TrimSpace(rest))
		if err != nil {
			fmt.Printf("error: %v\n", err)
		} else if removed {
			fmt.Println("Job canceled. In-flight runs finish normally.")
		} else {
			fmt.Println("No such job.")
		}
	case "/help":
		fmt.Println(`/reset            clear the conversation
/reload           re-read configuration
/instances        list active execution slots
/jobs             list scheduled jobs
/schedule t | d   schedule a job (trigger | description)
/cancel <id>      cancel a scheduled job
/quit             exit`)
	default:
		fmt.Printf("unknown command %s (try /help)\n", cmd)
	}
	return false
}

func printEvent(ev core.Event) {
	switch ev.Kind {
	case core.EventLog:
		fmt.Printf("  · %s\n", ev.Text())
	case core.EventThought:
		fmt.Printf("  ~ %s\n", ev.Text())
	case core.EventPlan:
		fmt.Println("  plan:")
		for i, step := range ev.Steps() {
			fmt.Printf("    %d. %s\n", i+1, step)
		}
	case core.EventStepStart:
		fmt.Printf("  ▶ %s\n", ev.Text())
	case core.EventToolCall:
		fmt.Printf("  ⚙ %s\n", ev.Text())
	case core.EventToolResult:
		fmt.Printf("    %s\n", ev.Text())
	case core.EventFinalAnswer:
		fmt.Printf("\n%s\n", ev.Text())
	case core.EventError:
		fmt.Printf("error: %s\n", ev.Text())
	case core.EventSetupComplete:
		fmt.Printf("%s (%v tools)\n", ev.Text(), ev.Metadata["tool_count"])
	}
}
