package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/solara-ai/solara/logging"
)

// Manifest describes an external command exposed as a tool. Manifests are
// JSON files dropped into the tools directory, for example:
//
//	{
//	  "name": "word_count",
//	  "description": "Count words in a text file",
//	  "command": ["wc", "-w", "{path}"],
//	  "parameters": {
//	    "type": "object",
//	    "properties": {"path": {"type": "string"}},
//	    "required": ["path"]
//	  }
//	}
//
// Argument placeholders use {name} syntax and are substituted verbatim into
// the corresponding argv element before execution.
type Manifest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Command     []string       `json:"command"`
	Parameters  map[string]any `json:"parameters"`
}

// CommandTool runs an external command described by a Manifest.
type CommandTool struct {
	manifest Manifest
}

// NewCommandTool validates a manifest and wraps it as a tool.
func NewCommandTool(m Manifest) (*CommandTool, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("manifest missing name")
	}
	if len(m.Command) == 0 {
		return nil, fmt.Errorf("manifest %q missing command", m.Name)
	}
	if m.Parameters == nil {
		m.Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return &CommandTool{manifest: m}, nil
}

func (t *CommandTool) Name() string                { return t.manifest.Name }
func (t *CommandTool) Description() string        { return t.manifest.Description }
func (t *CommandTool) Parameters() map[string]any { return t.manifest.Parameters }

// Invoke substitutes args into the command template and runs it, returning
// combined output. A non-zero exit becomes a ToolError carrying the output
// so the model can see what went wrong.
func (t *CommandTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	argv := make([]string, len(t.manifest.Command))
	for i, part := range t.manifest.Command {
		argv[i] = substituteArgs(part, args)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &ToolError{
			Tool:    t.manifest.Name,
			Message: fmt.Sprintf("%v: %s", err, strings.TrimSpace(string(out))),
			Code:    "EXECUTION_ERROR",
		}
	}
	return strings.TrimSpace(string(out)), nil
}

func substituteArgs(part string, args map[string]any) string {
	for key, val := range args {
		part = strings.ReplaceAll(part, "{"+key+"}", fmt.Sprintf("%v", val))
	}
	return part
}

// Discoverer loads command tool manifests from a directory and keeps the
// registry in sync as manifest files appear, change, or disappear.
type Discoverer struct {
	dir      string
	registry *Registry
	logger   logging.Logger

	// byFile maps manifest path to the tool name it registered, so a
	// removed or renamed file unregisters the right tool.
	byFile map[string]string
}

// NewDiscoverer creates a discoverer for the given manifests directory.
func NewDiscoverer(dir string, registry *Registry, logger logging.Logger) *Discoverer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Discoverer{
		dir:      dir,
		registry: registry,
		logger:   logger,
		byFile:   make(map[string]string),
	}
}

// LoadAll scans the directory once and registers every valid manifest.
// Invalid manifests are logged and skipped. A missing directory is not an
// error; it simply yields no tools.
func (d *Discoverer) LoadAll() (int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read tools dir: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(d.dir, entry.Name())
		if err := d.loadFile(path); err != nil {
			d.logger.Warn("skipping tool manifest", "path", path, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

// Watch blocks, reloading manifests on filesystem changes until ctx is
// canceled. Callers typically run it in a goroutine after LoadAll.
func (d *Discoverer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(d.dir); err != nil {
		return fmt.Errorf("watch %s: %w", d.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("tool watcher error", "error", err)
		}
	}
}

func (d *Discoverer) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".json") {
		return
	}
	switch {
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		if err := d.loadFile(event.Name); err != nil {
			d.logger.Warn("reloading tool manifest failed", "path", event.Name, "error", err)
			return
		}
		d.logger.Info("tool manifest loaded", "path", event.Name)
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		if name, ok := d.byFile[event.Name]; ok {
			d.registry.Unregister(name)
			delete(d.byFile, event.Name)
			d.logger.Info("tool unregistered", "tool", name, "path", event.Name)
		}
	}
}

func (d *Discoverer) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	t, err := NewCommandTool(m)
	if err != nil {
		return err
	}

	// A rewritten manifest may have changed the tool name; drop the old one.
	if prev, ok := d.byFile[path]; ok && prev != t.Name() {
		d.registry.Unregister(prev)
	}
	d.registry.Register(t)
	d.byFile[path] = t.Name()
	return nil
}
