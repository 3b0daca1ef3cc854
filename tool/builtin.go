package tool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const maxShellOutput = 16 * 1024

// BuiltinTools returns the standard capability set rooted at workspace:
// read_file, write_file, list_files, and run_shell. Paths are resolved
// relative to workspace and must not escape it.
func BuiltinTools(workspace string) []Tool {
	return []Tool{
		newReadFileTool(workspace),
		newWriteFileTool(workspace),
		newListFilesTool(workspace),
		newShellTool(workspace),
	}
}

// resolvePath joins a relative path onto the workspace root, rejecting
// traversal outside it.
func resolvePath(workspace, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	abs := filepath.Join(workspace, rel)
	cleanRoot := filepath.Clean(workspace)
	if abs != cleanRoot && !strings.HasPrefix(abs, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", rel)
	}
	return abs, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func newReadFileTool(workspace string) Tool {
	return NewFunctionTool(
		"read_file",
		"Read the contents of a file in the workspace",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Path relative to the workspace root"},
			},
			"required": []string{"path"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			path, err := resolvePath(workspace, stringArg(args, "path"))
			if err != nil {
				return "", err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("read %s: %w", stringArg(args, "path"), err)
			}
			return string(data), nil
		},
	)
}

func newWriteFileTool(workspace string) Tool {
	return NewFunctionTool(
		"write_file",
		"Write text content to a file in the workspace, creating parent directories as needed",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    map[string]any{"type": "string", "description": "Path relative to the workspace root"},
				"content": map[string]any{"type": "string", "description": "Full file content to write"},
			},
			"required": []string{"path", "content"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			path, err := resolvePath(workspace, stringArg(args, "path"))
			if err != nil {
				return "", err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return "", fmt.Errorf("create directories: %w", err)
			}
			content := stringArg(args, "content")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return "", fmt.Errorf("write %s: %w", stringArg(args, "path"), err)
			}
			return fmt.Sprintf("Wrote %d bytes to %s", len(content), stringArg(args, "path")), nil
		},
	)
}

func newListFilesTool(workspace string) Tool {
	return NewFunctionTool(
		"list_files",
		"List files and directories at a path in the workspace",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Path relative to the workspace root, defaults to the root"},
			},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			rel := stringArg(args, "path")
			if rel == "" {
				rel = "."
			}
			path, err := resolvePath(workspace, rel)
			if err != nil {
				return "", err
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return "", fmt.Errorf("list %s: %w", rel, err)
			}
			if len(entries) == 0 {
				return "(empty)", nil
			}
			var sb strings.Builder
			for _, entry := range entries {
				if entry.IsDir() {
					fmt.Fprintf(&sb, "%s/\n", entry.Name())
				} else {
					fmt.Fprintf(&sb, "%s\n", entry.Name())
				}
			}
			return strings.TrimRight(sb.String(), "\n"), nil
		},
	)
}

func newShellTool(workspace string) Tool {
	return NewFunctionTool(
		"run_shell",
		"Run a shell command in the workspace and return its output",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "description": "Shell command line to execute"},
			},
			"required": []string{"command"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			command := stringArg(args, "command")
			if command == "" {
				return "", fmt.Errorf("command is required")
			}
			cmd := exec.CommandContext(ctx, "sh", "-c", command)
			cmd.Dir = workspace
			out, err := cmd.CombinedOutput()
			text := strings.TrimSpace(string(out))
			if len(text) > maxShellOutput {
				text = text[:maxShellOutput] + "\n... (output truncated)"
			}
			if err != nil {
				// Exit status and output both go back to the model.
				return fmt.Sprintf("Command failed (%v):\n%s", err, text), nil
			}
			if text == "" {
				return "(no output)", nil
			}
			return text, nil
		},
	)
}
