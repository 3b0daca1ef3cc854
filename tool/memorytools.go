package tool

import (
	"context"
	"fmt"

	"github.com/solara-ai/solara/memory"
)

type saveMemoryArgs struct {
	Text string `json:"text" description:"The note to remember"`
}

type recallMemoryArgs struct {
	Query string `json:"query" description:"What to look for"`
}

type forgetMemoryArgs struct {
	Query string `json:"query" description:"What to forget"`
}

// MemoryTools exposes a memory.Store as save_memory, recall_memory, and
// forget_memory so the model can manage long-term memory explicitly during
// a run, in addition to the automatic deep-mode save.
func MemoryTools(store memory.Store) []Tool {
	return []Tool{
		NewFunctionToolFromStruct(
			"save_memory",
			"Save a note to long-term memory for future sessions",
			saveMemoryArgs{},
			func(ctx context.Context, args map[string]any) (string, error) {
				if err := store.Save(ctx, stringArg(args, "text")); err != nil {
					return "", fmt.Errorf("save memory: %w", err)
				}
				return "Saved.", nil
			},
		),
		NewFunctionToolFromStruct(
			"recall_memory",
			"Recall notes from long-term memory relevant to a query",
			recallMemoryArgs{},
			func(ctx context.Context, args map[string]any) (string, error) {
				got, err := store.Recall(ctx, stringArg(args, "query"))
				if err != nil {
					return "", fmt.Errorf("recall memory: %w", err)
				}
				if got == "" {
					return "No matching memories.", nil
				}
				return got, nil
			},
		),
		NewFunctionToolFromStruct(
			"forget_memory",
			"Remove notes matching a query from long-term memory",
			forgetMemoryArgs{},
			func(ctx context.Context, args map[string]any) (string, error) {
				report, err := store.Forget(ctx, stringArg(args, "query"))
				if err != nil {
					return "", fmt.Errorf("forget memory: %w", err)
				}
				return report, nil
			},
		),
	}
}
