package cognition

import (
	"context"
	"fmt"
	"strings"

	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/logging"
	"github.com/solara-ai/solara/model"
)

// Mode is the thinking depth chosen for a request.
type Mode string

const (
	// ModeShallow handles the request as a single conversational step.
	ModeShallow Mode = "shallow"

	// ModeDeep runs the full plan, critique, and retry cycle.
	ModeDeep Mode = "deep"
)

const classifierInstructions = `You decide how much deliberation a request needs.

Reply with exactly one word:
- SHALLOW for greetings, small talk, simple factual questions, or anything answerable in one conversational turn without tools.
- DEEP for tasks that need multiple steps, tool use, file or system changes, research, or careful reasoning.

No other output.`

// Classifier picks the mode for a request using the fast model tier.
type Classifier struct {
	gateway model.Gateway
	logger  logging.Logger
}

// NewClassifier creates a classifier on the given fast-tier gateway.
func NewClassifier(gateway model.Gateway, logger logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Classifier{gateway: gateway, logger: logger}
}

// Classify returns the mode for the request. The optional hint carries
// recalled memory context. Any gateway failure or unrecognized reply defaults
// to ModeDeep so errors bias toward more deliberation, never less.
func (c *Classifier) Classify(ctx context.Context, request, hint string) Mode {
	prompt := request
	if hint != "" {
		prompt = fmt.Sprintf("Context:\n%s\n\nRequest:\n%s", hint, request)
	}

	resp, err := c.gateway.Invoke(ctx, model.Request{
		Instructions: classifierInstructions,
		Messages:     []core.Message{core.UserMessage(prompt)},
	})
	if err != nil {
		c.logger.Warn("mode classification failed, defaulting to deep", "error", err)
		return ModeDeep
	}

	verdict := strings.ToUpper(strings.TrimSpace(resp.Text))
	switch {
	case strings.HasPrefix(verdict, "SHALLOW"):
		return ModeShallow
	case strings.HasPrefix(verdict, "DEEP"):
		return ModeDeep
	default:
		c.logger.Warn("unrecognized classification verdict, defaulting to deep", "verdict", resp.Text)
		return ModeDeep
	}
}
