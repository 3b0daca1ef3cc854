package cognition

import (
	"context"
	"fmt"
	"strings"

	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/internal/jsonx"
	"github.com/solara-ai/solara/logging"
	"github.com/solara-ai/solara/model"
)

// Quality is the critic's verdict on a completed step.
type Quality string

const (
	QualityGood       Quality = "good"
	QualityAcceptable Quality = "acceptable"
	QualityNeedsRetry Quality = "needs_retry"
)

const optimizeInstructions = `You review an agent's plan before execution.

Remove redundant or duplicate steps and merge steps that obviously belong
together. Keep the remaining steps in their original order and do not invent
new work.

Output a JSON array of the final step strings, nothing else.`

const gradeInstructions = `You grade one executed step of an agent's plan.

Given the step directive, its result, and the overall goal, reply with a
JSON object:
{"quality": "good" | "acceptable" | "needs_retry", "feedback": "short note"}

Use needs_retry only when the result clearly fails the directive and a retry
could plausibly do better. Output only the JSON object.`

// Grade is the critic's assessment of one step result.
type Grade struct {
	Quality  Quality `json:"quality"`
	Feedback string  `json:"feedback"`
}

// Critic condenses plans and grades step results on the deep model tier.
// Both operations are failure-open: a failing or unparseable model call
// returns the input unchanged or a neutral verdict.
type Critic struct {
	gateway model.Gateway
	logger  logging.Logger
}

// NewCritic creates a critic on the given deep-tier gateway.
func NewCritic(gateway model.Gateway, logger logging.Logger) *Critic {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Critic{gateway: gateway, logger: logger}
}

// Optimize removes redundant steps while preserving order. Plans of one step
// or fewer are returned as-is without a model call.
func (c *Critic) Optimize(ctx context.Context, steps []string) []string {
	if len(steps) <= 1 {
		return steps
	}

	var sb strings.Builder
	sb.WriteString("Plan:\n")
	for i, step := range steps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}

	resp, err := c.gateway.Invoke(ctx, model.Request{
		Instructions: optimizeInstructions,
		Messages:     []core.Message{core.UserMessage(sb.String())},
	})
	if err != nil {
		c.logger.Warn("plan optimization failed, keeping original plan", "error", err)
		return steps
	}

	var optimized []string
	if err := jsonx.Decode(resp.Text, &optimized); err != nil {
		c.logger.Warn("optimizer output unparseable, keeping original plan", "error", err)
		return steps
	}

	cleaned := make([]string, 0, len(optimized))
	for _, s := range optimized {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return steps
	}
	return cleaned
}

// GradeStep assesses one completed step against the overall goal. Any
// failure yields QualityAcceptable so critique never blocks progress.
func (c *Critic) GradeStep(ctx context.Context, step, result, goal string) Grade {
	prompt := fmt.Sprintf("Step:\n%s\n\nResult:\n%s\n\nOverall goal:\n%s", step, result, goal)

	resp, err := c.gateway.Invoke(ctx, model.Request{
		Instructions: gradeInstructions,
		Messages:     []core.Message{core.UserMessage(prompt)},
	})
	if err != nil {
		c.logger.Warn("step grading failed, treating as acceptable", "error", err)
		return Grade{Quality: QualityAcceptable}
	}

	var grade Grade
	if err := jsonx.Decode(resp.Text, &grade); err != nil {
		c.logger.Warn("grade output unparseable, treating as acceptable", "error", err)
		return Grade{Quality: QualityAcceptable}
	}

	switch grade.Quality {
	case QualityGood, QualityAcceptable, QualityNeedsRetry:
		return grade
	default:
		return Grade{Quality: QualityAcceptable, Feedback: grade.Feedback}
	}
}
