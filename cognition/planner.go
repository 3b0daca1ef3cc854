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

const plannerInstructions = `You are the planning mind of an autonomous agent.

Think through the request, then produce a JSON object:
{
  "monologue": "your reasoning about how to approach this",
  "steps": ["first step", "second step", ...]
}

Rules:
- Each step is a plain imperative directive executable on its own.
- Reference tools only by the exact names listed in the tool overview.
- Prefer few, substantive steps over many trivial ones.
- Output only the JSON object.`

const reflectInstructions = `In one or two sentences, note how you will approach the request. Plain text, no lists.`

// PlanResult is the planner's output for one request.
type PlanResult struct {
	Steps     []string
	Monologue string

	// Note carries a non-fatal problem encountered while planning, such as
	// unparseable model output that forced the identity fallback.
	Note string
}

// Planner produces ordered step plans on the deep model tier.
type Planner struct {
	gateway model.Gateway
	logger  logging.Logger
}

// NewPlanner creates a planner on the given deep-tier gateway.
func NewPlanner(gateway model.Gateway, logger logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Planner{gateway: gateway, logger: logger}
}

type planPayload struct {
	Monologue string   `json:"monologue"`
	Steps     []string `json:"steps"`
}

// Plan asks the model for a monologue and an ordered plan. toolingOverview
// lists the available tool names and descriptions; contextHint carries
// recalled memory. When the structured output cannot be parsed the plan
// falls back to the single-step identity plan and the failure is surfaced
// in Note rather than as an error.
func (p *Planner) Plan(ctx context.Context, request, toolingOverview, contextHint string) PlanResult {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Request:\n%s\n", request)
	if contextHint != "" {
		fmt.Fprintf(&sb, "\nRelevant memory:\n%s\n", contextHint)
	}
	fmt.Fprintf(&sb, "\nAvailable tools:\n%s\n", toolingOverview)

	resp, err := p.gateway.Invoke(ctx, model.Request{
		Instructions: plannerInstructions,
		Messages:     []core.Message{core.UserMessage(sb.String())},
	})
	if err != nil {
		p.logger.Warn("planning call failed, using identity plan", "error", err)
		return PlanResult{
			Steps: []string{request},
			Note:  fmt.Sprintf("planning failed (%v), proceeding with the request as a single step", err),
		}
	}

	var payload planPayload
	if err := jsonx.Decode(resp.Text, &payload); err != nil || len(payload.Steps) == 0 {
		p.logger.Warn("plan output unparseable, using identity plan", "error", err)
		return PlanResult{
			Steps: []string{request},
			Note:  "plan output could not be parsed, proceeding with the request as a single step",
		}
	}

	steps := make([]string, 0, len(payload.Steps))
	for _, s := range payload.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return PlanResult{
			Steps: []string{request},
			Note:  "plan contained no usable steps, proceeding with the request as a single step",
		}
	}
	return PlanResult{Steps: steps, Monologue: payload.Monologue}
}

// Reflect produces the short approach note used in shallow mode instead of a
// full plan. Failures yield an empty thought; reflection is never load
// bearing.
func (p *Planner) Reflect(ctx context.Context, request string) string {
	resp, err := p.gateway.Invoke(ctx, model.Request{
		Instructions: reflectInstructions,
		Messages:     []core.Message{core.UserMessage(request)},
	})
	if err != nil {
		p.logger.Debug("reflection failed", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Text)
}
