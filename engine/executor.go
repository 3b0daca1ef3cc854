package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/solara-ai/solara/cognition"
	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/logging"
	"github.com/solara-ai/solara/model"
	"github.com/solara-ai/solara/tool"
)

// ResponseSentinel is the fixed prefix the execution model must emit to
// signal that a step is complete. Any turn without it and without tool calls
// is treated as incomplete.
const ResponseSentinel = "RESPONSE_INSTRUCTION:"

// maxToolRoundsPerAttempt caps consecutive tool-using turns inside one
// attempt so a model that never concludes cannot spin forever.
const maxToolRoundsPerAttempt = 8

const executorInstructions = `You execute one step of a plan. You may call the available tools as many
times as needed. When the step is done, reply with a single line starting
with "` + ResponseSentinel + `" followed by the outcome of the step. Do not
use the marker until the step is truly finished.`

const correctiveNote = `Your previous reply was neither a tool call nor a completed step. Either
call a tool, or finish the step with a single reply starting with
"` + ResponseSentinel + `".`

// stepState tracks one in-flight step.
type stepState struct {
	attempts   int
	completed  bool
	lastResult string
}

// stepExecutor drives one step to completion through zero or more tool
// calls, bounded retries, and in deep mode a critique gate.
type stepExecutor struct {
	gateway    model.Gateway
	tools      *tool.Registry
	critic     *cognition.Critic
	logger     logging.Logger
	maxRetries int
	emit       func(core.Event)
}

// run executes the step directive against the transcript, which accumulates
// every assistant turn and tool result so later steps see earlier work. The
// returned state always carries the best last result seen, even on
// exhaustion.
func (x *stepExecutor) run(ctx context.Context, transcript *core.Transcript, step, goal string, mode cognition.Mode) stepState {
	state := stepState{attempts: 1}

	transcript.Append(core.UserMessage(fmt.Sprintf("Current step: %s", step)))

	toolRounds := 0
	for {
		if err := ctx.Err(); err != nil {
			x.logger.Warn("step canceled", "step", step, "error", err)
			return state
		}

		start := time.Now()
		resp, err := x.gateway.Invoke(ctx, model.Request{
			Instructions: executorInstructions,
			Messages:     transcript.Messages(),
			Tools:        x.tools.Specs(),
		})
		if ml, ok := x.logger.(logging.ModelCallLogger); ok {
			ml.LogModelCall("execution", time.Since(start), err == nil, err)
		}
		if err != nil {
			x.logger.Warn("execution call failed", "step", step, "attempt", state.attempts, "error", err)
			if !x.nextAttempt(&state, transcript, fmt.Sprintf("The previous attempt failed (%v). Try again.", err)) {
				return state
			}
			continue
		}

		if resp.HasToolCalls() {
			toolRounds++
			if toolRounds > maxToolRoundsPerAttempt {
				x.logger.Warn("tool round budget exceeded", "step", step, "attempt", state.attempts)
				if !x.nextAttempt(&state, transcript, "Too many consecutive tool calls. Finish the step now using the completion marker.") {
					return state
				}
				toolRounds = 0
				continue
			}
			x.dispatchTools(ctx, transcript, resp)
			continue
		}

		text := strings.TrimSpace(resp.Text)
		if idx := strings.Index(text, ResponseSentinel); idx >= 0 {
			result := strings.TrimSpace(text[idx+len(ResponseSentinel):])
			if result != "" {
				state.lastResult = result
			}
			transcript.Append(core.AssistantMessage(text))

			if mode == cognition.ModeDeep {
				grade := x.critic.GradeStep(ctx, step, state.lastResult, goal)
				if grade.Feedback != "" {
					x.emit(core.NewThoughtEvent(fmt.Sprintf("critique: %s", grade.Feedback)))
				}
				if grade.Quality == cognition.QualityNeedsRetry {
					if state.attempts < x.maxRetries {
						state.attempts++
						toolRounds = 0
						transcript.Append(core.SystemMessage(fmt.Sprintf(
							"The result was judged insufficient: %s. Redo the step.", grade.Feedback)))
						x.emit(core.NewLogEvent(fmt.Sprintf("retrying step (attempt %d/%d)", state.attempts, x.maxRetries)))
						continue
					}
					x.logger.Warn("retry budget consumed, keeping best result", "step", step)
				}
			}
			state.completed = true
			return state
		}

		// Neither tool calls nor the sentinel: incomplete turn.
		transcript.Append(core.AssistantMessage(text))
		x.logger.Debug("incomplete turn", "step", step, "attempt", state.attempts)
		if !x.nextAttempt(&state, transcript, correctiveNote) {
			return state
		}
	}
}

// nextAttempt consumes one attempt and injects note into the transcript.
// It returns false when the budget is exhausted.
func (x *stepExecutor) nextAttempt(state *stepState, transcript *core.Transcript, note string) bool {
	if state.attempts >= x.maxRetries {
		x.logger.Warn("step exhausted", "attempts", state.attempts)
		return false
	}
	state.attempts++
	transcript.Append(core.SystemMessage(note))
	return true
}

// dispatchTools runs every returned tool call and appends the results to the
// transcript. Unknown tools and tool failures come back as textual results,
// never as errors.
func (x *stepExecutor) dispatchTools(ctx context.Context, transcript *core.Transcript, resp *model.Response) {
	transcript.Append(core.AssistantToolCalls(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		x.emit(core.NewToolCallEvent(call.Name, call.Args))
		x.logger.Debug("dispatching tool", "tool", call.Name)

		start := time.Now()
		result := x.tools.Dispatch(ctx, call)
		if tl, ok := x.logger.(logging.ToolCallLogger); ok {
			var derr error
			if result.IsError {
				derr = errors.New(result.Content)
			}
			tl.LogToolCall(call.Name, time.Since(start), !result.IsError, derr)
		}
		x.emit(core.NewToolResultEvent(preview(result.Content, 200), result.Content))
		transcript.Append(core.ToolResultMessage(result))
	}
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
