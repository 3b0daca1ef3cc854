package cognition

import (
	"context"
	"errors"
	"testing"

	"github.com/solara-ai/solara/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_Shallow(t *testing.T) {
	gw := model.NewMockGateway("fast")
	gw.Enqueue(&model.Response{Text: "SHALLOW"})

	c := NewClassifier(gw, nil)
	assert.Equal(t, ModeShallow, c.Classify(context.Background(), "Oi", ""))
}

func TestClassifier_Deep(t *testing.T) {
	gw := model.NewMockGateway("fast")
	gw.Enqueue(&model.Response{Text: "deep\n"})

	c := NewClassifier(gw, nil)
	assert.Equal(t, ModeDeep, c.Classify(context.Background(), "refactor the billing module", ""))
}

func TestClassifier_FailureDefaultsToDeep(t *testing.T) {
	gw := model.NewMockGateway("fast")
	gw.EnqueueError(errors.New("gateway down"))

	c := NewClassifier(gw, nil)
	assert.Equal(t, ModeDeep, c.Classify(context.Background(), "anything", ""))
}

func TestClassifier_GarbageDefaultsToDeep(t *testing.T) {
	gw := model.NewMockGateway("fast")
	gw.Enqueue(&model.Response{Text: "probably medium?"})

	c := NewClassifier(gw, nil)
	assert.Equal(t, ModeDeep, c.Classify(context.Background(), "anything", ""))
}

func TestClassifier_HintIncludedInPrompt(t *testing.T) {
	gw := model.NewMockGateway("fast")
	gw.Enqueue(&model.Response{Text: "SHALLOW"})

	c := NewClassifier(gw, nil)
	c.Classify(context.Background(), "what's my name?", "User's name is Ana")

	calls := gw.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Messages[0].Text, "User's name is Ana")
}

func TestPlanner_ParsesStructuredPlan(t *testing.T) {
	gw := model.NewMockGateway("deep")
	gw.Enqueue(&model.Response{Text: "```json\n" +
		`{"monologue": "two phases", "steps": ["gather data", "write report"]}` +
		"\n```"})

	p := NewPlanner(gw, nil)
	result := p.Plan(context.Background(), "make a report", "- write_file: writes", "")

	assert.Equal(t, []string{"gather data", "write report"}, result.Steps)
	assert.Equal(t, "two phases", result.Monologue)
	assert.Empty(t, result.Note)
}

func TestPlanner_UnparseableFallsBackToIdentity(t *testing.T) {
	gw := model.NewMockGateway("deep")
	gw.Enqueue(&model.Response{Text: "I think we should just wing it"})

	p := NewPlanner(gw, nil)
	result := p.Plan(context.Background(), "make a report", "", "")

	assert.Equal(t, []string{"make a report"}, result.Steps)
	assert.NotEmpty(t, result.Note)
}

func TestPlanner_GatewayErrorFallsBackToIdentity(t *testing.T) {
	gw := model.NewMockGateway("deep")
	gw.EnqueueError(errors.New("timeout"))

	p := NewPlanner(gw, nil)
	result := p.Plan(context.Background(), "make a report", "", "")

	assert.Equal(t, []string{"make a report"}, result.Steps)
	assert.Contains(t, result.Note, "planning failed")
}

func TestPlanner_Reflect(t *testing.T) {
	gw := model.NewMockGateway("fast")
	gw.Enqueue(&model.Response{Text: " I'll answer directly. "})

	p := NewPlanner(gw, nil)
	assert.Equal(t, "I'll answer directly.", p.Reflect(context.Background(), "Oi"))
}

func TestPlanner_ReflectFailureIsEmpty(t *testing.T) {
	gw := model.NewMockGateway("fast")
	gw.EnqueueError(errors.New("down"))

	p := NewPlanner(gw, nil)
	assert.Empty(t, p.Reflect(context.Background(), "Oi"))
}

func TestCritic_OptimizeSingleStepNoCall(t *testing.T) {
	gw := model.NewMockGateway("deep")
	c := NewCritic(gw, nil)

	plan := []string{"do the thing"}
	assert.Equal(t, plan, c.Optimize(context.Background(), plan))
	assert.Empty(t, gw.Calls(), "single-step plans must not invoke the model")
}

func TestCritic_OptimizeRemovesDuplicates(t *testing.T) {
	gw := model.NewMockGateway("deep")
	gw.Enqueue(&model.Response{Text: `["gather data", "write report"]`})

	c := NewCritic(gw, nil)
	got := c.Optimize(context.Background(), []string{"gather data", "gather data again", "write report"})
	assert.Equal(t, []string{"gather data", "write report"}, got)
}

func TestCritic_OptimizeFailureKeepsOriginal(t *testing.T) {
	gw := model.NewMockGateway("deep")
	gw.EnqueueError(errors.New("down"))

	c := NewCritic(gw, nil)
	plan := []string{"a", "b"}
	assert.Equal(t, plan, c.Optimize(context.Background(), plan))
}

func TestCritic_OptimizeUnparseableKeepsOriginal(t *testing.T) {
	gw := model.NewMockGateway("deep")
	gw.Enqueue(&model.Response{Text: "looks fine to me"})

	c := NewCritic(gw, nil)
	plan := []string{"a", "b"}
	assert.Equal(t, plan, c.Optimize(context.Background(), plan))
}

func TestCritic_GradeStep(t *testing.T) {
	gw := model.NewMockGateway("deep")
	gw.Enqueue(&model.Response{Text: `{"quality": "needs_retry", "feedback": "file was empty"}`})

	c := NewCritic(gw, nil)
	grade := c.GradeStep(context.Background(), "write the file", "", "produce a report")
	assert.Equal(t, QualityNeedsRetry, grade.Quality)
	assert.Equal(t, "file was empty", grade.Feedback)
}

func TestCritic_GradeFailureIsAcceptable(t *testing.T) {
	gw := model.NewMockGateway("deep")
	gw.EnqueueError(errors.New("down"))

	c := NewCritic(gw, nil)
	assert.Equal(t, QualityAcceptable, c.GradeStep(context.Background(), "s", "r", "g").Quality)
}

func TestCritic_UnknownQualityIsAcceptable(t *testing.T) {
	gw := model.NewMockGateway("deep")
	gw.Enqueue(&model.Response{Text: `{"quality": "stellar", "feedback": "great"}`})

	c := NewCritic(gw, nil)
	grade := c.GradeStep(context.Background(), "s", "r", "g")
	assert.Equal(t, QualityAcceptable, grade.Quality)
	assert.Equal(t, "great", grade.Feedback)
}
