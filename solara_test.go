package solara

import (
	"context"
	"testing"

	"github.com/solara-ai/solara/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	fast := model.NewMockGateway("fast")
	fast.Enqueue(&model.Response{Text: "SHALLOW"})
	deep := model.NewMockGateway("deep")
	deep.Enqueue(&model.Response{Text: "short thought"})
	def := model.NewMockGateway("default")
	def.Enqueue(&model.Response{Text: "RESPONSE_INSTRUCTION: greet"})
	def.Enqueue(&model.Response{Text: "Hello there!"})

	s, err := New(model.Set{Fast: fast, Deep: deep, Default: def})
	require.NoError(t, err)

	answer, err := s.Ask(context.Background(), "Oi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", answer)
}

func TestNew_RequiresModels(t *testing.T) {
	_, err := New(model.Set{})
	require.Error(t, err)
}
