package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptSeedSurvivesReset(t *testing.T) {
	seed := SystemMessage("you are solara")
	tr := NewTranscript(&seed)

	tr.Append(UserMessage("hello"), AssistantMessage("hi"))
	require.Equal(t, 3, tr.Len())

	tr.Reset()
	msgs := tr.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "you are solara", msgs[0].Text)
}

func TestTranscriptWithoutSeedResetsEmpty(t *testing.T) {
	tr := NewTranscript(nil)
	tr.Append(UserMessage("hello"))
	tr.Reset()
	assert.Zero(t, tr.Len())
}

func TestTranscriptMessagesIsDefensiveCopy(t *testing.T) {
	tr := NewTranscript(nil)
	tr.Append(UserMessage("original"))

	msgs := tr.Messages()
	msgs[0].Text = "mutated"

	assert.Equal(t, "original", tr.Messages()[0].Text)
}
