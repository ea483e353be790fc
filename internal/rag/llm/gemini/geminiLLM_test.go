package gemini

import (
	"testing"

	"github.com/akolanti/StudyRAG/internal/domain/sessionModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToContents(t *testing.T) {
	system, contents := toContents([]sessionModel.Message{
		{Role: sessionModel.RoleSystem, Content: "あなたは講師です"},
		{Role: sessionModel.RoleUser, Content: "q1"},
		{Role: sessionModel.RoleAssistant, Content: "a1"},
		{Role: sessionModel.RoleUser, Content: "q2"},
	})

	assert.Equal(t, "あなたは講師です", system)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "a1", contents[1].Parts[0].Text)
	assert.Equal(t, "user", contents[2].Role)
}

func TestGetGeminiClient_MissingKey(t *testing.T) {
	_, err := GetGeminiClient(t.Context(), "gemini-test", "")
	assert.Error(t, err)
}
