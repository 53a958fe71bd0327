package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"translate", "explain", "polish", "explain-in-context"} {
		m, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), m)
	}

	_, err := ParseMode("summarize")
	assert.Error(t, err)
}

func TestRender_Translate(t *testing.T) {
	r := NewRenderer()

	system, user, err := r.Render(ModeTranslate, Data{
		Text:       "Guten Morgen",
		SourceLang: "German",
		TargetLang: "English",
	})
	require.NoError(t, err)

	assert.Contains(t, system, "from German")
	assert.Contains(t, system, "into English")
	assert.Equal(t, "Guten Morgen", user)
}

func TestRender_TranslateAutoDetect(t *testing.T) {
	r := NewRenderer()

	system, _, err := r.Render(ModeTranslate, Data{
		Text:       "Guten Morgen",
		TargetLang: "English",
	})
	require.NoError(t, err)

	// No source language clause when the source is auto-detected.
	assert.NotContains(t, system, "from ")
	assert.Contains(t, system, "into English")
}

func TestRender_ExplainInContext(t *testing.T) {
	r := NewRenderer()

	_, user, err := r.Render(ModeExplainInContext, Data{
		Text:       "auf den Arm nehmen",
		Context:    "Er wollte mich nur auf den Arm nehmen.",
		TargetLang: "English",
	})
	require.NoError(t, err)

	assert.Contains(t, user, "Er wollte mich nur auf den Arm nehmen.")
	assert.Contains(t, user, "auf den Arm nehmen")
}

func TestRender_Override(t *testing.T) {
	r := NewRenderer()
	r.SetTemplate(ModePolish, "system", "Polish this like {{.TargetLang}} royalty.")

	system, user, err := r.Render(ModePolish, Data{Text: "hi", TargetLang: "British"})
	require.NoError(t, err)

	assert.Equal(t, "Polish this like British royalty.", system)
	assert.Equal(t, "hi", user)
}

func TestRender_BadOverride(t *testing.T) {
	r := NewRenderer()
	r.SetTemplate(ModePolish, "system", "{{.Unclosed")

	_, _, err := r.Render(ModePolish, Data{Text: "hi"})
	assert.Error(t, err)
}
