package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassroomPreset(t *testing.T) {
	p, err := ClassroomPreset("ID")
	require.NoError(t, err)
	assert.Equal(t, "id", p.Name)
	assert.Contains(t, p.PersonaText(), "Anda adalah chatbot Cumulus")

	_, err = ClassroomPreset("fr")
	assert.Error(t, err)
}

func TestWithPersonaOverridesOnlyPersona(t *testing.T) {
	p, err := ClassroomPreset("en")
	require.NoError(t, err)

	custom := p.WithPersona("You are a chemistry tutor.")
	assert.Equal(t, "You are a chemistry tutor.", custom.PersonaText())
	assert.Equal(t, p.OCRLabel, custom.OCRLabel)
	// the shared preset is untouched
	assert.Contains(t, p.PersonaText(), "Cumulus chatbot")
}

func TestSummaryInstruction(t *testing.T) {
	_, ok := SummaryInstruction("english")
	assert.True(t, ok)
	_, ok = SummaryInstruction("Indonesian")
	assert.True(t, ok)
	_, ok = SummaryInstruction("klingon")
	assert.False(t, ok)
}

func TestPersonaTextFollowsCurrentVersion(t *testing.T) {
	p := Preset{Persona: SYS_PROMPT{
		CurrentVersion: 2,
		Items: map[float32]PromptDefinition{
			1: {Content: "old persona", Version: 1},
			2: {Content: "new persona", Version: 2},
		},
	}}
	assert.Equal(t, "new persona", p.PersonaText())
}
