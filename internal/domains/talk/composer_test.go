package talk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-classroom/cumulus/internal/constants/prompts"
)

func indonesianPreset(t *testing.T) prompts.Preset {
	t.Helper()
	p, err := prompts.ClassroomPreset("id")
	require.NoError(t, err)
	return p
}

func TestComposeOrdersSections(t *testing.T) {
	preset := indonesianPreset(t)
	c := NewComposer(preset)

	got := c.Compose("apa itu gaya gravitasi?", ContextBlocks{
		OCR:        "F = G m1 m2 / r^2",
		Transcript: "Gravitasi menarik benda.\n",
	})

	want := strings.Join([]string{
		preset.PersonaText(),
		`Ini adalah teks hasil dari kamera (OCR): "F = G m1 m2 / r^2"`,
		"Ini adalah teks dari perkataan guru (STT): \"Gravitasi menarik benda.\n\"",
		`Murid menanyakan hal ini: "apa itu gaya gravitasi?". Tolong respon sebagai assistant murid tersebut, dengan menggunakan data OCR dan STT tersebut sebagai konteks untuk merespon.`,
	}, "\n\n")
	assert.Equal(t, want, got)
}

func TestComposeSkipsEmptyBlocks(t *testing.T) {
	preset := indonesianPreset(t)
	c := NewComposer(preset)

	onlyQuestion := c.Compose("halo", ContextBlocks{})
	parts := strings.Split(onlyQuestion, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, preset.PersonaText(), parts[0])
	assert.True(t, strings.HasPrefix(parts[1], "Murid menanyakan hal ini"))

	withOCR := c.Compose("halo", ContextBlocks{OCR: "x + y"})
	assert.Contains(t, withOCR, "(OCR)")
	assert.NotContains(t, withOCR, "(STT)")
}

func TestComposeIsDeterministic(t *testing.T) {
	c := NewComposer(indonesianPreset(t))
	aux := ContextBlocks{OCR: "board", Transcript: "speech."}
	assert.Equal(t, c.Compose("q", aux), c.Compose("q", aux))
}

func TestComposePanicsWithoutQuestion(t *testing.T) {
	c := NewComposer(indonesianPreset(t))
	assert.Panics(t, func() { c.Compose("  ", ContextBlocks{}) })
}
