package talk

import (
	"fmt"
	"strings"

	"github.com/cumulus-classroom/cumulus/internal/constants/prompts"
)

// ContextBlocks is the optional material a question is answered against.
type ContextBlocks struct {
	OCR        string
	Transcript string
}

// Composer lays out a prompt as persona, OCR block, teacher transcript block
// and question, separated by blank lines. Empty blocks are left out.
type Composer struct {
	preset prompts.Preset
}

func NewComposer(preset prompts.Preset) Composer {
	return Composer{preset: preset}
}

func (c Composer) Compose(question string, aux ContextBlocks) string {
	if strings.TrimSpace(question) == "" {
		panic("talk: Compose called with an empty question")
	}

	sections := []string{c.preset.PersonaText()}
	if aux.OCR != "" {
		sections = append(sections, fmt.Sprintf(`%s: "%s"`, c.preset.OCRLabel, aux.OCR))
	}
	if aux.Transcript != "" {
		sections = append(sections, fmt.Sprintf(`%s: "%s"`, c.preset.TranscriptLabel, aux.Transcript))
	}
	sections = append(sections, fmt.Sprintf(c.preset.QuestionTemplate, question))
	return strings.Join(sections, "\n\n")
}
