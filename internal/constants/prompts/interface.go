package prompts

type PromptDefinition struct {
	Content string
	Version float32
}

type SYS_PROMPT struct {
	Intent         string
	CurrentVersion float32
	Items          map[float32]PromptDefinition // version-content
}

func (sp *SYS_PROMPT) GetCurrentPrompt() PromptDefinition {
	return sp.Items[sp.CurrentVersion]
}

// Preset is everything needed to lay out a classroom question for the model:
// the persona preamble, the labels of each context block and the question wrapper.
type Preset struct {
	Name            string
	Persona         SYS_PROMPT
	OCRLabel        string
	TranscriptLabel string
	// QuestionTemplate takes the student's question as its only %s verb.
	QuestionTemplate string
}

func (p Preset) PersonaText() string {
	return p.Persona.GetCurrentPrompt().Content
}

// WithPersona returns a copy whose current persona is text.
func (p Preset) WithPersona(text string) Preset {
	p.Persona = SYS_PROMPT{
		Intent:         p.Persona.Intent,
		CurrentVersion: 0,
		Items:          map[float32]PromptDefinition{0: {Content: text}},
	}
	return p
}
