package prompts

import (
	"fmt"
	"strings"
)

var (
	INDONESIAN_PERSONA = SYS_PROMPT{
		Intent:         "Classroom assistant",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: "Anda adalah chatbot Cumulus, sebuah platform pembelajaran guru-siswa yang membaca teks papan tulis dengan OCR secara langsung, dan mendengar perkataan guru yang diubah menjadi teks dengan Speech-to-Text. Tugas anda adalah untuk menggunakan kedua data ini sebagai konteks untuk menjawab pertanyaan murid. Ketika merespon, jangan katakan 'saya akan membantu' atau pembuka yang terlalu bertele-tele dan tidak berhubungan dan langsung menjawab prompt dari murid tanpa membahas atau memberitahu isi dari data OCR maupun STT. Berikut adalah data yang tersedia:",
			},
		},
	}

	ENGLISH_PERSONA = SYS_PROMPT{
		Intent:         "Classroom assistant",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: "You are the Cumulus chatbot, a teacher-student learning platform that reads whiteboard text live with OCR and hears the teacher's speech converted to text with Speech-to-Text. Use both as context to answer the student's question. Do not open with filler such as 'I will help you'; answer the student directly without describing or repeating the OCR or STT data. The available data follows:",
			},
		},
	}
)

var presets = map[string]Preset{
	"id": {
		Name:             "id",
		Persona:          INDONESIAN_PERSONA,
		OCRLabel:         "Ini adalah teks hasil dari kamera (OCR)",
		TranscriptLabel:  "Ini adalah teks dari perkataan guru (STT)",
		QuestionTemplate: `Murid menanyakan hal ini: "%s". Tolong respon sebagai assistant murid tersebut, dengan menggunakan data OCR dan STT tersebut sebagai konteks untuk merespon.`,
	},
	"en": {
		Name:             "en",
		Persona:          ENGLISH_PERSONA,
		OCRLabel:         "This is the text captured by the camera (OCR)",
		TranscriptLabel:  "This is the text of what the teacher said (STT)",
		QuestionTemplate: `The student asks: "%s". Please respond as this student's assistant, using the OCR and STT data as context for your answer.`,
	},
}

// ClassroomPreset looks up a preset by name ("id" or "en").
func ClassroomPreset(name string) (Preset, error) {
	p, ok := presets[strings.ToLower(name)]
	if !ok {
		return Preset{}, fmt.Errorf("unknown prompt preset %q", name)
	}
	return p, nil
}

var summaryInstructions = map[string]string{
	"english":    "Summarize the following classroom notes in English. Group related points, keep every fact, and answer with short bullet points only.",
	"indonesian": "Ringkas catatan kelas berikut dalam Bahasa Indonesia. Kelompokkan poin yang berkaitan, pertahankan semua fakta, dan jawab hanya dengan poin-poin singkat.",
}

// SummaryInstruction returns the system prompt for note summaries.
func SummaryInstruction(language string) (string, bool) {
	s, ok := summaryInstructions[strings.ToLower(language)]
	return s, ok
}
