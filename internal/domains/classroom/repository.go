package classroom

import "context"

// Snapshot is the classroom context a student question is answered against.
type Snapshot struct {
	OCRText    string `json:"ocrText"`
	Transcript string `json:"transcript"`
}

// TextResponse is the body of the read endpoints.
// @Description Stored classroom text
type TextResponse struct {
	Text string `json:"text" example:"E = mc^2"`
}

// SaveTextRequest is the body of the save endpoints.
// @Description Text to store
type SaveTextRequest struct {
	Text string `json:"text" example:"Hukum Newton pertama menyatakan..."`
}

// Store persists the latest board read and the running log of what the
// teacher said. Missing data reads as an empty string.
type Store interface {
	SaveOCR(ctx context.Context, text string) error
	LatestOCR(ctx context.Context) (string, error)
	AppendSpeech(ctx context.Context, line string) error
	SpeechLog(ctx context.Context) (string, error)
}
