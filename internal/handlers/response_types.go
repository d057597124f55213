package handlers

import (
	"github.com/cumulus-classroom/cumulus/internal/domains/note"
	"github.com/cumulus-classroom/cumulus/internal/domains/user"
)

// Response wrapper types for Swagger documentation

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Something went wrong"`
	Details string `json:"details,omitempty" example:"Validation error details"`
}

// MessageResponse carries a plain status message.
type MessageResponse struct {
	Message string `json:"message" example:"OCR results saved"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success bool              `json:"success" example:"true"`
	User    user.UserResponse `json:"user"`
}

// ProfileResponse represents the response for getting user profile
type ProfileResponse struct {
	User user.UserResponse `json:"user"`
}

type LogoutResponse struct {
	Success bool `json:"success" example:"true"`
}

type LinkDeviceResponse struct {
	Success  bool   `json:"success" example:"true"`
	DeviceID string `json:"deviceId" example:"esp32-classroom-01"`
}

type NoteCreatedResponse struct {
	Success bool      `json:"success" example:"true"`
	Note    note.Note `json:"note"`
	Message string    `json:"message" example:"Note received and saved successfully"`
}

type NotesResponse struct {
	Notes []note.Note `json:"notes"`
	Count int         `json:"count" example:"3"`
}

type ClearNotesResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"All notes cleared"`
	Deleted int64  `json:"deleted" example:"3"`
}

type NoteDatesResponse struct {
	Dates []string `json:"dates" example:"2024-05-14,2024-05-13"`
}

type SummaryResponse struct {
	Summary string `json:"summary" example:"- Photosynthesis converts light into chemical energy"`
}

// GPTRequest is the body of POST /api/gpt.
type GPTRequest struct {
	Prompt string `json:"prompt" example:"Explain Newton's first law"`
}

type GPTResponse struct {
	Response string `json:"response" example:"An object stays at rest unless a force acts on it."`
}

// GPTErrorResponse keeps the raw upstream failure for debugging.
type GPTErrorResponse struct {
	Error     string `json:"error" example:"Failed to fetch GPT response"`
	Details   string `json:"details" example:"401 Unauthorized"`
	FullError string `json:"fullError"`
}

type OCRResponse struct {
	Text string `json:"text" example:"E = mc^2\n"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
