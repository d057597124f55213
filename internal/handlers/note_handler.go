package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cumulus-classroom/cumulus/internal/domains/note"
	"github.com/cumulus-classroom/cumulus/internal/domains/user"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	noteService note.NoteService
	userService user.UserService
	logger      *Logger.Logger
}

func NewNoteHandler(noteService note.NoteService, userService user.UserService, logger *Logger.Logger) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		userService: userService,
		logger:      logger,
	}
}

// CreateNote stores a note sent by a device
// @Summary Create a note
// @Description Devices post without a session and the note goes to the account the device is linked to. A signed-in caller may omit the device.
// @Tags Notes
// @Accept json
// @Produce json
// @Param request body note.CreateNoteRequest true "Note"
// @Success 200 {object} NoteCreatedResponse
// @Failure 400 {object} ErrorResponse "Missing text or device"
// @Failure 404 {object} ErrorResponse "Device is not linked to any account"
// @Failure 500 {object} ErrorResponse "Failed to process note"
// @Router /notes [post]
func (h *NoteHandler) CreateNote(c *gin.Context) {
	var req note.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Text is required and must be a string"})
		return
	}

	ownerID := c.GetString(ctxUserID)
	if strings.TrimSpace(req.DeviceID) != "" {
		owner, err := h.userService.ResolveDevice(c.Request.Context(), req.DeviceID)
		if err != nil {
			if errors.Is(err, user.ErrDeviceNotLinked) {
				c.JSON(http.StatusNotFound, ErrorResponse{Error: "Device is not linked to any account"})
				return
			}
			h.logger.Errorf("error resolving device %s: %v", req.DeviceID, err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process note"})
			return
		}
		ownerID = owner.ID
	}
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Valid device ID is required"})
		return
	}

	created, err := h.noteService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		if errors.Is(err, note.ErrInvalidNoteData) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Text is required and must be a string"})
			return
		}
		h.logger.Errorf("error processing note: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process note"})
		return
	}

	c.JSON(http.StatusOK, NoteCreatedResponse{
		Success: true,
		Note:    *created,
		Message: "Note received and saved successfully",
	})
}

// GetNotes lists one day of notes
// @Summary List notes of a day
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day as YYYY-MM-DD, defaults to today (UTC)"
// @Success 200 {object} NotesResponse
// @Failure 400 {object} ErrorResponse "Invalid date"
// @Failure 401 {object} ErrorResponse "Not authenticated"
// @Failure 500 {object} ErrorResponse "Failed to read notes"
// @Router /notes [get]
func (h *NoteHandler) GetNotes(c *gin.Context) {
	userID, ok := ExtractUserID(c)
	if !ok {
		return
	}

	notes, err := h.noteService.List(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		h.dateError(c, err, "Failed to read notes")
		return
	}
	c.JSON(http.StatusOK, NotesResponse{Notes: notes, Count: len(notes)})
}

// ClearNotes deletes one day of notes
// @Summary Clear notes of a day
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day as YYYY-MM-DD, defaults to today (UTC)"
// @Success 200 {object} ClearNotesResponse
// @Failure 400 {object} ErrorResponse "Invalid date"
// @Failure 401 {object} ErrorResponse "Not authenticated"
// @Failure 500 {object} ErrorResponse "Failed to clear notes"
// @Router /notes [delete]
func (h *NoteHandler) ClearNotes(c *gin.Context) {
	userID, ok := ExtractUserID(c)
	if !ok {
		return
	}

	deleted, err := h.noteService.Clear(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		h.dateError(c, err, "Failed to clear notes")
		return
	}
	c.JSON(http.StatusOK, ClearNotesResponse{Success: true, Message: "All notes cleared", Deleted: deleted})
}

// GetNoteDates lists the days that have notes
// @Summary Days with notes
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} NoteDatesResponse
// @Failure 401 {object} ErrorResponse "Not authenticated"
// @Failure 500 {object} ErrorResponse "Failed to fetch dates"
// @Router /notes/dates [get]
func (h *NoteHandler) GetNoteDates(c *gin.Context) {
	userID, ok := ExtractUserID(c)
	if !ok {
		return
	}

	dates, err := h.noteService.Dates(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorf("error fetching dates: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch dates"})
		return
	}
	c.JSON(http.StatusOK, NoteDatesResponse{Dates: dates})
}

// SummarizeNotes asks the assistant to summarize a day of notes
// @Summary Summarize notes of a day
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body note.SummaryRequest true "Day and language"
// @Success 200 {object} SummaryResponse
// @Failure 400 {object} ErrorResponse "Invalid date or language"
// @Failure 404 {object} ErrorResponse "No notes for this date"
// @Failure 500 {object} ErrorResponse "Failed to generate summary"
// @Router /notes/summary [post]
func (h *NoteHandler) SummarizeNotes(c *gin.Context) {
	userID, ok := ExtractUserID(c)
	if !ok {
		return
	}

	var req note.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request data", Details: err.Error()})
		return
	}

	summary, err := h.noteService.Summarize(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, note.ErrUnsupportedLanguage):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Language must be english or indonesian"})
		case errors.Is(err, note.ErrNoNotes):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "No notes for this date"})
		default:
			h.dateError(c, err, "Failed to generate summary")
		}
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{Summary: summary})
}

func (h *NoteHandler) dateError(c *gin.Context, err error, message string) {
	if errors.Is(err, note.ErrInvalidDate) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Date must be formatted YYYY-MM-DD"})
		return
	}
	h.logger.Errorf("%s: %v", strings.ToLower(message), err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message, Details: err.Error()})
}
