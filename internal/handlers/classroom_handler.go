package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cumulus-classroom/cumulus/internal/domains/classroom"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

const maxImageBytes = 10 << 20

// TextReader extracts text from an image.
type TextReader interface {
	Read(ctx context.Context, image []byte) (string, error)
}

// ClassroomHandler serves the shared classroom context: the latest board
// read and the teacher's speech log.
type ClassroomHandler struct {
	service *classroom.Service
	ocr     TextReader
	logger  *Logger.Logger
}

func NewClassroomHandler(service *classroom.Service, ocr TextReader, logger *Logger.Logger) *ClassroomHandler {
	return &ClassroomHandler{service: service, ocr: ocr, logger: logger}
}

// SaveOCR replaces the latest board text
// @Summary Save OCR text
// @Tags Classroom
// @Accept json
// @Produce json
// @Param request body classroom.SaveTextRequest true "Text read from the board"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /save-ocr [post]
func (h *ClassroomHandler) SaveOCR(c *gin.Context) {
	var req classroom.SaveTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: fmt.Sprintf("Error saving OCR: %v", err)})
		return
	}
	if err := h.service.SaveOCR(c.Request.Context(), req.Text); err != nil {
		h.logger.Errorf("save ocr: %v", err)
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: fmt.Sprintf("Error saving OCR: %v", err)})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "OCR results saved"})
}

// GetOCR returns the latest board text
// @Summary Latest OCR text
// @Tags Classroom
// @Produce json
// @Success 200 {object} classroom.TextResponse
// @Failure 500 {object} ErrorResponse
// @Router /get-ocr [get]
func (h *ClassroomHandler) GetOCR(c *gin.Context) {
	text, err := h.service.LatestOCR(c.Request.Context())
	if err != nil {
		h.logger.Errorf("read ocr: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read STT text"})
		return
	}
	c.JSON(http.StatusOK, classroom.TextResponse{Text: text})
}

// SaveSTT appends a finished sentence of the teacher's speech
// @Summary Append teacher speech
// @Description Only text ending with a period is appended.
// @Tags Classroom
// @Accept json
// @Produce json
// @Param request body classroom.SaveTextRequest true "Recognized speech"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /save-stt [post]
func (h *ClassroomHandler) SaveSTT(c *gin.Context) {
	var req classroom.SaveTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: fmt.Sprintf("Error saving STT: %v", err)})
		return
	}
	appended, err := h.service.RecordSpeech(c.Request.Context(), req.Text)
	if err != nil {
		h.logger.Errorf("save stt: %v", err)
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: fmt.Sprintf("Error saving STT: %v", err)})
		return
	}
	if !appended {
		c.JSON(http.StatusOK, MessageResponse{Message: "No complete sentence to append"})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "STT sentence appended"})
}

// GetSTT returns the teacher's speech log
// @Summary Teacher speech log
// @Tags Classroom
// @Produce json
// @Success 200 {object} classroom.TextResponse
// @Failure 500 {object} ErrorResponse
// @Router /get-stt [get]
func (h *ClassroomHandler) GetSTT(c *gin.Context) {
	text, err := h.service.SpeechLog(c.Request.Context())
	if err != nil {
		h.logger.Errorf("read stt: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read STT text"})
		return
	}
	c.JSON(http.StatusOK, classroom.TextResponse{Text: text})
}

// OCR reads the text on an uploaded image
// @Summary Read text from an image
// @Description The raw request body is the image. Text found is also stored as the latest board read.
// @Tags Classroom
// @Accept octet-stream
// @Produce json
// @Success 200 {object} OCRResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /ocr [post]
func (h *ClassroomHandler) OCR(c *gin.Context) {
	image, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Image too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read image", Details: err.Error()})
		return
	}

	text, err := h.ocr.Read(c.Request.Context(), image)
	if err != nil {
		h.logger.Errorf("ocr: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	if text == "" {
		c.JSON(http.StatusOK, OCRResponse{Text: "No text detected"})
		return
	}
	if err := h.service.SaveOCR(c.Request.Context(), text); err != nil {
		h.logger.Warnf("ocr text not stored: %v", err)
	}
	c.JSON(http.StatusOK, OCRResponse{Text: text})
}
