package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cumulus-classroom/cumulus/internal/domains/talk"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

// TalkRunner answers one recorded question with spoken audio.
type TalkRunner interface {
	Run(ctx context.Context, audio io.Reader) (*talk.Reply, error)
}

type TalkHandler struct {
	pipeline       TalkRunner
	maxUploadBytes int64
	logger         *Logger.Logger
}

func NewTalkHandler(pipeline TalkRunner, maxUploadBytes int64, logger *Logger.Logger) *TalkHandler {
	return &TalkHandler{pipeline: pipeline, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Talk answers a spoken question with a spoken reply
// @Summary Voice question to voice answer
// @Description Transcribes the uploaded clip, answers it with the classroom context and returns the answer as MP3.
// @Tags Talk
// @Accept multipart/form-data
// @Produce audio/mpeg
// @Param audio formData file true "Recorded question (any container ffmpeg can read)"
// @Success 200 {file} binary "MP3 reply"
// @Failure 400 {object} ErrorResponse "No audio file provided / No speech recognized"
// @Failure 405 {object} MessageResponse "Method not allowed"
// @Failure 413 {object} ErrorResponse "Audio file too large"
// @Failure 500 {object} ErrorResponse "Failed to process request"
// @Router /cumulus-talk [post]
func (h *TalkHandler) Talk(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Audio file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No audio file provided"})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Errorf("open uploaded audio: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process request", Details: err.Error()})
		return
	}
	defer file.Close()

	reply, err := h.pipeline.Run(c.Request.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, talk.ErrNoAudio):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No audio file provided"})
		case errors.Is(err, talk.ErrNoSpeechDetected):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No speech recognized"})
		default:
			h.logger.Errorf("talk request failed: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process request", Details: err.Error()})
		}
		return
	}

	h.logger.Debugf("answered a %d-character question with %d bytes of audio", len(reply.Transcript), len(reply.Audio))
	c.Header("Content-Disposition", reply.Disposition)
	c.Data(http.StatusOK, reply.ContentType, reply.Audio)
}
