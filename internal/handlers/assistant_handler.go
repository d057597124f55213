package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
	"github.com/cumulus-classroom/cumulus/pkg/assistant"
)

// Replier is the raw chat entry point of the assistant.
type Replier interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

type AssistantHandler struct {
	assistant Replier
	logger    *Logger.Logger
}

func NewAssistantHandler(a Replier, logger *Logger.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: a, logger: logger}
}

// Chat forwards a prompt to the completion engine
// @Summary Raw chat completion
// @Tags Assistant
// @Accept json
// @Produce json
// @Param request body GPTRequest true "Prompt"
// @Success 200 {object} GPTResponse
// @Failure 400 {object} ErrorResponse "Prompt is required"
// @Failure 500 {object} GPTErrorResponse "Failed to fetch GPT response"
// @Router /gpt [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req GPTRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prompt is required"})
		return
	}

	answer, err := h.assistant.Reply(c.Request.Context(), req.Prompt)
	if err != nil {
		h.logger.Errorf("completion request failed: %v", err)
		details, full := err.Error(), fmt.Sprintf("%+v", err)
		var cerr *assistant.CompletionError
		if errors.As(err, &cerr) {
			details = cerr.Detail
			if cerr.Err != nil {
				full = fmt.Sprintf("%+v", cerr.Err)
			}
		}
		c.JSON(http.StatusInternalServerError, GPTErrorResponse{
			Error:     "Failed to fetch GPT response",
			Details:   details,
			FullError: full,
		})
		return
	}
	c.JSON(http.StatusOK, GPTResponse{Response: answer})
}
