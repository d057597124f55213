package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxClaims = "claims"
)

// ExtractUserID returns the authenticated caller or answers 401 itself.
func ExtractUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(ctxUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return "", false
	}
	return userID, true
}
