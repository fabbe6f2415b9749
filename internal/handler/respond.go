package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yourusername/cleo-api/internal/llm"
)

var validate = validator.New()

// Health handles GET /api/health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// validationMessage turns binding/validator errors into one readable line.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		parts := make([]string, 0, len(ve))
		for _, fe := range ve {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return "Invalid request: " + strings.Join(parts, ", ")
	}
	return "Invalid request body"
}

// notConfigured writes the 500 every LLM endpoint returns without an API key.
// It reports whether it wrote a response.
func notConfigured(c *gin.Context, p llm.Provider) bool {
	if llm.Configured(p) {
		return false
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": llm.NotConfiguredMessage(p)})
	return true
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}
