package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/service"
)

type ResumeHandler struct {
	extractor *service.ResumeExtractor
}

func NewResumeHandler(extractor *service.ResumeExtractor) *ResumeHandler {
	return &ResumeHandler{extractor: extractor}
}

// Upload handles POST /api/candidates/resume
// Accepts a PDF via multipart form field "file" and returns the candidate
// background Cleo can use in chat.
func (h *ResumeHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are supported"})
		return
	}
	if header.Size > service.MaxResumeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large. Maximum size is 10MB."})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, service.MaxResumeBytes+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	text, err := h.extractor.ExtractText(data)
	switch {
	case errors.Is(err, service.ErrResumeTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large. Maximum size is 10MB."})
		return
	case errors.Is(err, service.ErrNotPDF):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid PDF file"})
		return
	case errors.Is(err, service.ErrTooLittleText):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Very little text was extracted. This PDF may be image-based (scanned). Try a text-based PDF.",
		})
		return
	case err != nil:
		log.Error().Err(err).Msg("Failed to extract text from PDF")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Could not extract text from this PDF. It may be image-based or corrupted.",
		})
		return
	}

	log.Info().
		Str("filename", header.Filename).
		Int("bytes", len(data)).
		Int("textLen", len(text)).
		Msg("Resume PDF text extracted")

	c.JSON(http.StatusOK, gin.H{
		"filename":         header.Filename,
		"candidateProfile": h.extractor.Profile(text),
	})
}
