package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/model"
	"github.com/yourusername/cleo-api/internal/prompt"
	"github.com/yourusername/cleo-api/internal/service"
)

type AIHandler struct {
	analyzer *service.ContentAnalyzer
	emails   *service.EmailGenerator
}

func NewAIHandler(analyzer *service.ContentAnalyzer, emails *service.EmailGenerator) *AIHandler {
	return &AIHandler{analyzer: analyzer, emails: emails}
}

// AnalyzeContent handles POST /api/analyze-content
// A reply that isn't valid JSON still answers 200 with the fallback analysis.
func (h *AIHandler) AnalyzeContent(c *gin.Context) {
	var req struct {
		MainContent string           `json:"mainContent"`
		AboutText   string           `json:"aboutText"`
		BlogPosts   []model.BlogPost `json:"blogPosts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if notConfigured(c, h.analyzer.Provider()) {
		return
	}

	result, _, err := h.analyzer.Analyze(c.Request.Context(), prompt.AnalyzeInput{
		MainContent: req.MainContent,
		AboutText:   req.AboutText,
		BlogPosts:   req.BlogPosts,
	})
	if err != nil {
		log.Error().Err(err).Msg("AI analysis error")
		fallback := service.AnalysisFallback("")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":                 "Failed to analyze content",
			"details":               err.Error(),
			"company_summary":       fallback.CompanySummary,
			"tone_of_voice_example": fallback.ToneOfVoiceExample,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateEmail handles POST /api/generate-email
func (h *AIHandler) GenerateEmail(c *gin.Context) {
	var req struct {
		CompanyName        string           `json:"companyName"`
		CompanyWebsite     string           `json:"companyWebsite"`
		LogoURL            string           `json:"logoUrl"`
		BlogPosts          []model.BlogPost `json:"blogPosts"`
		CompanyDescription string           `json:"companyDescription"`
		ToneOfVoice        string           `json:"toneOfVoice"`
		UserName           string           `json:"userName"`
		TargetRole         string           `json:"targetRole"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if notConfigured(c, h.emails.Provider()) {
		return
	}

	log.Info().
		Str("company", req.CompanyName).
		Str("target_role", req.TargetRole).
		Msg("Generating email")

	email, _, err := h.emails.Generate(c.Request.Context(), service.EmailRequest{
		EmailInput: prompt.EmailInput{
			CompanyName:        req.CompanyName,
			CompanyWebsite:     req.CompanyWebsite,
			CompanyDescription: req.CompanyDescription,
			ToneOfVoice:        req.ToneOfVoice,
			UserName:           req.UserName,
			TargetRole:         req.TargetRole,
			BlogPosts:          req.BlogPosts,
		},
		LogoURL: req.LogoURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("Email generation error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate email",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, email)
}
