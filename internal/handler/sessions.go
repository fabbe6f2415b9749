package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/catalog"
	"github.com/yourusername/cleo-api/internal/conversation"
	"github.com/yourusername/cleo-api/internal/model"
	"github.com/yourusername/cleo-api/internal/repository"
)

var errCandidateNotFound = errors.New("candidate not found")

type SessionHandler struct {
	store   repository.SessionStore
	catalog *catalog.Catalog
}

func NewSessionHandler(store repository.SessionStore, c *catalog.Catalog) *SessionHandler {
	return &SessionHandler{store: store, catalog: c}
}

// Create handles POST /api/sessions
// Body is the setup screen: name and a valid email are required.
func (h *SessionHandler) Create(c *gin.Context) {
	var setup model.DemoSetupData
	if err := c.ShouldBindJSON(&setup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	setup.UserName = strings.TrimSpace(setup.UserName)
	setup.UserEmail = strings.TrimSpace(setup.UserEmail)
	if err := validate.Struct(setup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	if setup.Backend == "" {
		setup.Backend = h.catalog.DefaultBackend
	}
	backend, ok := h.catalog.Backend(setup.Backend)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown backend"})
		return
	}
	setup.Backend = backend.Name

	s := model.NewDemoSession(setup)
	if err := h.store.Create(c.Request.Context(), s); err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	log.Info().Str("session", s.ID.String()).Str("backend", setup.Backend).Msg("Demo session started")
	c.JSON(http.StatusCreated, s)
}

// Get handles GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	s, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get session"})
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, s)
}

// Update handles PATCH /api/sessions/:id
// Only fields present in the body are changed.
func (h *SessionHandler) Update(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req struct {
		Step             *string                `json:"step"`
		SelectedGoal     *string                `json:"selectedGoal"`
		SelectedSegments []string               `json:"selectedSegments"`
		Backend          *string                `json:"backend"`
		Company          *model.CrawlerResult   `json:"company"`
		Emails           []model.GeneratedEmail `json:"emails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Step != nil && !model.ValidStep(*req.Step) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid step"})
		return
	}

	var backend string
	if req.Backend != nil {
		b, ok := h.catalog.Backend(*req.Backend)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown backend"})
			return
		}
		backend = b.Name
	}

	s, ok := h.update(c, id, func(s *model.DemoSession) error {
		if backend != "" {
			s.Setup.Backend = backend
		}
		if req.Step != nil {
			s.Step = *req.Step
		}
		if req.SelectedGoal != nil {
			s.Setup.SelectedGoal = *req.SelectedGoal
		}
		if req.SelectedSegments != nil {
			s.Setup.SelectedSegments = req.SelectedSegments
		}
		if req.Company != nil {
			s.Company = req.Company
		}
		if req.Emails != nil {
			s.Emails = req.Emails
		}
		return nil
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s)
}

// Restart handles POST /api/sessions/:id/restart
func (h *SessionHandler) Restart(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	s, err := repository.Restart(c.Request.Context(), h.store, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to restart session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restart session"})
		return
	}

	c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /api/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	err := h.store.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}

	c.Status(http.StatusNoContent)
}

// SetCandidate handles POST /api/sessions/:id/candidate
// Accepts either a catalog candidateId from the session's backend or free-text
// outreach role data, and resets the chat for that candidate.
func (h *SessionHandler) SetCandidate(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req struct {
		CandidateID string `json:"candidateId"`
		conversation.RoleData
	}
	if err := c.ShouldBindJSON(&req); err != nil && req.CandidateID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidateId or name is required"})
		return
	}

	s, ok := h.update(c, id, func(s *model.DemoSession) error {
		rd := req.RoleData
		backend := h.catalog.BackendOrDefault(s.Setup.Backend)
		if req.CandidateID != "" {
			cand, ok := backend.Candidate(req.CandidateID)
			if !ok {
				return errCandidateNotFound
			}
			rd = conversation.RoleData{
				Name:           cand.Name,
				Company:        backend.Branding.CompanyName,
				JobPreferences: "Job Titles: " + cand.Role,
				Interests:      req.Interests,
			}
		} else if rd.Company == "" {
			rd.Company = backend.Branding.CompanyName
		}

		s.Candidate = conversation.NewCandidate(rd)
		s.ResetChat()
		return nil
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s)
}

// update applies fn to the stored session and writes the error response
// itself when that fails.
func (h *SessionHandler) update(c *gin.Context, id uuid.UUID, fn func(*model.DemoSession) error) (*model.DemoSession, bool) {
	s, err := repository.Update(c.Request.Context(), h.store, id, fn)
	switch {
	case err == nil:
		return s, true
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, errCandidateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Candidate not found"})
	case errors.Is(err, repository.ErrSessionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Session is busy, please retry"})
	default:
		log.Error().Err(err).Str("session", id.String()).Msg("Failed to save session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
	}
	return nil, false
}
