package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/conversation"
	"github.com/yourusername/cleo-api/internal/llm"
	"github.com/yourusername/cleo-api/internal/model"
	"github.com/yourusername/cleo-api/internal/repository"
	"github.com/yourusername/cleo-api/internal/service"
)

type ChatHandler struct {
	chat     *service.ChatService
	sessions repository.SessionStore
	upgrader websocket.Upgrader
}

func NewChatHandler(chat *service.ChatService, sessions repository.SessionStore, allowedOrigins []string) *ChatHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &ChatHandler{
		chat:     chat,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
	}
}

// chatRequest is a chat turn, optionally tied to a stored session whose
// transcript and candidate are kept up to date.
type chatRequest struct {
	service.ChatRequest
	SessionID string `json:"sessionId,omitempty"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	reply, status, body := h.reply(c.Request.Context(), req)
	if body != nil {
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// reply runs one turn. On failure it returns the status and error body to send.
func (h *ChatHandler) reply(ctx context.Context, req chatRequest) (*service.ChatReply, int, gin.H) {
	var session *model.DemoSession
	if req.SessionID != "" {
		s, status, body := h.loadSession(ctx, req.SessionID)
		if body != nil {
			return nil, status, body
		}
		session = s
		if req.CandidateData == nil {
			req.CandidateData = session.Candidate
		}
		if req.ConversationStage == "" {
			req.ConversationStage = session.Stage
		}
	}

	reply, err := h.chat.Reply(ctx, req.ChatRequest)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return nil, http.StatusInternalServerError, gin.H{"error": err.Error()}
	case errors.Is(err, service.ErrUnknownStage):
		return nil, http.StatusBadRequest, gin.H{"error": "Unknown conversation stage"}
	case err != nil:
		log.Error().Err(err).Msg("Error in chat API")
		return nil, http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		}
	}

	if session != nil {
		h.record(ctx, session, req.ChatRequest, reply)
	}
	return reply, http.StatusOK, nil
}

func (h *ChatHandler) loadSession(ctx context.Context, raw string) (*model.DemoSession, int, gin.H) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, http.StatusBadRequest, gin.H{"error": "Invalid session ID"}
	}
	s, err := h.sessions.Get(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get session")
		return nil, http.StatusInternalServerError, gin.H{"error": "Failed to load session"}
	}
	if s == nil {
		return nil, http.StatusNotFound, gin.H{"error": "Session not found"}
	}
	return s, 0, nil
}

// errStaleTurn marks a chat turn whose session chat was reset while the
// model was answering.
var errStaleTurn = errors.New("chat was reset during the turn")

// record appends the turn to the session transcript. It is applied to the
// stored session as it is now, not to the copy loaded before the model
// call, and is dropped if the chat was reset in between. Failures are
// logged; the reply has already been produced.
func (h *ChatHandler) record(ctx context.Context, loaded *model.DemoSession, req service.ChatRequest, reply *service.ChatReply) {
	_, err := repository.Update(ctx, h.sessions, loaded.ID, func(s *model.DemoSession) error {
		if s.Generation != loaded.Generation {
			return errStaleTurn
		}
		if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == llm.RoleUser {
			s.Messages = append(s.Messages, model.NewMessage(model.MessageUser, req.Messages[n-1].Content))
		}
		s.Messages = append(s.Messages, model.NewMessage(model.MessageAI, reply.Message))
		s.Stage = string(reply.Stage)
		s.Candidate = reply.Candidate
		s.Step = model.StepChat
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errStaleTurn), errors.Is(err, repository.ErrSessionNotFound):
		log.Info().Str("session", loaded.ID.String()).Msg("Session reset during chat turn, turn not recorded")
	default:
		log.Error().Err(err).Str("session", loaded.ID.String()).Msg("Failed to record chat turn")
	}
}

// Start handles POST /api/chat/start
// Builds Cleo's opening messages for a candidate, from the body or the session.
func (h *ChatHandler) Start(c *gin.Context) {
	var req struct {
		SessionID  string               `json:"sessionId"`
		Candidate  *model.CandidateData `json:"candidateData"`
		JobPosting *model.JobPosting    `json:"jobPosting"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	var session *model.DemoSession
	if req.SessionID != "" {
		s, status, body := h.loadSession(ctx, req.SessionID)
		if body != nil {
			c.JSON(status, body)
			return
		}
		session = s
		if req.Candidate == nil {
			req.Candidate = s.Candidate
		}
	}
	if req.Candidate == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidateData is required"})
		return
	}

	opening := conversation.InitialMessages(req.Candidate, req.JobPosting)

	if session != nil {
		_, err := repository.Update(ctx, h.sessions, session.ID, func(s *model.DemoSession) error {
			s.ResetChat()
			s.Candidate = req.Candidate
			s.Messages = opening.Messages
			s.Stage = string(opening.Stage)
			s.Step = model.StepChat
			return nil
		})
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to save chat opening")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":  opening.Messages,
		"stage":     opening.Stage,
		"candidate": req.Candidate,
	})
}

// ── WebSocket ─────────────────────────────────────────

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 64 * 1024
)

// wsFrame is every server-to-client message on the chat socket.
type wsFrame struct {
	Type  string             `json:"type"`
	Reply *service.ChatReply `json:"reply,omitempty"`
	Error string             `json:"error,omitempty"`
}

// WebSocket handles GET /api/chat/ws
// Each client frame is a chat request; each answer is a reply or error frame.
func (h *ChatHandler) WebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	frames := make(chan wsFrame)
	go h.writeLoop(ctx, cancel, conn, frames)

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		reply, _, body := h.reply(ctx, req)
		frame := wsFrame{Type: "reply", Reply: reply}
		if body != nil {
			msg, _ := body["error"].(string)
			frame = wsFrame{Type: "error", Error: msg}
		}

		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// writeLoop owns all writes to conn. When it stops it cancels the socket
// context so a read loop waiting to hand over a frame gives up too.
func (h *ChatHandler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, frames <-chan wsFrame) {
	defer cancel()
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-frames:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(f); err != nil {
				log.Warn().Err(err).Msg("WebSocket write error")
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}
