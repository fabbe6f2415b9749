package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/conversation"
	"github.com/yourusername/cleo-api/internal/llm"
	"github.com/yourusername/cleo-api/internal/model"
	"github.com/yourusername/cleo-api/internal/prompt"
)

// EmptyReplyMessage is sent when the model returns no text.
const EmptyReplyMessage = "Sorry, I couldn't generate a response."

// Profile extraction modes.
const (
	ExtractionStructured = "structured"
	ExtractionHeuristic  = "heuristic"
)

// ChatRequest is one turn of the Cleo conversation.
type ChatRequest struct {
	Messages          []model.ChatTurn        `json:"messages" binding:"dive"`
	CandidateData     *model.CandidateData    `json:"candidateData"`
	ConversationStage string                  `json:"conversationStage"`
	JobPosting        *model.JobPosting       `json:"jobPosting,omitempty"`
	CandidateProfile  *model.CandidateProfile `json:"candidateProfile,omitempty"`
}

// ChatReply carries Cleo's message plus the state the client would
// otherwise have to scrape out of it.
type ChatReply struct {
	Message        string               `json:"message"`
	Stage          conversation.Stage   `json:"stage"`
	Candidate      *model.CandidateData `json:"candidate,omitempty"`
	ProfileUpdated bool                 `json:"profileUpdated"`
}

// ErrUnknownStage is returned for a conversationStage outside the known set.
var ErrUnknownStage = errors.New("unknown conversation stage")

// ChatService runs Cleo's side of the conversation.
type ChatService struct {
	llm        llm.Provider
	extraction string
}

func NewChatService(p llm.Provider, extraction string) *ChatService {
	if extraction != ExtractionHeuristic {
		extraction = ExtractionStructured
	}
	return &ChatService{llm: p, extraction: extraction}
}

func (s *ChatService) Provider() llm.Provider {
	return s.llm
}

func (s *ChatService) Reply(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if !llm.Configured(s.llm) {
		return nil, fmt.Errorf("%s %w", s.llm.Name(), llm.ErrNotConfigured)
	}

	stage, ok := conversation.ParseStage(req.ConversationStage)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, req.ConversationStage)
	}

	system, err := prompt.ChatSystem(prompt.ChatContext{
		Candidate: req.CandidateData,
		Stage:     stage,
		Job:       req.JobPosting,
		Profile:   req.CandidateProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("building system prompt: %w", err)
	}

	history := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	log.Debug().
		Str("stage", string(stage)).
		Int("messages", len(history)).
		Int("system_prompt_len", len(system)).
		Msg("Chat request")

	message, err := s.llm.Complete(ctx, llm.Request{
		System:      system,
		Messages:    history,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if strings.TrimSpace(message) == "" {
		message = EmptyReplyMessage
	}

	reply := &ChatReply{
		Message:   message,
		Stage:     conversation.NextStage(stage, message),
		Candidate: req.CandidateData,
	}

	update, modelStage := s.profileUpdate(ctx, req, stage, message)
	if reply.Stage == stage && modelStage != "" {
		reply.Stage = modelStage
	}
	if req.CandidateData != nil && !update.Empty() {
		reply.Candidate = conversation.Apply(req.CandidateData, update)
		reply.ProfileUpdated = true
	} else if req.CandidateData != nil && req.CandidateData.Timestamp.IsZero() {
		// Stamp an echoed candidate rather than returning the zero time.
		c := req.CandidateData.Clone()
		c.Timestamp = time.Now().UTC()
		reply.Candidate = c
	}

	return reply, nil
}

// profileUpdate asks the model for a schema-checked account of what the
// reply changed, falling back to scraping the reply text. The returned
// stage is the model's suggestion, empty when it had none.
func (s *ChatService) profileUpdate(ctx context.Context, req ChatRequest, stage conversation.Stage, message string) (*conversation.ProfileUpdate, conversation.Stage) {
	if s.extraction != ExtractionStructured {
		return conversation.ExtractProfileUpdates(message), ""
	}

	su, err := s.structuredUpdate(ctx, req, stage, message)
	if err != nil {
		log.Warn().Err(err).Msg("Structured profile update failed, using text extraction")
		return conversation.ExtractProfileUpdates(message), ""
	}
	return su.ProfileUpdate(), su.Stage
}

func (s *ChatService) structuredUpdate(ctx context.Context, req ChatRequest, stage conversation.Stage, message string) (*conversation.StructuredUpdate, error) {
	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			lastUser = req.Messages[i].Content
			break
		}
	}

	text, err := prompt.ProfileUpdate(prompt.ProfileUpdateInput{
		Candidate:   req.CandidateData,
		Stage:       stage,
		UserMessage: lastUser,
		Reply:       message,
	})
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: text}},
		Temperature: 0,
		MaxTokens:   500,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("profile update completion: %w", err)
	}
	return conversation.ParseStructuredUpdate(raw)
}
