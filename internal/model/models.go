package model

import (
	"time"

	"github.com/google/uuid"
)

// ── Candidate ──────────────────────────────────────────

type JobPreferences struct {
	Titles         []string `json:"titles"`
	Locations      []string `json:"locations"`
	LevelSeniority string   `json:"levelSeniority"`
	JobSpecifics   []string `json:"jobSpecifics"`
	Company        string   `json:"company"`
}

// CandidateData is the profile Cleo maintains for the person in the chat.
// Updates replace whole fields; nothing is merged element-wise.
type CandidateData struct {
	Name                  string         `json:"name"`
	FirstName             string         `json:"firstName"`
	JobPreferences        JobPreferences `json:"jobPreferences"`
	ProfessionalInterests []string       `json:"professionalInterests"`
	Timestamp             time.Time      `json:"timestamp"`
}

// Clone returns a deep copy so callers can apply updates without aliasing.
func (c *CandidateData) Clone() *CandidateData {
	if c == nil {
		return nil
	}
	out := *c
	out.JobPreferences.Titles = append([]string(nil), c.JobPreferences.Titles...)
	out.JobPreferences.Locations = append([]string(nil), c.JobPreferences.Locations...)
	out.JobPreferences.JobSpecifics = append([]string(nil), c.JobPreferences.JobSpecifics...)
	out.ProfessionalInterests = append([]string(nil), c.ProfessionalInterests...)
	return &out
}

// JobPosting describes a specific opening Cleo can discuss with the candidate.
type JobPosting struct {
	Position     string         `json:"position"`
	Company      string         `json:"company,omitempty"`
	Location     string         `json:"location,omitempty"`
	Description  string         `json:"description,omitempty"`
	Requirements []string       `json:"requirements,omitempty"`
	Employment   EmploymentInfo `json:"employment"`
	Compensation string         `json:"compensation,omitempty"`
}

type EmploymentInfo struct {
	Department string `json:"department,omitempty"`
	Type       string `json:"type,omitempty"`
}

// CandidateProfile is optional background (e.g. résumé text) passed into chat.
type CandidateProfile struct {
	Headline   string   `json:"headline,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	ResumeText string   `json:"resumeText,omitempty"`
}

// ── Chat ───────────────────────────────────────────────

type MessageType string

const (
	MessageUser MessageType = "user"
	MessageAI   MessageType = "ai"
)

// Message is one entry in the append-only chat transcript.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewMessage(t MessageType, content string) Message {
	return Message{
		ID:        uuid.New(),
		Type:      t,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// ChatTurn is a role/content pair as sent to the LLM.
type ChatTurn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// ── Company / crawl ────────────────────────────────────

type BlogPost struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishDate string `json:"publish_date"`
	Summary     string `json:"summary"`
}

type ColorSwatch struct {
	Color string `json:"color"`
	Hex   string `json:"hex"`
}

// LogoResult always carries both fields, empty when nothing was found.
type LogoResult struct {
	LogoURL     string        `json:"logo_url"`
	BrandColors []ColorSwatch `json:"brand_colors"`
}

type CompanyAnalysis struct {
	CompanySummary     string `json:"company_summary"`
	ToneOfVoiceExample string `json:"tone_of_voice_example"`
}

// CrawlerResult is everything gathered about a company website.
type CrawlerResult struct {
	Domain             string        `json:"domain"`
	LogoURL            string        `json:"logo_url"`
	BrandColors        []ColorSwatch `json:"brand_colors"`
	BlogPosts          []BlogPost    `json:"blog_posts"`
	AboutText          string        `json:"about_text"`
	CompanySummary     string        `json:"company_summary"`
	ToneOfVoiceExample string        `json:"tone_of_voice_example"`
}

// ── Email ──────────────────────────────────────────────

type GeneratedEmail struct {
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	PreviewText    string `json:"preview_text"`
	LogoURL        string `json:"logoUrl"`
	CompanyName    string `json:"companyName"`
	CompanyWebsite string `json:"companyWebsite"`
	TargetRole     string `json:"targetRole,omitempty"`
}

// ── Demo session ───────────────────────────────────────

// DemoSetupData is what the wizard collects on its first screen.
type DemoSetupData struct {
	UserName         string    `json:"userName" validate:"required"`
	UserEmail        string    `json:"userEmail" validate:"required,email"`
	Backend          string    `json:"backend"`
	SelectedGoal     string    `json:"selectedGoal,omitempty"`
	SelectedSegments []string  `json:"selectedSegments,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// DemoSession is the server-side state of one walk through the wizard.
type DemoSession struct {
	ID        uuid.UUID        `json:"id"`
	Step      string           `json:"step"`
	Setup     DemoSetupData    `json:"setup"`
	Company   *CrawlerResult   `json:"company,omitempty"`
	Emails    []GeneratedEmail `json:"emails,omitempty"`
	Candidate *CandidateData   `json:"candidate,omitempty"`
	Stage     string           `json:"stage"`
	Messages  []Message        `json:"messages"`

	// Version is bumped by the store on every save and guards against
	// lost updates.
	Version int64 `json:"version"`

	// Generation is bumped whenever the chat is reset. A chat turn begun
	// under an older generation is not recorded.
	Generation int `json:"generation"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Wizard steps in display order.
const (
	StepSetup    = "setup"
	StepGoal     = "goal"
	StepSegments = "segments"
	StepRecipe   = "recipe"
	StepContract = "contract"
	StepChat     = "chat"
)

var Steps = []string{StepSetup, StepGoal, StepSegments, StepRecipe, StepContract, StepChat}

func ValidStep(step string) bool {
	for _, s := range Steps {
		if s == step {
			return true
		}
	}
	return false
}

// NewDemoSession starts a session at the goal step, the setup screen being done.
func NewDemoSession(setup DemoSetupData) *DemoSession {
	now := time.Now().UTC()
	if setup.Timestamp.IsZero() {
		setup.Timestamp = now
	}
	return &DemoSession{
		ID:        uuid.New(),
		Step:      StepGoal,
		Setup:     setup,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Restart returns the session to the setup step with nothing carried over
// but its identity.
func (s *DemoSession) Restart() {
	*s = DemoSession{
		ID:         s.ID,
		Step:       StepSetup,
		Messages:   []Message{},
		Version:    s.Version,
		Generation: s.Generation + 1,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  time.Now().UTC(),
	}
}

// ResetChat starts a new chat: the transcript and stage are dropped and
// in-flight turns from the previous chat are discarded.
func (s *DemoSession) ResetChat() {
	s.Messages = []Message{}
	s.Stage = ""
	s.Generation++
}
