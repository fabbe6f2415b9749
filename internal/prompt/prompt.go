package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/yourusername/cleo-api/internal/catalog"
	"github.com/yourusername/cleo-api/internal/conversation"
	"github.com/yourusername/cleo-api/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type TemplateName string

const (
	TemplateAnalyzeContent TemplateName = "analyze_content.tmpl"
	TemplateNurtureEmail   TemplateName = "nurture_email.tmpl"
	TemplateChatSystem     TemplateName = "chat_system.tmpl"
	TemplateProfileUpdate  TemplateName = "profile_update.tmpl"
)

// DefaultCompany is who Cleo works for when the candidate names no company.
const DefaultCompany = "Kong"

var templates = template.Must(
	template.New("prompts").Funcs(template.FuncMap{
		"join":      strings.Join,
		"joinOr":    joinOr,
		"orDefault": orDefault,
	}).ParseFS(templateFS, "templates/*.tmpl"),
)

func render(name TemplateName, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(name), data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// ── Company analysis ──────────────────────────────────

type AnalyzeInput struct {
	MainContent string
	AboutText   string
	BlogPosts   []model.BlogPost
}

func AnalyzeContent(in AnalyzeInput) (string, error) {
	return render(TemplateAnalyzeContent, in)
}

// ── Nurture email ─────────────────────────────────────

type EmailInput struct {
	CompanyName        string
	CompanyWebsite     string
	CompanyDescription string
	ToneOfVoice        string
	UserName           string
	TargetRole         string
	BlogPosts          []model.BlogPost
}

// NurtureEmail builds the email prompt. Only the first blog post is used;
// callers pass posts newest first.
func NurtureEmail(in EmailInput, role catalog.RoleContext) (string, error) {
	data := struct {
		EmailInput
		Role       catalog.RoleContext
		RecentBlog *model.BlogPost
	}{EmailInput: in, Role: role}
	if len(in.BlogPosts) > 0 {
		data.RecentBlog = &in.BlogPosts[0]
	}
	return render(TemplateNurtureEmail, data)
}

// ── Chat ──────────────────────────────────────────────

type ChatContext struct {
	Candidate *model.CandidateData
	Stage     conversation.Stage
	Job       *model.JobPosting
	Profile   *model.CandidateProfile
}

// Company is the candidate's target company or DefaultCompany.
func (c ChatContext) Company() string {
	if c.Candidate != nil && c.Candidate.JobPreferences.Company != "" {
		return c.Candidate.JobPreferences.Company
	}
	return DefaultCompany
}

func ChatSystem(ctx ChatContext) (string, error) {
	if ctx.Stage == "" {
		ctx.Stage = conversation.DefaultStage
	}
	return render(TemplateChatSystem, ctx)
}

// ── Structured profile update ─────────────────────────

type ProfileUpdateInput struct {
	Candidate   *model.CandidateData
	Stage       conversation.Stage
	UserMessage string
	Reply       string
}

func ProfileUpdate(in ProfileUpdateInput) (string, error) {
	current := []byte("null")
	if in.Candidate != nil {
		b, err := json.MarshalIndent(in.Candidate, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding candidate: %w", err)
		}
		current = b
	}

	stages := make([]string, 0, len(conversation.Stages()))
	for _, s := range conversation.Stages() {
		stages = append(stages, string(s))
	}

	return render(TemplateProfileUpdate, map[string]any{
		"CurrentProfile": string(current),
		"Stage":          in.Stage,
		"UserMessage":    in.UserMessage,
		"Reply":          in.Reply,
		"Stages":         stages,
		"Schema":         conversation.ProfileUpdateSchema(),
	})
}

func joinOr(items []string, fallback string) string {
	if s := strings.Join(items, ", "); s != "" {
		return s
	}
	return fallback
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
