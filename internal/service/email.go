package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/catalog"
	"github.com/yourusername/cleo-api/internal/llm"
	"github.com/yourusername/cleo-api/internal/model"
	"github.com/yourusername/cleo-api/internal/prompt"
)

// EmailRequest is what the wizard knows when it asks for a nurture email.
type EmailRequest struct {
	prompt.EmailInput
	LogoURL string
}

// EmailGenerator drafts role-targeted nurture emails.
type EmailGenerator struct {
	llm     llm.Provider
	catalog *catalog.Catalog
}

func NewEmailGenerator(p llm.Provider, c *catalog.Catalog) *EmailGenerator {
	return &EmailGenerator{llm: p, catalog: c}
}

func (g *EmailGenerator) Provider() llm.Provider {
	return g.llm
}

type emailReply struct {
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	PreviewText string `json:"preview_text"`
}

// Generate returns parsed=false with the fallback template when the model's
// reply was not the expected JSON. A non-nil error means the call failed.
func (g *EmailGenerator) Generate(ctx context.Context, req EmailRequest) (email model.GeneratedEmail, parsed bool, err error) {
	role := g.catalog.Role(req.TargetRole)
	text, err := prompt.NurtureEmail(req.EmailInput, role)
	if err != nil {
		return model.GeneratedEmail{}, false, err
	}

	raw, err := g.llm.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: text}},
		Temperature: 0.8,
		MaxTokens:   1500,
	})
	if err != nil {
		return model.GeneratedEmail{}, false, fmt.Errorf("generating email: %w", err)
	}

	var reply emailReply
	if err := llm.DecodeJSON(raw, &reply); err != nil {
		log.Warn().Err(err).Str("company", req.CompanyName).Msg("Error parsing email response, using fallback")
		return FallbackEmail(req), false, nil
	}

	content := reply.Content
	if !looksLikeHTML(content) {
		content = FormatEmailBody(content)
	}

	return model.GeneratedEmail{
		Subject:        reply.Subject,
		Content:        content,
		PreviewText:    reply.PreviewText,
		LogoURL:        req.LogoURL,
		CompanyName:    req.CompanyName,
		CompanyWebsite: req.CompanyWebsite,
		TargetRole:     req.TargetRole,
	}, true, nil
}

// FallbackEmail is the static template used when the model reply is unusable.
func FallbackEmail(req EmailRequest) model.GeneratedEmail {
	name := req.CompanyName
	content := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
          <h2>Join %[1]s's Mission</h2>
          <p>Hi there,</p>
          <p>I've been following %[1]s and I'm impressed by how you're transforming your industry. Your innovative approach caught my attention.</p>
          <p>We have an exciting opportunity that could be perfect for someone looking to make an impact in a forward-thinking company like yours.</p>
          <p>Would you be interested in learning more?</p>
          <p>Best regards,<br>The Recruiting Team</p>
        </div>`, name)

	return model.GeneratedEmail{
		Subject:        fmt.Sprintf("Exciting opportunity at %s", name),
		Content:        content,
		PreviewText:    fmt.Sprintf("Join %s's innovative mission", name),
		LogoURL:        req.LogoURL,
		CompanyName:    req.CompanyName,
		CompanyWebsite: req.CompanyWebsite,
		TargetRole:     req.TargetRole,
	}
}

// ── Plain-text body formatting ────────────────────────

const linkStyle = `target="_blank" style="color: #4599FA; text-decoration: underline;"`

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)]+)\)`)
	anchorRe       = regexp.MustCompile(`(?s)<a\b[^>]*>.*?</a>`)
	bareURLRe      = regexp.MustCompile(`(^|[^"])(https?://[^\s<]+)`)
	htmlBlockRe    = regexp.MustCompile(`(?i)<(p|div|h[1-6]|br|table|ul|ol|html|body)\b`)
)

// FormatEmailBody turns a plain-text body into paragraph HTML: blank lines
// split paragraphs, single newlines become <br>, markdown links and bare URLs
// become styled anchors.
func FormatEmailBody(body string) string {
	html := strings.ReplaceAll(body, "\n\n", "</p><p>")
	html = strings.ReplaceAll(html, "\n", "<br>")
	html = "<p>" + html + "</p>"
	html = markdownLinkRe.ReplaceAllString(html, `<a href="$2" `+linkStyle+`>$1</a>`)

	// Link bare URLs only outside existing anchors.
	var sb strings.Builder
	last := 0
	for _, loc := range anchorRe.FindAllStringIndex(html, -1) {
		sb.WriteString(linkBareURLs(html[last:loc[0]]))
		sb.WriteString(html[loc[0]:loc[1]])
		last = loc[1]
	}
	sb.WriteString(linkBareURLs(html[last:]))
	return sb.String()
}

func linkBareURLs(s string) string {
	return bareURLRe.ReplaceAllString(s, `$1<a href="$2" `+linkStyle+`>$2</a>`)
}

func looksLikeHTML(s string) bool {
	return htmlBlockRe.MatchString(s)
}
