package service

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/model"
)

const (
	// MaxResumeBytes is the largest upload accepted.
	MaxResumeBytes = 10 * 1024 * 1024
	minResumeText  = 50
	maxResumeText  = 20000
)

var (
	ErrNotPDF         = errors.New("invalid PDF file")
	ErrTooLittleText  = errors.New("very little text was extracted")
	ErrResumeTooLarge = errors.New("file too large")

	skillsLineRe = regexp.MustCompile(`(?im)^\s*(?:technical\s+)?skills\s*[:\-]\s*(.+)$`)
)

// ResumeExtractor turns an uploaded résumé PDF into chat background.
type ResumeExtractor struct{}

func NewResumeExtractor() *ResumeExtractor {
	return &ResumeExtractor{}
}

// ExtractText returns the plain text of every page, pages separated by a
// blank line. Image-only PDFs yield ErrTooLittleText.
func (r *ResumeExtractor) ExtractText(data []byte) (text string, err error) {
	if len(data) > MaxResumeBytes {
		return "", ErrResumeTooLarge
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return "", ErrNotPDF
	}

	// The pdf package panics on some malformed documents.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("reading PDF: %v", p)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Int("page", i).Err(err).Msg("Failed to extract text from PDF page")
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}

	text = strings.TrimSpace(sb.String())
	if len(text) < minResumeText {
		return "", ErrTooLittleText
	}
	return text, nil
}

// Profile builds chat background from extracted résumé text: the first
// line as headline, a "Skills:" line split on commas, the text itself
// capped for prompt size.
func (r *ResumeExtractor) Profile(text string) *model.CandidateProfile {
	p := &model.CandidateProfile{ResumeText: truncateRunes(strings.TrimSpace(text), maxResumeText)}

	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			p.Headline = truncateRunes(line, 120)
			break
		}
	}

	if m := skillsLineRe.FindStringSubmatch(text); m != nil {
		for _, s := range strings.Split(m[1], ",") {
			if s = strings.TrimSpace(s); s != "" {
				p.Skills = append(p.Skills, s)
			}
		}
	}

	return p
}
