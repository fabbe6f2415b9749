package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/cleo-api/internal/llm"
	"github.com/yourusername/cleo-api/internal/model"
	"github.com/yourusername/cleo-api/internal/prompt"
)

const (
	PlaceholderCompanySummary = "Company information will be populated after website analysis."
	FallbackToneOfVoice       = "We are committed to delivering exceptional value to our customers through innovative solutions and outstanding service."
)

// ContentAnalyzer asks the model for a company summary and a tone sample.
type ContentAnalyzer struct {
	llm llm.Provider
}

func NewContentAnalyzer(p llm.Provider) *ContentAnalyzer {
	return &ContentAnalyzer{llm: p}
}

func (a *ContentAnalyzer) Provider() llm.Provider {
	return a.llm
}

// AnalysisFallback is returned when the model answers with something that is
// not the expected JSON.
func AnalysisFallback(aboutText string) model.CompanyAnalysis {
	summary := PlaceholderCompanySummary
	if aboutText != "" {
		summary = truncateRunes(aboutText, 200)
	}
	return model.CompanyAnalysis{
		CompanySummary:     summary,
		ToneOfVoiceExample: FallbackToneOfVoice,
	}
}

// Analyze returns parsed=false with the fallback when the reply was not
// valid JSON. A non-nil error means the model call itself failed.
func (a *ContentAnalyzer) Analyze(ctx context.Context, in prompt.AnalyzeInput) (result model.CompanyAnalysis, parsed bool, err error) {
	text, err := prompt.AnalyzeContent(in)
	if err != nil {
		return model.CompanyAnalysis{}, false, err
	}

	reply, err := a.llm.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: text}},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return model.CompanyAnalysis{}, false, fmt.Errorf("analyzing content: %w", err)
	}

	if err := llm.DecodeJSON(reply, &result); err != nil {
		log.Warn().Err(err).Msg("Error parsing analysis response, using fallback")
		return AnalysisFallback(in.AboutText), false, nil
	}

	return result, true, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
