package conversation

import "strings"

// Stage labels a point in Cleo's scripted chat flow.
type Stage string

const (
	StageInitial                    Stage = "initial"
	StageJobQuestions               Stage = "job_questions"
	StageJobServices                Stage = "job_services"
	StageJobComplete                Stage = "job_complete"
	StageJobVerification            Stage = "job_verification"
	StageJobDetails                 Stage = "job_details"
	StageProfessionalInterests      Stage = "professional_interests"
	StageProfessionalVerification   Stage = "professional_verification"
	StageAwaitingPreferenceChoice   Stage = "awaiting_preference_choice"
	StageAwaitingProfessionalChoice Stage = "awaiting_professional_choice"
	StageComplete                   Stage = "complete"
)

// DefaultStage is assumed when a chat request names no stage.
const DefaultStage = StageJobVerification

var allStages = []Stage{
	StageInitial,
	StageJobQuestions,
	StageJobServices,
	StageJobComplete,
	StageJobVerification,
	StageJobDetails,
	StageProfessionalInterests,
	StageProfessionalVerification,
	StageAwaitingPreferenceChoice,
	StageAwaitingProfessionalChoice,
	StageComplete,
}

// Stages lists every known stage.
func Stages() []Stage {
	return append([]Stage(nil), allStages...)
}

// ParseStage validates s. Empty input maps to DefaultStage.
func ParseStage(s string) (Stage, bool) {
	if s == "" {
		return DefaultStage, true
	}
	for _, st := range allStages {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// NextStage guesses the stage that follows current after Cleo sent reply.
// The job-posting branch is checked first, then the general rules; with no
// match the current stage is kept.
func NextStage(current Stage, reply string) Stage {
	lower := strings.ToLower(reply)

	switch current {
	case StageJobQuestions:
		if containsAny(lower, "help you with", "can offer", "other services") {
			return StageJobServices
		}
	case StageJobServices:
		if containsAny(lower, "interested in other", "other opportunities") {
			return StageJobComplete
		}
	case StageJobComplete:
		return StageJobVerification
	}

	switch {
	case strings.Contains(lower, "professional interests") && strings.Contains(lower, "what topics"):
		return StageProfessionalInterests
	case containsAny(lower, "thanks for confirming", "have everything i need"):
		return StageComplete
	case strings.Contains(lower, "does this look right") && strings.Contains(lower, "professional interests"):
		return StageProfessionalVerification
	case strings.Contains(lower, "does this") && containsAny(lower, "capture", "accurate"):
		return StageJobVerification
	}

	return current
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
