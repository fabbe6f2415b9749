package conversation

import (
	"regexp"
	"strings"
	"time"

	"github.com/yourusername/cleo-api/internal/model"
)

var (
	titleRe     = regexp.MustCompile(`Job Title\(s\):\s*([^•\n]+)`)
	locationRe  = regexp.MustCompile(`Location\(s\):\s*([^•\n]+)`)
	levelRe     = regexp.MustCompile(`Level/Seniority:\s*([^•\n]+)`)
	specificsRe = regexp.MustCompile(`Ideal job specifics:\s*([^•\n]+)`)
	// Markdown (**) or HTML (</strong><br>) header followed by bullet lines.
	interestsRe = regexp.MustCompile(`Professional Interests:(?:\*\*|</strong>)?\s*(?:<br\s*/?>\s*)*((?:•[^\n]*\n?)*)`)
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
	lineBreakRe = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// ProfileUpdate holds the fields a reply changed. Nil slices and empty
// strings mean "not mentioned".
type ProfileUpdate struct {
	Titles                []string `json:"titles,omitempty"`
	Locations             []string `json:"locations,omitempty"`
	LevelSeniority        string   `json:"levelSeniority,omitempty"`
	JobSpecifics          []string `json:"jobSpecifics,omitempty"`
	SpecificsMentioned    bool     `json:"-"`
	ProfessionalInterests []string `json:"professionalInterests,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u *ProfileUpdate) Empty() bool {
	return u == nil || (len(u.Titles) == 0 && len(u.Locations) == 0 && u.LevelSeniority == "" &&
		!u.SpecificsMentioned && len(u.ProfessionalInterests) == 0)
}

// ExtractProfileUpdates scrapes a summary written in the format Cleo is told
// to use back into structured fields. Returns nil when nothing matched.
func ExtractProfileUpdates(reply string) *ProfileUpdate {
	u := &ProfileUpdate{}

	if v, ok := capture(titleRe, reply); ok {
		u.Titles = splitList(v)
	}
	if v, ok := capture(locationRe, reply); ok {
		u.Locations = splitList(v)
	}
	if v, ok := capture(levelRe, reply); ok {
		u.LevelSeniority = v
	}
	if v, ok := capture(specificsRe, reply); ok {
		u.JobSpecifics = splitList(v)
		u.SpecificsMentioned = true
	}
	if m := interestsRe.FindStringSubmatch(reply); m != nil {
		for _, part := range strings.Split(m[1], "•") {
			if item := cleanValue(part); item != "" {
				u.ProfessionalInterests = append(u.ProfessionalInterests, item)
			}
		}
	}

	if u.Empty() {
		return nil
	}
	return u
}

// Apply returns a copy of current with every mentioned field replaced
// wholesale. Unmentioned fields keep their current values.
func Apply(current *model.CandidateData, u *ProfileUpdate) *model.CandidateData {
	out := current.Clone()
	if out == nil {
		out = &model.CandidateData{}
	}
	if u.Empty() {
		return out
	}

	if len(u.Titles) > 0 {
		out.JobPreferences.Titles = append([]string(nil), u.Titles...)
	}
	if len(u.Locations) > 0 {
		out.JobPreferences.Locations = append([]string(nil), u.Locations...)
	}
	if u.LevelSeniority != "" {
		out.JobPreferences.LevelSeniority = u.LevelSeniority
	}
	if u.SpecificsMentioned {
		out.JobPreferences.JobSpecifics = append([]string{}, u.JobSpecifics...)
	}
	if len(u.ProfessionalInterests) > 0 {
		out.ProfessionalInterests = append([]string(nil), u.ProfessionalInterests...)
	}
	out.Timestamp = time.Now().UTC()
	return out
}

func capture(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	v := cleanValue(m[1])
	return v, v != ""
}

// cleanValue keeps the text before the first <br> and drops any other tags.
func cleanValue(s string) string {
	if loc := lineBreakRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = htmlTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
