package conversation

import (
	"strings"
	"time"

	"github.com/yourusername/cleo-api/internal/model"
)

// Defaults used when outreach data carries no interests or preferences.
var (
	DefaultInterests = []string{
		"career development topics",
		"back-end software engineering",
		"cloud computing",
		"new java releases",
	}
	DefaultJobPreferences = model.JobPreferences{
		Titles:         []string{"Software Engineer"},
		Locations:      []string{"Austin, TX", "Remote"},
		LevelSeniority: "Senior",
		JobSpecifics:   []string{},
		Company:        "Kong",
	}
)

// RoleData is the free-text outreach payload for one candidate, e.g.
//
//	interests:       "• Cloud native\n• Kubernetes"
//	job_preferences: "Job Titles: SRE, Platform Engineer\nLocation: Remote\nSeniority: Staff"
type RoleData struct {
	Name           string `json:"name" binding:"required"`
	Company        string `json:"company"`
	Interests      string `json:"interests"`
	JobPreferences string `json:"job_preferences"`
}

// NewCandidate turns outreach role data into the profile Cleo starts from.
func NewCandidate(rd RoleData) *model.CandidateData {
	name := strings.TrimSpace(rd.Name)
	if name == "" {
		name = "Unknown"
	}

	prefs := ParseJobPreferences(rd.JobPreferences, DefaultJobPreferences)
	if rd.Company != "" {
		prefs.Company = rd.Company
	}

	interests := ParseInterests(rd.Interests)
	if len(interests) == 0 {
		interests = append([]string(nil), DefaultInterests...)
	}

	return &model.CandidateData{
		Name:                  name,
		FirstName:             FirstName(name),
		JobPreferences:        prefs,
		ProfessionalInterests: interests,
		Timestamp:             time.Now().UTC(),
	}
}

// FirstName is everything before the first space.
func FirstName(full string) string {
	full = strings.TrimSpace(full)
	if i := strings.IndexByte(full, ' '); i >= 0 {
		return full[:i]
	}
	return full
}

// ParseInterests reads "• interest" lines; other lines are ignored.
func ParseInterests(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "•") {
			continue
		}
		if item := strings.TrimSpace(strings.Replace(line, "•", "", 1)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseJobPreferences overlays "Job Titles:", "Location:" and "Seniority:"
// lines onto base. Blank values leave base untouched.
func ParseJobPreferences(text string, base model.JobPreferences) model.JobPreferences {
	prefs := base
	prefs.Titles = append([]string(nil), base.Titles...)
	prefs.Locations = append([]string(nil), base.Locations...)
	prefs.JobSpecifics = append([]string{}, base.JobSpecifics...)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Job Titles:"):
			if titles := splitList(strings.TrimPrefix(line, "Job Titles:")); len(titles) > 0 {
				prefs.Titles = titles
			}
		case strings.HasPrefix(line, "Location:"):
			if loc := strings.TrimSpace(strings.TrimPrefix(line, "Location:")); loc != "" {
				prefs.Locations = []string{loc}
			}
		case strings.HasPrefix(line, "Seniority:"):
			if s := strings.TrimSpace(strings.TrimPrefix(line, "Seniority:")); s != "" {
				prefs.LevelSeniority = s
			}
		}
	}
	return prefs
}
