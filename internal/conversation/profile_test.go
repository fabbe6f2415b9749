package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cleo-api/internal/model"
)

func sampleCandidate() *model.CandidateData {
	return &model.CandidateData{
		Name:      "Jacob Wang",
		FirstName: "Jacob",
		JobPreferences: model.JobPreferences{
			Titles:         []string{"Software Engineer"},
			Locations:      []string{"Austin, TX", "Remote"},
			LevelSeniority: "Senior",
			JobSpecifics:   []string{},
			Company:        "Kong",
		},
		ProfessionalInterests: []string{"cloud computing", "new java releases"},
	}
}

func TestExtractProfileUpdates_HTMLSummary(t *testing.T) {
	reply := "Let me confirm what I understand:<br><br><strong>Job Preferences:</strong><br>" +
		"• Job Title(s): Staff Engineer, Platform Engineer<br>" +
		"• Location(s): Remote<br>" +
		"• Level/Seniority: Staff<br>" +
		"• Ideal job specifics: Go, Kubernetes<br><br>" +
		"<strong>Professional Interests:</strong><br>• Distributed systems<br>• API gateways<br>" +
		"<br><br>Does this look right?"

	u := ExtractProfileUpdates(reply)
	require.NotNil(t, u)
	assert.Equal(t, []string{"Staff Engineer", "Platform Engineer"}, u.Titles)
	assert.Equal(t, []string{"Remote"}, u.Locations)
	assert.Equal(t, "Staff", u.LevelSeniority)
	assert.Equal(t, []string{"Go", "Kubernetes"}, u.JobSpecifics)
	assert.Equal(t, []string{"Distributed systems", "API gateways"}, u.ProfessionalInterests)
}

func TestExtractProfileUpdates_MarkdownInterests(t *testing.T) {
	reply := "**Professional Interests:**\n• Rust\n• Databases\n"

	u := ExtractProfileUpdates(reply)
	require.NotNil(t, u)
	assert.Nil(t, u.Titles)
	assert.Equal(t, []string{"Rust", "Databases"}, u.ProfessionalInterests)
}

func TestExtractProfileUpdates_NoMatch(t *testing.T) {
	assert.Nil(t, ExtractProfileUpdates("Would you like me to ADD this or REPLACE your preferences?"))
	assert.Nil(t, ExtractProfileUpdates("Job Title(s):   \n"))
}

func TestApply_ReplacesWholesaleAndPreservesOthers(t *testing.T) {
	current := sampleCandidate()
	updated := Apply(current, &ProfileUpdate{Locations: []string{"Berlin"}})

	assert.Equal(t, []string{"Berlin"}, updated.JobPreferences.Locations)
	assert.Equal(t, []string{"Software Engineer"}, updated.JobPreferences.Titles)
	assert.Equal(t, "Kong", updated.JobPreferences.Company)
	assert.Equal(t, current.ProfessionalInterests, updated.ProfessionalInterests)
	assert.False(t, updated.Timestamp.IsZero())

	// current is untouched
	assert.Equal(t, []string{"Austin, TX", "Remote"}, current.JobPreferences.Locations)
}

func TestApply_SpecificsCanBeCleared(t *testing.T) {
	current := sampleCandidate()
	current.JobPreferences.JobSpecifics = []string{"4-day week"}

	updated := Apply(current, &ProfileUpdate{SpecificsMentioned: true})
	assert.Empty(t, updated.JobPreferences.JobSpecifics)
}

func TestApply_NilCurrent(t *testing.T) {
	updated := Apply(nil, &ProfileUpdate{Titles: []string{"SRE"}})
	require.NotNil(t, updated)
	assert.Equal(t, []string{"SRE"}, updated.JobPreferences.Titles)
}
