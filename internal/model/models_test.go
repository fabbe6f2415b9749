package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateData_Clone(t *testing.T) {
	orig := &CandidateData{
		Name: "Ada Lovelace",
		JobPreferences: JobPreferences{
			Titles:    []string{"Software Engineer"},
			Locations: []string{"Remote"},
		},
		ProfessionalInterests: []string{"compilers"},
	}

	cp := orig.Clone()
	cp.JobPreferences.Titles[0] = "Staff Engineer"
	cp.ProfessionalInterests = append(cp.ProfessionalInterests, "databases")

	assert.Equal(t, "Software Engineer", orig.JobPreferences.Titles[0])
	assert.Len(t, orig.ProfessionalInterests, 1)
	assert.Nil(t, (*CandidateData)(nil).Clone())
}

func TestValidStep(t *testing.T) {
	assert.True(t, ValidStep(StepChat))
	assert.False(t, ValidStep("checkout"))
}

func TestDemoSession_Restart(t *testing.T) {
	s := NewDemoSession(DemoSetupData{UserName: "Sam", UserEmail: "sam@example.com", Backend: "kong"})
	assert.Equal(t, StepGoal, s.Step)
	assert.False(t, s.Setup.Timestamp.IsZero())

	id, created := s.ID, s.CreatedAt
	s.Step = StepChat
	s.Stage = "job_details"
	s.Candidate = &CandidateData{Name: "Jacob Wang"}
	s.Company = &CrawlerResult{Domain: "konghq.com"}
	s.Emails = []GeneratedEmail{{Subject: "Hi"}}
	s.Messages = append(s.Messages, NewMessage(MessageAI, "Hi Jacob"))

	s.Restart()

	assert.Equal(t, id, s.ID)
	assert.Equal(t, created, s.CreatedAt)
	assert.Equal(t, StepSetup, s.Step)
	assert.Nil(t, s.Candidate)
	assert.Nil(t, s.Company)
	assert.Empty(t, s.Emails)
	assert.Empty(t, s.Messages)
	assert.Empty(t, s.Stage)
	assert.Equal(t, DemoSetupData{}, s.Setup)
}

func TestDemoSession_GenerationBumps(t *testing.T) {
	s := NewDemoSession(DemoSetupData{UserName: "Sam"})
	s.Version = 3
	s.Stage = "job_details"
	s.Messages = append(s.Messages, NewMessage(MessageAI, "Hi"))

	s.ResetChat()
	assert.Equal(t, 1, s.Generation)
	assert.Empty(t, s.Messages)
	assert.Empty(t, s.Stage)

	s.Restart()
	assert.Equal(t, 2, s.Generation)
	assert.Equal(t, int64(3), s.Version, "the store owns the version")
}
