package conversation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yourusername/cleo-api/internal/model"
)

const initialSummaryQuestion = "<br><br>Does this sound right, or is there anything you'd like me to update?"

// RenderSummary formats the candidate profile as the HTML confirmation block
// Cleo shows in chat. A nil candidate renders as "".
func RenderSummary(c *model.CandidateData) string {
	if c == nil {
		return ""
	}

	prefs := c.JobPreferences
	jobBullets := []string{
		"Job Title(s): " + strings.Join(prefs.Titles, ", "),
		"Location(s): " + strings.Join(prefs.Locations, ", "),
		"Level/Seniority: " + prefs.LevelSeniority,
	}
	if len(prefs.JobSpecifics) > 0 {
		jobBullets = append(jobBullets, "Ideal job specifics: "+strings.Join(prefs.JobSpecifics, ", "))
	}

	interests := make([]string, 0, len(c.ProfessionalInterests))
	for _, i := range c.ProfessionalInterests {
		interests = append(interests, capitalize(i))
	}

	var sb strings.Builder
	sb.WriteString("Let me confirm what I understand:<br>\n<br>\n<strong>Job Preferences:</strong><br>\n")
	sb.WriteString(bulletList(jobBullets))
	sb.WriteString("<br>\n<br>\n<strong>Professional Interests:</strong><br>\n")
	sb.WriteString(bulletList(interests))
	return sb.String()
}

// InitialSummary is the summary plus the opening confirmation question.
func InitialSummary(c *model.CandidateData) string {
	return RenderSummary(c) + initialSummaryQuestion
}

// Opening is the first two Cleo messages and the stage the chat starts in.
type Opening struct {
	Messages []model.Message `json:"messages"`
	Stage    Stage           `json:"stage"`
}

// InitialMessages builds Cleo's greeting. With a job posting the chat opens
// on questions about that role; otherwise it goes straight to verifying the
// candidate's preferences.
func InitialMessages(c *model.CandidateData, job *model.JobPosting) Opening {
	company := c.JobPreferences.Company
	greeting := fmt.Sprintf("Hi %s, my name is Cleo. You can think of me as your personal advocate on the inside here at %s. ",
		c.FirstName, company)

	if job != nil {
		greeting += fmt.Sprintf("I have a specific job opening I'd love to discuss with you - the %s role on our %s team.",
			job.Position, job.Employment.Department)
		return Opening{
			Messages: []model.Message{
				model.NewMessage(model.MessageAI, greeting),
				model.NewMessage(model.MessageAI, "Do you have any questions about this job posting?"),
			},
			Stage: StageJobQuestions,
		}
	}

	greeting += fmt.Sprintf("My goal is to understand the types of opportunities you'd be interested in at %s as well as your professional interests.",
		company)
	return Opening{
		Messages: []model.Message{
			model.NewMessage(model.MessageAI, greeting),
			model.NewMessage(model.MessageAI, InitialSummary(c)),
		},
		Stage: StageJobVerification,
	}
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "<br>")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
