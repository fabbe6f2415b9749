package conversation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/yourusername/cleo-api/internal/llm"
)

//go:embed profile_update.schema.json
var profileUpdateSchema string

var profileUpdateSchemaLoader = gojsonschema.NewStringLoader(profileUpdateSchema)

// ProfileUpdateSchema is the JSON schema the model must answer with when
// asked for a structured profile update.
func ProfileUpdateSchema() string {
	return profileUpdateSchema
}

// StructuredUpdate is the model's own account of what a reply changed.
type StructuredUpdate struct {
	Stage          Stage `json:"stage"`
	Changed        bool  `json:"changed"`
	JobPreferences *struct {
		Titles         []string  `json:"titles"`
		Locations      []string  `json:"locations"`
		LevelSeniority string    `json:"level_seniority"`
		JobSpecifics   *[]string `json:"job_specifics"`
	} `json:"job_preferences,omitempty"`
	ProfessionalInterests []string `json:"professional_interests,omitempty"`
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

// SchemaError lists every violation found in a structured update.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "profile update does not match schema: " + strings.Join(parts, "; ")
}

// ParseStructuredUpdate validates raw model output against the schema and
// decodes it. Markdown fences are tolerated.
func ParseStructuredUpdate(raw string) (*StructuredUpdate, error) {
	doc := llm.StripCodeFences(raw)
	if doc == "" {
		return nil, fmt.Errorf("empty profile update")
	}

	result, err := gojsonschema.Validate(profileUpdateSchemaLoader, gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validating profile update: %w", err)
	}
	if !result.Valid() {
		se := &SchemaError{Errors: make([]FieldError, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			se.Errors = append(se.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return nil, se
	}

	var su StructuredUpdate
	if err := json.Unmarshal([]byte(doc), &su); err != nil {
		return nil, fmt.Errorf("decoding profile update: %w", err)
	}
	return &su, nil
}

// ProfileUpdate converts the structured answer to the same shape the
// heuristic extractor produces. Returns nil when nothing changed.
func (s *StructuredUpdate) ProfileUpdate() *ProfileUpdate {
	if s == nil || !s.Changed {
		return nil
	}
	u := &ProfileUpdate{ProfessionalInterests: s.ProfessionalInterests}
	if jp := s.JobPreferences; jp != nil {
		u.Titles = jp.Titles
		u.Locations = jp.Locations
		u.LevelSeniority = strings.TrimSpace(jp.LevelSeniority)
		if jp.JobSpecifics != nil {
			u.JobSpecifics = *jp.JobSpecifics
			u.SpecificsMentioned = true
		}
	}
	if u.Empty() {
		return nil
	}
	return u
}
