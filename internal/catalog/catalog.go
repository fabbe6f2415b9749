package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/cleo-api/internal/model"
)

//go:embed catalog.yaml
var catalogYAML []byte

// RoleContext steers email copy toward one target role.
type RoleContext struct {
	Name         string `yaml:"name" json:"name"`
	Focus        string `yaml:"focus" json:"focus"`
	Interests    string `yaml:"interests" json:"interests"`
	CallToAction string `yaml:"call_to_action" json:"callToAction"`
}

type Branding struct {
	Logo              string `yaml:"logo" json:"logo"`
	PrimaryColor      string `yaml:"primary_color" json:"primaryColor"`
	SecondaryColor    string `yaml:"secondary_color" json:"secondaryColor"`
	CompanyName       string `yaml:"company_name" json:"companyName"`
	Website           string `yaml:"website" json:"website"`
	BannerPlaceholder string `yaml:"banner_placeholder,omitempty" json:"bannerPlaceholder,omitempty"`
}

type Candidate struct {
	ID      string         `yaml:"id" json:"id"`
	Name    string         `yaml:"name" json:"name"`
	Role    string         `yaml:"role" json:"role"`
	Profile map[string]any `yaml:"profile,omitempty" json:"fullProfile,omitempty"`
}

// Backend is one outreach tenant the demo can run against.
type Backend struct {
	Name       string      `yaml:"name" json:"name"`
	APIURL     string      `yaml:"api_url" json:"apiUrl"`
	Branding   Branding    `yaml:"branding" json:"branding"`
	Candidates []Candidate `yaml:"candidates" json:"candidates"`
}

type Catalog struct {
	DefaultBackend string        `yaml:"default_backend"`
	DefaultRole    string        `yaml:"default_role"`
	Roles          []RoleContext `yaml:"roles"`
	Backends       []Backend     `yaml:"backends"`
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(catalogYAML)
	})
	return loaded, loadErr
}

// MustDefault panics if the embedded catalog is malformed.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(c.Roles) == 0 {
		return nil, fmt.Errorf("catalog has no roles")
	}
	if c.DefaultRole == "" {
		c.DefaultRole = c.Roles[0].Name
	}
	if _, ok := c.lookupRole(c.DefaultRole); !ok {
		return nil, fmt.Errorf("default role %q not in catalog", c.DefaultRole)
	}
	if c.DefaultBackend != "" {
		if _, ok := c.Backend(c.DefaultBackend); !ok {
			return nil, fmt.Errorf("default backend %q not in catalog", c.DefaultBackend)
		}
	}
	return &c, nil
}

// Role returns the context for name, falling back to the default role for
// unknown or empty names.
func (c *Catalog) Role(name string) RoleContext {
	if r, ok := c.lookupRole(name); ok {
		return r
	}
	r, _ := c.lookupRole(c.DefaultRole)
	return r
}

func (c *Catalog) lookupRole(name string) (RoleContext, bool) {
	for _, r := range c.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return RoleContext{}, false
}

// Backend looks a backend up by name, case-insensitively.
func (c *Catalog) Backend(name string) (Backend, bool) {
	for _, b := range c.Backends {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return Backend{}, false
}

// BackendOrDefault resolves name, using the default backend when empty or unknown.
func (c *Catalog) BackendOrDefault(name string) Backend {
	if b, ok := c.Backend(name); ok {
		return b
	}
	b, _ := c.Backend(c.DefaultBackend)
	return b
}

// Candidate looks a candidate up by id.
func (b Backend) Candidate(id string) (Candidate, bool) {
	for _, c := range b.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// Background turns a stored full profile into chat background. Returns nil
// for candidates without one.
func (c Candidate) Background() *model.CandidateProfile {
	if len(c.Profile) == 0 {
		return nil
	}
	p := &model.CandidateProfile{}
	p.Headline, _ = c.Profile["title"].(string)
	if p.Headline == "" {
		p.Headline = c.Role
	}
	if summary, ok := c.Profile["summary"].(string); ok {
		p.Summary = strings.TrimSpace(summary)
	}
	if skills, ok := c.Profile["skills"].([]any); ok {
		for _, s := range skills {
			if str, ok := s.(string); ok {
				p.Skills = append(p.Skills, str)
			}
		}
	}
	return p
}
