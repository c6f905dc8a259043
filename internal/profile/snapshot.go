package profile

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/talentmatch/matchworker/internal/taxonomy"
)

// Snapshot is the untagged profile shape shared by the form boundary and
// the structuring wire format. FromSnapshot stamps one into a Candidate.
type Snapshot struct {
	FullName        string       `json:"full_name" validate:"omitempty,max=200"`
	Email           string       `json:"email" validate:"omitempty,email"`
	Phone           string       `json:"phone" validate:"omitempty,min=7,max=25"`
	Location        string       `json:"location" validate:"omitempty,max=200"`
	Title           string       `json:"title" validate:"omitempty,max=200"`
	Company         string       `json:"company" validate:"omitempty,max=200"`
	YearsExperience float64      `json:"years_experience" validate:"omitempty,gte=0,lte=70"`
	HighestDegree   string       `json:"highest_degree" validate:"omitempty,max=200"`
	LinkedIn        string       `json:"linkedin" validate:"omitempty,max=300"`
	GitHub          string       `json:"github" validate:"omitempty,max=300"`
	Summary         string       `json:"summary" validate:"omitempty,max=5000"`
	Skills          []string     `json:"skills" validate:"max=300,dive,max=120"`
	Certifications  []string     `json:"certifications" validate:"max=100,dive,max=200"`
	Languages       []string     `json:"languages" validate:"max=50,dive,max=80"`
	Experience      []Experience `json:"experience" validate:"max=100"`
	Education       []Education  `json:"education" validate:"max=50"`
	Projects        []Project    `json:"projects" validate:"max=100"`
}

var validate = validator.New()

// Validate checks the ranges a user-supplied snapshot must respect before
// it enters the pipeline.
func (s *Snapshot) Validate() error {
	return validate.Struct(s)
}

// FromSnapshot builds a provenance-tagged Candidate: every non-empty field
// is stamped with the given origin and confidence, set-valued fields are
// normalized into sorted deduplicated sets, and junk entries (no name, no
// employer) are dropped.
func FromSnapshot(s *Snapshot, origin Origin, confidence float64, tax *taxonomy.Taxonomy) *Candidate {
	c := &Candidate{}
	if s == nil {
		return c
	}

	setScalar(&c.FullName, strings.TrimSpace(s.FullName), origin, confidence)
	setScalar(&c.Email, strings.TrimSpace(s.Email), origin, confidence)
	setScalar(&c.Phone, strings.TrimSpace(s.Phone), origin, confidence)
	setScalar(&c.Location, strings.TrimSpace(s.Location), origin, confidence)
	setScalar(&c.Title, strings.TrimSpace(s.Title), origin, confidence)
	setScalar(&c.Company, strings.TrimSpace(s.Company), origin, confidence)
	setScalar(&c.YearsExperience, s.YearsExperience, origin, confidence)
	setScalar(&c.HighestDegree, strings.TrimSpace(s.HighestDegree), origin, confidence)
	setScalar(&c.LinkedIn, strings.TrimSpace(s.LinkedIn), origin, confidence)
	setScalar(&c.GitHub, strings.TrimSpace(s.GitHub), origin, confidence)
	setScalar(&c.Summary, strings.TrimSpace(s.Summary), origin, confidence)

	setSet(&c.Skills, tax.NormalizeSet(s.Skills), origin, confidence)
	setSet(&c.Certifications, dedupeStrings(s.Certifications), origin, confidence)
	setSet(&c.Languages, dedupeStrings(s.Languages), origin, confidence)

	setList(&c.Experience, cleanExperience(s.Experience), origin, confidence)
	setList(&c.Education, cleanEducation(s.Education), origin, confidence)
	setList(&c.Projects, cleanProjects(s.Projects), origin, confidence)

	return c
}

func setScalar[T comparable](f *Field[T], v T, origin Origin, conf float64) {
	var zero T
	if v == zero {
		return
	}
	*f = Field[T]{Value: v, Origin: origin, Confidence: conf}
}

func setSet(f *Field[[]string], v []string, origin Origin, conf float64) {
	if len(v) == 0 {
		return
	}
	*f = Field[[]string]{Value: v, Origin: origin, Confidence: conf}
}

func setList[T any](f *Field[[]T], v []T, origin Origin, conf float64) {
	if len(v) == 0 {
		return
	}
	*f = Field[[]T]{Value: v, Origin: origin, Confidence: conf}
}

func cleanExperience(entries []Experience) []Experience {
	out := make([]Experience, 0, len(entries))
	for _, e := range entries {
		e.Title = strings.TrimSpace(e.Title)
		e.Company = strings.TrimSpace(e.Company)
		e.StartDate = strings.TrimSpace(e.StartDate)
		e.EndDate = strings.TrimSpace(e.EndDate)
		e.Description = strings.TrimSpace(e.Description)
		if e.Title == "" && e.Company == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func cleanEducation(entries []Education) []Education {
	out := make([]Education, 0, len(entries))
	for _, e := range entries {
		e.Institution = strings.TrimSpace(e.Institution)
		e.Degree = strings.TrimSpace(e.Degree)
		e.Field = strings.TrimSpace(e.Field)
		e.Year = strings.TrimSpace(e.Year)
		if e.Institution == "" && e.Degree == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func cleanProjects(entries []Project) []Project {
	out := make([]Project, 0, len(entries))
	for _, p := range entries {
		p.Name = strings.TrimSpace(p.Name)
		p.Description = strings.TrimSpace(p.Description)
		if p.Name == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
