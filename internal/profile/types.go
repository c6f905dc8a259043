// Package profile defines the provenance-tagged candidate profile and the
// deterministic merge that reconciles form-supplied data with data
// extracted from a résumé.
package profile

// Origin records where a field's value came from.
type Origin string

const (
	OriginForm       Origin = "form"
	OriginExtracted  Origin = "extracted"
	OriginCombined   Origin = "combined"
	OriginCalculated Origin = "calculated"
)

// Field is one provenance-tagged value: what we know, where it came from,
// and how much we trust it. A zero Field means the field is absent.
type Field[T any] struct {
	Value      T       `json:"value"`
	Origin     Origin  `json:"origin,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Experience is one work history entry. Dates stay free-form strings; an
// empty or "Present" end date marks a current position.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description,omitempty"`
}

// Education is one degree or program entry.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	Year        string `json:"year,omitempty"`
}

// Project is one portfolio entry.
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Candidate is a structured profile with per-field provenance. The form
// boundary and the extraction pipeline each produce one; the merger folds
// the pair into a Fused profile field by field.
type Candidate struct {
	FullName        Field[string]  `json:"full_name"`
	Email           Field[string]  `json:"email"`
	Phone           Field[string]  `json:"phone"`
	Location        Field[string]  `json:"location"`
	Title           Field[string]  `json:"title"`
	Company         Field[string]  `json:"company"`
	YearsExperience Field[float64] `json:"years_experience"`
	HighestDegree   Field[string]  `json:"highest_degree"`
	LinkedIn        Field[string]  `json:"linkedin"`
	GitHub          Field[string]  `json:"github"`
	Summary         Field[string]  `json:"summary"`

	// Set-valued fields are deduplicated, case-normalized and sorted
	// before the merge ever sees them.
	Skills         Field[[]string] `json:"skills"`
	Certifications Field[[]string] `json:"certifications"`
	Languages      Field[[]string] `json:"languages"`

	Experience Field[[]Experience] `json:"experience"`
	Education  Field[[]Education]  `json:"education"`
	Projects   Field[[]Project]    `json:"projects"`
}

// RoleTitles returns the current title plus every work history title, for
// seniority and industry inference.
func (c *Candidate) RoleTitles() []string {
	var titles []string
	if c.Title.Value != "" {
		titles = append(titles, c.Title.Value)
	}
	for _, e := range c.Experience.Value {
		if e.Title != "" {
			titles = append(titles, e.Title)
		}
	}
	return titles
}

// CapConfidences lowers every field confidence to at most max. Applied
// when extraction completed through the degraded fallback path.
func (c *Candidate) CapConfidences(max float64) {
	capField(&c.FullName, max)
	capField(&c.Email, max)
	capField(&c.Phone, max)
	capField(&c.Location, max)
	capField(&c.Title, max)
	capField(&c.Company, max)
	capField(&c.YearsExperience, max)
	capField(&c.HighestDegree, max)
	capField(&c.LinkedIn, max)
	capField(&c.GitHub, max)
	capField(&c.Summary, max)
	capField(&c.Skills, max)
	capField(&c.Certifications, max)
	capField(&c.Languages, max)
	capField(&c.Experience, max)
	capField(&c.Education, max)
	capField(&c.Projects, max)
}

func capField[T any](f *Field[T], max float64) {
	if f.Confidence > max {
		f.Confidence = max
	}
}
