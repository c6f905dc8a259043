// Package extract turns normalized résumé text into a structured candidate
// profile. The state machine prefers the pluggable structuring backend and
// degrades to rule-based extraction when the backend is unavailable,
// exhausted, or not confident enough.
package extract

import (
	"context"
	"errors"

	"github.com/talentmatch/matchworker/internal/profile"
)

// Failure taxonomy. The three structuring errors are transient: the state
// machine retries them and eventually falls back. The heuristic error is
// fatal for the extraction branch.
var (
	ErrStructuringTimeout     = errors.New("structuring timed out")
	ErrStructuringUnavailable = errors.New("structuring backend unavailable")
	ErrInvalidResponse        = errors.New("structuring returned an unusable response")
	ErrHeuristicExtraction    = errors.New("heuristic extraction failed")
)

// Structurer is the intelligent structuring capability. Implementations
// must honor ctx cancellation and deadlines, and classify failures with
// the package sentinels so the state machine can tell transient trouble
// from bad input. The confidence is the backend's own estimate in [0,1].
type Structurer interface {
	Structure(ctx context.Context, text string, schema Schema) (*profile.Snapshot, float64, error)
}

// FieldSpec names one field the backend must return.
type FieldSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is the target shape sent to the structuring backend.
type Schema []FieldSpec

// DefaultSchema matches the profile snapshot wire format.
func DefaultSchema() Schema {
	return Schema{
		{Name: "full_name", Type: "string"},
		{Name: "email", Type: "string"},
		{Name: "phone", Type: "string"},
		{Name: "location", Type: "string"},
		{Name: "title", Type: "string"},
		{Name: "company", Type: "string"},
		{Name: "years_experience", Type: "number"},
		{Name: "highest_degree", Type: "string"},
		{Name: "linkedin", Type: "string"},
		{Name: "github", Type: "string"},
		{Name: "summary", Type: "string"},
		{Name: "skills", Type: "string list"},
		{Name: "certifications", Type: "string list"},
		{Name: "languages", Type: "string list"},
		{Name: "experience", Type: "list of {title, company, start_date, end_date, description}"},
		{Name: "education", Type: "list of {institution, degree, field, year}"},
		{Name: "projects", Type: "list of {name, description, technologies}"},
	}
}

func transient(err error) bool {
	return errors.Is(err, ErrStructuringTimeout) ||
		errors.Is(err, ErrStructuringUnavailable) ||
		errors.Is(err, ErrInvalidResponse)
}
