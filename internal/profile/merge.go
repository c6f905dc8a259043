package profile

import (
	"math"
	"sort"
	"strings"

	"github.com/talentmatch/matchworker/internal/taxonomy"
)

// Fused is the reconciled profile: one provenance-tagged value per field
// plus the derived career level and completeness annotations.
type Fused struct {
	Candidate
	CareerLevel  Field[string] `json:"career_level"`
	Completeness float64       `json:"completeness"`
}

// Merge reconciles the form profile with the extracted profile (nil when
// extraction produced nothing). Scalars: a non-empty form value wins and
// extraction fills the rest. Sets and structured lists: union with
// case-insensitive deduplication, tagged combined when both sides
// contributed. Identical tuples pass through untouched, which makes
// merging a fused output with nil or with itself a fixed point. The career
// level is always recomputed on the merged result, never copied from
// either side.
func Merge(form, extracted *Candidate, tax *taxonomy.Taxonomy) *Fused {
	if form == nil {
		form = &Candidate{}
	}
	if extracted == nil {
		extracted = &Candidate{}
	}

	f := &Fused{}
	f.FullName = mergeScalar(form.FullName, extracted.FullName)
	f.Email = mergeScalar(form.Email, extracted.Email)
	f.Phone = mergeScalar(form.Phone, extracted.Phone)
	f.Location = mergeScalar(form.Location, extracted.Location)
	f.Title = mergeScalar(form.Title, extracted.Title)
	f.Company = mergeScalar(form.Company, extracted.Company)
	f.YearsExperience = mergeScalar(form.YearsExperience, extracted.YearsExperience)
	f.HighestDegree = mergeScalar(form.HighestDegree, extracted.HighestDegree)
	f.LinkedIn = mergeScalar(form.LinkedIn, extracted.LinkedIn)
	f.GitHub = mergeScalar(form.GitHub, extracted.GitHub)
	f.Summary = mergeScalar(form.Summary, extracted.Summary)

	f.Skills = mergeSet(form.Skills, extracted.Skills)
	f.Certifications = mergeSet(form.Certifications, extracted.Certifications)
	f.Languages = mergeSet(form.Languages, extracted.Languages)

	f.Experience = mergeList(form.Experience, extracted.Experience, experienceKey)
	f.Education = mergeList(form.Education, extracted.Education, educationKey)
	f.Projects = mergeList(form.Projects, extracted.Projects, projectKey)

	sortExperience(f.Experience.Value)

	f.CareerLevel = deriveCareerLevel(&f.Candidate, tax)
	f.Completeness = completeness(&f.Candidate)
	return f
}

func mergeScalar[T comparable](form, ext Field[T]) Field[T] {
	if form == ext {
		return form
	}
	var zero T
	if form.Value != zero {
		return form
	}
	if ext.Value != zero {
		return ext
	}
	return Field[T]{}
}

func mergeSet(form, ext Field[[]string]) Field[[]string] {
	formHas := len(form.Value) > 0
	extHas := len(ext.Value) > 0
	switch {
	case !formHas && !extHas:
		return Field[[]string]{}
	case formHas && !extHas:
		return cloneSet(form)
	case extHas && !formHas:
		return cloneSet(ext)
	}
	if form.Origin == ext.Origin && form.Confidence == ext.Confidence &&
		sameStrings(form.Value, ext.Value) {
		return cloneSet(form)
	}
	union := dedupeStrings(append(append([]string{}, form.Value...), ext.Value...))
	return Field[[]string]{
		Value:      union,
		Origin:     OriginCombined,
		Confidence: math.Max(form.Confidence, ext.Confidence),
	}
}

func mergeList[T any](form, ext Field[[]T], key func(T) string) Field[[]T] {
	formHas := len(form.Value) > 0
	extHas := len(ext.Value) > 0
	switch {
	case !formHas && !extHas:
		return Field[[]T]{}
	case formHas && !extHas:
		return cloneList(form)
	case extHas && !formHas:
		return cloneList(ext)
	}
	if form.Origin == ext.Origin && form.Confidence == ext.Confidence &&
		sameKeys(form.Value, ext.Value, key) {
		return cloneList(form)
	}
	merged := dedupeBy(append(append([]T{}, form.Value...), ext.Value...), key)
	return Field[[]T]{
		Value:      merged,
		Origin:     OriginCombined,
		Confidence: math.Max(form.Confidence, ext.Confidence),
	}
}

// Composite keys for list deduplication. Form entries run first through
// dedupeBy, so on a collision the form's version of an entry survives.

func experienceKey(e Experience) string {
	return strings.ToLower(strings.TrimSpace(e.Company)) + "|" +
		strings.ToLower(strings.TrimSpace(e.StartDate)) + ".." +
		strings.ToLower(strings.TrimSpace(e.EndDate))
}

func educationKey(e Education) string {
	return strings.ToLower(strings.TrimSpace(e.Institution)) + "|" +
		strings.ToLower(strings.TrimSpace(e.Degree))
}

func projectKey(p Project) string {
	return strings.ToLower(strings.TrimSpace(p.Name))
}

func dedupeBy[T any](entries []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(entries))
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// dedupeStrings deduplicates case-insensitively, keeps the first-seen
// spelling and sorts by the folded key for stable output.
func dedupeStrings(values []string) []string {
	seen := make(map[string]string, len(values))
	keys := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameKeys[T any](a, b []T, key func(T) string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if key(a[i]) != key(b[i]) {
			return false
		}
	}
	return true
}

func cloneSet(f Field[[]string]) Field[[]string] {
	f.Value = append([]string{}, f.Value...)
	return f
}

func cloneList[T any](f Field[[]T]) Field[[]T] {
	f.Value = append([]T{}, f.Value...)
	return f
}
