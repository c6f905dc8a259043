// Package taxonomy loads the shared reference data the pipeline reads at
// startup: canonical skill names grouped into categories, the ordered career
// level scale with its alias and title-keyword maps, and industry keyword
// sets. A Taxonomy is immutable after load and safe for concurrent readers.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed taxonomy.yaml
var defaultYAML []byte

type Category struct {
	Name   string   `yaml:"name"`
	Group  string   `yaml:"group"`
	Skills []string `yaml:"skills"`
}

type Industry struct {
	Name       string   `yaml:"name"`
	Group      string   `yaml:"group"`
	Categories []string `yaml:"categories"`
	Keywords   []string `yaml:"keywords"`
}

type Taxonomy struct {
	CareerLevels         []string            `yaml:"career_levels"`
	LevelAliases         map[string]string   `yaml:"level_aliases"`
	TitleKeywords        map[string][]string `yaml:"title_keywords"`
	ExperienceThresholds map[string]float64  `yaml:"experience_thresholds"`
	Aliases              map[string]string   `yaml:"aliases"`
	Categories           []Category          `yaml:"skill_categories"`
	IndustryAliases      map[string]string   `yaml:"industry_aliases"`
	Industries           []Industry          `yaml:"industries"`

	levelIndex      map[string]int
	skillCategories map[string][]string
	categoryGroup   map[string]string
	industryGroup   map[string]string
	scanTerms       []string
}

// Default parses the embedded reference data.
func Default() (*Taxonomy, error) {
	return parse(defaultYAML)
}

// LoadFile parses an override document from disk.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(t.CareerLevels) == 0 {
		return nil, fmt.Errorf("taxonomy defines no career levels")
	}
	if len(t.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy defines no skill categories")
	}
	t.build()
	return &t, nil
}

func (t *Taxonomy) build() {
	t.levelIndex = make(map[string]int, len(t.CareerLevels))
	for i, lvl := range t.CareerLevels {
		t.levelIndex[lvl] = i
	}

	t.skillCategories = make(map[string][]string)
	t.categoryGroup = make(map[string]string, len(t.Categories))
	terms := make(map[string]struct{})
	for _, c := range t.Categories {
		t.categoryGroup[c.Name] = c.Group
		for _, s := range c.Skills {
			key := clean(s)
			t.skillCategories[key] = append(t.skillCategories[key], c.Name)
			terms[key] = struct{}{}
		}
	}
	for alias := range t.Aliases {
		terms[clean(alias)] = struct{}{}
	}

	t.scanTerms = make([]string, 0, len(terms))
	for term := range terms {
		t.scanTerms = append(t.scanTerms, term)
	}
	// longest first so multi-word terms win before their substrings
	sort.Slice(t.scanTerms, func(i, j int) bool {
		if len(t.scanTerms[i]) != len(t.scanTerms[j]) {
			return len(t.scanTerms[i]) > len(t.scanTerms[j])
		}
		return t.scanTerms[i] < t.scanTerms[j]
	})

	t.industryGroup = make(map[string]string, len(t.Industries))
	for _, ind := range t.Industries {
		t.industryGroup[ind.Name] = ind.Group
	}
}

func clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".,;:")
	return strings.Join(strings.Fields(s), " ")
}

// Normalize maps a raw skill string to its canonical lowercase form.
// Unknown skills come back cleaned but otherwise untouched.
func (t *Taxonomy) Normalize(skill string) string {
	s := clean(skill)
	if canon, ok := t.Aliases[s]; ok {
		return canon
	}
	return s
}

// NormalizeSet normalizes, deduplicates and sorts a skill list. Empty
// entries are dropped.
func (t *Taxonomy) NormalizeSet(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		n := t.Normalize(s)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CategoriesOf returns the category names a canonical skill belongs to,
// or nil for skills outside the reference data.
func (t *Taxonomy) CategoriesOf(skill string) []string {
	return t.skillCategories[t.Normalize(skill)]
}

// ScanTerms returns every known skill term (canonical names and aliases),
// longest first, for text scanning.
func (t *Taxonomy) ScanTerms() []string {
	return t.scanTerms
}

// NormalizeLevel resolves a career level or difficulty label to a canonical
// level name, or "" when the label is unknown.
func (t *Taxonomy) NormalizeLevel(s string) string {
	key := clean(s)
	if lvl, ok := t.LevelAliases[key]; ok {
		return lvl
	}
	if _, ok := t.levelIndex[key]; ok {
		return key
	}
	return ""
}

// LevelIndex returns the ordinal position of a level on the career scale.
func (t *Taxonomy) LevelIndex(level string) (int, bool) {
	lvl := t.NormalizeLevel(level)
	if lvl == "" {
		return 0, false
	}
	idx, ok := t.levelIndex[lvl]
	return idx, ok
}

// LevelFromYears maps total years of experience onto the career scale using
// the configured thresholds. Levels without a threshold (executive) are not
// reachable through years alone.
func (t *Taxonomy) LevelFromYears(years float64) string {
	level := t.CareerLevels[0]
	for _, name := range t.CareerLevels[1:] {
		thr, ok := t.ExperienceThresholds[name]
		if ok && years >= thr {
			level = name
		}
	}
	return level
}

// TitleLevel scans role titles for seniority keywords and returns the
// highest matched level.
func (t *Taxonomy) TitleLevel(titles []string) (string, bool) {
	best := -1
	for _, title := range titles {
		lower := strings.ToLower(title)
		for _, level := range t.CareerLevels {
			for _, kw := range t.TitleKeywords[level] {
				if strings.Contains(lower, kw) {
					if idx := t.levelIndex[level]; idx > best {
						best = idx
					}
				}
			}
		}
	}
	if best < 0 {
		return "", false
	}
	return t.CareerLevels[best], true
}

// NormalizeIndustry resolves an industry tag to a canonical industry name
// where possible; unknown tags come back cleaned for plain comparison.
func (t *Taxonomy) NormalizeIndustry(tag string) string {
	key := clean(tag)
	if name, ok := t.IndustryAliases[key]; ok {
		return name
	}
	return key
}

// IndustryGroup returns the parent grouping of an industry, or "" when the
// industry is not in the reference data.
func (t *Taxonomy) IndustryGroup(industry string) string {
	return t.industryGroup[t.NormalizeIndustry(industry)]
}

// InferIndustry guesses the candidate's industry from normalized skills and
// role titles. Skills vote through their categories, title keywords count
// double. Returns "" when nothing matches.
func (t *Taxonomy) InferIndustry(skills []string, titles []string) string {
	lowerTitles := make([]string, len(titles))
	for i, title := range titles {
		lowerTitles[i] = strings.ToLower(title)
	}

	best := ""
	bestScore := 0
	for _, ind := range t.Industries {
		cats := make(map[string]struct{}, len(ind.Categories))
		for _, c := range ind.Categories {
			cats[c] = struct{}{}
		}

		score := 0
		for _, skill := range skills {
			for _, c := range t.skillCategories[t.Normalize(skill)] {
				if _, ok := cats[c]; ok {
					score++
					break
				}
			}
		}
		for _, kw := range ind.Keywords {
			for _, title := range lowerTitles {
				if strings.Contains(title, kw) {
					score += 2
					break
				}
			}
		}

		if score > bestScore {
			best = ind.Name
			bestScore = score
		}
	}
	return best
}
