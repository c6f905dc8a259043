package match

import "errors"

// ErrInvalidEntity marks catalog rows that cannot be scored. Ranking
// skips them with a warning instead of failing the batch.
var ErrInvalidEntity = errors.New("invalid catalog entity")

// Job is an open position from the catalog.
type Job struct {
	ID             int64
	Title          string
	Industry       string
	Location       string
	Remote         bool
	Level          string
	RequiredSkills []string
}

// Course is a catalog learning offer. Skills is the curriculum.
type Course struct {
	ID            int64
	Name          string
	Category      string
	Level         string
	Skills        []string
	Prerequisites []string
}

// Result is one scored profile/entity pairing.
type Result struct {
	EntityID       int64    `json:"entity_id"`
	Score          float64  `json:"score"`
	MatchingSkills []string `json:"matching_skills"`
	SkillGaps      []string `json:"skill_gaps"`
	GapsAddressed  []string `json:"skill_gaps_addressed,omitempty"`
	Explanation    []string `json:"explanation"`
}

// Weights splits the score across the four factors. They must sum to 1.
type Weights struct {
	Skills     float64
	Experience float64
	Industry   float64
	Location   float64
}

// Config tunes scoring and ranking. Zero weight and bonus values fall
// back to the defaults below; MinScore, MaxResults and GapSources are
// honored as given (zero means no filter, no cap, all sources).
type Config struct {
	Weights          Weights
	AdjacentBonus    float64
	AdjacentBonusCap float64
	PartialIndustry  float64
	ExplanationFloor float64
	MinScore         float64
	MaxResults       int
	GapSources       int
}

var defaultWeights = Weights{Skills: 0.5, Experience: 0.2, Industry: 0.2, Location: 0.1}

const (
	defaultAdjacentBonus    = 0.05
	defaultAdjacentBonusCap = 0.15
	defaultPartialIndustry  = 0.5
	defaultExplanationFloor = 0.05
)
