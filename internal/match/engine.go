// Package match scores fused candidate profiles against catalog jobs and
// courses with a weighted multi-factor model and explains every score.
package match

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/talentmatch/matchworker/internal/profile"
	"github.com/talentmatch/matchworker/internal/taxonomy"
)

// Engine scores profiles against the catalog. It is read-only after
// construction and safe for concurrent use.
type Engine struct {
	cfg Config
	tax *taxonomy.Taxonomy
	log *zap.Logger
}

func NewEngine(cfg Config, tax *taxonomy.Taxonomy, log *zap.Logger) *Engine {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = defaultWeights
	}
	if cfg.AdjacentBonus == 0 {
		cfg.AdjacentBonus = defaultAdjacentBonus
	}
	if cfg.AdjacentBonusCap == 0 {
		cfg.AdjacentBonusCap = defaultAdjacentBonusCap
	}
	if cfg.PartialIndustry == 0 {
		cfg.PartialIndustry = defaultPartialIndustry
	}
	if cfg.ExplanationFloor == 0 {
		cfg.ExplanationFloor = defaultExplanationFloor
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, tax: tax, log: log}
}

// ScoreJob scores one profile against one job. The location factor
// contributes only when the job is remote or declares a location the
// profile matches; an undeclared location contributes zero rather than
// redistributing its weight.
func (e *Engine) ScoreJob(p *profile.Fused, job Job) (Result, error) {
	required := e.tax.NormalizeSet(job.RequiredSkills)
	if len(required) == 0 {
		return Result{}, fmt.Errorf("%w: job %d has no required skills", ErrInvalidEntity, job.ID)
	}

	matching, gaps := overlap(p.Skills.Value, required)
	skillF := e.skillFactor(p.Skills.Value, required, matching)
	levelF := e.levelFactor(p.CareerLevel.Value, job.Level)
	industryF := e.industryFactor(p, job.Industry)
	locationF := locationFactor(p.Location.Value, job.Location, job.Remote)

	w := e.cfg.Weights
	score := clamp01(w.Skills*skillF + w.Experience*levelF + w.Industry*industryF + w.Location*locationF)

	reasons := []reason{
		{skillReason(len(matching), len(required), skillF), w.Skills * skillF},
	}
	if lvl := e.tax.NormalizeLevel(job.Level); lvl != "" {
		reasons = append(reasons, reason{levelReason(p.CareerLevel.Value, lvl, levelF), w.Experience * levelF})
	}
	if tag := e.tax.NormalizeIndustry(job.Industry); tag != "" {
		reasons = append(reasons, reason{e.industryReason(tag, industryF), w.Industry * industryF})
	}
	if locationF > 0 {
		reasons = append(reasons, reason{locationReason(job), w.Location * locationF})
	}

	return Result{
		EntityID:       job.ID,
		Score:          score,
		MatchingSkills: matching,
		SkillGaps:      gaps,
		Explanation:    e.explain(reasons),
	}, nil
}

// ScoreCourse scores one profile against one course. Location does not
// apply to courses, so the remaining weights are renormalized by their
// sum. aggregateGaps is the gap set from prior job scoring; the subset
// this curriculum covers becomes GapsAddressed.
func (e *Engine) ScoreCourse(p *profile.Fused, course Course, aggregateGaps []string) (Result, error) {
	taught := e.tax.NormalizeSet(course.Skills)
	if len(taught) == 0 {
		return Result{}, fmt.Errorf("%w: course %d has no curriculum skills", ErrInvalidEntity, course.ID)
	}

	matching, gaps := overlap(p.Skills.Value, taught)
	skillF := e.skillFactor(p.Skills.Value, taught, matching)
	levelF := e.levelFactor(p.CareerLevel.Value, course.Level)
	industryF := e.industryFactor(p, course.Category)

	w := e.cfg.Weights
	wsum := w.Skills + w.Experience + w.Industry
	if wsum <= 0 {
		wsum = 1
	}
	score := clamp01((w.Skills*skillF + w.Experience*levelF + w.Industry*industryF) / wsum)

	addressed := intersect(aggregateGaps, taught)

	reasons := []reason{
		{skillReason(len(matching), len(taught), skillF), w.Skills * skillF / wsum},
	}
	if lvl := e.tax.NormalizeLevel(course.Level); lvl != "" {
		reasons = append(reasons, reason{levelReason(p.CareerLevel.Value, lvl, levelF), w.Experience * levelF / wsum})
	}
	if tag := e.tax.NormalizeIndustry(course.Category); tag != "" {
		reasons = append(reasons, reason{e.industryReason(tag, industryF), w.Industry * industryF / wsum})
	}

	explanation := e.explain(reasons)
	if len(addressed) > 0 {
		note := fmt.Sprintf("addresses skill gaps: %s", strings.Join(addressed, ", "))
		explanation = append([]string{note}, explanation...)
	}

	return Result{
		EntityID:       course.ID,
		Score:          score,
		MatchingSkills: matching,
		SkillGaps:      gaps,
		GapsAddressed:  addressed,
		Explanation:    explanation,
	}, nil
}

// AggregateGaps unions the skill gaps of the top ranked results, at most
// GapSources of them. Results must already be ranked.
func (e *Engine) AggregateGaps(results []Result) []string {
	n := len(results)
	if e.cfg.GapSources > 0 && e.cfg.GapSources < n {
		n = e.cfg.GapSources
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range results[:n] {
		for _, gap := range r.SkillGaps {
			if _, ok := seen[gap]; ok {
				continue
			}
			seen[gap] = struct{}{}
			out = append(out, gap)
		}
	}
	sort.Strings(out)
	return out
}

// overlap splits a normalized requirement set into the part the profile
// covers and the part it lacks. Both outputs stay sorted.
func overlap(skills, required []string) (matching, gaps []string) {
	have := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		have[s] = struct{}{}
	}
	matching = make([]string, 0, len(required))
	gaps = make([]string, 0)
	for _, r := range required {
		if _, ok := have[r]; ok {
			matching = append(matching, r)
		} else {
			gaps = append(gaps, r)
		}
	}
	return matching, gaps
}

func intersect(sorted, other []string) []string {
	in := make(map[string]struct{}, len(other))
	for _, s := range other {
		in[s] = struct{}{}
	}
	out := make([]string, 0)
	for _, s := range sorted {
		if _, ok := in[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// skillFactor is coverage of the required set plus a capped bonus for
// extra profile skills in a category the requirements touch.
func (e *Engine) skillFactor(skills, required, matching []string) float64 {
	base := float64(len(matching)) / float64(len(required))

	reqCats := make(map[string]struct{})
	for _, r := range required {
		for _, c := range e.tax.CategoriesOf(r) {
			reqCats[c] = struct{}{}
		}
	}
	matched := make(map[string]struct{}, len(matching))
	for _, m := range matching {
		matched[m] = struct{}{}
	}

	bonus := 0.0
	for _, s := range skills {
		if _, ok := matched[s]; ok {
			continue
		}
		for _, c := range e.tax.CategoriesOf(s) {
			if _, ok := reqCats[c]; ok {
				bonus += e.cfg.AdjacentBonus
				break
			}
		}
	}
	if bonus > e.cfg.AdjacentBonusCap {
		bonus = e.cfg.AdjacentBonusCap
	}
	return clamp01(base + bonus)
}

// levelFactor maps the ordinal distance between career levels onto a
// fixed decreasing scale. An entity without a recognizable level aligns
// with everyone.
func (e *Engine) levelFactor(profileLevel, entityLevel string) float64 {
	eIdx, ok := e.tax.LevelIndex(entityLevel)
	if !ok {
		return 1
	}
	pIdx, ok := e.tax.LevelIndex(profileLevel)
	if !ok {
		pIdx = 0
	}
	switch d := abs(pIdx - eIdx); d {
	case 0:
		return 1
	case 1:
		return 0.6
	default:
		return 0.2
	}
}

// industryFactor compares the profile's inferred industry with the
// entity's tag: exact match, shared parent group, or nothing.
func (e *Engine) industryFactor(p *profile.Fused, entityIndustry string) float64 {
	tag := e.tax.NormalizeIndustry(entityIndustry)
	if tag == "" {
		return 1
	}
	inferred := e.tax.InferIndustry(p.Skills.Value, p.RoleTitles())
	if inferred == "" {
		return 0
	}
	if inferred == tag {
		return 1
	}
	if g := e.tax.IndustryGroup(inferred); g != "" && g == e.tax.IndustryGroup(tag) {
		return e.cfg.PartialIndustry
	}
	return 0
}

func locationFactor(profileLoc, jobLoc string, remote bool) float64 {
	if remote {
		return 1
	}
	pl := strings.ToLower(strings.TrimSpace(profileLoc))
	jl := strings.ToLower(strings.TrimSpace(jobLoc))
	if pl == "" || jl == "" {
		return 0
	}
	if pl == jl {
		return 1
	}
	return 0
}

type reason struct {
	text         string
	contribution float64
}

// explain keeps the reasons whose weighted contribution clears the floor,
// ordered by contribution descending.
func (e *Engine) explain(reasons []reason) []string {
	kept := make([]reason, 0, len(reasons))
	for _, r := range reasons {
		if r.text == "" || r.contribution < e.cfg.ExplanationFloor {
			continue
		}
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].contribution > kept[j].contribution
	})
	out := make([]string, len(kept))
	for i, r := range kept {
		out[i] = r.text
	}
	return out
}

func skillReason(matched, required int, factor float64) string {
	if matched == 0 {
		return ""
	}
	if factor >= 0.75 {
		return fmt.Sprintf("strong skill match: %d of %d required skills", matched, required)
	}
	return fmt.Sprintf("partial skill match: %d of %d required skills", matched, required)
}

func levelReason(profileLevel, entityLevel string, factor float64) string {
	switch {
	case factor >= 1:
		return fmt.Sprintf("experience level fits: %s", entityLevel)
	case factor >= 0.6:
		return fmt.Sprintf("experience level close: %s vs %s", profileLevel, entityLevel)
	default:
		return ""
	}
}

func (e *Engine) industryReason(tag string, factor float64) string {
	switch {
	case factor >= 1:
		return fmt.Sprintf("industry match: %s", tag)
	case factor >= e.cfg.PartialIndustry:
		return fmt.Sprintf("related industry: %s", tag)
	default:
		return ""
	}
}

func locationReason(job Job) string {
	if job.Remote {
		return "remote friendly"
	}
	return fmt.Sprintf("location match: %s", strings.TrimSpace(job.Location))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
