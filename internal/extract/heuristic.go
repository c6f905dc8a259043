package extract

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/talentmatch/matchworker/internal/profile"
	"github.com/talentmatch/matchworker/internal/taxonomy"
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe    = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	linkedinRe = regexp.MustCompile(`(?i)linkedin\.com/in/[A-Za-z0-9_\-]+`)
	githubRe   = regexp.MustCompile(`(?i)github\.com/[A-Za-z0-9_\-]+`)
	dateSpanRe = regexp.MustCompile(`(?i)((?:19|20)\d{2})\s*(?:-|–|—|to|until)\s*((?:19|20)\d{2}|present|current|now)`)
	yearRe     = regexp.MustCompile(`(19|20)\d{2}`)
	degreeRe   = regexp.MustCompile(`(?i)\b(ph\.?d|doctorate|mba|m\.?sc|master(?:'?s)?|b\.?sc|b\.?tech|bachelor(?:'?s)?|associate|diploma)\b`)
	fieldRe    = regexp.MustCompile(`(?i)(?:of|in)\s+([A-Za-z][A-Za-z &/]{2,60})`)
)

var sectionHeaders = map[string][]string{
	"summary":        {"summary", "professional summary", "objective", "profile", "about", "about me"},
	"skills":         {"skills", "technical skills", "core competencies", "technologies", "tech stack"},
	"experience":     {"experience", "work experience", "professional experience", "employment", "employment history", "work history"},
	"education":      {"education", "academic background", "qualifications"},
	"certifications": {"certifications", "certificates", "licenses"},
	"languages":      {"languages"},
	"projects":       {"projects", "personal projects", "selected projects"},
}

// degreeRank orders degree keywords so the highest one wins.
var degreeRank = map[string]int{
	"associate": 1, "diploma": 1,
	"bachelor": 2, "bachelors": 2, "bsc": 2, "b.sc": 2, "btech": 2, "b.tech": 2,
	"master": 3, "masters": 3, "msc": 3, "m.sc": 3, "mba": 3,
	"phd": 4, "ph.d": 4, "doctorate": 4,
}

// Heuristic derives a structured profile from résumé text with rules and
// regular expressions only. It makes no external calls and is the
// degraded path of the state machine.
type Heuristic struct {
	tax *taxonomy.Taxonomy
}

func NewHeuristic(tax *taxonomy.Taxonomy) *Heuristic {
	return &Heuristic{tax: tax}
}

// Extract parses what it can and errors only when the text contains no
// recognizable résumé content at all.
func (h *Heuristic) Extract(text string) (*profile.Candidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty text")
	}

	lines := strings.Split(text, "\n")
	sections := splitSections(lines)

	snap := &profile.Snapshot{
		Email:    emailRe.FindString(text),
		Phone:    strings.TrimSpace(phoneRe.FindString(text)),
		LinkedIn: linkedinRe.FindString(text),
		GitHub:   githubRe.FindString(text),
		FullName: guessName(lines),
	}

	snap.Skills = h.scanSkills(text, sections["skills"])
	snap.Experience = parseExperience(sections["experience"])
	snap.Education = parseEducation(sections["education"])
	snap.Certifications = splitItems(sections["certifications"], 120)
	snap.Languages = splitItems(sections["languages"], 40)
	snap.Summary = clip(strings.Join(sections["summary"], " "), 600)

	if len(snap.Experience) > 0 {
		snap.Title = snap.Experience[0].Title
		snap.Company = snap.Experience[0].Company
	}
	snap.YearsExperience = profile.SpanYears(snap.Experience)
	snap.HighestDegree = highestDegree(snap.Education)

	if snap.Email == "" && snap.Phone == "" && snap.FullName == "" &&
		len(snap.Skills) == 0 && len(snap.Experience) == 0 && len(snap.Education) == 0 {
		return nil, errors.New("no recognizable résumé content")
	}

	cand := profile.FromSnapshot(snap, profile.OriginExtracted, 0.5, h.tax)

	// pattern-matched contact fields are trustworthy, guessed ones less so
	boost(&cand.Email, 0.9)
	boost(&cand.Phone, 0.9)
	boost(&cand.LinkedIn, 0.9)
	boost(&cand.GitHub, 0.9)
	boost(&cand.Skills, 0.7)
	boost(&cand.Certifications, 0.7)
	boost(&cand.Languages, 0.7)
	boost(&cand.FullName, 0.6)
	boost(&cand.Title, 0.6)
	boost(&cand.Summary, 0.6)

	return cand, nil
}

func boost[T any](f *profile.Field[T], conf float64) {
	if f.Origin != "" {
		f.Confidence = conf
	}
}

// splitSections groups lines under the section header preceding them.
// Lines before any known header land in the "" bucket.
func splitSections(lines []string) map[string][]string {
	sections := make(map[string][]string)
	current := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if name, ok := headerName(trimmed); ok {
			current = name
			continue
		}
		sections[current] = append(sections[current], trimmed)
	}
	return sections
}

func headerName(line string) (string, bool) {
	if len(line) > 40 {
		return "", false
	}
	key := strings.ToLower(strings.TrimRight(line, ":"))
	key = strings.Join(strings.Fields(key), " ")
	for name, aliases := range sectionHeaders {
		for _, alias := range aliases {
			if key == alias {
				return name, true
			}
		}
	}
	return "", false
}

// guessName looks for a capitalized two-to-four word line near the top,
// skipping anything that looks like contact data or a document label.
func guessName(lines []string) string {
	limit := 5
	for _, line := range lines {
		if limit == 0 {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		limit--

		lower := strings.ToLower(trimmed)
		if strings.ContainsAny(trimmed, "@0123456789") ||
			strings.Contains(lower, "resume") || strings.Contains(lower, "curriculum") {
			continue
		}
		words := strings.Fields(trimmed)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		ok := true
		for _, w := range words {
			w = strings.Trim(w, ",.")
			if w == "" || !isNameWord(w) {
				ok = false
				break
			}
		}
		if ok {
			return trimmed
		}
	}
	return ""
}

func isNameWord(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' && r != '.' {
			return false
		}
	}
	first := []rune(w)[0]
	return unicode.IsUpper(first)
}

// scanSkills merges two harvests: tokens listed under the skills section,
// and known taxonomy terms appearing anywhere in the text. Short terms
// only count inside the skills section where a stray "go" or "r" really
// means the skill.
func (h *Heuristic) scanSkills(text string, skillLines []string) []string {
	found := make(map[string]struct{})

	sectionText := strings.ToLower(strings.Join(skillLines, "\n"))
	for _, line := range skillLines {
		for _, token := range splitTokens(line) {
			if token == "" || len(token) > 40 {
				continue
			}
			if len(strings.Fields(token)) > 4 {
				continue
			}
			found[h.tax.Normalize(token)] = struct{}{}
		}
	}

	lowerText := strings.ToLower(text)
	for _, term := range h.tax.ScanTerms() {
		if len(term) < 3 {
			if containsTerm(sectionText, term) {
				found[h.tax.Normalize(term)] = struct{}{}
			}
			continue
		}
		if containsTerm(lowerText, term) {
			found[h.tax.Normalize(term)] = struct{}{}
		}
	}

	delete(found, "")
	out := make([]string, 0, len(found))
	for s := range found {
		out = append(out, s)
	}
	return h.tax.NormalizeSet(out)
}

func splitTokens(line string) []string {
	parts := strings.FieldsFunc(line, func(r rune) bool {
		switch r {
		case ',', '•', '|', ';', '·', '●', '▪':
			return true
		}
		return false
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(p, "-–—: "))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// containsTerm is a word-boundary aware substring check.
func containsTerm(text, term string) bool {
	start := 0
	for {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		before := idx == 0 || !isWordChar(rune(text[idx-1]))
		afterIdx := idx + len(term)
		after := afterIdx >= len(text) || !isWordChar(rune(text[afterIdx]))
		if before && after {
			return true
		}
		start = idx + 1
	}
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// parseExperience turns dated lines into entries; undated lines following
// a dated one become its description.
func parseExperience(lines []string) []profile.Experience {
	var entries []profile.Experience
	var desc []string

	flushDesc := func() {
		if len(entries) > 0 && len(desc) > 0 {
			entries[len(entries)-1].Description = clip(strings.Join(desc, " "), 500)
		}
		desc = nil
	}

	for _, line := range lines {
		m := dateSpanRe.FindStringSubmatchIndex(line)
		if m == nil {
			if len(entries) > 0 {
				desc = append(desc, line)
			}
			continue
		}
		flushDesc()

		span := dateSpanRe.FindStringSubmatch(line)
		rest := strings.TrimSpace(line[:m[0]] + line[m[1]:])
		rest = strings.Trim(rest, "()[],-–—| ")
		title, company := splitRole(rest)

		entries = append(entries, profile.Experience{
			Title:     title,
			Company:   company,
			StartDate: span[1],
			EndDate:   span[2],
		})
	}
	flushDesc()
	return entries
}

// splitRole separates "Title at Company" style remainders.
func splitRole(s string) (title, company string) {
	for _, sep := range []string{" at ", " @ ", " | ", " — ", " – ", " - ", ", "} {
		if idx := strings.Index(s, sep); idx > 0 {
			return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+len(sep):])
		}
	}
	return strings.TrimSpace(s), ""
}

func parseEducation(lines []string) []profile.Education {
	var entries []profile.Education
	for _, line := range lines {
		dm := degreeRe.FindString(line)
		inst := institutionIn(line)
		if dm == "" && inst == "" {
			continue
		}

		entry := profile.Education{Institution: inst}
		if dm != "" {
			entry.Degree = dm
			if fm := fieldRe.FindStringSubmatch(line[strings.Index(line, dm)+len(dm):]); fm != nil {
				entry.Field = strings.TrimSpace(fm[1])
			}
		}
		if y := yearRe.FindAllString(line, -1); len(y) > 0 {
			entry.Year = y[len(y)-1]
		}
		entries = append(entries, entry)
	}
	return entries
}

func institutionIn(line string) string {
	lower := strings.ToLower(line)
	for _, kw := range []string{"university", "college", "institute", "polytechnic", "school"} {
		if idx := strings.Index(lower, kw); idx >= 0 {
			// take the comma-delimited segment holding the keyword
			start := strings.LastIndex(line[:idx], ",") + 1
			end := strings.Index(line[idx:], ",")
			if end < 0 {
				end = len(line)
			} else {
				end += idx
			}
			return strings.TrimSpace(line[start:end])
		}
	}
	return ""
}

func splitItems(lines []string, maxLen int) []string {
	var out []string
	for _, line := range lines {
		for _, token := range splitTokens(line) {
			if len(token) >= 2 && len(token) <= maxLen {
				out = append(out, stripProficiency(token))
			}
		}
	}
	return out
}

// stripProficiency drops trailing "(native)" style annotations.
func stripProficiency(s string) string {
	if idx := strings.Index(s, "("); idx > 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

func highestDegree(entries []profile.Education) string {
	best := ""
	bestRank := 0
	for _, e := range entries {
		key := strings.ToLower(strings.ReplaceAll(e.Degree, " ", ""))
		key = strings.TrimSuffix(strings.TrimSuffix(key, "'s"), "s")
		rank, ok := degreeRank[key]
		if !ok {
			// free-form degrees still rank by keyword
			if m := degreeRe.FindString(strings.ToLower(e.Degree)); m != "" {
				m = strings.TrimSuffix(strings.TrimSuffix(m, "'s"), "s")
				rank = degreeRank[m]
			}
		}
		if rank > bestRank {
			bestRank = rank
			best = e.Degree
		}
	}
	return best
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
