package profile

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/talentmatch/matchworker/internal/taxonomy"
)

var yearRe = regexp.MustCompile(`(19|20)\d{2}`)

var months = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// deriveCareerLevel classifies the merged profile on the career scale.
// Years of experience set the base level (falling back to the work history
// span when the scalar is absent); seniority keywords in role titles can
// promote but never demote.
func deriveCareerLevel(c *Candidate, tax *taxonomy.Taxonomy) Field[string] {
	years := c.YearsExperience.Value
	if years <= 0 {
		years = SpanYears(c.Experience.Value)
	}
	level := tax.LevelFromYears(years)

	if fromTitle, ok := tax.TitleLevel(c.RoleTitles()); ok {
		li, _ := tax.LevelIndex(level)
		ti, _ := tax.LevelIndex(fromTitle)
		if ti > li {
			level = fromTitle
		}
	}

	return Field[string]{Value: level, Origin: OriginCalculated, Confidence: 1.0}
}

// SpanYears estimates total career length from work history date ranges:
// earliest start year to latest end year, where an open-ended position
// counts up to the present.
func SpanYears(entries []Experience) float64 {
	minStart, maxEnd := 0, 0
	now := time.Now().Year()
	for _, e := range entries {
		m := yearRe.FindString(e.StartDate)
		if m == "" {
			continue
		}
		start, _ := strconv.Atoi(m)
		end := now
		if m := yearRe.FindString(e.EndDate); m != "" {
			end, _ = strconv.Atoi(m)
		}
		if minStart == 0 || start < minStart {
			minStart = start
		}
		if end > maxEnd {
			maxEnd = end
		}
	}
	if minStart == 0 || maxEnd < minStart {
		return 0
	}
	span := maxEnd - minStart
	if span > 60 {
		span = 60
	}
	return float64(span)
}

// sortExperience orders entries most recent first; open-ended positions
// lead. Ties keep their merge order.
func sortExperience(entries []Experience) {
	sort.SliceStable(entries, func(i, j int) bool {
		return endRank(entries[i]) > endRank(entries[j])
	})
}

func endRank(e Experience) int {
	end := strings.ToLower(e.EndDate)
	if end == "" || strings.Contains(end, "present") || strings.Contains(end, "current") {
		return 999912
	}
	m := yearRe.FindString(end)
	if m == "" {
		return 0
	}
	year, _ := strconv.Atoi(m)
	return year*100 + monthIn(end)
}

func monthIn(s string) int {
	for i, m := range months {
		if strings.Contains(s, m) {
			return i + 1
		}
	}
	return 0
}

// completeness reports the fraction of core profile sections populated.
func completeness(c *Candidate) float64 {
	checks := []bool{
		c.FullName.Value != "",
		c.Email.Value != "",
		c.Phone.Value != "",
		c.Location.Value != "",
		c.Title.Value != "",
		c.YearsExperience.Value > 0,
		c.HighestDegree.Value != "",
		len(c.Skills.Value) > 0,
		len(c.Experience.Value) > 0,
		len(c.Education.Value) > 0,
	}
	filled := 0
	for _, ok := range checks {
		if ok {
			filled++
		}
	}
	return float64(filled) / float64(len(checks))
}
