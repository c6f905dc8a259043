package taxonomy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentmatch/matchworker/internal/taxonomy"
)

func TestDefault(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	assert.Equal(t, []string{"junior", "mid", "senior", "executive"}, tax.CareerLevels)
	assert.NotEmpty(t, tax.Categories)
	assert.NotEmpty(t, tax.Industries)
}

func TestNormalize(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"Golang", "go"},
		{" PostgreSQL. ", "postgresql"},
		{"K8s", "kubernetes"},
		{"Node", "node.js"},
		{"REACT", "react"},
		{"Machine   Learning", "machine learning"},
		{"Erlang", "erlang"}, // unknown skills pass through cleaned
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.Normalize(tt.in))
		})
	}
}

func TestNormalizeSet(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)

	got := tax.NormalizeSet([]string{"Python", "golang", "Go", "", "SQL", "python"})
	assert.Equal(t, []string{"go", "python", "sql"}, got)
}

func TestCategoriesOf(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)

	assert.Contains(t, tax.CategoriesOf("Python"), "programming_languages")
	assert.Contains(t, tax.CategoriesOf("docker"), "devops")
	assert.Contains(t, tax.CategoriesOf("FastAPI"), "web_backend")
	assert.Empty(t, tax.CategoriesOf("underwater basket weaving"))
}

func TestLevels(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)

	assert.Equal(t, "junior", tax.LevelFromYears(0))
	assert.Equal(t, "junior", tax.LevelFromYears(1.5))
	assert.Equal(t, "mid", tax.LevelFromYears(2))
	assert.Equal(t, "senior", tax.LevelFromYears(5))
	assert.Equal(t, "senior", tax.LevelFromYears(30))

	assert.Equal(t, "junior", tax.NormalizeLevel("Entry"))
	assert.Equal(t, "mid", tax.NormalizeLevel("Mid-Level"))
	assert.Equal(t, "junior", tax.NormalizeLevel("Beginner"))
	assert.Equal(t, "senior", tax.NormalizeLevel("Advanced"))
	assert.Equal(t, "", tax.NormalizeLevel("cosmic"))

	ji, ok := tax.LevelIndex("junior")
	require.True(t, ok)
	ei, ok := tax.LevelIndex("Executive")
	require.True(t, ok)
	assert.Less(t, ji, ei)

	_, ok = tax.LevelIndex("unknown")
	assert.False(t, ok)
}

func TestTitleLevel(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)

	tests := []struct {
		name   string
		titles []string
		want   string
		ok     bool
	}{
		{"senior title", []string{"Senior Software Engineer"}, "senior", true},
		{"executive beats senior", []string{"Senior Engineer", "CTO"}, "executive", true},
		{"junior title", []string{"Graduate Developer"}, "junior", true},
		{"plain title", []string{"Software Engineer"}, "", false},
		{"no titles", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tax.TitleLevel(tt.titles)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndustries(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)

	assert.Equal(t, "software", tax.NormalizeIndustry("Software Development"))
	assert.Equal(t, "finance", tax.NormalizeIndustry("FinTech"))
	assert.Equal(t, "pottery", tax.NormalizeIndustry(" Pottery "))

	assert.Equal(t, "technology", tax.IndustryGroup("software"))
	assert.Equal(t, "technology", tax.IndustryGroup("Data Science"))
	assert.Equal(t, "", tax.IndustryGroup("pottery"))

	assert.Equal(t, "software", tax.InferIndustry([]string{"python", "fastapi", "sql"}, nil))
	assert.Equal(t, "data", tax.InferIndustry([]string{"pandas", "sql"}, []string{"Data Analyst"}))
	assert.Equal(t, "", tax.InferIndustry(nil, nil))
}

func TestLoadFile(t *testing.T) {
	doc := `
career_levels: [junior, senior]
level_aliases:
  entry: junior
experience_thresholds:
  senior: 4
skill_categories:
  - name: basics
    group: general
    skills: [excel]
`
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tax, err := taxonomy.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "senior", tax.LevelFromYears(4))
	assert.Contains(t, tax.CategoriesOf("Excel"), "basics")

	_, err = taxonomy.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsEmptyScale(t *testing.T) {
	doc := `
skill_categories:
  - name: basics
    group: general
    skills: [excel]
`
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := taxonomy.LoadFile(path)
	assert.ErrorContains(t, err, "career levels")
}
