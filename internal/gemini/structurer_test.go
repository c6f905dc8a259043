package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentmatch/matchworker/internal/extract"
)

func TestCleanJSON(t *testing.T) {
	want := `{"full_name": "Jane"}`

	assert.Equal(t, want, cleanJSON(want))
	assert.Equal(t, want, cleanJSON("```json\n"+want+"\n```"))
	assert.Equal(t, want, cleanJSON("```\n"+want+"\n```"))
	assert.Equal(t, want, cleanJSON("  \n"+want+"  \n"))
}

func TestParseResponse(t *testing.T) {
	body := "```json\n" + `{
		"full_name": "Jane Smith",
		"email": "jane@example.com",
		"years_experience": 6,
		"skills": ["Go", "PostgreSQL"],
		"experience": [{"title": "Engineer", "company": "Initech", "start_date": "2019", "end_date": "2024"}],
		"confidence": 0.85
	}` + "\n```"

	snap, conf, err := parseResponse(body)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", snap.FullName)
	assert.Equal(t, "jane@example.com", snap.Email)
	assert.InDelta(t, 6, snap.YearsExperience, 1e-9)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, snap.Skills)
	require.Len(t, snap.Experience, 1)
	assert.Equal(t, "Initech", snap.Experience[0].Company)
	assert.InDelta(t, 0.85, conf, 1e-9)
}

func TestParseResponseInvalid(t *testing.T) {
	_, _, err := parseResponse("the resume describes a backend engineer")
	assert.ErrorIs(t, err, extract.ErrInvalidResponse)
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage(extract.DefaultSchema(), "resume body here")
	assert.Contains(t, msg, "- full_name (string)")
	assert.Contains(t, msg, "- years_experience (number)")
	assert.Contains(t, msg, "Resume:\nresume body here")
}

func TestClassify(t *testing.T) {
	err := classify(fmt.Errorf("rpc: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, extract.ErrStructuringTimeout)

	err = classify(context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, extract.ErrStructuringUnavailable)

	err = classify(errors.New("connection refused"))
	assert.ErrorIs(t, err, extract.ErrStructuringUnavailable)
}
