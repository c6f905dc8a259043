package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentmatch/matchworker/internal/profile"
)

func TestRankJobsTieBreak(t *testing.T) {
	e, tax := newTestEngine(t, Config{})
	p := fusedProfile(t, tax, &profile.Snapshot{Skills: []string{"Go"}, YearsExperience: 3})

	jobs := []Job{
		{ID: 9, RequiredSkills: []string{"Go"}},
		{ID: 3, RequiredSkills: []string{"Go"}},
	}

	ranked, err := e.RankJobs(context.Background(), p, jobs)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.InDelta(t, ranked[0].Score, ranked[1].Score, 1e-9)
	assert.Equal(t, int64(3), ranked[0].EntityID)
	assert.Equal(t, int64(9), ranked[1].EntityID)

	again, err := e.RankJobs(context.Background(), p, jobs)
	require.NoError(t, err)
	assert.Equal(t, ranked, again, "parallel ranking is reproducible")
}

func TestRankJobsSkipsInvalid(t *testing.T) {
	e, tax := newTestEngine(t, Config{})
	p := fusedProfile(t, tax, &profile.Snapshot{Skills: []string{"Python"}})

	ranked, err := e.RankJobs(context.Background(), p, []Job{
		{ID: 1, RequiredSkills: []string{"Python"}},
		{ID: 2},
		{ID: 3, RequiredSkills: []string{"Python", "SQL"}},
	})
	require.NoError(t, err)

	ids := make([]int64, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.EntityID)
	}
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestRankJobsMinScore(t *testing.T) {
	e, tax := newTestEngine(t, Config{MinScore: 0.1})
	p := fusedProfile(t, tax, &profile.Snapshot{Skills: []string{"Python"}})

	ranked, err := e.RankJobs(context.Background(), p, []Job{
		{ID: 1, RequiredSkills: []string{"Python"}},
		{ID: 2, Industry: "Finance", Level: "Executive", RequiredSkills: []string{"Trading"}},
	})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, int64(1), ranked[0].EntityID)
}

func TestRankJobsMaxResults(t *testing.T) {
	e, tax := newTestEngine(t, Config{MaxResults: 2})
	p := fusedProfile(t, tax, &profile.Snapshot{Skills: []string{"Go", "Python", "SQL"}})

	ranked, err := e.RankJobs(context.Background(), p, []Job{
		{ID: 1, RequiredSkills: []string{"Go"}},
		{ID: 2, RequiredSkills: []string{"Go", "Python"}},
		{ID: 3, RequiredSkills: []string{"Go", "Python", "SQL", "Rust"}},
	})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.GreaterOrEqual(t, ranked[0].Score, ranked[1].Score)
}

func TestRankJobsCancelled(t *testing.T) {
	e, tax := newTestEngine(t, Config{})
	p := fusedProfile(t, tax, &profile.Snapshot{Skills: []string{"Go"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.RankJobs(ctx, p, []Job{{ID: 1, RequiredSkills: []string{"Go"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRankCourses(t *testing.T) {
	e, tax := newTestEngine(t, Config{})
	p := fusedProfile(t, tax, &profile.Snapshot{Skills: []string{"Python", "SQL"}})

	ranked, err := e.RankCourses(context.Background(), p, []Course{
		{ID: 1, Name: "Containers 101", Skills: []string{"Docker", "Kubernetes"}},
		{ID: 2, Name: "Production Python", Category: "Software Development", Level: "Beginner", Skills: []string{"Python", "SQL"}},
	}, []string{"docker"})
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, int64(2), ranked[0].EntityID)
	assert.InDelta(t, 1.0, ranked[0].Score, 1e-6)
	assert.Equal(t, int64(1), ranked[1].EntityID)
	assert.Equal(t, []string{"docker"}, ranked[1].GapsAddressed)
}
