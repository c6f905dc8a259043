package match

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talentmatch/matchworker/internal/profile"
)

// rankParallelism bounds concurrent score calls per ranking request.
const rankParallelism = 8

// RankJobs scores the profile against every job in parallel, drops
// invalid entities and sub-threshold scores, and returns a ranked list:
// score descending, entity id ascending on ties, truncated to MaxResults.
func (e *Engine) RankJobs(ctx context.Context, p *profile.Fused, jobs []Job) ([]Result, error) {
	scored := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(rankParallelism)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.ScoreJob(p, job)
			if err != nil {
				e.log.Warn("skipping job", zap.Int64("job_id", job.ID), zap.Error(err))
				return nil
			}
			scored[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return e.finalize(scored), nil
}

// RankCourses is RankJobs for courses; aggregateGaps feeds GapsAddressed.
func (e *Engine) RankCourses(ctx context.Context, p *profile.Fused, courses []Course, aggregateGaps []string) ([]Result, error) {
	scored := make([]*Result, len(courses))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(rankParallelism)
	for i, course := range courses {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.ScoreCourse(p, course, aggregateGaps)
			if err != nil {
				e.log.Warn("skipping course", zap.Int64("course_id", course.ID), zap.Error(err))
				return nil
			}
			scored[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return e.finalize(scored), nil
}

func (e *Engine) finalize(scored []*Result) []Result {
	out := make([]Result, 0, len(scored))
	for _, r := range scored {
		if r == nil || r.Score < e.cfg.MinScore {
			continue
		}
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].EntityID < out[j].EntityID
	})
	if e.cfg.MaxResults > 0 && len(out) > e.cfg.MaxResults {
		out = out[:e.cfg.MaxResults]
	}
	return out
}
