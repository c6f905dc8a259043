package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const createOrUpdateRecommendations = `-- name: CreateOrUpdateRecommendations :exec
INSERT INTO recommendations (
profile, jobs, courses, intake_id)
VALUES ( $1, $2, $3, $4)
ON CONFLICT (intake_id)
DO UPDATE SET
    profile = EXCLUDED.profile,
    jobs = EXCLUDED.jobs,
    courses = EXCLUDED.courses,
    updated_at = CURRENT_TIMESTAMP
`

type CreateOrUpdateRecommendationsParams struct {
	Profile  json.RawMessage
	Jobs     json.RawMessage
	Courses  json.RawMessage
	IntakeID uuid.UUID
}

func (q *Queries) CreateOrUpdateRecommendations(ctx context.Context, arg CreateOrUpdateRecommendationsParams) error {
	_, err := q.db.ExecContext(ctx, createOrUpdateRecommendations, arg.Profile, arg.Jobs, arg.Courses, arg.IntakeID)
	return err
}
