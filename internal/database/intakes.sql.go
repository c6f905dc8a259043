package database

import (
	"context"

	"github.com/google/uuid"
)

const getIntake = `-- name: GetIntake :one
SELECT id, object_key, mime, form_profile, status, error, created_at, updated_at FROM intakes WHERE id=$1
`

func (q *Queries) GetIntake(ctx context.Context, id uuid.UUID) (Intake, error) {
	row := q.db.QueryRowContext(ctx, getIntake, id)
	var i Intake
	err := row.Scan(
		&i.ID,
		&i.ObjectKey,
		&i.Mime,
		&i.FormProfile,
		&i.Status,
		&i.Error,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateIntakeStatus = `-- name: UpdateIntakeStatus :exec
UPDATE intakes
SET status=$1, error=$2, updated_at=CURRENT_TIMESTAMP
WHERE id=$3
`

type UpdateIntakeStatusParams struct {
	Status string
	Error  string
	ID     uuid.UUID
}

func (q *Queries) UpdateIntakeStatus(ctx context.Context, arg UpdateIntakeStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateIntakeStatus, arg.Status, arg.Error, arg.ID)
	return err
}
