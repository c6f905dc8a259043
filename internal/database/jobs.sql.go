package database

import (
	"context"

	"github.com/lib/pq"
)

const listOpenJobs = `-- name: ListOpenJobs :many
SELECT id, title, industry, location, remote, experience_level, required_skills, open, created_at FROM jobs WHERE open=true ORDER BY id
`

func (q *Queries) ListOpenJobs(ctx context.Context) ([]Job, error) {
	rows, err := q.db.QueryContext(ctx, listOpenJobs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Job
	for rows.Next() {
		var i Job
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.Industry,
			&i.Location,
			&i.Remote,
			&i.ExperienceLevel,
			pq.Array(&i.RequiredSkills),
			&i.Open,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
