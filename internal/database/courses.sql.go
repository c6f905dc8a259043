package database

import (
	"context"

	"github.com/lib/pq"
)

const listCourses = `-- name: ListCourses :many
SELECT id, name, category, level, skills, prerequisites, created_at FROM courses ORDER BY id
`

func (q *Queries) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := q.db.QueryContext(ctx, listCourses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Course
	for rows.Next() {
		var i Course
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Category,
			&i.Level,
			pq.Array(&i.Skills),
			pq.Array(&i.Prerequisites),
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
