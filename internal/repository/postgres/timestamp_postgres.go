package postgres

import (
	"context"
	"database/sql"

	"github.com/hanspeterhess/show-time-aws-V1/internal/model"
	"github.com/hanspeterhess/show-time-aws-V1/internal/repository"
)

// TimestampPostgres is a PostgreSQL implementation of repository.TimestampRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type TimestampPostgres struct {
	db *sql.DB
}

// NewTimestampPostgres creates a new TimestampPostgres repository.
func NewTimestampPostgres(db *sql.DB) *TimestampPostgres {
	return &TimestampPostgres{db: db}
}

var _ repository.TimestampRepository = (*TimestampPostgres)(nil)

// Create inserts a new timestamp row and returns the stored record.
func (r *TimestampPostgres) Create(ctx context.Context, ts *model.Timestamp) (*model.Timestamp, error) {
	const q = `
		INSERT INTO timestamps (id, recorded_at)
		VALUES ($1, $2)
		RETURNING id, recorded_at, created_at
	`
	row := r.db.QueryRowContext(ctx, q, ts.ID, ts.RecordedAt)
	var out model.Timestamp
	if err := row.Scan(&out.ID, &out.RecordedAt, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single timestamp record by its ID.
func (r *TimestampPostgres) FindByID(ctx context.Context, id string) (*model.Timestamp, error) {
	const q = `
		SELECT id, recorded_at, created_at
		FROM timestamps
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var ts model.Timestamp
	if err := row.Scan(&ts.ID, &ts.RecordedAt, &ts.CreatedAt); err != nil {
		return nil, err
	}
	return &ts, nil
}

// List returns timestamp records using LIMIT/OFFSET pagination and a total count.
func (r *TimestampPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Timestamp], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM timestamps`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT id, recorded_at, created_at
		FROM timestamps
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Timestamp, 0)
	for rows.Next() {
		var ts model.Timestamp
		if err := rows.Scan(&ts.ID, &ts.RecordedAt, &ts.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Timestamp]{
		Items: items,
		Total: total,
	}, nil
}
