// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"

	"github.com/hanspeterhess/show-time-aws-V1/internal/model"
)

// TimestampRepository defines data access for timestamp records using SQL queries only.
// No business logic here, strictly persistence operations.
type TimestampRepository interface {
	// Create inserts a new timestamp record.
	// Returns the stored record (may include values set by the DB).
	Create(ctx context.Context, ts *model.Timestamp) (*model.Timestamp, error)

	// FindByID returns a timestamp record by its ID.
	FindByID(ctx context.Context, id string) (*model.Timestamp, error)

	// List returns a paginated list of timestamp records and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Timestamp], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
