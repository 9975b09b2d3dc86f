package model

import "time"

// Timestamp represents a stored point-in-time record.
// This is a pure domain model with no database-specific dependencies or tags.
// Records are created once, persisted, announced to connected peers, and never
// mutated or deleted by this system.
type Timestamp struct {
	ID         string    `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}
