package queue

import (
	"context"
	"time"
)

// Package queue publishes scale-up requests for the processing worker fleet.
// When a job arrives and no worker holds the channel's worker slot, the relay
// drops the job but asks the autoscaler (via the queue) to bring a worker up.

// ScaleUpRequest is the message published when a job cannot be dispatched
// because no worker connection is registered.
type ScaleUpRequest struct {
	OriginalKey    string    `json:"originalKey"`
	WorkerFunction string    `json:"workerFunction,omitempty"`
	RequestedAt    time.Time `json:"requestedAt"`
}

// Publisher sends scale-up requests to the queue. Publishing is best effort;
// callers log failures and move on.
type Publisher interface {
	Publish(ctx context.Context, req ScaleUpRequest) error
	Close()
}

// NoopPublisher discards every request. Used when no queue URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, req ScaleUpRequest) error { return nil }
func (NoopPublisher) Close()                                                {}
