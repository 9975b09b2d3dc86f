package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hanspeterhess/show-time-aws-V1/internal/config"
)

// natsPublisher implements Publisher on a core NATS connection.
type natsPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATS connects to the configured NATS server and returns a Publisher
// bound to the configured subject.
func NewNATS(cfg config.QueueConfig) (Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("queue url is required")
	}
	if cfg.Subject == "" {
		return nil, fmt.Errorf("queue subject is required")
	}

	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &natsPublisher{nc: nc, subject: cfg.Subject}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, req ScaleUpRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal scale-up request: %w", err)
	}
	if err := p.nc.Publish(p.subject, b); err != nil {
		return fmt.Errorf("publish scale-up request: %w", err)
	}
	return nil
}

func (p *natsPublisher) Close() {
	p.nc.Close()
}
