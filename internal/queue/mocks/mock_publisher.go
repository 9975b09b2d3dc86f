package mocks

import (
	"context"

	"github.com/hanspeterhess/show-time-aws-V1/internal/queue"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, req queue.ScaleUpRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockPublisher) Close() {
	m.Called()
}
