package mocks

import (
	"github.com/hanspeterhess/show-time-aws-V1/internal/relay"
	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Broadcast(msg relay.Message) {
	m.Called(msg)
}

func (m *MockNotifier) SendToWorker(msg relay.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}
