package mocks

import (
	"context"

	"github.com/hanspeterhess/show-time-aws-V1/internal/model"
	"github.com/hanspeterhess/show-time-aws-V1/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockTimestampRepository struct {
	mock.Mock
}

func (m *MockTimestampRepository) Create(ctx context.Context, ts *model.Timestamp) (*model.Timestamp, error) {
	args := m.Called(ctx, ts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Timestamp), args.Error(1)
}

func (m *MockTimestampRepository) FindByID(ctx context.Context, id string) (*model.Timestamp, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Timestamp), args.Error(1)
}

func (m *MockTimestampRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Timestamp], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Timestamp]), args.Error(1)
}
