package mocks

import (
	"context"

	"github.com/hanspeterhess/show-time-aws-V1/internal/model"
	"github.com/hanspeterhess/show-time-aws-V1/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockRelayService struct {
	mock.Mock
}

func (m *MockRelayService) StoreTimestamp(ctx context.Context) (*model.Timestamp, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Timestamp), args.Error(1)
}

func (m *MockRelayService) ListTimestamps(ctx context.Context, limit, offset int) (*service.TimestampListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TimestampListResult), args.Error(1)
}

func (m *MockRelayService) GetTimestamp(ctx context.Context, id string) (*model.Timestamp, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Timestamp), args.Error(1)
}

func (m *MockRelayService) IssueUploadTarget(ctx context.Context, fileNameHint string) (*model.UploadTarget, error) {
	args := m.Called(ctx, fileNameHint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadTarget), args.Error(1)
}

func (m *MockRelayService) IssueDownloadTarget(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockRelayService) ReceiveWorkerResult(result model.ProcessingResult) {
	m.Called(result)
}

func (m *MockRelayService) UploadComplete(originalKey string) {
	m.Called(originalKey)
}

func (m *MockRelayService) ProcessedImage(originalKey string, data []byte) {
	m.Called(originalKey, data)
}

func (m *MockRelayService) ProcessedUploaded(originalKey, blurredKey string) {
	m.Called(originalKey, blurredKey)
}
