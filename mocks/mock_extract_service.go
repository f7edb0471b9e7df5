package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"textmill/internal/domain"
	"textmill/internal/service"
)

// MockExtractService is a mock implementation of service.ExtractService.
type MockExtractService struct {
	mock.Mock
}

func (m *MockExtractService) Extract(ctx context.Context, input service.ExtractInput) (*domain.Task, *domain.DocumentResult, error) {
	args := m.Called(ctx, input)
	var task *domain.Task
	if args.Get(0) != nil {
		task = args.Get(0).(*domain.Task)
	}
	var result *domain.DocumentResult
	if args.Get(1) != nil {
		result = args.Get(1).(*domain.DocumentResult)
	}
	return task, result, args.Error(2)
}

func (m *MockExtractService) GetArtifact(ctx context.Context, taskID string) (*service.Artifact, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Artifact), args.Error(1)
}
