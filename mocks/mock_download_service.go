package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"textmill/internal/service"
)

// MockDownloadService is a mock implementation of service.DownloadService.
type MockDownloadService struct {
	mock.Mock
}

func (m *MockDownloadService) Fetch(ctx context.Context, rawURL string) (*service.FetchedFile, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FetchedFile), args.Error(1)
}
