package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"textmill/internal/domain"
)

// MockDocumentReader is a mock implementation of port.DocumentReader.
type MockDocumentReader struct {
	mock.Mock
}

func (m *MockDocumentReader) Read(ctx context.Context, data []byte) ([]domain.ContentUnit, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContentUnit), args.Error(1)
}
