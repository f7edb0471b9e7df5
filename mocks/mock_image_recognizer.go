package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"textmill/internal/domain"
	"textmill/internal/port"
)

// MockImageRecognizer is a mock implementation of port.ImageRecognizer.
type MockImageRecognizer struct {
	mock.Mock
}

func (m *MockImageRecognizer) Recognize(ctx context.Context, image []byte, opts port.RecognizeOptions) domain.RecognitionResult {
	args := m.Called(ctx, image, opts)
	return args.Get(0).(domain.RecognitionResult)
}

func (m *MockImageRecognizer) Available() bool {
	args := m.Called()
	return args.Bool(0)
}
