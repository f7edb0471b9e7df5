package port

import (
	"context"

	"textmill/internal/domain"
)

// DocumentReader turns a raw document into an ordered sequence of content
// units. Readers handle format structure only; they never run recognition.
type DocumentReader interface {
	Read(ctx context.Context, data []byte) ([]domain.ContentUnit, error)
}
