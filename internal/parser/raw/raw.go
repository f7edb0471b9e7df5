// Package raw adapts standalone image and plain-text files to the content
// unit model so they flow through the same pipeline as parsed documents.
package raw

import (
	"context"

	"textmill/internal/domain"
)

// ImageReader wraps a single image file as an image-only content unit.
type ImageReader struct{}

// NewImageReader creates an ImageReader.
func NewImageReader() *ImageReader { return &ImageReader{} }

func (r *ImageReader) Read(ctx context.Context, data []byte) ([]domain.ContentUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	return []domain.ContentUnit{{
		ID:     "image-1",
		Index:  0,
		Images: [][]byte{data},
	}}, nil
}

// TextReader wraps a plain-text file as a native-text content unit.
type TextReader struct{}

// NewTextReader creates a TextReader.
func NewTextReader() *TextReader { return &TextReader{} }

func (r *TextReader) Read(ctx context.Context, data []byte) ([]domain.ContentUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []domain.ContentUnit{{
		ID:         "text-1",
		Index:      0,
		NativeText: string(data),
	}}, nil
}
