package pdf_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"textmill/internal/domain"
	"textmill/internal/parser/pdf"
)

func TestRead_InvalidDocument(t *testing.T) {
	_, err := pdf.NewReader(10).Read(context.Background(), []byte("not a pdf"))
	assert.ErrorIs(t, err, domain.ErrDocumentUnreadable)
}

func TestRead_EmptyData(t *testing.T) {
	_, err := pdf.NewReader(10).Read(context.Background(), nil)
	assert.Error(t, err)
}
