// Package extract implements the content classification, dual-channel
// recognition, fusion, and sanitization pipeline that turns parsed content
// units into user-facing text.
package extract

import (
	"strings"
	"unicode/utf8"

	"textmill/internal/domain"
)

// DefaultMinTextLength is the threshold below which a unit's native text is
// considered absent (a scanned page typically yields a few stray glyphs).
const DefaultMinTextLength = 10

// Classifier tags a content unit with its content type. It is a pure
// function of the unit and never fails: malformed input degrades to EMPTY.
type Classifier struct {
	minTextLength int
}

// NewClassifier creates a Classifier. A non-positive threshold falls back
// to DefaultMinTextLength.
func NewClassifier(minTextLength int) *Classifier {
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}
	return &Classifier{minTextLength: minTextLength}
}

// Classify inspects one unit and derives its classification.
func (c *Classifier) Classify(unit domain.ContentUnit) domain.ContentClassification {
	text := strings.TrimSpace(unit.NativeText)
	textLen := utf8.RuneCountInString(text)

	hasText := textLen > c.minTextLength
	imageCount := 0
	for _, img := range unit.Images {
		if len(img) > 0 {
			imageCount++
		}
	}
	hasImages := imageCount > 0

	return domain.ContentClassification{
		HasNativeText:    hasText,
		HasImages:        hasImages,
		NativeTextLength: textLen,
		ImageCount:       imageCount,
		ContentType:      contentTypeOf(hasText, hasImages),
	}
}

func contentTypeOf(hasText, hasImages bool) domain.ContentType {
	switch {
	case hasText && !hasImages:
		return domain.ContentTypeNativeTextOnly
	case hasText && hasImages:
		return domain.ContentTypeMixed
	case !hasText && hasImages:
		return domain.ContentTypeImageOnly
	default:
		return domain.ContentTypeEmpty
	}
}
