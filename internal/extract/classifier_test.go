package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"textmill/internal/domain"
	"textmill/internal/extract"
)

func TestClassifier_NativeTextOnly(t *testing.T) {
	c := extract.NewClassifier(10)

	cls := c.Classify(domain.ContentUnit{NativeText: "Invoice Number: 2024-001"})

	assert.Equal(t, domain.ContentTypeNativeTextOnly, cls.ContentType)
	assert.True(t, cls.HasNativeText)
	assert.False(t, cls.HasImages)
	assert.Equal(t, 0, cls.ImageCount)
}

func TestClassifier_ThresholdBoundary(t *testing.T) {
	c := extract.NewClassifier(10)

	// Exactly at the threshold counts as absent; one past it counts as present.
	atThreshold := c.Classify(domain.ContentUnit{NativeText: strings.Repeat("x", 10)})
	assert.Equal(t, domain.ContentTypeEmpty, atThreshold.ContentType)

	aboveThreshold := c.Classify(domain.ContentUnit{NativeText: strings.Repeat("x", 11)})
	assert.Equal(t, domain.ContentTypeNativeTextOnly, aboveThreshold.ContentType)
}

func TestClassifier_ThresholdCountsRunesNotBytes(t *testing.T) {
	c := extract.NewClassifier(10)

	// 11 CJK characters are 33 bytes but must be counted as 11 runes.
	cls := c.Classify(domain.ContentUnit{NativeText: strings.Repeat("文", 11)})

	assert.True(t, cls.HasNativeText)
	assert.Equal(t, 11, cls.NativeTextLength)
}

func TestClassifier_WhitespaceIsNotText(t *testing.T) {
	c := extract.NewClassifier(10)

	cls := c.Classify(domain.ContentUnit{NativeText: "   \n\t  \n      "})

	assert.False(t, cls.HasNativeText)
	assert.Equal(t, domain.ContentTypeEmpty, cls.ContentType)
}

func TestClassifier_MixedContent(t *testing.T) {
	c := extract.NewClassifier(10)

	cls := c.Classify(domain.ContentUnit{
		NativeText: "A paragraph long enough to count as text.",
		Images:     [][]byte{[]byte("png-bytes")},
	})

	assert.Equal(t, domain.ContentTypeMixed, cls.ContentType)
	assert.Equal(t, 1, cls.ImageCount)
}

func TestClassifier_ImageOnly(t *testing.T) {
	c := extract.NewClassifier(10)

	cls := c.Classify(domain.ContentUnit{
		NativeText: "stray",
		Images:     [][]byte{[]byte("a"), []byte("b")},
	})

	assert.Equal(t, domain.ContentTypeImageOnly, cls.ContentType)
	assert.Equal(t, 2, cls.ImageCount)
}

func TestClassifier_EmptyImagePayloadsIgnored(t *testing.T) {
	c := extract.NewClassifier(10)

	cls := c.Classify(domain.ContentUnit{Images: [][]byte{nil, {}}})

	assert.False(t, cls.HasImages)
	assert.Equal(t, domain.ContentTypeEmpty, cls.ContentType)
}

func TestClassifier_DefaultThreshold(t *testing.T) {
	c := extract.NewClassifier(0)

	cls := c.Classify(domain.ContentUnit{NativeText: strings.Repeat("x", 11)})

	assert.True(t, cls.HasNativeText)
}
