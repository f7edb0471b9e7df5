// Package tesseract implements the OCR channel using the Tesseract engine
// via gosseract. Tesseract must be installed on the host system.
package tesseract

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"textmill/internal/config"
	"textmill/internal/domain"
	"textmill/internal/port"
)

const engineID = "tesseract"

// fallbackConfidence is reported when Tesseract yields text but no usable
// word confidences.
const fallbackConfidence = 0.8

// Recognizer implements port.ImageRecognizer over Tesseract.
type Recognizer struct {
	languages string
}

// New creates a Tesseract-backed recognizer.
func New(cfg *config.OCRConfig) *Recognizer {
	langs := cfg.Languages
	if langs == "" {
		langs = "chi_sim+eng"
	}
	return &Recognizer{languages: langs}
}

// Available always reports true; a missing Tesseract installation surfaces
// as a failed recognition attempt instead.
func (r *Recognizer) Available() bool { return true }

// Recognize runs one OCR pass over the image. A gosseract client is not
// safe for concurrent use, so each call creates its own; the client owns
// the image buffer copy and releases it on Close even when the caller has
// already abandoned the result.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, opts port.RecognizeOptions) domain.RecognitionResult {
	if err := ctx.Err(); err != nil {
		return failure(err.Error())
	}
	if len(image) == 0 {
		return failure("empty image payload")
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	langs := r.languages
	if opts.Languages != "" {
		langs = opts.Languages
	}
	if err := client.SetLanguage(strings.Split(langs, "+")...); err != nil {
		return failure("setting languages: " + err.Error())
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return failure("setting image: " + err.Error())
	}

	text, err := client.Text()
	if err != nil {
		return failure("recognition: " + err.Error())
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return failure("no text recognized")
	}

	return domain.RecognitionResult{
		EngineID:   engineID,
		Text:       text,
		Confidence: averageConfidence(client),
		Success:    true,
	}
}

// averageConfidence averages Tesseract's per-word confidences into [0,1].
func averageConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return fallbackConfidence
	}
	sum := 0.0
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes)) / 100.0
}

func failure(msg string) domain.RecognitionResult {
	return domain.RecognitionResult{
		EngineID: engineID,
		Success:  false,
		Error:    msg,
	}
}
