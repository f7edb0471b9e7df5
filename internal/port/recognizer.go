package port

import (
	"context"

	"textmill/internal/domain"
)

// RecognizeOptions tunes a single recognizer invocation.
type RecognizeOptions struct {
	// Languages is an engine-specific language hint, e.g. "chi_sim+eng".
	Languages string
	// Model selects the model for engines that support more than one.
	Model string
}

// ImageRecognizer abstracts a text recognition capability over one image.
// Implementations must not return errors or panic across this boundary:
// every failure, including a canceled context, surfaces as a
// RecognitionResult with Success=false and Error set.
type ImageRecognizer interface {
	Recognize(ctx context.Context, image []byte, opts RecognizeOptions) domain.RecognitionResult

	// Available reports whether the engine is usable at all (credentials
	// configured, binary installed). An unavailable engine is skipped, which
	// is distinct from a failed attempt.
	Available() bool
}
