package extract

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"textmill/internal/domain"
)

// imageSupplementHeader delimits image-derived text appended below native
// text on mixed-content units.
const imageSupplementHeader = "--- text recognized from images ---"

// UnitProcessor runs one content unit through the full pipeline:
// classification, then native extraction or the per-image dual-channel
// recognition + fusion, then sanitization. A panic anywhere in the pipeline
// is converted into an ERROR unit so document assembly never aborts on a
// single unit.
type UnitProcessor struct {
	classifier *Classifier
	recognizer *DualChannelRecognizer
	fusion     *FusionEngine
	sanitizer  *Sanitizer
}

// NewUnitProcessor wires the pipeline stages together.
func NewUnitProcessor(classifier *Classifier, recognizer *DualChannelRecognizer, fusion *FusionEngine, sanitizer *Sanitizer) *UnitProcessor {
	return &UnitProcessor{
		classifier: classifier,
		recognizer: recognizer,
		fusion:     fusion,
		sanitizer:  sanitizer,
	}
}

// Process produces exactly one UnitResult for the unit.
func (p *UnitProcessor) Process(ctx context.Context, unit domain.ContentUnit, flags ChannelFlags) (result domain.UnitResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("extract.UnitProcessor: unit %s panicked: %v", unit.ID, r)
			result = p.errorResult(unit, fmt.Sprintf("%v", r))
		}
	}()

	cls := p.classifier.Classify(unit)

	result = domain.UnitResult{
		UnitID:      unit.ID,
		Index:       unit.Index,
		ContentType: cls.ContentType,
		ImageCount:  cls.ImageCount,
	}

	switch cls.ContentType {
	case domain.ContentTypeNativeTextOnly:
		// Native text is trusted source text and passes through verbatim.
		result.Text = unit.NativeText
		result.Method = domain.MethodNativeText

	case domain.ContentTypeImageOnly:
		text, outcomes := p.recognizeImages(ctx, unit, flags)
		result.Text = text
		result.Images = outcomes
		result.Method = dominantMethod(outcomes)

	case domain.ContentTypeMixed:
		text, outcomes := p.recognizeImages(ctx, unit, flags)
		result.Text = unit.NativeText
		if text != "" {
			result.Text += "\n\n" + imageSupplementHeader + "\n" + text
		}
		result.Images = outcomes
		result.Method = domain.MethodNativeWithImages

	default:
		result.Text = ""
		result.Method = domain.MethodEmpty
	}

	result.TextLength = utf8.RuneCountInString(strings.TrimSpace(result.Text))
	return result
}

// recognizeImages runs the per-image pipeline (dual channel → fusion →
// sanitize) for every image payload and concatenates the non-empty outputs.
// Failure of one image never affects its siblings.
func (p *UnitProcessor) recognizeImages(ctx context.Context, unit domain.ContentUnit, flags ChannelFlags) (string, []domain.FusionOutcome) {
	var texts []string
	outcomes := make([]domain.FusionOutcome, 0, len(unit.Images))

	for i, image := range unit.Images {
		if len(image) == 0 {
			continue
		}
		ocrRes, visionRes := p.recognizer.Recognize(ctx, image, flags)
		outcome := p.fusion.Fuse(ocrRes, visionRes)
		outcome.FinalText = p.sanitizer.Sanitize(outcome.FinalText)
		outcomes = append(outcomes, outcome)

		if outcome.FinalText != "" {
			texts = append(texts, outcome.FinalText)
		} else if outcome.Method == domain.MethodBothFailed {
			log.Printf("extract.UnitProcessor: unit %s image %d: both channels failed", unit.ID, i)
		}
	}
	return strings.Join(texts, "\n"), outcomes
}

// dominantMethod summarizes a unit's per-image outcomes: the method of the
// first outcome that produced text, else BOTH_FAILED.
func dominantMethod(outcomes []domain.FusionOutcome) domain.ExtractionMethod {
	for _, o := range outcomes {
		if o.FinalText != "" {
			return o.Method
		}
	}
	return domain.MethodBothFailed
}

func (p *UnitProcessor) errorResult(unit domain.ContentUnit, msg string) domain.UnitResult {
	return domain.UnitResult{
		UnitID:      unit.ID,
		Index:       unit.Index,
		Text:        msg,
		ContentType: domain.ContentTypeError,
		Method:      domain.MethodError,
		Error:       msg,
	}
}
