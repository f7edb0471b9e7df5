package extract

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"textmill/internal/domain"
)

// Supplement markers emitted when a lower-scoring channel's text is appended
// to the primary text. The sanitizer recognizes and strips these if a fused
// unit is ever re-sanitized.
const (
	visionSupplementMarker = "[vision supplement]"
	ocrSupplementMarker    = "[ocr supplement]"
)

// FusionPolicy holds the scoring weights and decision thresholds of the
// fusion engine. Self-reported confidences are not comparable across
// heterogeneous engines, so the composite score mixes in length and
// structural-plausibility signals. All values are empirical defaults,
// kept configurable so the policy can be calibrated against labeled data.
type FusionPolicy struct {
	// Composite score weights: score = ConfidenceWeight*confidence +
	// LengthWeight*min(len/LengthNorm, 1) + QualityWeight*quality.
	ConfidenceWeight float64
	LengthWeight     float64
	QualityWeight    float64
	LengthNorm       float64

	// quality(text) component weights and caps.
	QualityLengthWeight    float64
	QualityLengthNorm      float64
	QualityDiversityWeight float64
	QualityDiversityNorm   float64
	QualityCJKWeight       float64
	QualityCJKBoost        float64
	QualityStructureWeight float64
	QualityStructureNorm   float64

	// TieBand is the score difference below which both texts are merged
	// rather than one chosen as primary.
	TieBand float64
	// DominanceRatio: if the primary text is this many times longer than
	// the secondary, the secondary is dropped instead of appended.
	DominanceRatio float64
}

// DefaultFusionPolicy returns the standard policy.
func DefaultFusionPolicy() FusionPolicy {
	return FusionPolicy{
		ConfidenceWeight: 0.4,
		LengthWeight:     0.3,
		QualityWeight:    0.3,
		LengthNorm:       100,

		QualityLengthWeight:    0.3,
		QualityLengthNorm:      200,
		QualityDiversityWeight: 0.2,
		QualityDiversityNorm:   50,
		QualityCJKWeight:       0.3,
		QualityCJKBoost:        2.0,
		QualityStructureWeight: 0.2,
		QualityStructureNorm:   20,

		TieBand:        0.1,
		DominanceRatio: 1.5,
	}
}

// FusionEngine decides how to combine zero, one, or two recognition results
// for a single image into final text plus a method tag.
type FusionEngine struct {
	policy FusionPolicy
}

// NewFusionEngine creates a FusionEngine with the given policy.
func NewFusionEngine(policy FusionPolicy) *FusionEngine {
	return &FusionEngine{policy: policy}
}

// Fuse applies the decision table: both succeed → intelligent merge; one
// succeeds → its text verbatim; neither → empty text, BOTH_FAILED. A nil
// result means the channel was never attempted and counts as not succeeded.
func (e *FusionEngine) Fuse(ocr, vision *domain.RecognitionResult) domain.FusionOutcome {
	ocrOK := ocr != nil && ocr.Success
	visionOK := vision != nil && vision.Success

	outcome := domain.FusionOutcome{}
	if ocr != nil {
		outcome.OCRConfidence = ocr.Confidence
	}
	if vision != nil {
		outcome.VisionConfidence = vision.Confidence
	}

	switch {
	case ocrOK && visionOK:
		text, method := e.merge(strings.TrimSpace(ocr.Text), strings.TrimSpace(vision.Text), ocr.Confidence, vision.Confidence)
		outcome.FinalText = text
		outcome.Method = method
	case ocrOK:
		outcome.FinalText = strings.TrimSpace(ocr.Text)
		outcome.Method = domain.MethodOCROnly
	case visionOK:
		outcome.FinalText = strings.TrimSpace(vision.Text)
		outcome.Method = domain.MethodVisionOnly
	default:
		outcome.FinalText = ""
		outcome.Method = domain.MethodBothFailed
	}
	return outcome
}

// merge implements the intelligent-merge strategy for two successful texts.
func (e *FusionEngine) merge(ocrText, visionText string, ocrConf, visionConf float64) (string, domain.ExtractionMethod) {
	ocrScore := e.Score(ocrText, ocrConf)
	visionScore := e.Score(visionText, visionConf)

	if math.Abs(ocrScore-visionScore) < e.policy.TieBand {
		return mergeLines(ocrText, visionText), domain.MethodIntelligentMerge
	}

	if ocrScore > visionScore {
		return e.enhance(ocrText, visionText, visionSupplementMarker), domain.MethodOCREnhanced
	}
	return e.enhance(visionText, ocrText, ocrSupplementMarker), domain.MethodVisionEnhanced
}

// enhance keeps primary as the main text, appending secondary as a marked
// supplement unless primary already dominates by the configured ratio.
func (e *FusionEngine) enhance(primary, secondary, marker string) string {
	pLen := float64(utf8.RuneCountInString(primary))
	sLen := float64(utf8.RuneCountInString(secondary))
	if pLen > sLen*e.policy.DominanceRatio {
		return primary
	}
	return primary + "\n\n" + marker + "\n" + secondary
}

// Score computes the composite quality score for one candidate text.
func (e *FusionEngine) Score(text string, confidence float64) float64 {
	length := float64(utf8.RuneCountInString(text))
	return confidence*e.policy.ConfidenceWeight +
		math.Min(length/e.policy.LengthNorm, 1.0)*e.policy.LengthWeight +
		e.quality(text)*e.policy.QualityWeight
}

// quality estimates how much a text looks like real structured content as
// opposed to recognition noise, in [0,1]. It combines normalized length,
// character diversity, the share of CJK characters, and the density of
// digits and punctuation.
func (e *FusionEngine) quality(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	total := 0
	cjk := 0
	structure := 0
	seen := make(map[rune]struct{})
	for _, r := range text {
		total++
		seen[r] = struct{}{}
		if r >= '一' && r <= '鿿' {
			cjk++
		}
		if unicode.IsDigit(r) || strings.ContainsRune(".,;:!?()[]{}", r) {
			structure++
		}
	}

	lengthScore := math.Min(float64(total)/e.policy.QualityLengthNorm, 1.0)
	diversityScore := math.Min(float64(len(seen))/e.policy.QualityDiversityNorm, 1.0)
	cjkScore := math.Min(float64(cjk)/float64(total)*e.policy.QualityCJKBoost, 1.0)
	structureScore := math.Min(float64(structure)/e.policy.QualityStructureNorm, 1.0)

	score := lengthScore*e.policy.QualityLengthWeight +
		diversityScore*e.policy.QualityDiversityWeight +
		cjkScore*e.policy.QualityCJKWeight +
		structureScore*e.policy.QualityStructureWeight
	return math.Min(score, 1.0)
}

// mergeLines concatenates the OCR lines followed by the vision lines,
// dropping blank lines and exact repeats while preserving first-seen order.
func mergeLines(ocrText, visionText string) string {
	seen := make(map[string]struct{})
	var merged []string
	for _, block := range []string{ocrText, visionText} {
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			merged = append(merged, line)
		}
	}
	return strings.Join(merged, "\n")
}
