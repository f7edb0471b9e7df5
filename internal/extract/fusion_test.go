package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"textmill/internal/domain"
	"textmill/internal/extract"
)

func ocrResult(text string, conf float64) *domain.RecognitionResult {
	return &domain.RecognitionResult{EngineID: "tesseract", Text: text, Confidence: conf, Success: true}
}

func visionResult(text string, conf float64) *domain.RecognitionResult {
	return &domain.RecognitionResult{EngineID: "qwen-vl", Text: text, Confidence: conf, Success: true}
}

func failedResult(engine string) *domain.RecognitionResult {
	return &domain.RecognitionResult{EngineID: engine, Success: false, Error: "engine error"}
}

func TestFuse_BothFailed(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	outcome := e.Fuse(failedResult("tesseract"), failedResult("qwen-vl"))

	assert.Equal(t, domain.MethodBothFailed, outcome.Method)
	assert.Empty(t, outcome.FinalText)
}

func TestFuse_BothNil(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	outcome := e.Fuse(nil, nil)

	assert.Equal(t, domain.MethodBothFailed, outcome.Method)
	assert.Empty(t, outcome.FinalText)
}

func TestFuse_OCROnly(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	outcome := e.Fuse(ocrResult("  Total Due: 230.00  ", 0.8), failedResult("qwen-vl"))

	assert.Equal(t, domain.MethodOCROnly, outcome.Method)
	assert.Equal(t, "Total Due: 230.00", outcome.FinalText)
	assert.Equal(t, 0.8, outcome.OCRConfidence)
}

func TestFuse_VisionOnly(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	outcome := e.Fuse(nil, visionResult("发票号码：2024-001", 1.0))

	assert.Equal(t, domain.MethodVisionOnly, outcome.Method)
	assert.Equal(t, "发票号码：2024-001", outcome.FinalText)
	assert.Equal(t, 1.0, outcome.VisionConfidence)
}

func TestFuse_VisionOnlyWhenOCRNotAttempted(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	outcome := e.Fuse(nil, visionResult("some recognized text", 1.0))

	assert.Equal(t, domain.MethodVisionOnly, outcome.Method)
}

func TestFuse_TieMergesLines(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	// Same confidence and nearly identical texts land inside the tie band.
	outcome := e.Fuse(
		ocrResult("alpha line\nbeta line", 0.9),
		visionResult("beta line\ngamma line", 0.9),
	)

	assert.Equal(t, domain.MethodIntelligentMerge, outcome.Method)
	assert.Equal(t, "alpha line\nbeta line\ngamma line", outcome.FinalText)
}

func TestFuse_MergeKeepsLineSetRegardlessOfChannelOrder(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	a := e.Fuse(ocrResult("alpha line\nbeta line", 0.9), visionResult("beta line\ngamma line", 0.9))
	b := e.Fuse(ocrResult("beta line\ngamma line", 0.9), visionResult("alpha line\nbeta line", 0.9))

	setOf := func(text string) map[string]struct{} {
		set := make(map[string]struct{})
		for _, line := range strings.Split(text, "\n") {
			set[line] = struct{}{}
		}
		return set
	}
	assert.Equal(t, setOf(a.FinalText), setOf(b.FinalText))
}

func TestFuse_OCREnhancedDropsWeakEmptySecondary(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	// A successful vision call that read nothing scores well below a real
	// OCR transcription, and zero-length text is always dominated.
	ocr := ocrResult("Invoice Number: 2024-001\nVendor: Acme Industrial Supply\nTotal Due: 230.00", 0.8)
	vision := visionResult("", 1.0)

	outcome := e.Fuse(ocr, vision)

	assert.Equal(t, domain.MethodOCREnhanced, outcome.Method)
	assert.Equal(t, strings.TrimSpace(ocr.Text), outcome.FinalText)
	assert.NotContains(t, outcome.FinalText, "supplement")
}

func TestFuse_VisionEnhancedAppendsSupplement(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	// Scores far apart (confidence gap), lengths too close for dominance:
	// the weaker text is appended under a supplement marker.
	ocr := ocrResult("line one shared\nline two from ocr", 0.05)
	vision := visionResult("line one shared\nline two from vlm", 0.95)

	outcome := e.Fuse(ocr, vision)

	assert.Equal(t, domain.MethodVisionEnhanced, outcome.Method)
	assert.True(t, strings.HasPrefix(outcome.FinalText, "line one shared\nline two from vlm"))
	assert.Contains(t, outcome.FinalText, "[ocr supplement]")
	assert.Contains(t, outcome.FinalText, "line two from ocr")
}

func TestFuse_DominantPrimaryDropsSecondary(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	long := strings.Repeat("a detailed paragraph of recognized document text. ", 4)
	outcome := e.Fuse(ocrResult(long, 0.95), visionResult("short", 0.1))

	assert.Equal(t, domain.MethodOCREnhanced, outcome.Method)
	assert.NotContains(t, outcome.FinalText, "short")
	assert.NotContains(t, outcome.FinalText, "supplement")
}

func TestScore_EmptyTextScoresOnConfidenceOnly(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	assert.InDelta(t, 0.4, e.Score("", 1.0), 1e-9)
	assert.InDelta(t, 0.0, e.Score("", 0.0), 1e-9)
}

func TestScore_LongerTextScoresHigher(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	short := e.Score("ok", 0.5)
	long := e.Score(strings.Repeat("varied content 123. ", 10), 0.5)

	assert.Greater(t, long, short)
}

func TestFuse_ConfidencesCarriedThrough(t *testing.T) {
	e := extract.NewFusionEngine(extract.DefaultFusionPolicy())

	outcome := e.Fuse(failedResult("tesseract"), visionResult("text from the vision channel", 1.0))

	assert.Equal(t, 0.0, outcome.OCRConfidence)
	assert.Equal(t, 1.0, outcome.VisionConfidence)
}
