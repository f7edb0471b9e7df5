package domain

import "time"

// ContentUnit is one page (document context) or one standalone image treated
// as an atomic extraction target. Units are produced by the format readers
// and are immutable while a document is being processed.
type ContentUnit struct {
	ID         string   `json:"id"`
	Index      int      `json:"index"`
	NativeText string   `json:"-"`
	Images     [][]byte `json:"-"`
	Width      float64  `json:"width,omitempty"`
	Height     float64  `json:"height,omitempty"`
	Rotation   int      `json:"rotation,omitempty"`
}

// ContentClassification is the ephemeral result of inspecting a unit.
// It is computed fresh for every unit and never persisted.
type ContentClassification struct {
	HasNativeText    bool        `json:"has_native_text"`
	HasImages        bool        `json:"has_images"`
	NativeTextLength int         `json:"native_text_length"`
	ImageCount       int         `json:"image_count"`
	ContentType      ContentType `json:"content_type"`
}

// RecognitionResult is the outcome of a single recognizer invocation.
// Failures never cross the adapter boundary as errors; they surface here
// with Success=false and Error set.
type RecognitionResult struct {
	EngineID   string  `json:"engine_id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
}

// FusionOutcome is the fused text for a single image plus the method tag
// describing how the two channels were combined.
type FusionOutcome struct {
	FinalText        string           `json:"final_text"`
	Method           ExtractionMethod `json:"method"`
	OCRConfidence    float64          `json:"ocr_confidence"`
	VisionConfidence float64          `json:"vision_confidence"`
}

// UnitResult is the processed output for one content unit.
type UnitResult struct {
	UnitID      string           `json:"unit_id"`
	Index       int              `json:"index"`
	Text        string           `json:"text"`
	TextLength  int              `json:"text_length"`
	ContentType ContentType      `json:"content_type"`
	Method      ExtractionMethod `json:"extraction_method"`
	ImageCount  int              `json:"image_count"`
	Images      []FusionOutcome  `json:"images,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// ProcessingStats aggregates per-document counters.
type ProcessingStats struct {
	NativeTextUnits int                      `json:"native_text_units"`
	MixedUnits      int                      `json:"mixed_content_units"`
	ImageOnlyUnits  int                      `json:"image_only_units"`
	EmptyUnits      int                      `json:"empty_units"`
	ErrorUnits      int                      `json:"error_units"`
	MethodCounts    map[ExtractionMethod]int `json:"method_counts"`
}

// DocumentResult is the whole-document output: one UnitResult per input
// unit in original order, the concatenated full text, and aggregate stats.
type DocumentResult struct {
	Units        []UnitResult    `json:"units"`
	FullText     string          `json:"full_text"`
	TotalUnits   int             `json:"total_units"`
	HasTextLayer bool            `json:"has_text_layer"`
	IsScanned    bool            `json:"is_scanned"`
	Stats        ProcessingStats `json:"processing_stats"`
}

// Task describes one extraction request and where its artifact lives.
type Task struct {
	ID           string       `json:"task_id"`
	Filename     string       `json:"filename"`
	FileType     FileType     `json:"file_type"`
	OutputFormat OutputFormat `json:"output_format"`
	ResultKey    string       `json:"result_key"`
	DownloadURL  string       `json:"download_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
