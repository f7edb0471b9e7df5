package extract

import (
	"context"
	"fmt"
	"log"
	"time"

	"textmill/internal/domain"
	"textmill/internal/port"
)

const (
	// DefaultOCRTimeout bounds one OCR attempt per image.
	DefaultOCRTimeout = 30 * time.Second
	// DefaultVisionTimeout bounds one vision attempt per image. Vision calls
	// are costlier and slower than OCR, hence the wider bound.
	DefaultVisionTimeout = 60 * time.Second
)

// ChannelFlags selects which recognition channels run for an image and
// which engines serve them. A zero OCREngine runs the default engine; a
// zero VisionModel runs the configured model.
type ChannelFlags struct {
	UseOCR      bool
	UseVision   bool
	OCREngine   domain.OCREngine
	VisionModel string
}

// DualChannelRecognizer runs the OCR and vision recognizers concurrently
// against a single image, each bounded by its own timeout. Exactly one
// attempt is made per enabled channel; there are no retries at this layer.
type DualChannelRecognizer struct {
	ocr           port.ImageRecognizer
	ocrEngines    map[domain.OCREngine]port.ImageRecognizer
	vision        port.ImageRecognizer
	ocrOpts       port.RecognizeOptions
	visionOpts    port.RecognizeOptions
	ocrTimeout    time.Duration
	visionTimeout time.Duration
}

// NewDualChannelRecognizer creates a recognizer over the two injected
// engines. Either engine may be nil, which disables its channel entirely.
// Non-positive timeouts fall back to the defaults.
func NewDualChannelRecognizer(ocr, vision port.ImageRecognizer, ocrTimeout, visionTimeout time.Duration) *DualChannelRecognizer {
	if ocrTimeout <= 0 {
		ocrTimeout = DefaultOCRTimeout
	}
	if visionTimeout <= 0 {
		visionTimeout = DefaultVisionTimeout
	}
	return &DualChannelRecognizer{
		ocr:           ocr,
		ocrEngines:    make(map[domain.OCREngine]port.ImageRecognizer),
		vision:        vision,
		ocrTimeout:    ocrTimeout,
		visionTimeout: visionTimeout,
	}
}

// RegisterOCREngine makes engine selectable by name for requests that ask
// for a specific OCR engine. Requests that do not ask run the constructor's
// engine. Not safe for concurrent use with Recognize; register everything
// during wiring.
func (d *DualChannelRecognizer) RegisterOCREngine(name domain.OCREngine, engine port.ImageRecognizer) {
	d.ocrEngines[name] = engine
}

// SetOCROptions sets the options passed to every OCR invocation.
func (d *DualChannelRecognizer) SetOCROptions(opts port.RecognizeOptions) { d.ocrOpts = opts }

// SetVisionOptions sets the options passed to every vision invocation.
func (d *DualChannelRecognizer) SetVisionOptions(opts port.RecognizeOptions) { d.visionOpts = opts }

type channelRun struct {
	results <-chan domain.RecognitionResult
	ctx     context.Context
	cancel  context.CancelFunc
	engine  string
}

// Recognize fans out to the enabled channels and collects whichever results
// arrive within their timeouts. A nil result means the channel was not
// attempted (disabled or unavailable), which callers must distinguish from
// an attempted-and-failed result. On timeout the in-flight call is
// abandoned, not interrupted: the goroutine's eventual result is dropped
// and the engine owns its own cleanup.
func (d *DualChannelRecognizer) Recognize(ctx context.Context, image []byte, flags ChannelFlags) (ocr, vision *domain.RecognitionResult) {
	var ocrRun, visionRun *channelRun

	// Launch both channels before awaiting either, so a slow vision call
	// never delays the start (or collection) of the OCR attempt.
	if flags.UseOCR {
		engine, err := d.ocrEngine(flags.OCREngine)
		switch {
		case err != nil:
			ocr = &domain.RecognitionResult{
				EngineID: string(flags.OCREngine),
				Success:  false,
				Error:    err.Error(),
			}
		case engine == nil:
			// No engine wired at all; the channel stays unattempted.
		case engine.Available():
			ocrRun = d.launch(ctx, engine, image, d.ocrOpts, d.ocrTimeout, "ocr")
		default:
			log.Printf("extract.DualChannelRecognizer: ocr engine unavailable, skipping")
		}
	}
	if flags.UseVision && d.vision != nil {
		if d.vision.Available() {
			opts := d.visionOpts
			if flags.VisionModel != "" {
				opts.Model = flags.VisionModel
			}
			visionRun = d.launch(ctx, d.vision, image, opts, d.visionTimeout, "vision")
		} else {
			log.Printf("extract.DualChannelRecognizer: vision engine unavailable, skipping")
		}
	}

	// Both deadlines were armed at launch, so awaiting sequentially still
	// bounds total wall time by the larger of the two timeouts.
	if ocrRun != nil {
		ocr = ocrRun.collect()
	}
	if visionRun != nil {
		vision = visionRun.collect()
	}
	return ocr, vision
}

// ocrEngine resolves the engine serving the request: the named registered
// engine when one is asked for, else the default. Asking for an engine that
// was never registered is an attempted-and-failed recognition, not a skip.
func (d *DualChannelRecognizer) ocrEngine(name domain.OCREngine) (port.ImageRecognizer, error) {
	if name == "" {
		return d.ocr, nil
	}
	engine, ok := d.ocrEngines[name]
	if !ok {
		return nil, fmt.Errorf("ocr engine %q not configured", name)
	}
	return engine, nil
}

func (d *DualChannelRecognizer) launch(ctx context.Context, engine port.ImageRecognizer, image []byte, opts port.RecognizeOptions, timeout time.Duration, name string) *channelRun {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	results := make(chan domain.RecognitionResult, 1)
	go func() {
		results <- engine.Recognize(runCtx, image, opts)
	}()
	return &channelRun{results: results, ctx: runCtx, cancel: cancel, engine: name}
}

func (r *channelRun) collect() *domain.RecognitionResult {
	defer r.cancel()
	select {
	case res := <-r.results:
		return &res
	case <-r.ctx.Done():
		log.Printf("extract.DualChannelRecognizer: %s channel timed out, abandoning", r.engine)
		return &domain.RecognitionResult{
			EngineID: r.engine,
			Success:  false,
			Error:    "timeout",
		}
	}
}
