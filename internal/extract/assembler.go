package extract

import (
	"context"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"textmill/internal/domain"
)

// unitSeparator joins unit texts into the whole-document text.
const unitSeparator = "\n\n"

// DefaultWorkers bounds concurrent unit processing when no pool size is
// configured. The pool is shared across the document and is sized
// independently of page count.
const DefaultWorkers = 4

// Options selects which recognition channels the document runs with and
// which engines serve them.
type Options struct {
	UseOCR      bool
	UseVision   bool
	OCREngine   domain.OCREngine
	VisionModel string
}

// Assembler processes every unit of a document through the UnitProcessor on
// a bounded worker pool and aggregates the results.
type Assembler struct {
	processor *UnitProcessor
	workers   int
}

// NewAssembler creates an Assembler over the given processor.
func NewAssembler(processor *UnitProcessor, workers int) *Assembler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Assembler{processor: processor, workers: workers}
}

// Process runs all units and assembles the document result. Units are
// processed independently: results land in a pre-allocated slice by index,
// so output order always matches input order regardless of completion
// order, and no unit's failure cancels its siblings.
func (a *Assembler) Process(ctx context.Context, units []domain.ContentUnit, opts Options) domain.DocumentResult {
	flags := ChannelFlags{
		UseOCR:      opts.UseOCR,
		UseVision:   opts.UseVision,
		OCREngine:   opts.OCREngine,
		VisionModel: opts.VisionModel,
	}

	results := make([]domain.UnitResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i := range units {
		i := i
		g.Go(func() error {
			results[i] = a.processor.Process(gctx, units[i], flags)
			return nil
		})
	}
	// Workers never return errors; unit failures are captured in results.
	_ = g.Wait()

	return a.assemble(results)
}

func (a *Assembler) assemble(results []domain.UnitResult) domain.DocumentResult {
	doc := domain.DocumentResult{
		Units:      results,
		TotalUnits: len(results),
		Stats: domain.ProcessingStats{
			MethodCounts: make(map[domain.ExtractionMethod]int),
		},
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
		doc.Stats.MethodCounts[r.Method]++

		switch r.ContentType {
		case domain.ContentTypeNativeTextOnly:
			doc.Stats.NativeTextUnits++
		case domain.ContentTypeMixed:
			doc.Stats.MixedUnits++
		case domain.ContentTypeImageOnly:
			doc.Stats.ImageOnlyUnits++
		case domain.ContentTypeEmpty:
			doc.Stats.EmptyUnits++
		case domain.ContentTypeError:
			doc.Stats.ErrorUnits++
		}
	}

	doc.FullText = strings.Join(texts, unitSeparator)
	doc.HasTextLayer = doc.Stats.NativeTextUnits > 0 || doc.Stats.MixedUnits > 0
	doc.IsScanned = !doc.HasTextLayer
	if doc.IsScanned && len(results) > 0 {
		log.Printf("extract.Assembler: no unit carries a text layer, document treated as scanned")
	}
	return doc
}
