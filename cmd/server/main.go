package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"textmill/internal/config"
	"textmill/internal/domain"
	"textmill/internal/extract"
	"textmill/internal/handler"
	"textmill/internal/parser/docx"
	"textmill/internal/parser/pdf"
	"textmill/internal/parser/raw"
	"textmill/internal/port"
	"textmill/internal/recognizer/baidu"
	"textmill/internal/recognizer/qwen"
	"textmill/internal/recognizer/tesseract"
	"textmill/internal/router"
	"textmill/internal/service"
	localstorage "textmill/internal/storage/local"
	s3storage "textmill/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	storage, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize recognition engines
	ocrEngines := make(map[domain.OCREngine]port.ImageRecognizer)
	if cfg.OCR.Enabled {
		ocrEngines[domain.OCREngineBaidu] = baidu.New(&cfg.OCR)
		ocrEngines[domain.OCREngineTesseract] = tesseract.New(&cfg.OCR)
	}
	var ocrEngine port.ImageRecognizer
	if cfg.OCR.Enabled {
		ocrEngine = ocrEngines[domain.OCREngine(cfg.OCR.Engine)]
		if ocrEngine == nil {
			return fmt.Errorf("unknown ocr engine %q", cfg.OCR.Engine)
		}
	}
	var visionEngine port.ImageRecognizer
	if cfg.Vision.APIKey != "" {
		visionEngine = qwen.New(&cfg.Vision)
	}

	// Assemble the extraction pipeline
	recognizer := extract.NewDualChannelRecognizer(
		ocrEngine, visionEngine,
		time.Duration(cfg.OCR.TimeoutSecs)*time.Second,
		time.Duration(cfg.Vision.TimeoutSecs)*time.Second,
	)
	for name, engine := range ocrEngines {
		recognizer.RegisterOCREngine(name, engine)
	}
	recognizer.SetOCROptions(port.RecognizeOptions{Languages: cfg.OCR.Languages})
	recognizer.SetVisionOptions(port.RecognizeOptions{Model: cfg.Vision.DefaultModel})

	classifier := extract.NewClassifier(cfg.Extract.MinTextLength)
	fusion := extract.NewFusionEngine(fusionPolicy(&cfg.Extract))
	processor := extract.NewUnitProcessor(classifier, recognizer, fusion, extract.NewSanitizer())
	assembler := extract.NewAssembler(processor, cfg.Extract.Workers)

	readers := map[domain.FileType]port.DocumentReader{
		domain.FileTypePDF:   pdf.NewReader(cfg.Extract.MinTextLength),
		domain.FileTypeDOCX:  docx.NewReader(),
		domain.FileTypeImage: raw.NewImageReader(),
		domain.FileTypeText:  raw.NewTextReader(),
	}

	// Initialize services
	extractSvc := service.NewExtractService(readers, assembler, storage, &cfg.Storage)
	downloadSvc := service.NewDownloadService(&cfg.Download)
	cleanup := service.NewCleanupWorker(storage, &cfg.Storage, &cfg.Cleanup)
	if cfg.Cleanup.Enabled {
		go cleanup.Start(ctx)
	}

	// Initialize handlers
	extractH := handler.NewExtractHandler(extractSvc, downloadSvc)
	adminH := handler.NewAdminHandler(cleanup)
	healthH := handler.NewHealthHandler(ocrEngine, visionEngine)

	// Setup router
	r := router.Setup(extractH, adminH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Printf("Server stopped")
	return nil
}

func newStorage(cfg *config.Config) (port.ObjectStorage, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return s3storage.NewS3Client(&cfg.Storage)
	case "local":
		baseURL := fmt.Sprintf("http://localhost%s/api/v1/download", cfg.Server.Port)
		return localstorage.New(cfg.Storage.LocalPath, baseURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func fusionPolicy(cfg *config.ExtractConfig) extract.FusionPolicy {
	policy := extract.DefaultFusionPolicy()
	if cfg.ConfidenceWeight > 0 {
		policy.ConfidenceWeight = cfg.ConfidenceWeight
	}
	if cfg.LengthWeight > 0 {
		policy.LengthWeight = cfg.LengthWeight
	}
	if cfg.QualityWeight > 0 {
		policy.QualityWeight = cfg.QualityWeight
	}
	if cfg.TieBand > 0 {
		policy.TieBand = cfg.TieBand
	}
	if cfg.DominanceRatio > 0 {
		policy.DominanceRatio = cfg.DominanceRatio
	}
	return policy
}
