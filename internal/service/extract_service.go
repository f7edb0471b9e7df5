package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"textmill/internal/config"
	"textmill/internal/domain"
	"textmill/internal/extract"
	"textmill/internal/port"
)

// ExtractInput is the DTO for extraction requests. A zero OCREngine runs
// the default engine; a zero VisionModel runs the configured model.
type ExtractInput struct {
	Filename     string
	Data         []byte
	OutputFormat domain.OutputFormat
	UseOCR       bool
	UseVision    bool
	OCREngine    domain.OCREngine
	VisionModel  string
}

// Artifact is a stored extraction result fetched back for download.
type Artifact struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExtractService defines the document extraction contract.
type ExtractService interface {
	Extract(ctx context.Context, input ExtractInput) (*domain.Task, *domain.DocumentResult, error)
	GetArtifact(ctx context.Context, taskID string) (*Artifact, error)
}

type extractService struct {
	readers   map[domain.FileType]port.DocumentReader
	assembler *extract.Assembler
	storage   port.ObjectStorage
	cfg       *config.StorageConfig
}

// NewExtractService creates a new ExtractService implementation. The readers
// map must hold one DocumentReader per supported FileType.
func NewExtractService(
	readers map[domain.FileType]port.DocumentReader,
	assembler *extract.Assembler,
	storage port.ObjectStorage,
	cfg *config.StorageConfig,
) ExtractService {
	return &extractService{
		readers:   readers,
		assembler: assembler,
		storage:   storage,
		cfg:       cfg,
	}
}

func (s *extractService) Extract(ctx context.Context, input ExtractInput) (*domain.Task, *domain.DocumentResult, error) {
	if len(input.Data) == 0 {
		return nil, nil, domain.ErrEmptyFile
	}
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if int64(len(input.Data)) > maxBytes {
		return nil, nil, domain.ErrFileTooLarge
	}

	fileType, err := detectFileType(input.Filename, input.Data)
	if err != nil {
		return nil, nil, err
	}

	format := input.OutputFormat
	if format == "" {
		format = domain.OutputFormatJSON
	}
	if format != domain.OutputFormatJSON && format != domain.OutputFormatText {
		return nil, nil, domain.ErrInvalidOutputFormat
	}

	if input.OCREngine != "" && !domain.AllowedOCREngines[input.OCREngine] {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedEngine, input.OCREngine)
	}

	reader, ok := s.readers[fileType]
	if !ok {
		return nil, nil, domain.ErrUnsupportedFileType
	}

	log.Printf("extractService.Extract: processing %s (%s, %d bytes, ocr=%t vision=%t)",
		input.Filename, fileType, len(input.Data), input.UseOCR, input.UseVision)

	units, err := reader.Read(ctx, input.Data)
	if err != nil {
		log.Printf("extractService.Extract: reading %s failed: %v", input.Filename, err)
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrDocumentUnreadable, err)
	}

	result := s.assembler.Process(ctx, units, extract.Options{
		UseOCR:      input.UseOCR,
		UseVision:   input.UseVision,
		OCREngine:   input.OCREngine,
		VisionModel: input.VisionModel,
	})

	task := &domain.Task{
		ID:           uuid.NewString(),
		Filename:     input.Filename,
		FileType:     fileType,
		OutputFormat: format,
		CreatedAt:    time.Now().UTC(),
	}
	task.ResultKey = fmt.Sprintf("tasks/%s/result.%s", task.ID, format)

	artifact, contentType, err := marshalResult(&result, format)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         task.ResultKey,
		Body:        bytes.NewReader(artifact),
		ContentType: contentType,
		Size:        int64(len(artifact)),
	})
	if err != nil {
		log.Printf("extractService.Extract: artifact upload failed for task %s: %v", task.ID, err)
		return nil, nil, domain.ErrUploadFailed
	}

	url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, task.ResultKey, s.cfg.PresignExpiry)
	if err != nil {
		log.Printf("extractService.Extract: presigning artifact for task %s failed: %v", task.ID, err)
	} else {
		task.DownloadURL = url
	}

	log.Printf("extractService.Extract: task %s done (%d units, scanned=%t)",
		task.ID, result.TotalUnits, result.IsScanned)
	return task, &result, nil
}

func (s *extractService) GetArtifact(ctx context.Context, taskID string) (*Artifact, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	objects, err := s.storage.List(ctx, s.cfg.Bucket, "tasks/"+taskID+"/")
	if err != nil {
		return nil, fmt.Errorf("listing task artifacts: %w", err)
	}
	if len(objects) == 0 {
		return nil, domain.ErrTaskNotFound
	}

	key := objects[0].Key
	data, err := s.storage.Download(ctx, s.cfg.Bucket, key)
	if err != nil {
		return nil, fmt.Errorf("downloading artifact %s: %w", key, err)
	}

	contentType := "application/json"
	if strings.HasSuffix(key, ".txt") {
		contentType = "text/plain; charset=utf-8"
	}
	return &Artifact{
		Data:        data,
		ContentType: contentType,
		Filename:    filepath.Base(key),
	}, nil
}

// detectFileType resolves the FileType from the filename extension, falling
// back to magic-byte sniffing when the extension is missing or unknown.
func detectFileType(filename string, data []byte) (domain.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "doc" {
		return "", fmt.Errorf("%w: legacy .doc is not supported, convert to .docx", domain.ErrUnsupportedFileType)
	}
	if fileType, ok := domain.AllowedExtensions[ext]; ok {
		return fileType, nil
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected := http.DetectContentType(head)
	// DetectContentType appends charset parameters for text.
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	if fileType, ok := domain.AllowedContentTypes[detected]; ok {
		return fileType, nil
	}
	return "", domain.ErrUnsupportedFileType
}

func marshalResult(result *domain.DocumentResult, format domain.OutputFormat) ([]byte, string, error) {
	switch format {
	case domain.OutputFormatText:
		return []byte(result.FullText), "text/plain; charset=utf-8", nil
	default:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}
