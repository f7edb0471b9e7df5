package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"textmill/internal/config"
	"textmill/internal/domain"
)

// FetchedFile is a file pulled from a remote URL for extraction.
type FetchedFile struct {
	Filename string
	Data     []byte
}

// DownloadService fetches remote documents for URL-based extraction.
type DownloadService interface {
	Fetch(ctx context.Context, rawURL string) (*FetchedFile, error)
}

type downloadService struct {
	client   *http.Client
	maxBytes int64
}

// NewDownloadService creates a new DownloadService implementation.
func NewDownloadService(cfg *config.DownloadConfig) DownloadService {
	return &downloadService{
		client:   &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
		maxBytes: cfg.MaxFileSizeMB * 1024 * 1024,
	}
}

func (s *downloadService) Fetch(ctx context.Context, rawURL string) (*FetchedFile, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid url", domain.ErrDownloadFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}

	log.Printf("downloadService.Fetch: fetching %s", rawURL)
	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("downloadService.Fetch: request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream returned %d", domain.ErrDownloadFailed, resp.StatusCode)
	}
	if resp.ContentLength > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Limit one byte past the cap so oversized bodies are detectable even
	// when Content-Length is absent.
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrDownloadFailed, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}

	return &FetchedFile{
		Filename: filenameFromURL(parsed, resp.Header.Get("Content-Type")),
		Data:     data,
	}, nil
}

// filenameFromURL derives a filename from the URL path, synthesizing an
// extension from the Content-Type header when the path carries none.
func filenameFromURL(u *url.URL, contentType string) string {
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		name = "download"
	}
	if path.Ext(name) != "" {
		return name
	}

	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if fileType, ok := domain.AllowedContentTypes[strings.TrimSpace(contentType)]; ok {
		switch fileType {
		case domain.FileTypePDF:
			return name + ".pdf"
		case domain.FileTypeDOCX:
			return name + ".docx"
		case domain.FileTypeImage:
			return name + ".png"
		case domain.FileTypeText:
			return name + ".txt"
		}
	}
	return name
}
