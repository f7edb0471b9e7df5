// Package docx reads DOCX documents into content units. A DOCX file is an
// OPC zip archive; text lives in word/document.xml and embedded images
// under word/media/.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"

	"textmill/internal/domain"
)

// documentXML mirrors the parts of word/document.xml we extract text from.
type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    bodyXML  `xml:"body"`
}

type bodyXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

type paragraphXML struct {
	Runs []runXML `xml:"r"`
}

type runXML struct {
	Texts []string `xml:"t"`
}

// Reader implements port.DocumentReader for DOCX files.
type Reader struct{}

// NewReader creates a DOCX reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read parses the archive into a single content unit carrying the full
// paragraph text and every embedded media image, matching how the format
// presents content: unlike PDF, a DOCX has no intrinsic pagination.
func (r *Reader) Read(ctx context.Context, data []byte) ([]domain.ContentUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening docx archive: %w: %v", domain.ErrDocumentUnreadable, err)
	}

	text, err := extractText(archive)
	if err != nil {
		return nil, err
	}

	unit := domain.ContentUnit{
		ID:         "document-1",
		Index:      0,
		NativeText: text,
		Images:     extractImages(archive),
	}
	return []domain.ContentUnit{unit}, nil
}

func extractText(archive *zip.Reader) (string, error) {
	file, err := openEntry(archive, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("reading document body: %w: %v", domain.ErrDocumentUnreadable, err)
	}

	var doc documentXML
	if err := xml.Unmarshal(file, &doc); err != nil {
		return "", fmt.Errorf("decoding document body: %w: %v", domain.ErrDocumentUnreadable, err)
	}

	var paragraphs []string
	for _, p := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, run := range p.Runs {
			for _, t := range run.Texts {
				sb.WriteString(t)
			}
		}
		if line := sb.String(); strings.TrimSpace(line) != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// extractImages collects word/media payloads in name order. A corrupt
// media entry is skipped rather than failing the document.
func extractImages(archive *zip.Reader) [][]byte {
	var names []string
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "word/media/") && isImageEntry(f.Name) {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)

	var images [][]byte
	for _, name := range names {
		payload, err := openEntry(archive, name)
		if err != nil {
			log.Printf("docx.Reader: skipping media entry %s: %v", name, err)
			continue
		}
		if len(payload) > 0 {
			images = append(images, payload)
		}
	}
	return images
}

func isImageEntry(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

func openEntry(archive *zip.Reader, name string) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s not found", name)
}
