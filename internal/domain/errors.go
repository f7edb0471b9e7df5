package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile           = errors.New("file is empty")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrUnsupportedEngine   = errors.New("unsupported ocr engine")
	ErrDownloadFailed      = errors.New("downloading file from URL failed")
	ErrUploadFailed        = errors.New("artifact upload to storage failed")
	ErrDocumentUnreadable  = errors.New("document could not be parsed")
)
