package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"textmill/internal/config"
	"textmill/internal/domain"
	"textmill/internal/handler"
	"textmill/internal/port"
	"textmill/internal/router"
	"textmill/internal/service"
	"textmill/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	engine     *gin.Engine
	extractSvc *mocks.MockExtractService
	download   *mocks.MockDownloadService
	storage    *mocks.MockObjectStorage
}

func newTestApp() *testApp {
	extractSvc := new(mocks.MockExtractService)
	download := new(mocks.MockDownloadService)
	storage := new(mocks.MockObjectStorage)

	cleanup := service.NewCleanupWorker(storage, &config.StorageConfig{Bucket: "tasks-bucket"}, &config.CleanupConfig{
		RetentionHours: 168,
		IntervalHours:  24,
	})

	engine := router.Setup(
		handler.NewExtractHandler(extractSvc, download),
		handler.NewAdminHandler(cleanup),
		handler.NewHealthHandler(nil, nil),
	)
	return &testApp{engine: engine, extractSvc: extractSvc, download: download, storage: storage}
}

func sampleTask() *domain.Task {
	return &domain.Task{
		ID:           "2f1d8a4e-8c61-47d0-9f3b-1a6c0d9e5b21",
		Filename:     "contract.pdf",
		FileType:     domain.FileTypePDF,
		OutputFormat: domain.OutputFormatJSON,
		ResultKey:    "tasks/2f1d8a4e-8c61-47d0-9f3b-1a6c0d9e5b21/result.json",
		DownloadURL:  "http://example.com/download",
		CreatedAt:    time.Now().UTC(),
	}
}

func sampleResult() *domain.DocumentResult {
	return &domain.DocumentResult{
		FullText:     "document text",
		TotalUnits:   1,
		HasTextLayer: true,
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(file)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadEndpoint_Success(t *testing.T) {
	app := newTestApp()

	app.extractSvc.On("Extract", mock.Anything, mock.MatchedBy(func(in service.ExtractInput) bool {
		return in.Filename == "contract.pdf" &&
			string(in.Data) == "%PDF-1.7 body" &&
			in.OutputFormat == domain.OutputFormatText &&
			in.UseOCR && !in.UseVision
	})).Return(sampleTask(), sampleResult(), nil)

	body, contentType := multipartBody(t, map[string]string{
		"output_format": "txt",
		"use_vision":    "false",
	}, "contract.pdf", []byte("%PDF-1.7 body"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	app.extractSvc.AssertExpectations(t)
}

func TestUploadEndpoint_EngineSelectionForwarded(t *testing.T) {
	app := newTestApp()

	app.extractSvc.On("Extract", mock.Anything, mock.MatchedBy(func(in service.ExtractInput) bool {
		return in.OCREngine == domain.OCREngineTesseract &&
			in.VisionModel == "qwen-vl-max"
	})).Return(sampleTask(), sampleResult(), nil)

	body, contentType := multipartBody(t, map[string]string{
		"ocr_engine":   "tesseract",
		"vision_model": "qwen-vl-max",
	}, "contract.pdf", []byte("%PDF-1.7 body"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	app.extractSvc.AssertExpectations(t)
}

func TestUploadEndpoint_UnsupportedEngine(t *testing.T) {
	app := newTestApp()

	app.extractSvc.On("Extract", mock.Anything, mock.Anything).
		Return(nil, nil, domain.ErrUnsupportedEngine)

	body, contentType := multipartBody(t, map[string]string{
		"ocr_engine": "abbyy",
	}, "contract.pdf", []byte("%PDF-1.7 body"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_OCR_ENGINE", resp.Error.Code)
}

func TestUploadEndpoint_MissingFile(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract/upload", nil)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadEndpoint_UnsupportedType(t *testing.T) {
	app := newTestApp()

	app.extractSvc.On("Extract", mock.Anything, mock.Anything).
		Return(nil, nil, domain.ErrUnsupportedFileType)

	body, contentType := multipartBody(t, nil, "archive.rar", []byte("rar data"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", resp.Error.Code)
}

func TestURLEndpoint_Success(t *testing.T) {
	app := newTestApp()

	app.download.On("Fetch", mock.Anything, "http://example.com/contract.pdf").
		Return(&service.FetchedFile{Filename: "contract.pdf", Data: []byte("%PDF-")}, nil)
	app.extractSvc.On("Extract", mock.Anything, mock.MatchedBy(func(in service.ExtractInput) bool {
		return in.Filename == "contract.pdf" && in.UseOCR && in.UseVision &&
			in.OCREngine == domain.OCREngineBaidu
	})).Return(sampleTask(), sampleResult(), nil)

	payload, _ := json.Marshal(map[string]string{
		"url":        "http://example.com/contract.pdf",
		"ocr_engine": "baidu",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract/url", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestURLEndpoint_MissingURL(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract/url", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestURLEndpoint_FetchFailure(t *testing.T) {
	app := newTestApp()

	app.download.On("Fetch", mock.Anything, mock.Anything).
		Return(nil, domain.ErrDownloadFailed)

	payload, _ := json.Marshal(map[string]string{"url": "http://example.com/gone.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract/url", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDownloadEndpoint_BareTaskID(t *testing.T) {
	app := newTestApp()
	taskID := "2f1d8a4e-8c61-47d0-9f3b-1a6c0d9e5b21"

	app.extractSvc.On("GetArtifact", mock.Anything, taskID).
		Return(&service.Artifact{
			Data:        []byte(`{"full_text":"hello"}`),
			ContentType: "application/json",
			Filename:    "result.json",
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/download/"+taskID, nil)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"full_text":"hello"}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "result.json")
}

func TestDownloadEndpoint_FullArtifactKey(t *testing.T) {
	app := newTestApp()
	taskID := "2f1d8a4e-8c61-47d0-9f3b-1a6c0d9e5b21"

	app.extractSvc.On("GetArtifact", mock.Anything, taskID).
		Return(&service.Artifact{Data: []byte("text"), ContentType: "text/plain; charset=utf-8", Filename: "result.txt"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/download/tasks/"+taskID+"/result.txt", nil)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	app.extractSvc.AssertExpectations(t)
}

func TestDownloadEndpoint_NotFound(t *testing.T) {
	app := newTestApp()

	app.extractSvc.On("GetArtifact", mock.Anything, mock.Anything).
		Return(nil, domain.ErrTaskNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/download/unknown", nil)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanupEndpoint(t *testing.T) {
	app := newTestApp()

	app.storage.On("List", mock.Anything, "tasks-bucket", "tasks/").
		Return([]port.ObjectInfo{
			{Key: "tasks/old/result.json", LastModified: time.Now().Add(-400 * time.Hour)},
		}, nil)
	app.storage.On("Delete", mock.Anything, "tasks-bucket", "tasks/old/result.json").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cleanup", nil)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["deleted"])
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		app.engine.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
