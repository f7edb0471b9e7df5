package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"textmill/internal/domain"
	"textmill/internal/service"
)

// ExtractHandler handles document extraction endpoints.
type ExtractHandler struct {
	extractService  service.ExtractService
	downloadService service.DownloadService
}

// NewExtractHandler creates a new ExtractHandler.
func NewExtractHandler(extractService service.ExtractService, downloadService service.DownloadService) *ExtractHandler {
	return &ExtractHandler{extractService: extractService, downloadService: downloadService}
}

// urlRequest is the body for URL-based extraction.
type urlRequest struct {
	URL          string `json:"url" binding:"required"`
	OutputFormat string `json:"output_format"`
	UseOCR       *bool  `json:"use_ocr"`
	UseVision    *bool  `json:"use_vision"`
	OCREngine    string `json:"ocr_engine"`
	VisionModel  string `json:"vision_model"`
}

// Upload handles POST /api/v1/extract/upload
func (h *ExtractHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	input := service.ExtractInput{
		Filename:     header.Filename,
		Data:         data,
		OutputFormat: domain.OutputFormat(c.DefaultPostForm("output_format", "json")),
		UseOCR:       formBool(c, "use_ocr", true),
		UseVision:    formBool(c, "use_vision", true),
		OCREngine:    domain.OCREngine(c.PostForm("ocr_engine")),
		VisionModel:  c.PostForm("vision_model"),
	}

	task, result, err := h.extractService.Extract(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, gin.H{
		"task":   task,
		"result": result,
	})
}

// FromURL handles POST /api/v1/extract/url
func (h *ExtractHandler) FromURL(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "url field is required")
		return
	}

	fetched, err := h.downloadService.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		HandleError(c, err)
		return
	}

	format := req.OutputFormat
	if format == "" {
		format = "json"
	}
	input := service.ExtractInput{
		Filename:     fetched.Filename,
		Data:         fetched.Data,
		OutputFormat: domain.OutputFormat(format),
		UseOCR:       boolOrDefault(req.UseOCR, true),
		UseVision:    boolOrDefault(req.UseVision, true),
		OCREngine:    domain.OCREngine(req.OCREngine),
		VisionModel:  req.VisionModel,
	}

	task, result, err := h.extractService.Extract(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, gin.H{
		"task":   task,
		"result": result,
	})
}

// Download handles GET /api/v1/download/*ref. The ref is either a bare
// task ID or a full artifact key of the form tasks/<task_id>/result.<fmt>,
// which is what local-backend download URLs carry.
func (h *ExtractHandler) Download(c *gin.Context) {
	taskID := strings.TrimPrefix(c.Param("ref"), "/")
	if rest, ok := strings.CutPrefix(taskID, "tasks/"); ok {
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			taskID = rest[:i]
		} else {
			taskID = rest
		}
	}

	artifact, err := h.extractService.GetArtifact(c.Request.Context(), taskID)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func formBool(c *gin.Context, field string, def bool) bool {
	raw := c.PostForm(field)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
