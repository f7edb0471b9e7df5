package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"textmill/internal/port"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	ocr    port.ImageRecognizer
	vision port.ImageRecognizer
}

// NewHealthHandler creates a new HealthHandler. Either recognizer may be nil
// when its channel is disabled.
func NewHealthHandler(ocr, vision port.ImageRecognizer) *HealthHandler {
	return &HealthHandler{ocr: ocr, vision: vision}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. Recognition channels are optional, so a
// missing engine degrades the report without failing the check.
func (h *HealthHandler) Readiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"ocr_available":    h.ocr != nil && h.ocr.Available(),
		"vision_available": h.vision != nil && h.vision.Available(),
	})
}
