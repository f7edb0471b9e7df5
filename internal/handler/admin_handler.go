package handler

import (
	"github.com/gin-gonic/gin"

	"textmill/internal/service"
)

// AdminHandler handles operational endpoints.
type AdminHandler struct {
	cleanup *service.CleanupWorker
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cleanup *service.CleanupWorker) *AdminHandler {
	return &AdminHandler{cleanup: cleanup}
}

// Cleanup handles POST /api/v1/cleanup, triggering an immediate retention
// sweep outside the scheduled interval.
func (h *AdminHandler) Cleanup(c *gin.Context) {
	deleted := h.cleanup.RunOnce(c.Request.Context())
	RespondOK(c, gin.H{"deleted": deleted})
}
