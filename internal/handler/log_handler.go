package handler

import (
	"fmt"
	"net/http"

	"avalon/internal/domain"
	"avalon/internal/middleware"
	"avalon/internal/repository"
	"avalon/internal/service"

	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	auditRepo *repository.AuditLogRepository
	audit     *service.AuditLogger
}

func NewLogHandler(auditRepo *repository.AuditLogRepository, audit *service.AuditLogger) *LogHandler {
	return &LogHandler{auditRepo: auditRepo, audit: audit}
}

func (h *LogHandler) List(c *gin.Context) {
	list, err := h.auditRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Purge clears the whole ledger. The purge itself is recorded afterwards so
// the ledger is never silently empty.
func (h *LogHandler) Purge(c *gin.Context) {
	n, err := h.auditRepo.PurgeAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "purge failed"})
		return
	}
	admin := middleware.GetEmail(c)
	h.audit.Record(admin, admin, domain.ActionLogsPurged, fmt.Sprintf("%d entries removed", n), c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%d logs were deleted successfully", n)})
}
