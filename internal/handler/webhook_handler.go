package handler

import (
	"errors"
	"log"
	"net/http"

	"avalon/internal/service"
	"avalon/pkg/gateway"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives the gateway's payment notifications. It is the
// primary reconciliation trigger; the poller only backstops it.
type WebhookHandler struct {
	rec       *service.Reconciler
	serverKey string
}

func NewWebhookHandler(rec *service.Reconciler, serverKey string) *WebhookHandler {
	return &WebhookHandler{rec: rec, serverKey: serverKey}
}

// Handle processes one notification. Replays and out-of-order deliveries
// are absorbed by the reconciler, and the response is 200 either way so
// the gateway stops retrying; only an unknown order reference yields 404.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var n gateway.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	if n.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "order_id required"})
		return
	}
	if !n.VerifySignature(h.serverKey) {
		log.Printf("[webhook] bad signature for %s", n.OrderID)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid signature"})
		return
	}

	err := h.rec.Apply(c.Request.Context(), n.OrderID, n.Status(), service.SourceWebhook)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "unknown order reference"})
			return
		}
		log.Printf("[webhook] apply failed for %s: %v", n.OrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}
