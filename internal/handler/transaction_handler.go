package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"avalon/internal/domain"
	"avalon/internal/middleware"
	"avalon/internal/models"
	"avalon/internal/repository"
	"avalon/internal/service"
	"avalon/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionStore is the slice of the order repository the handler needs.
type TransactionStore interface {
	Create(t *models.Transaction) error
	CreateWithVoucher(t *models.Transaction, voucherID uint) error
	GetByID(id string) (*models.Transaction, error)
	ListByUser(userID string) ([]models.Transaction, error)
	ListAll() ([]models.Transaction, error)
	GetStats() (*repository.Stats, error)
	Delete(id string) error
}

// CatalogStore resolves games and their denominations at order creation.
type CatalogStore interface {
	GetByID(id string) (*models.Game, error)
	FindItemByName(gameID, name string) (*models.GameItem, error)
}

// OrderWatcher starts the fallback payment-status loop for a new order.
type OrderWatcher interface {
	Watch(ctx context.Context, orderID string)
}

type TransactionHandler struct {
	txRepo     TransactionStore
	gameRepo   CatalogStore
	voucherSvc *service.VoucherService
	gw         gateway.Gateway
	poller     OrderWatcher
	audit      *service.AuditLogger
	rootCtx    context.Context
}

func NewTransactionHandler(
	txRepo TransactionStore,
	gameRepo CatalogStore,
	voucherSvc *service.VoucherService,
	gw gateway.Gateway,
	poller OrderWatcher,
	audit *service.AuditLogger,
	rootCtx context.Context,
) *TransactionHandler {
	return &TransactionHandler{
		txRepo:     txRepo,
		gameRepo:   gameRepo,
		voucherSvc: voucherSvc,
		gw:         gw,
		poller:     poller,
		audit:      audit,
		rootCtx:    rootCtx,
	}
}

type CreateTransactionRequest struct {
	GameID      string `json:"gameId"`
	UserID      string `json:"userId"`
	Item        string `json:"item"`
	Price       int    `json:"price"`
	Amount      string `json:"amount"`
	UserGameID  string `json:"userGameId"`
	VoucherCode string `json:"voucherCode"`
}

type createTransactionResponse struct {
	models.Transaction
	Payment *gateway.Session `json:"payment"`
}

// Create opens a new order: applies the voucher if one is given, persists
// the Pending order, obtains a checkout session from the gateway, and
// starts the fallback status poller. The order id it hands out is the
// correlation key for the webhook and the provider.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if req.GameID == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "gameId and userId are required"})
		return
	}

	game, err := h.gameRepo.GetByID(req.GameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "unknown game"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "lookup failed"})
		return
	}

	t := &models.Transaction{
		ID:         "TXN-" + strings.ToUpper(uuid.NewString()),
		GameID:     game.ID,
		GameName:   game.Name,
		Item:       req.Item,
		Amount:     req.Amount,
		Price:      req.Price,
		Status:     domain.StatusPending,
		UserID:     req.UserID,
		UserGameID: req.UserGameID,
	}
	// Capture the catalog item id now so fulfillment no longer depends on
	// the display label staying unchanged.
	if item, err := h.gameRepo.FindItemByName(game.ID, req.Item); err == nil {
		t.ItemID = item.ID
	}

	var applied *service.Evaluation
	if req.VoucherCode != "" {
		eval, err := h.voucherSvc.Check(req.VoucherCode, game.ID, req.Price, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "voucher lookup failed"})
			return
		}
		if eval.Valid {
			applied = eval
			t.Price = eval.FinalPrice
			t.Discount = eval.Discount
			t.VoucherCode = eval.Voucher.Code
		}
	}

	if applied != nil {
		err = h.txRepo.CreateWithVoucher(t, applied.Voucher.ID)
		if errors.Is(err, repository.ErrVoucherExhausted) {
			// Lost the race for the last redemption; fall back to full price.
			t.Price = req.Price
			t.Discount = 0
			t.VoucherCode = ""
			applied = nil
			err = h.txRepo.Create(t)
		}
	} else {
		err = h.txRepo.Create(t)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create transaction"})
		return
	}

	session, err := h.gw.CreateSession(c.Request.Context(), gateway.SessionRequest{
		OrderID:  t.ID,
		Amount:   t.Price,
		ItemName: game.Name + " - " + t.Item,
		UserID:   t.UserID,
	})
	if err != nil {
		// The Pending order stays behind; the user retries checkout with a
		// fresh order.
		c.JSON(http.StatusBadGateway, gin.H{"message": "payment gateway unavailable, please try again"})
		return
	}

	h.audit.Record(t.UserID, t.UserID, domain.ActionOrderCreated,
		map[string]interface{}{"order": t.ID, "game": t.GameID, "item": t.Item, "price": t.Price}, c.ClientIP())
	if applied != nil {
		h.audit.Record(t.UserID, t.UserID, domain.ActionVoucherApplied,
			map[string]interface{}{"order": t.ID, "code": t.VoucherCode, "discount": t.Discount}, c.ClientIP())
	}

	h.poller.Watch(h.rootCtx, t.ID)

	c.JSON(http.StatusCreated, createTransactionResponse{Transaction: *t, Payment: session})
}

func (h *TransactionHandler) Get(c *gin.Context) {
	t, err := h.txRepo.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransactionHandler) ListByUser(c *gin.Context) {
	list, err := h.txRepo.ListByUser(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TransactionHandler) ListAll(c *gin.Context) {
	list, err := h.txRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TransactionHandler) Stats(c *gin.Context) {
	stats, err := h.txRepo.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Delete removes an order. Admin-only; every deletion lands in the ledger.
func (h *TransactionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.txRepo.GetByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "transaction not found"})
		return
	}
	if err := h.txRepo.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "delete failed"})
		return
	}
	admin := middleware.GetEmail(c)
	h.audit.Record(admin, admin, domain.ActionOrderDeleted, "order "+id, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "transaction deleted"})
}
