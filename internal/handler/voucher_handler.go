package handler

import (
	"net/http"
	"strconv"
	"time"

	"avalon/internal/models"
	"avalon/internal/repository"
	"avalon/internal/service"

	"github.com/gin-gonic/gin"
)

type VoucherHandler struct {
	voucherRepo *repository.VoucherRepository
	voucherSvc  *service.VoucherService
}

func NewVoucherHandler(voucherRepo *repository.VoucherRepository, voucherSvc *service.VoucherService) *VoucherHandler {
	return &VoucherHandler{voucherRepo: voucherRepo, voucherSvc: voucherSvc}
}

type verifyVoucherRequest struct {
	Code   string `json:"code"`
	GameID string `json:"gameId"`
}

// Verify is the pre-checkout check. It never redeems; usage only burns at
// order creation.
func (h *VoucherHandler) Verify(c *gin.Context) {
	var req verifyVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": "code is required"})
		return
	}
	eval, err := h.voucherSvc.Check(req.Code, req.GameID, 0, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "message": "voucher lookup failed"})
		return
	}
	if !eval.Valid {
		c.JSON(http.StatusOK, gin.H{"valid": false, "message": eval.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"voucher": eval.Voucher,
		"message": eval.Message,
	})
}

func (h *VoucherHandler) Create(c *gin.Context) {
	var v models.Voucher
	if err := c.ShouldBindJSON(&v); err != nil || v.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "code is required"})
		return
	}
	if err := h.voucherRepo.Create(&v); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create voucher"})
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *VoucherHandler) List(c *gin.Context) {
	list, err := h.voucherRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *VoucherHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return
	}
	if err := h.voucherRepo.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "voucher deleted"})
}
