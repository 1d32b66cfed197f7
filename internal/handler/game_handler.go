package handler

import (
	"net/http"

	"avalon/internal/repository"
	"avalon/pkg/provider"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameRepo *repository.GameRepository
	prov     provider.Client
}

func NewGameHandler(gameRepo *repository.GameRepository, prov provider.Client) *GameHandler {
	return &GameHandler{gameRepo: gameRepo, prov: prov}
}

func (h *GameHandler) List(c *gin.Context) {
	list, err := h.gameRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *GameHandler) Get(c *gin.Context) {
	g, err := h.gameRepo.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "game not found"})
		return
	}
	c.JSON(http.StatusOK, g)
}

type validateAccountRequest struct {
	GameID     string `json:"gameId"`
	UserGameID string `json:"userGameId"`
}

// ValidateAccount resolves the in-game display name for an account before
// checkout, so the user can confirm they are topping up the right player.
func (h *GameHandler) ValidateAccount(c *gin.Context) {
	var req validateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.GameID == "" || req.UserGameID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "gameId and userGameId are required"})
		return
	}
	game, err := h.gameRepo.GetByID(req.GameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "game not found"})
		return
	}
	brand := game.Brand
	if brand == "" {
		brand = game.ID
	}
	accountID, zoneID := provider.ParseAccountRef(req.UserGameID)
	username, err := h.prov.CheckUsername(c.Request.Context(), brand, accountID, zoneID)
	if err != nil || username == "" {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "username": username})
}
