package handler

import (
	"net/http"

	"avalon/config"
	"avalon/internal/auth"
	"avalon/internal/domain"
	"avalon/internal/repository"
	"avalon/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues JWTs for the admin surface. Full user registration and
// OTP email flows live in a separate service.
type AuthHandler struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
	audit    *service.AuditLogger
}

func NewAuthHandler(cfg *config.Config, userRepo *repository.UserRepository, audit *service.AuditLogger) *AuthHandler {
	return &AuthHandler{cfg: cfg, userRepo: userRepo, audit: audit}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
		return
	}
	u, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	token, err := auth.GenerateToken(&h.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not issue token"})
		return
	}
	if u.IsAdmin() {
		h.audit.Record(u.Email, u.Email, domain.ActionAdminLogin, "", c.ClientIP())
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": u.ID, "email": u.Email, "username": u.Username, "role": u.Role},
	})
}
