package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressroomhq/pressroom-go/internal/application/services"
)

// AuthHandlers contains the admin login handler.
type AuthHandlers struct {
	authService *services.AuthService
}

// NewAuthHandlers creates auth handlers with injected dependencies.
func NewAuthHandlers(authService *services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// LoginRequest carries the admin password.
type LoginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
