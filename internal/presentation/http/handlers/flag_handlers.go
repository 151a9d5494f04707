package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressroomhq/pressroom-go/internal/application/services"
)

// FlagHandlers contains the public flag read handler.
type FlagHandlers struct {
	flagService *services.FlagService
}

// NewFlagHandlers creates flag handlers with injected dependencies.
func NewFlagHandlers(flagService *services.FlagService) *FlagHandlers {
	return &FlagHandlers{flagService: flagService}
}

// GetFlag handles GET /api/v1/flags/:key. Only the enabled bit is public;
// metadata stays behind the admin API.
func (h *FlagHandlers) GetFlag(c *gin.Context) {
	key := c.Param("key")

	c.JSON(http.StatusOK, gin.H{
		"key":     key,
		"enabled": h.flagService.IsEnabled(c.Request.Context(), key),
	})
}
