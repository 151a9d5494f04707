package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressroomhq/pressroom-go/internal/application/services"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
)

// AdHandlers contains the public ad selection handler.
type AdHandlers struct {
	adService *services.AdService
	logger    *logging.ChanneledLogger
}

// NewAdHandlers creates ad handlers with injected dependencies.
func NewAdHandlers(adService *services.AdService, logger *logging.ChanneledLogger) *AdHandlers {
	return &AdHandlers{adService: adService, logger: logger}
}

// SelectRequest asks for one placement decision per requested slot on a page.
type SelectRequest struct {
	PageType string   `json:"pageType"`
	Slots    []string `json:"slots"`
	Max      *int     `json:"max,omitempty"`
}

// SelectPlacements handles POST /api/v1/ads/select.
func (h *AdHandlers) SelectPlacements(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.PageType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageType is required"})
		return
	}
	if len(req.Slots) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one slot is required"})
		return
	}

	var slots []ads.SlotType
	for _, slot := range req.Slots {
		if !ads.IsValidSlotType(slot) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown slot type: " + slot})
			return
		}
		slots = append(slots, ads.SlotType(slot))
	}

	placements := h.adService.SelectPlacements(c.Request.Context(), req.PageType, slots, req.Max)

	c.JSON(http.StatusOK, gin.H{"placements": placements})
}
