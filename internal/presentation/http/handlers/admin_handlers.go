package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pressroomhq/pressroom-go/internal/application/services"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/analytics"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/flags"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/caching"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
)

// AdminHandlers contains the authenticated admin API handlers.
type AdminHandlers struct {
	adminService     *services.AdminService
	analyticsService *services.AnalyticsService
	postService      *services.PostService
	adService        *services.AdService
	flagService      *services.FlagService
	cache            *caching.Store
	logger           *logging.ChanneledLogger
}

// NewAdminHandlers creates admin handlers with injected dependencies.
func NewAdminHandlers(
	adminService *services.AdminService,
	analyticsService *services.AnalyticsService,
	postService *services.PostService,
	adService *services.AdService,
	flagService *services.FlagService,
	cache *caching.Store,
	logger *logging.ChanneledLogger,
) *AdminHandlers {
	return &AdminHandlers{
		adminService:     adminService,
		analyticsService: analyticsService,
		postService:      postService,
		adService:        adService,
		flagService:      flagService,
		cache:            cache,
		logger:           logger,
	}
}

// PlacementRequest is the admin payload for creating or updating an ad
// placement. Creatives maps slot shape to a base64 image upload.
type PlacementRequest struct {
	Title       string            `json:"title"`
	Status      string            `json:"status,omitempty"`
	Targets     []string          `json:"targets,omitempty"`
	Priority    int               `json:"priority,omitempty"`
	StartAt     *time.Time        `json:"startAt,omitempty"`
	EndAt       *time.Time        `json:"endAt,omitempty"`
	ClickURL    string            `json:"clickUrl"`
	UTMSource   *string           `json:"utmSource,omitempty"`
	UTMCampaign *string           `json:"utmCampaign,omitempty"`
	UTMMedium   *string           `json:"utmMedium,omitempty"`
	Creatives   map[string]string `json:"creatives,omitempty"`
}

func (req *PlacementRequest) toPlacement(id string) *ads.AdPlacement {
	return &ads.AdPlacement{
		ID:          id,
		Title:       req.Title,
		Status:      ads.Status(req.Status),
		Targets:     req.Targets,
		Priority:    req.Priority,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		ClickURL:    req.ClickURL,
		UTMSource:   req.UTMSource,
		UTMCampaign: req.UTMCampaign,
		UTMMedium:   req.UTMMedium,
	}
}

func (req *PlacementRequest) uploads() (map[ads.SlotType]string, error) {
	if len(req.Creatives) == 0 {
		return nil, nil
	}
	uploads := make(map[ads.SlotType]string, len(req.Creatives))
	for slot, data := range req.Creatives {
		if !ads.IsValidSlotType(slot) {
			return nil, errors.New("unknown slot type: " + slot)
		}
		uploads[ads.SlotType(slot)] = data
	}
	return uploads, nil
}

// ListPlacements handles GET /api/v1/admin/ads.
func (h *AdminHandlers) ListPlacements(c *gin.Context) {
	placements, err := h.adminService.ListPlacements()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load placements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"placements": placements})
}

// GetPlacement handles GET /api/v1/admin/ads/:id.
func (h *AdminHandlers) GetPlacement(c *gin.Context) {
	placement, err := h.adminService.GetPlacement(c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "placement not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load placement"})
		return
	}
	c.JSON(http.StatusOK, placement)
}

// CreatePlacement handles POST /api/v1/admin/ads.
func (h *AdminHandlers) CreatePlacement(c *gin.Context) {
	var req PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	uploads, err := req.uploads()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	placement, err := h.adminService.CreatePlacement(req.toPlacement(""), uploads)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, placement)
}

// UpdatePlacement handles PUT /api/v1/admin/ads/:id.
func (h *AdminHandlers) UpdatePlacement(c *gin.Context) {
	var req PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	uploads, err := req.uploads()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	placement, err := h.adminService.UpdatePlacement(req.toPlacement(c.Param("id")), uploads)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "placement not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, placement)
}

// DeletePlacement handles DELETE /api/v1/admin/ads/:id.
func (h *AdminHandlers) DeletePlacement(c *gin.Context) {
	if err := h.adminService.DeletePlacement(c.Param("id")); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "placement not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete placement"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFlags handles GET /api/v1/admin/flags.
func (h *AdminHandlers) ListFlags(c *gin.Context) {
	allFlags, err := h.adminService.ListFlags()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load flags"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flags": allFlags})
}

// UpsertFlag handles PUT /api/v1/admin/flags/:key.
func (h *AdminHandlers) UpsertFlag(c *gin.Context) {
	var flag flags.FeatureFlag
	if err := c.ShouldBindJSON(&flag); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	flag.Key = c.Param("key")

	if err := h.adminService.UpsertFlag(&flag); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flag)
}

// DeleteFlag handles DELETE /api/v1/admin/flags/:key.
func (h *AdminHandlers) DeleteFlag(c *gin.Context) {
	if err := h.adminService.DeleteFlag(c.Param("key")); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "flag not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete flag"})
		return
	}
	c.Status(http.StatusNoContent)
}

// InvalidateRequest names the cache scope to flush. Scope "content" flushes
// one collection; the other scopes flush their whole namespace.
type InvalidateRequest struct {
	Scope      string `json:"scope"`
	Collection string `json:"collection,omitempty"`
}

// InvalidateCache handles POST /api/v1/admin/cache/invalidate.
func (h *AdminHandlers) InvalidateCache(c *gin.Context) {
	var req InvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var removed int
	switch req.Scope {
	case "content":
		n, err := h.postService.InvalidateCollection(req.Collection)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		removed = n
	case "ads":
		removed = h.adService.InvalidatePositions()
	case "analytics":
		removed = h.cache.Invalidate(caching.AnalyticsPattern)
	case "flags":
		h.flagService.Invalidate()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown cache scope: " + req.Scope})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scope": req.Scope, "removed": removed})
}

// DebugCache handles GET /api/v1/admin/cache/debug.
func (h *AdminHandlers) DebugCache(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.DebugInfo())
}

// GetAnalytics handles GET /api/v1/admin/analytics.
func (h *AdminHandlers) GetAnalytics(c *gin.Context) {
	r, err := analytics.ParseRange(c.Query("range"), c.Query("from"), c.Query("to"), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var subjectIDs []string
	if raw := c.Query("subjects"); raw != "" {
		subjectIDs = strings.Split(raw, ",")
	}

	stats, err := h.analyticsService.Aggregate(c.Request.Context(), subjectIDs, r)
	if err != nil {
		if h.logger != nil {
			h.logger.Analytics().Error("Aggregation failed", "range", r.Selector, "error", err.Error())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"range": r.Selector, "live": r.Live, "stats": stats})
}
