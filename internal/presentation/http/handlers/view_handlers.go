// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressroomhq/pressroom-go/internal/application/services"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
)

// ViewHandlers contains the view beacon and per-subject stats handlers.
type ViewHandlers struct {
	viewService      *services.ViewService
	analyticsService *services.AnalyticsService
	logger           *logging.ChanneledLogger
}

// NewViewHandlers creates view handlers with injected dependencies.
func NewViewHandlers(viewService *services.ViewService, analyticsService *services.AnalyticsService, logger *logging.ChanneledLogger) *ViewHandlers {
	return &ViewHandlers{
		viewService:      viewService,
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// ViewRequest is the incoming view beacon payload.
type ViewRequest struct {
	PostID      string `json:"postId,omitempty"`
	ChallengeID string `json:"challengeId,omitempty"`
	ViewerID    string `json:"viewerId"`
	SessionID   string `json:"sessionId,omitempty"`
}

// RecordView handles POST /api/v1/views. Responds 204 whenever the input is
// valid, whether or not the event was actually stored.
func (h *ViewHandlers) RecordView(c *gin.Context) {
	var req ViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.ViewerID == "" {
		req.ViewerID = c.GetHeader("X-Pressroom-Viewer-ID")
	}
	if req.SessionID == "" {
		req.SessionID = c.GetHeader("X-Pressroom-Session-ID")
	}

	input := services.ViewInput{
		PostID:      req.PostID,
		ChallengeID: req.ChallengeID,
		ViewerID:    req.ViewerID,
		SessionID:   req.SessionID,
		IP:          c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
		Country:     geoHeader(c, "CF-IPCountry", "X-Geo-Country"),
		City:        geoHeader(c, "CF-IPCity", "X-Geo-City"),
	}

	if err := h.viewService.RecordView(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSubjectStats handles GET /api/v1/views/:subjectId.
func (h *ViewHandlers) GetSubjectStats(c *gin.Context) {
	subjectID := c.Param("subjectId")
	if subjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject id is required"})
		return
	}

	stats, err := h.analyticsService.GetSubjectStats(c.Request.Context(), subjectID)
	if err != nil {
		if h.logger != nil {
			h.logger.Analytics().Error("Subject stats lookup failed", "subjectId", subjectID, "error", err.Error())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subjectId":  stats.SubjectID,
		"total":      stats.Total,
		"unique":     stats.Unique,
		"bySessions": stats.Sessions,
	})
}

func geoHeader(c *gin.Context, names ...string) string {
	for _, name := range names {
		if value := c.GetHeader(name); value != "" {
			return value
		}
	}
	return ""
}
