package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressroomhq/pressroom-go/internal/application/services"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
)

// PostHandlers contains the post list handlers.
type PostHandlers struct {
	postService *services.PostService
	logger      *logging.ChanneledLogger
}

// NewPostHandlers creates post handlers with injected dependencies.
func NewPostHandlers(postService *services.PostService, logger *logging.ChanneledLogger) *PostHandlers {
	return &PostHandlers{postService: postService, logger: logger}
}

// GetPublicPosts handles GET /api/v1/posts.
func (h *PostHandlers) GetPublicPosts(c *gin.Context) {
	posts, err := h.postService.GetPublicPosts(c.Request.Context())
	if err != nil {
		if h.logger != nil {
			h.logger.Content().Error("Public post list failed", "error", err.Error())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPreviewPosts handles GET /api/v1/admin/posts. Drafts included, never
// served from cache.
func (h *PostHandlers) GetPreviewPosts(c *gin.Context) {
	posts, err := h.postService.GetPreviewPosts(c.Request.Context())
	if err != nil {
		if h.logger != nil {
			h.logger.Content().Error("Preview post list failed", "error", err.Error())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
