package services

import (
	"context"
	"fmt"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/content"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/caching"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

// Content collections whose cache entries admins may flush.
var invalidatableCollections = map[string]bool{
	"posts": true,
}

// PostService serves the cached post list read paths. The public variant is
// cached for the configured TTL; the preview variant (drafts included) uses
// a zero TTL and recomputes on every request.
type PostService struct {
	posts  repositories.PostRepository
	cache  *caching.Store
	logger *logging.ChanneledLogger
}

// NewPostService creates a new post read service over the shared cache.
func NewPostService(posts repositories.PostRepository, cache *caching.Store, logger *logging.ChanneledLogger) *PostService {
	return &PostService{posts: posts, cache: cache, logger: logger}
}

// GetPublicPosts returns published posts, newest first, from cache when
// fresh.
func (s *PostService) GetPublicPosts(ctx context.Context) ([]*content.Post, error) {
	return caching.GetOrCompute(ctx, s.cache, caching.PostsListKey("public"), config.PostsPublicTTL,
		func(context.Context) ([]*content.Post, error) {
			return s.posts.FindPublished()
		})
}

// GetPreviewPosts returns every post including drafts. Never served stale.
func (s *PostService) GetPreviewPosts(ctx context.Context) ([]*content.Post, error) {
	return caching.GetOrCompute(ctx, s.cache, caching.PostsListKey("preview"), config.PostsPreviewTTL,
		func(context.Context) ([]*content.Post, error) {
			return s.posts.FindAll()
		})
}

// InvalidateCollection flushes every cached entry of one content collection.
// Unknown collection names are an explicit error so a typo in an admin call
// fails loudly instead of silently invalidating nothing.
func (s *PostService) InvalidateCollection(collection string) (int, error) {
	if !invalidatableCollections[collection] {
		return 0, fmt.Errorf("unknown content collection %q", collection)
	}

	removed := s.cache.Invalidate(caching.CollectionPattern(collection))
	if s.logger != nil {
		s.logger.Cache().Info("Content collection invalidated", "collection", collection, "removed", removed)
	}
	return removed, nil
}
