// Package services provides application-level services that orchestrate
// business logic and coordinate between repositories, caching, and domain
// entities.
package services

import (
	"context"
	"time"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/flags"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/caching"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

// FlagService resolves feature flags through a short-lived dedicated cache.
// Resolution is fail-closed: a provider error or a missing flag reads as
// disabled, never as an error surfaced to request handling.
type FlagService struct {
	provider repositories.FlagProvider
	cache    *caching.Store
	ttl      time.Duration
	logger   *logging.ChanneledLogger
}

// NewFlagService creates a flag service over the given provider. Flags get
// their own small cache so an admin-triggered flush of the content cache
// never touches flag freshness, and vice versa.
func NewFlagService(provider repositories.FlagProvider, logger *logging.ChanneledLogger) *FlagService {
	return &FlagService{
		provider: provider,
		cache:    caching.NewStore(config.FlagCacheTTL, logger),
		ttl:      config.FlagCacheTTL,
		logger:   logger,
	}
}

// GetFlag returns the flag for key, consulting the cache first. A missing
// flag is (nil, nil); the nil result is cached like any other so absent keys
// do not hammer the provider.
func (s *FlagService) GetFlag(ctx context.Context, key string) (*flags.FeatureFlag, error) {
	return caching.GetOrCompute(ctx, s.cache, key, s.ttl, func(context.Context) (*flags.FeatureFlag, error) {
		return s.provider.GetFlag(key)
	})
}

// IsEnabled reports whether the flag for key is enabled. Provider errors and
// missing flags both read as false.
func (s *FlagService) IsEnabled(ctx context.Context, key string) bool {
	flag, err := s.GetFlag(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.Content().Warn("Flag resolution failed, treating as disabled", "key", key, "error", err.Error())
		}
		return false
	}
	return flag != nil && flag.Enabled
}

// Invalidate drops every cached flag. Called after admin flag writes so the
// next read observes the change immediately instead of after the TTL.
func (s *FlagService) Invalidate() {
	s.cache.Clear()
}

// AdsPlan is the resolved ad configuration for one page request. When
// Enabled is false every requested slot renders the network fallback.
type AdsPlan struct {
	Enabled     bool
	Slots       []ads.SlotType
	MaxPerPage  int
	Probability float64
}

// ResolveAdsPlan resolves the "ads" flag into a concrete serving plan for
// the requested slots. Slots are kept only when the flag metadata enables
// them; max-per-page precedence is request override, then flag metadata,
// then the configured default, and the internal-ad probability comes from
// flag metadata when present.
func (s *FlagService) ResolveAdsPlan(ctx context.Context, requestedSlots []ads.SlotType, maxOverride *int) AdsPlan {
	flag, err := s.GetFlag(ctx, flags.KeyAds)
	if err != nil {
		if s.logger != nil {
			s.logger.Ads().Warn("Ads flag resolution failed, serving fallbacks only", "error", err.Error())
		}
		return AdsPlan{}
	}
	if flag == nil || !flag.Enabled {
		return AdsPlan{}
	}

	meta := flags.AdsMetadataFrom(flag)

	enabled := make(map[string]bool, len(meta.EnabledSlots))
	for _, slot := range meta.EnabledSlots {
		enabled[slot] = true
	}
	var slots []ads.SlotType
	for _, slot := range requestedSlots {
		if enabled[string(slot)] {
			slots = append(slots, slot)
		}
	}

	maxPerPage := config.MaxAdsPerPage
	if meta.MaxPerPage > 0 {
		maxPerPage = meta.MaxPerPage
	}
	if maxOverride != nil && *maxOverride > 0 {
		maxPerPage = *maxOverride
	}

	probability := config.InternalAdProbability
	if meta.HasProbability {
		probability = clampProbability(meta.InternalAdProbability)
	}

	return AdsPlan{
		Enabled:     true,
		Slots:       slots,
		MaxPerPage:  maxPerPage,
		Probability: probability,
	}
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
