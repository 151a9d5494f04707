package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/caching"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/messaging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

// AdService decides, per request, which placement fills each ad slot on a
// page. Eligible-ad lists are cached per (pageType, slotType) position; the
// per-slot decisions themselves are never cached.
type AdService struct {
	placements  repositories.AdPlacementRepository
	flags       *FlagService
	cache       *caching.Store
	broadcaster *messaging.LiveBroadcaster
	logger      *logging.ChanneledLogger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewAdService creates the placement engine over the shared content cache.
func NewAdService(
	placements repositories.AdPlacementRepository,
	flags *FlagService,
	cache *caching.Store,
	broadcaster *messaging.LiveBroadcaster,
	logger *logging.ChanneledLogger,
) *AdService {
	return &AdService{
		placements:  placements,
		flags:       flags,
		cache:       cache,
		broadcaster: broadcaster,
		logger:      logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
}

// SelectPlacements resolves a placement for every requested slot. When the
// ads flag is off or unresolvable every slot gets the network fallback; when
// a slot is not enabled by flag metadata it is omitted from the result
// entirely and nothing renders there. Repository or cache failures for a
// single slot degrade that slot to fallback, never the whole page.
func (s *AdService) SelectPlacements(ctx context.Context, pageType string, requestedSlots []ads.SlotType, maxOverride *int) map[ads.SlotType]ads.Placement {
	result := make(map[ads.SlotType]ads.Placement, len(requestedSlots))

	plan := s.flags.ResolveAdsPlan(ctx, requestedSlots, maxOverride)
	if !plan.Enabled {
		for _, slot := range requestedSlots {
			placement := ads.FallbackPlacement(slot)
			result[slot] = placement
			s.recordImpression(placement, pageType)
		}
		return result
	}

	now := s.now().UTC()
	internalCount := 0
	for _, slot := range plan.Slots {
		placement := ads.FallbackPlacement(slot)
		if internalCount < plan.MaxPerPage {
			placement = s.selectForSlot(ctx, pageType, slot, plan.Probability, now)
		}
		if placement.Kind == ads.KindInternal {
			internalCount++
		}
		result[slot] = placement
		s.recordImpression(placement, pageType)
	}
	return result
}

// selectForSlot runs the per-slot decision: load (or compute) the cached
// eligible list, roll against the internal-ad probability, and pick
// uniformly among the highest-priority eligible ads.
func (s *AdService) selectForSlot(ctx context.Context, pageType string, slot ads.SlotType, probability float64, now time.Time) ads.Placement {
	key := caching.AdPositionKey(pageType, string(slot))
	eligible, err := caching.GetOrCompute(ctx, s.cache, key, config.AdPositionTTL, func(context.Context) ([]*ads.AdPlacement, error) {
		return s.placements.FindEligible(pageType, slot, now)
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Ads().Warn("Eligible ad lookup failed, serving fallback",
				"pageType", pageType, "slotType", string(slot), "error", err.Error())
		}
		return ads.FallbackPlacement(slot)
	}

	// The cached list can outlive a scheduling window within the TTL, so
	// re-check eligibility at decision time.
	var pool []*ads.AdPlacement
	for _, a := range eligible {
		if a.Eligible(pageType, slot, now) {
			pool = append(pool, a)
		}
	}
	if len(pool) == 0 {
		return ads.FallbackPlacement(slot)
	}

	if s.roll() >= probability {
		return ads.FallbackPlacement(slot)
	}

	pool = topPriority(pool)
	pick := pool[s.pick(len(pool))]
	return ads.InternalPlacement(pick, slot)
}

// InvalidatePositions drops every cached eligible-ad list. Called after
// admin placement writes. Returns the number of entries removed.
func (s *AdService) InvalidatePositions() int {
	removed := s.cache.Invalidate(caching.AdPositionPattern)
	if s.logger != nil {
		s.logger.Ads().Info("Ad position cache invalidated", "removed", removed)
	}
	return removed
}

// NetworkAdID labels fallback (network) impressions so fallback fill shows
// up in the live feed alongside internal serves.
const NetworkAdID = "network"

// recordImpression emits one impression event per emitted placement,
// whichever branch the decision took.
func (s *AdService) recordImpression(placement ads.Placement, pageType string) {
	adID := placement.AdID
	if placement.Kind == ads.KindFallback {
		adID = NetworkAdID
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(messaging.LiveEvent{
			Type:     messaging.EventImpression,
			AdID:     adID,
			SlotType: string(placement.SlotType),
			PageType: pageType,
		})
	}
	if s.logger != nil {
		s.logger.Ads().Debug("Ad impression",
			"adId", adID, "slotType", string(placement.SlotType), "pageType", pageType)
	}
}

func (s *AdService) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *AdService) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// topPriority filters the pool down to the ads sharing the highest priority.
// Ties within that group are broken by uniform random pick.
func topPriority(pool []*ads.AdPlacement) []*ads.AdPlacement {
	best := pool[0].Priority
	for _, a := range pool[1:] {
		if a.Priority > best {
			best = a.Priority
		}
	}
	var top []*ads.AdPlacement
	for _, a := range pool {
		if a.Priority == best {
			top = append(top, a)
		}
	}
	return top
}
