package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/caching"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/messaging"
)

func activePlacement(id string, priority int, slots ...ads.SlotType) *ads.AdPlacement {
	creatives := make(map[ads.SlotType]string, len(slots))
	for _, slot := range slots {
		creatives[slot] = "/media/creatives/" + id + "/" + string(slot) + ".webp"
	}
	return &ads.AdPlacement{
		ID:        id,
		Title:     "Placement " + id,
		Status:    ads.StatusActive,
		Targets:   []string{"post"},
		Priority:  priority,
		ClickURL:  "https://example.com/" + id,
		Creatives: creatives,
	}
}

func newTestAdService(repo *fakeAdRepo, provider *fakeFlagProvider, seed int64) *AdService {
	flagSvc := NewFlagService(provider, nil)
	cache := caching.NewStore(time.Minute, nil)
	svc := NewAdService(repo, flagSvc, cache, nil, nil)
	svc.rng = rand.New(rand.NewSource(seed))
	return svc
}

func TestSelectPlacementsFlagDisabledServesFallbacks(t *testing.T) {
	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{activePlacement("ad1", 0, ads.SlotLeaderboard)}}
	svc := newTestAdService(repo, adsFlag(false, nil), 1)

	requested := []ads.SlotType{ads.SlotLeaderboard, ads.SlotRectangle}
	result := svc.SelectPlacements(context.Background(), "post", requested, nil)

	require.Len(t, result, 2)
	for _, slot := range requested {
		assert.Equal(t, ads.KindFallback, result[slot].Kind)
	}
	assert.Zero(t, repo.calls, "disabled flag must not hit the repository")
}

func TestSelectPlacementsProviderErrorServesFallbacks(t *testing.T) {
	repo := &fakeAdRepo{}
	svc := newTestAdService(repo, &fakeFlagProvider{err: errors.New("provider down")}, 1)

	result := svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)

	require.Len(t, result, 1)
	assert.Equal(t, ads.KindFallback, result[ads.SlotLeaderboard].Kind)
}

func TestSelectPlacementsDisabledSlotOmitted(t *testing.T) {
	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{activePlacement("ad1", 0, ads.SlotLeaderboard)}}
	svc := newTestAdService(repo, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard"},
		"internalAdProbability": 1.0,
	}), 1)

	result := svc.SelectPlacements(context.Background(), "post",
		[]ads.SlotType{ads.SlotLeaderboard, ads.SlotSkyscraper}, nil)

	require.Len(t, result, 1)
	assert.Contains(t, result, ads.SlotLeaderboard)
	assert.NotContains(t, result, ads.SlotSkyscraper)
}

func TestSelectPlacementsAlwaysInternalAtProbabilityOne(t *testing.T) {
	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{activePlacement("ad1", 0, ads.SlotLeaderboard)}}
	svc := newTestAdService(repo, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard"},
		"internalAdProbability": 1.0,
	}), 7)

	for i := 0; i < 100; i++ {
		result := svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)
		placement := result[ads.SlotLeaderboard]
		require.Equal(t, ads.KindInternal, placement.Kind, "trial %d", i)
		assert.Equal(t, "ad1", placement.AdID)
		assert.NotEmpty(t, placement.ImageURL)
	}
}

func TestSelectPlacementsProbabilitySplit(t *testing.T) {
	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{activePlacement("ad1", 0, ads.SlotLeaderboard)}}
	svc := newTestAdService(repo, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard"},
		"internalAdProbability": 0.7,
	}), 42)

	const trials = 10000
	internal := 0
	for i := 0; i < trials; i++ {
		result := svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)
		if result[ads.SlotLeaderboard].Kind == ads.KindInternal {
			internal++
		}
	}

	assert.InDelta(t, 0.7, float64(internal)/trials, 0.03)
}

func TestSelectPlacementsUniformPickAmongEqualPriority(t *testing.T) {
	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{
		activePlacement("ad1", 0, ads.SlotLeaderboard),
		activePlacement("ad2", 0, ads.SlotLeaderboard),
		activePlacement("ad3", 0, ads.SlotLeaderboard),
	}}
	svc := newTestAdService(repo, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard"},
		"internalAdProbability": 1.0,
	}), 99)

	const trials = 6000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		result := svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)
		counts[result[ads.SlotLeaderboard].AdID]++
	}

	require.Len(t, counts, 3)
	for id, n := range counts {
		assert.InDelta(t, 1.0/3, float64(n)/trials, 0.05, "ad %s", id)
	}
}

func TestSelectPlacementsHigherPriorityWins(t *testing.T) {
	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{
		activePlacement("low", 1, ads.SlotLeaderboard),
		activePlacement("high", 10, ads.SlotLeaderboard),
	}}
	svc := newTestAdService(repo, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard"},
		"internalAdProbability": 1.0,
	}), 5)

	for i := 0; i < 50; i++ {
		result := svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)
		assert.Equal(t, "high", result[ads.SlotLeaderboard].AdID)
	}
}

func TestSelectPlacementsRepositoryErrorDegradesToFallback(t *testing.T) {
	repo := &fakeAdRepo{err: errors.New("db down")}
	svc := newTestAdService(repo, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard"},
		"internalAdProbability": 1.0,
	}), 1)

	result := svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)

	require.Len(t, result, 1)
	assert.Equal(t, ads.KindFallback, result[ads.SlotLeaderboard].Kind)
}

func TestSelectPlacementsNoEligibleAdsFallsBack(t *testing.T) {
	svc := newTestAdService(&fakeAdRepo{}, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard"},
		"internalAdProbability": 1.0,
	}), 1)

	result := svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)
	assert.Equal(t, ads.KindFallback, result[ads.SlotLeaderboard].Kind)
}

func TestSelectPlacementsMaxPerPageCapsInternalAds(t *testing.T) {
	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{
		activePlacement("ad1", 0, ads.SlotLeaderboard, ads.SlotRectangle),
	}}
	svc := newTestAdService(repo, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard", "rectangle"},
		"internalAdProbability": 1.0,
		"maxPerPage":            float64(1),
	}), 1)

	result := svc.SelectPlacements(context.Background(), "post",
		[]ads.SlotType{ads.SlotLeaderboard, ads.SlotRectangle}, nil)

	internal := 0
	for _, placement := range result {
		if placement.Kind == ads.KindInternal {
			internal++
		}
	}
	assert.Equal(t, 1, internal)
	assert.Len(t, result, 2)
}

func TestSelectPlacementsExpiredWindowRecheckedAgainstCache(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	expired := activePlacement("old", 0, ads.SlotLeaderboard)
	expired.EndAt = &past

	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{expired}}
	svc := newTestAdService(repo, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard"},
		"internalAdProbability": 1.0,
	}), 1)

	result := svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)
	assert.Equal(t, ads.KindFallback, result[ads.SlotLeaderboard].Kind)
}

// liveFeedClient wires a real broadcaster into an ad service and returns the
// client channel the impression events land on.
func liveFeedClient(t *testing.T, ctx context.Context) (*messaging.LiveBroadcaster, *messaging.LiveClient) {
	t.Helper()
	broadcaster := messaging.NewLiveBroadcaster(nil)
	go broadcaster.Run(ctx)

	client := &messaging.LiveClient{Send: make(chan []byte, 16)}
	broadcaster.Register(client)
	return broadcaster, client
}

// collectImpressions reads n impression events off the client channel and
// returns them keyed by slot type.
func collectImpressions(t *testing.T, client *messaging.LiveClient, n int) map[string]string {
	t.Helper()
	got := make(map[string]string, n)
	for i := 0; i < n; i++ {
		select {
		case payload := <-client.Send:
			var event messaging.LiveEvent
			require.NoError(t, json.Unmarshal(payload, &event))
			require.Equal(t, messaging.EventImpression, event.Type)
			got[event.SlotType] = event.AdID
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for impression %d of %d", i+1, n)
		}
	}
	return got
}

func TestSelectPlacementsEmitsImpressionForBothBranches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broadcaster, client := liveFeedClient(t, ctx)

	// The ad only carries a leaderboard creative, so the rectangle slot has
	// an empty pool and falls back even at probability 1.
	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{activePlacement("ad1", 0, ads.SlotLeaderboard)}}
	flagSvc := NewFlagService(adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard", "rectangle"},
		"internalAdProbability": 1.0,
	}), nil)
	svc := NewAdService(repo, flagSvc, caching.NewStore(time.Minute, nil), broadcaster, nil)
	svc.rng = rand.New(rand.NewSource(3))

	result := svc.SelectPlacements(ctx, "post",
		[]ads.SlotType{ads.SlotLeaderboard, ads.SlotRectangle}, nil)
	require.Equal(t, ads.KindInternal, result[ads.SlotLeaderboard].Kind)
	require.Equal(t, ads.KindFallback, result[ads.SlotRectangle].Kind)

	impressions := collectImpressions(t, client, 2)
	assert.Equal(t, "ad1", impressions[string(ads.SlotLeaderboard)])
	assert.Equal(t, NetworkAdID, impressions[string(ads.SlotRectangle)])
}

func TestSelectPlacementsFlagOffStillEmitsImpressions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broadcaster, client := liveFeedClient(t, ctx)

	flagSvc := NewFlagService(adsFlag(false, nil), nil)
	svc := NewAdService(&fakeAdRepo{}, flagSvc, caching.NewStore(time.Minute, nil), broadcaster, nil)
	svc.rng = rand.New(rand.NewSource(3))

	result := svc.SelectPlacements(ctx, "post", []ads.SlotType{ads.SlotSquare}, nil)
	require.Equal(t, ads.KindFallback, result[ads.SlotSquare].Kind)

	impressions := collectImpressions(t, client, 1)
	assert.Equal(t, NetworkAdID, impressions[string(ads.SlotSquare)])
}

func TestSelectPlacementsCachesEligibleListPerPosition(t *testing.T) {
	repo := &fakeAdRepo{eligible: []*ads.AdPlacement{activePlacement("ad1", 0, ads.SlotLeaderboard)}}
	svc := newTestAdService(repo, adsFlag(true, map[string]any{
		"enabledSlots":          []any{"leaderboard"},
		"internalAdProbability": 1.0,
	}), 1)

	for i := 0; i < 10; i++ {
		svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)
	}
	assert.Equal(t, 1, repo.calls)

	svc.InvalidatePositions()
	svc.SelectPlacements(context.Background(), "post", []ads.SlotType{ads.SlotLeaderboard}, nil)
	assert.Equal(t, 2, repo.calls)
}
