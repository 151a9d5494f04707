package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/analytics"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/caching"
)

func viewEvent(subjectID, sessionID, viewerID, device, country string, at time.Time) *analytics.ViewEvent {
	return &analytics.ViewEvent{
		SubjectID:   subjectID,
		SubjectType: analytics.SubjectPost,
		SessionID:   sessionID,
		ViewerID:    viewerID,
		Device:      device,
		Country:     country,
		CreatedAt:   at,
	}
}

func TestAggregateCountsTotalUniqueAndSessions(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeViewRepo()
	repo.events = []*analytics.ViewEvent{
		// viewer-a sees the post in two sessions, viewer-b once.
		viewEvent("post-1", "s1", "viewer-a", "desktop", "DE", base),
		viewEvent("post-1", "s2", "viewer-a", "mobile", "DE", base.Add(time.Hour)),
		viewEvent("post-1", "s3", "viewer-b", "desktop", "US", base.Add(2*time.Hour)),
		viewEvent("post-2", "s1", "viewer-a", "desktop", "DE", base),
	}

	svc := NewAnalyticsService(repo, caching.NewStore(time.Minute, nil), nil)
	stats, err := svc.Aggregate(context.Background(), nil, analytics.Range{Selector: "all", Live: true})
	require.NoError(t, err)
	require.Len(t, stats, 2)

	post1 := stats["post-1"]
	require.NotNil(t, post1)
	assert.Equal(t, 3, post1.Total)
	assert.Equal(t, 2, post1.Unique)
	assert.Equal(t, 3, post1.Sessions)
	assert.Equal(t, map[string]int{"desktop": 2, "mobile": 1}, post1.ByDevice)
	assert.Equal(t, map[string]int{"DE": 2, "US": 1}, post1.ByCountry)
	assert.Equal(t, base.Add(2*time.Hour), post1.LastView)

	post2 := stats["post-2"]
	require.NotNil(t, post2)
	assert.Equal(t, 1, post2.Total)
	assert.Equal(t, 1, post2.Unique)
	assert.Equal(t, 1, post2.Sessions)
}

func TestAggregateFrequencyMapsSumToTotal(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakeViewRepo()
	repo.events = []*analytics.ViewEvent{
		viewEvent("post-1", "s1", "v1", "desktop", "DE", base),
		viewEvent("post-1", "s2", "v2", "", "", base),
		viewEvent("post-1", "s3", "v3", "tablet", "FR", base),
	}

	svc := NewAnalyticsService(repo, caching.NewStore(time.Minute, nil), nil)
	stats, err := svc.Aggregate(context.Background(), nil, analytics.Range{Selector: "all", Live: true})
	require.NoError(t, err)

	post1 := stats["post-1"]
	deviceSum, countrySum := 0, 0
	for _, n := range post1.ByDevice {
		deviceSum += n
	}
	for _, n := range post1.ByCountry {
		countrySum += n
	}
	assert.Equal(t, post1.Total, deviceSum)
	assert.Equal(t, post1.Total, countrySum)
	assert.Equal(t, 1, post1.ByDevice["unknown"])
	assert.Equal(t, 1, post1.ByCountry["unknown"])
}

func TestAggregateCachesPerRange(t *testing.T) {
	repo := newFakeViewRepo()
	repo.events = []*analytics.ViewEvent{
		viewEvent("post-1", "s1", "v1", "desktop", "DE", time.Now().UTC()),
	}
	svc := NewAnalyticsService(repo, caching.NewStore(time.Minute, nil), nil)
	ctx := context.Background()

	all := analytics.Range{Selector: "all", Live: true}
	_, err := svc.Aggregate(ctx, nil, all)
	require.NoError(t, err)
	_, err = svc.Aggregate(ctx, nil, all)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.findCalls, "repeat of the same range must hit the cache")

	sevenDays := analytics.Range{Selector: "7d", Live: true}
	_, err = svc.Aggregate(ctx, nil, sevenDays)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.findCalls, "a different range is a distinct cache entry")
}

func TestAggregateSubjectFilterGetsOwnCacheEntry(t *testing.T) {
	repo := newFakeViewRepo()
	svc := NewAnalyticsService(repo, caching.NewStore(time.Minute, nil), nil)
	ctx := context.Background()
	all := analytics.Range{Selector: "all", Live: true}

	_, err := svc.Aggregate(ctx, nil, all)
	require.NoError(t, err)
	_, err = svc.Aggregate(ctx, []string{"post-1"}, all)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.findCalls)
}

func TestGetSubjectStatsZeroForUnknownSubject(t *testing.T) {
	svc := NewAnalyticsService(newFakeViewRepo(), caching.NewStore(time.Minute, nil), nil)

	stats, err := svc.GetSubjectStats(context.Background(), "post-nobody-read")
	require.NoError(t, err)

	assert.Equal(t, "post-nobody-read", stats.SubjectID)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Unique)
	assert.Zero(t, stats.Sessions)
	assert.NotNil(t, stats.ByDevice)
	assert.NotNil(t, stats.ByCountry)
}

func TestAggregationSelectorEncoding(t *testing.T) {
	all := analytics.Range{Selector: "all"}

	assert.Equal(t, "all", aggregationSelector(nil, all))
	assert.Equal(t, "all:post-1", aggregationSelector([]string{"post-1"}, all))
	// Subject order must not change the cache key.
	assert.Equal(t,
		aggregationSelector([]string{"b", "a"}, all),
		aggregationSelector([]string{"a", "b"}, all))
}
