package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/analytics"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/caching"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

// AnalyticsService computes per-subject view rollups from the raw event
// stream. Aggregations are cached per resolved range; live ranges (ones that
// can still receive events) get a short TTL, closed ranges a long one.
type AnalyticsService struct {
	views  repositories.ViewEventRepository
	cache  *caching.Store
	logger *logging.ChanneledLogger
}

// NewAnalyticsService creates a new aggregation service over the shared
// content cache.
func NewAnalyticsService(views repositories.ViewEventRepository, cache *caching.Store, logger *logging.ChanneledLogger) *AnalyticsService {
	return &AnalyticsService{views: views, cache: cache, logger: logger}
}

// Aggregate returns per-subject stats for the given range, optionally
// restricted to specific subject ids. Results come from cache when the same
// range (and subject filter) was aggregated within its TTL.
func (s *AnalyticsService) Aggregate(ctx context.Context, subjectIDs []string, r analytics.Range) (map[string]*analytics.AggregatedStats, error) {
	ttl := config.AnalyticsPastTTL
	if r.Live {
		ttl = config.AnalyticsLiveTTL
	}

	key := caching.AnalyticsKey(aggregationSelector(subjectIDs, r))
	start := time.Now()
	stats, err := caching.GetOrCompute(ctx, s.cache, key, ttl, func(context.Context) (map[string]*analytics.AggregatedStats, error) {
		events, err := s.views.FindInRange(subjectIDs, r.From, r.To)
		if err != nil {
			return nil, fmt.Errorf("failed to load view events: %w", err)
		}
		return aggregateEvents(events), nil
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Analytics().Debug("Aggregation served",
			"range", r.Selector, "subjects", len(stats), "duration", time.Since(start).String())
	}
	return stats, nil
}

// GetSubjectStats returns the all-time rollup for one subject. Subjects with
// no recorded views get zeroed stats rather than an error.
func (s *AnalyticsService) GetSubjectStats(ctx context.Context, subjectID string) (*analytics.AggregatedStats, error) {
	r := analytics.Range{Selector: "all", Live: true}
	stats, err := s.Aggregate(ctx, []string{subjectID}, r)
	if err != nil {
		return nil, err
	}
	if found, ok := stats[subjectID]; ok {
		return found, nil
	}
	return &analytics.AggregatedStats{
		SubjectID: subjectID,
		ByDevice:  map[string]int{},
		ByCountry: map[string]int{},
	}, nil
}

// aggregationSelector extends a range selector with the subject filter so
// filtered and unfiltered aggregations never share a cache entry.
func aggregationSelector(subjectIDs []string, r analytics.Range) string {
	if len(subjectIDs) == 0 {
		return r.Selector
	}
	ids := append([]string(nil), subjectIDs...)
	sort.Strings(ids)
	return r.Selector + ":" + strings.Join(ids, ",")
}

// aggregateEvents folds raw events into per-subject stats. Total counts
// every event, Unique counts distinct viewers, Sessions distinct sessions;
// the frequency maps each sum to Total.
func aggregateEvents(events []*analytics.ViewEvent) map[string]*analytics.AggregatedStats {
	stats := make(map[string]*analytics.AggregatedStats)
	viewers := make(map[string]map[string]bool)
	sessions := make(map[string]map[string]bool)

	for _, event := range events {
		agg, ok := stats[event.SubjectID]
		if !ok {
			agg = &analytics.AggregatedStats{
				SubjectID: event.SubjectID,
				ByDevice:  map[string]int{},
				ByCountry: map[string]int{},
			}
			stats[event.SubjectID] = agg
			viewers[event.SubjectID] = make(map[string]bool)
			sessions[event.SubjectID] = make(map[string]bool)
		}

		agg.Total++
		if !viewers[event.SubjectID][event.ViewerID] {
			viewers[event.SubjectID][event.ViewerID] = true
			agg.Unique++
		}
		if !sessions[event.SubjectID][event.SessionID] {
			sessions[event.SubjectID][event.SessionID] = true
			agg.Sessions++
		}

		agg.ByDevice[bucketOrUnknown(event.Device)]++
		agg.ByCountry[bucketOrUnknown(event.Country)]++

		if event.CreatedAt.After(agg.LastView) {
			agg.LastView = event.CreatedAt
		}
	}
	return stats
}

func bucketOrUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
