// Package analytics defines view events and their derived aggregates.
package analytics

import (
	"fmt"
	"time"
)

// SubjectType distinguishes the content kinds a view can attach to.
type SubjectType string

const (
	SubjectPost      SubjectType = "post"
	SubjectChallenge SubjectType = "challenge"
)

// ViewEvent is one recorded page view. The (SubjectID, SessionID, ViewerID)
// triple is unique: at most one event exists per triple, and recording a
// duplicate is a no-op. Events are never updated after creation.
type ViewEvent struct {
	ID          string      `json:"id"`
	SubjectID   string      `json:"subjectId"`
	SubjectType SubjectType `json:"subjectType"`
	SessionID   string      `json:"sessionId"`
	ViewerID    string      `json:"viewerId"`
	IP          string      `json:"ip,omitempty"`
	UserAgent   string      `json:"userAgent,omitempty"`
	Device      string      `json:"device,omitempty"`
	Browser     string      `json:"browser,omitempty"`
	OS          string      `json:"os,omitempty"`
	Country     string      `json:"country,omitempty"`
	City        string      `json:"city,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// AggregatedStats is the derived per-subject rollup. It is re-computable at
// any time from the raw events and is never the source of truth.
type AggregatedStats struct {
	SubjectID string         `json:"subjectId"`
	Total     int            `json:"total"`
	Unique    int            `json:"unique"`
	Sessions  int            `json:"sessions"`
	ByDevice  map[string]int `json:"byDevice"`
	ByCountry map[string]int `json:"byCountry"`
	LastView  time.Time      `json:"lastView"`
}

// Range is a resolved aggregation time range. Live ranges can still receive
// events and get short cache TTLs; closed ranges cannot change.
type Range struct {
	Selector string
	From     *time.Time
	To       *time.Time
	Live     bool
}

const dateLayout = "2006-01-02"

// ParseRange resolves a range selector at the given reference time.
// Supported selectors: "all", "today", "yesterday", "7d", "28d", and
// "custom" with explicit from/to dates. The returned Selector string encodes
// the exact bounds for custom ranges so cache keys never collide.
func ParseRange(selector string, from, to string, now time.Time) (Range, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch selector {
	case "", "all":
		return Range{Selector: "all", Live: true}, nil
	case "today":
		return Range{Selector: "today", From: &today, Live: true}, nil
	case "yesterday":
		yesterday := today.AddDate(0, 0, -1)
		return Range{Selector: "yesterday", From: &yesterday, To: &today, Live: false}, nil
	case "7d":
		start := today.AddDate(0, 0, -7)
		return Range{Selector: "7d", From: &start, Live: true}, nil
	case "28d":
		start := today.AddDate(0, 0, -28)
		return Range{Selector: "28d", From: &start, Live: true}, nil
	case "custom":
		fromTime, err := time.Parse(dateLayout, from)
		if err != nil {
			return Range{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		toTime, err := time.Parse(dateLayout, to)
		if err != nil {
			return Range{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		if toTime.Before(fromTime) {
			return Range{}, fmt.Errorf("range end %s before start %s", to, from)
		}
		// Make the end bound exclusive of the following midnight.
		toExclusive := toTime.AddDate(0, 0, 1)
		r := Range{
			Selector: fmt.Sprintf("custom:%s:%s", fromTime.Format(dateLayout), toTime.Format(dateLayout)),
			From:     &fromTime,
			To:       &toExclusive,
			// A custom range that ends before today cannot receive new events.
			Live: !toExclusive.Before(today.Add(24 * time.Hour)),
		}
		return r, nil
	default:
		return Range{}, fmt.Errorf("unknown range selector %q", selector)
	}
}
