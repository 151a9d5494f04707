// Package repositories defines the persistence contracts consumed by the
// application services. Concrete SQL implementations live under
// internal/infrastructure/persistence.
package repositories

import (
	"errors"
	"time"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/analytics"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/content"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/flags"
)

// ErrDuplicateView is returned by ViewEventRepository.Create when an event
// for the same (subject, session, viewer) triple already exists. Callers
// treat it as "already recorded", not as a failure.
var ErrDuplicateView = errors.New("view event already recorded for triple")

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// AdPlacementRepository provides access to admin-managed ad placements.
type AdPlacementRepository interface {
	FindByID(id string) (*ads.AdPlacement, error)
	FindAll() ([]*ads.AdPlacement, error)
	// FindEligible returns placements satisfying the eligibility invariant
	// for (pageType, slotType) at now, ordered by priority descending.
	FindEligible(pageType string, slotType ads.SlotType, now time.Time) ([]*ads.AdPlacement, error)
	Create(placement *ads.AdPlacement) error
	Update(placement *ads.AdPlacement) error
	Delete(id string) error
}

// FlagProvider resolves feature flags. Implementations may be backed by the
// database, a static JSON file, or a remote config service; the resolver
// logic is identical over all of them.
type FlagProvider interface {
	// GetFlag returns the flag for key, or (nil, nil) when absent.
	GetFlag(key string) (*flags.FeatureFlag, error)
	GetAllFlags() ([]*flags.FeatureFlag, error)
}

// FlagRepository extends FlagProvider with the admin write surface.
type FlagRepository interface {
	FlagProvider
	Upsert(flag *flags.FeatureFlag) error
	Delete(key string) error
}

// ViewEventRepository persists raw view events.
type ViewEventRepository interface {
	// Exists reports whether an event for the exact triple is stored.
	Exists(subjectID, sessionID, viewerID string) (bool, error)
	// Create inserts a new event. Returns ErrDuplicateView when the unique
	// triple constraint rejects the insert.
	Create(event *analytics.ViewEvent) error
	// FindInRange returns events filtered by optional subject ids and an
	// optional [from, to) window, ordered by creation time.
	FindInRange(subjectIDs []string, from, to *time.Time) ([]*analytics.ViewEvent, error)
}

// PostRepository provides read access to posts for the cached list paths.
type PostRepository interface {
	FindPublished() ([]*content.Post, error)
	FindAll() ([]*content.Post, error)
}
