package services

import (
	"fmt"
	"time"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/analytics"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/content"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/flags"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
)

type fakeFlagProvider struct {
	flags map[string]*flags.FeatureFlag
	err   error
	calls int
}

func (f *fakeFlagProvider) GetFlag(key string) (*flags.FeatureFlag, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.flags[key], nil
}

func (f *fakeFlagProvider) GetAllFlags() ([]*flags.FeatureFlag, error) {
	if f.err != nil {
		return nil, f.err
	}
	var all []*flags.FeatureFlag
	for _, flag := range f.flags {
		all = append(all, flag)
	}
	return all, nil
}

func adsFlag(enabled bool, metadata map[string]any) *fakeFlagProvider {
	return &fakeFlagProvider{flags: map[string]*flags.FeatureFlag{
		flags.KeyAds: {Key: flags.KeyAds, Enabled: enabled, Metadata: metadata},
	}}
}

type fakeAdRepo struct {
	eligible []*ads.AdPlacement
	err      error
	calls    int
}

func (f *fakeAdRepo) FindByID(id string) (*ads.AdPlacement, error) {
	for _, a := range f.eligible {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAdRepo) FindAll() ([]*ads.AdPlacement, error) { return f.eligible, f.err }

func (f *fakeAdRepo) FindEligible(pageType string, slotType ads.SlotType, now time.Time) ([]*ads.AdPlacement, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.eligible, nil
}

func (f *fakeAdRepo) Create(placement *ads.AdPlacement) error {
	f.eligible = append(f.eligible, placement)
	return nil
}

func (f *fakeAdRepo) Update(placement *ads.AdPlacement) error { return nil }
func (f *fakeAdRepo) Delete(id string) error                  { return nil }

type fakeViewRepo struct {
	stored    map[string]bool
	events    []*analytics.ViewEvent
	existsErr error
	createErr error
	findErr   error
	findCalls int
}

func newFakeViewRepo() *fakeViewRepo {
	return &fakeViewRepo{stored: make(map[string]bool)}
}

func tripleKey(subjectID, sessionID, viewerID string) string {
	return fmt.Sprintf("%s|%s|%s", subjectID, sessionID, viewerID)
}

func (f *fakeViewRepo) Exists(subjectID, sessionID, viewerID string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.stored[tripleKey(subjectID, sessionID, viewerID)], nil
}

func (f *fakeViewRepo) Create(event *analytics.ViewEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	key := tripleKey(event.SubjectID, event.SessionID, event.ViewerID)
	if f.stored[key] {
		return repositories.ErrDuplicateView
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	f.stored[key] = true
	f.events = append(f.events, event)
	return nil
}

func (f *fakeViewRepo) FindInRange(subjectIDs []string, from, to *time.Time) ([]*analytics.ViewEvent, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.events, nil
}

type fakePostRepo struct {
	published []*content.Post
	all       []*content.Post
	err       error
	calls     int
}

func (f *fakePostRepo) FindPublished() ([]*content.Post, error) {
	f.calls++
	return f.published, f.err
}

func (f *fakePostRepo) FindAll() ([]*content.Post, error) {
	f.calls++
	return f.all, f.err
}
