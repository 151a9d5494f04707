// Package ads defines the ad placement records managed by administrators
// and the per-request placement decisions produced by the engine.
package ads

import "time"

// SlotType is a named ad creative shape.
type SlotType string

const (
	SlotLeaderboard  SlotType = "leaderboard"
	SlotRectangle    SlotType = "rectangle"
	SlotSkyscraper   SlotType = "skyscraper"
	SlotSquare       SlotType = "square"
	SlotMobileBanner SlotType = "mobile-banner"
)

// SlotDimensions maps each slot shape to its creative pixel size.
var SlotDimensions = map[SlotType][2]int{
	SlotLeaderboard:  {728, 90},
	SlotRectangle:    {300, 250},
	SlotSkyscraper:   {160, 600},
	SlotSquare:       {250, 250},
	SlotMobileBanner: {320, 50},
}

// AllSlotTypes lists every supported slot shape.
var AllSlotTypes = []SlotType{
	SlotLeaderboard, SlotRectangle, SlotSkyscraper, SlotSquare, SlotMobileBanner,
}

// IsValidSlotType reports whether s names a supported slot shape.
func IsValidSlotType(s string) bool {
	_, ok := SlotDimensions[SlotType(s)]
	return ok
}

// Status is the lifecycle state of an ad placement record.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

// AdPlacement is an admin-managed sponsored placement record. It is
// read-only to request-serving code.
type AdPlacement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      Status     `json:"status"`
	Targets     []string   `json:"targets"`
	Priority    int        `json:"priority"`
	StartAt     *time.Time `json:"startAt,omitempty"`
	EndAt       *time.Time `json:"endAt,omitempty"`
	ClickURL    string     `json:"clickUrl"`
	UTMSource   *string    `json:"utmSource,omitempty"`
	UTMCampaign *string    `json:"utmCampaign,omitempty"`
	UTMMedium   *string    `json:"utmMedium,omitempty"`

	// Creatives maps slot shape to creative image URL. Each shape is
	// independently optional.
	Creatives map[SlotType]string `json:"creatives"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TargetsPage reports whether the placement may appear on the given page type.
func (a *AdPlacement) TargetsPage(pageType string) bool {
	for _, t := range a.Targets {
		if t == pageType {
			return true
		}
	}
	return false
}

// CreativeFor returns the creative URL for a slot shape, if one exists.
func (a *AdPlacement) CreativeFor(slot SlotType) (string, bool) {
	url, ok := a.Creatives[slot]
	return url, ok && url != ""
}

// InWindow reports whether now falls within the scheduling window. A missing
// bound is unbounded on that side.
func (a *AdPlacement) InWindow(now time.Time) bool {
	if a.StartAt != nil && now.Before(*a.StartAt) {
		return false
	}
	if a.EndAt != nil && now.After(*a.EndAt) {
		return false
	}
	return true
}

// Eligible reports whether the placement may serve the given page type and
// slot shape at now: active status, inside the scheduling window, page type
// targeted, and a creative present for the slot.
func (a *AdPlacement) Eligible(pageType string, slot SlotType, now time.Time) bool {
	if a.Status != StatusActive {
		return false
	}
	if !a.InWindow(now) {
		return false
	}
	if !a.TargetsPage(pageType) {
		return false
	}
	_, hasCreative := a.CreativeFor(slot)
	return hasCreative
}

// PlacementKind distinguishes internal sponsored placements from the
// fallback network placeholder.
type PlacementKind string

const (
	KindInternal PlacementKind = "internal"
	KindFallback PlacementKind = "fallback"
)

// Placement is the transient per-request decision for one slot. It is never
// persisted; the eligible-ad list behind it is what gets cached.
type Placement struct {
	Kind     PlacementKind `json:"kind"`
	SlotType SlotType      `json:"slotType"`
	AdID     string        `json:"adId,omitempty"`
	Title    string        `json:"title,omitempty"`
	ClickURL string        `json:"clickUrl,omitempty"`
	ImageURL string        `json:"imageUrl,omitempty"`
}

// InternalPlacement builds the decision for serving ad a in slot.
func InternalPlacement(a *AdPlacement, slot SlotType) Placement {
	imageURL, _ := a.CreativeFor(slot)
	return Placement{
		Kind:     KindInternal,
		SlotType: slot,
		AdID:     a.ID,
		Title:    a.Title,
		ClickURL: a.ClickURL,
		ImageURL: imageURL,
	}
}

// FallbackPlacement builds the network-ad placeholder decision for slot.
func FallbackPlacement(slot SlotType) Placement {
	return Placement{Kind: KindFallback, SlotType: slot}
}
