package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/analytics"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/messaging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
)

// ViewService records view events. Recording is best-effort past input
// validation: storage failures are logged and swallowed so a broken
// analytics path can never break page rendering for visitors.
type ViewService struct {
	views       repositories.ViewEventRepository
	broadcaster *messaging.LiveBroadcaster
	logger      *logging.ChanneledLogger
}

// NewViewService creates a new view recording service.
func NewViewService(views repositories.ViewEventRepository, broadcaster *messaging.LiveBroadcaster, logger *logging.ChanneledLogger) *ViewService {
	return &ViewService{views: views, broadcaster: broadcaster, logger: logger}
}

// ViewInput carries one incoming view beacon. Exactly one of PostID and
// ChallengeID must be set; SessionID is derived from IP and user agent when
// the client sends none.
type ViewInput struct {
	PostID      string
	ChallengeID string
	ViewerID    string
	SessionID   string
	IP          string
	UserAgent   string
	Country     string
	City        string
}

// RecordView validates and stores a view event. At most one event exists per
// (subject, session, viewer) triple; repeats are silent no-ops. The returned
// error is non-nil only for invalid input.
func (s *ViewService) RecordView(input ViewInput) error {
	subjectID, subjectType, err := resolveSubject(input)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(input.ViewerID); err != nil {
		return fmt.Errorf("invalid viewer id %q", input.ViewerID)
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = deriveSessionID(input.IP, input.UserAgent)
	}

	exists, err := s.views.Exists(subjectID, sessionID, input.ViewerID)
	if err != nil {
		s.logRecordingFailure(subjectID, err)
		return nil
	}
	if exists {
		return nil
	}

	device, browser, osName := parseClient(input.UserAgent)
	event := &analytics.ViewEvent{
		SubjectID:   subjectID,
		SubjectType: subjectType,
		SessionID:   sessionID,
		ViewerID:    input.ViewerID,
		IP:          input.IP,
		UserAgent:   input.UserAgent,
		Device:      device,
		Browser:     browser,
		OS:          osName,
		Country:     input.Country,
		City:        input.City,
	}

	if err := s.views.Create(event); err != nil {
		// A concurrent beacon winning the insert race is still "recorded".
		if !errors.Is(err, repositories.ErrDuplicateView) {
			s.logRecordingFailure(subjectID, err)
		}
		return nil
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(messaging.LiveEvent{
			Type:      messaging.EventView,
			SubjectID: subjectID,
			Timestamp: event.CreatedAt,
		})
	}
	return nil
}

func (s *ViewService) logRecordingFailure(subjectID string, err error) {
	if s.logger != nil {
		s.logger.Analytics().Error("View recording failed", "subjectId", subjectID, "error", err.Error())
	}
}

func resolveSubject(input ViewInput) (string, analytics.SubjectType, error) {
	switch {
	case input.PostID != "" && input.ChallengeID != "":
		return "", "", fmt.Errorf("postId and challengeId are mutually exclusive")
	case input.PostID != "":
		return input.PostID, analytics.SubjectPost, nil
	case input.ChallengeID != "":
		return input.ChallengeID, analytics.SubjectChallenge, nil
	default:
		return "", "", fmt.Errorf("either postId or challengeId is required")
	}
}

// deriveSessionID builds a stable anonymous session key for clients that
// send no session cookie. Same IP and user agent collapse to one session.
func deriveSessionID(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

// parseClient classifies a user agent into coarse device, browser, and OS
// buckets. Substring matching only; anything unrecognized lands in "other".
func parseClient(userAgent string) (device, browser, osName string) {
	device, browser, osName = "desktop", "other", "other"
	if userAgent == "" {
		device = "other"
		return
	}

	switch {
	case strings.Contains(userAgent, "iPad") || strings.Contains(userAgent, "Tablet"):
		device = "tablet"
	case strings.Contains(userAgent, "Mobile") || strings.Contains(userAgent, "iPhone") ||
		strings.Contains(userAgent, "Android"):
		device = "mobile"
	}

	// Order matters: Chromium-family agents also claim Safari.
	switch {
	case strings.Contains(userAgent, "Edg/") || strings.Contains(userAgent, "Edge/"):
		browser = "edge"
	case strings.Contains(userAgent, "OPR/") || strings.Contains(userAgent, "Opera"):
		browser = "opera"
	case strings.Contains(userAgent, "Firefox/"):
		browser = "firefox"
	case strings.Contains(userAgent, "Chrome/") || strings.Contains(userAgent, "CriOS/"):
		browser = "chrome"
	case strings.Contains(userAgent, "Safari/"):
		browser = "safari"
	}

	switch {
	case strings.Contains(userAgent, "iPhone") || strings.Contains(userAgent, "iPad"):
		osName = "ios"
	case strings.Contains(userAgent, "Android"):
		osName = "android"
	case strings.Contains(userAgent, "Windows"):
		osName = "windows"
	case strings.Contains(userAgent, "Mac OS X"):
		osName = "macos"
	case strings.Contains(userAgent, "Linux"):
		osName = "linux"
	}
	return
}
