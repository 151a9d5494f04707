package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroomhq/pressroom-go/internal/application/services"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/analytics"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/caching"
)

type stubViewRepo struct {
	events []*analytics.ViewEvent
}

func (s *stubViewRepo) Exists(subjectID, sessionID, viewerID string) (bool, error) {
	return false, nil
}

func (s *stubViewRepo) Create(event *analytics.ViewEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubViewRepo) FindInRange(subjectIDs []string, from, to *time.Time) ([]*analytics.ViewEvent, error) {
	return s.events, nil
}

func TestGetSubjectStatsResponseShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &stubViewRepo{events: []*analytics.ViewEvent{
		{SubjectID: "post-1", SessionID: "s1", ViewerID: "v1", CreatedAt: base},
		{SubjectID: "post-1", SessionID: "s2", ViewerID: "v1", CreatedAt: base.Add(time.Hour)},
		{SubjectID: "post-1", SessionID: "s3", ViewerID: "v2", CreatedAt: base.Add(2 * time.Hour)},
	}}
	analyticsService := services.NewAnalyticsService(repo, caching.NewStore(time.Minute, nil), nil)
	h := NewViewHandlers(nil, analyticsService, nil)

	router := gin.New()
	router.GET("/api/v1/views/:subjectId", h.GetSubjectStats)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/views/post-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "post-1", body["subjectId"])
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["unique"])
	assert.EqualValues(t, 3, body["bySessions"])
	assert.NotContains(t, body, "sessions")
}
