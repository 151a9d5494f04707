// Package analytics provides the concrete SQL-based implementation for view
// event persistence.
//
// PURPOSE: store raw view events as they happen; aggregation reads them back
// in bulk. Events are insert-only. The unique triple index makes duplicate
// recording a detectable conflict rather than a second row.
package analytics

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/analytics"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/persistence/database"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/security"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

var _ repositories.ViewEventRepository = (*SQLViewRepository)(nil)

// SQLViewRepository handles view event persistence to the database.
type SQLViewRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLViewRepository creates a new instance of the repository.
func NewSQLViewRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLViewRepository {
	return &SQLViewRepository{db: db, logger: logger}
}

// Exists reports whether an event for the exact triple is stored.
func (r *SQLViewRepository) Exists(subjectID, sessionID, viewerID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM view_events
			WHERE subject_id = ? AND session_id = ? AND viewer_id = ?)`

	var exists bool
	err := r.db.QueryRow(query, subjectID, sessionID, viewerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check view event existence: %w", err)
	}
	return exists, nil
}

// Create inserts a new view event. Returns ErrDuplicateView when the unique
// triple index rejects the insert.
func (r *SQLViewRepository) Create(event *analytics.ViewEvent) error {
	if event.ID == "" {
		event.ID = security.GenerateULID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO view_events (id, subject_id, subject_type, session_id, viewer_id,
			ip, user_agent, device, browser, os, country, city, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := r.db.Exec(
		query,
		event.ID,
		event.SubjectID,
		string(event.SubjectType),
		event.SessionID,
		event.ViewerID,
		event.IP,
		event.UserAgent,
		event.Device,
		event.Browser,
		event.OS,
		event.Country,
		event.City,
		database.FormatTimestamp(event.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicateView
		}
		return fmt.Errorf("failed to store view event: %w", err)
	}

	if duration := time.Since(start); duration > config.SlowQueryThreshold && r.logger != nil {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// FindInRange returns events filtered by optional subject ids and an
// optional [from, to) window, ordered by creation time.
func (r *SQLViewRepository) FindInRange(subjectIDs []string, from, to *time.Time) ([]*analytics.ViewEvent, error) {
	query := `
		SELECT id, subject_id, subject_type, session_id, viewer_id,
			ip, user_agent, device, browser, os, country, city, created_at
		FROM view_events`

	var conditions []string
	var args []any

	if len(subjectIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(subjectIDs)), ",")
		conditions = append(conditions, fmt.Sprintf("subject_id IN (%s)", placeholders))
		for _, id := range subjectIDs {
			args = append(args, id)
		}
	}
	if from != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, database.FormatTimestamp(*from))
	}
	if to != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, database.FormatTimestamp(*to))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at"

	start := time.Now()
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query view events: %w", err)
	}
	defer rows.Close()

	var events []*analytics.ViewEvent
	for rows.Next() {
		event, err := scanViewEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if duration := time.Since(start); duration > config.SlowQueryThreshold && r.logger != nil {
		r.logger.LogSlowQuery(query, duration)
	}
	return events, rows.Err()
}

func scanViewEvent(rows *sql.Rows) (*analytics.ViewEvent, error) {
	var event analytics.ViewEvent
	var subjectType, createdAtStr string
	var ip, userAgent, device, browser, osName, country, city sql.NullString

	err := rows.Scan(
		&event.ID,
		&event.SubjectID,
		&subjectType,
		&event.SessionID,
		&event.ViewerID,
		&ip,
		&userAgent,
		&device,
		&browser,
		&osName,
		&country,
		&city,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	event.SubjectType = analytics.SubjectType(subjectType)
	event.IP = ip.String
	event.UserAgent = userAgent.String
	event.Device = device.String
	event.Browser = browser.String
	event.OS = osName.String
	event.Country = country.String
	event.City = city.String

	if event.CreatedAt, err = database.ParseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	return &event, nil
}

// isUniqueViolation detects a unique constraint failure without binding to a
// driver-specific error type; both sqlite3 and libsql surface the constraint
// name in the message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLITE_CONSTRAINT")
}
