// Package ads provides the concrete SQL-based implementation of the
// AdPlacementRepository.
package ads

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/persistence/database"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/security"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

var _ repositories.AdPlacementRepository = (*SQLPlacementRepository)(nil)

// SQLPlacementRepository is the SQL-based implementation of the
// AdPlacementRepository.
type SQLPlacementRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLPlacementRepository creates a new instance of the repository.
func NewSQLPlacementRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLPlacementRepository {
	return &SQLPlacementRepository{db: db, logger: logger}
}

const placementColumns = `id, title, status, targets, priority, start_at, end_at,
	click_url, utm_source, utm_campaign, utm_medium, creatives, created_at, updated_at`

// FindByID retrieves a placement by its unique identifier.
func (r *SQLPlacementRepository) FindByID(id string) (*ads.AdPlacement, error) {
	query := fmt.Sprintf(`SELECT %s FROM ad_placements WHERE id = ?`, placementColumns)

	row := r.db.QueryRow(query, id)
	placement, err := r.scanPlacement(row.Scan)
	if err == sql.ErrNoRows {
		return nil, repositories.ErrNotFound
	}
	return placement, err
}

// FindAll retrieves every placement, newest first.
func (r *SQLPlacementRepository) FindAll() ([]*ads.AdPlacement, error) {
	query := fmt.Sprintf(`SELECT %s FROM ad_placements ORDER BY created_at DESC`, placementColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var placements []*ads.AdPlacement
	for rows.Next() {
		placement, err := r.scanPlacement(rows.Scan)
		if err != nil {
			return nil, err
		}
		placements = append(placements, placement)
	}
	return placements, rows.Err()
}

// FindEligible returns placements satisfying the eligibility invariant for
// (pageType, slotType) at now, ordered by priority descending. Status and
// scheduling window are filtered in SQL; target and creative membership live
// in JSON columns and are filtered in Go.
func (r *SQLPlacementRepository) FindEligible(pageType string, slotType ads.SlotType, now time.Time) ([]*ads.AdPlacement, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM ad_placements
		WHERE status = ?
		  AND (start_at IS NULL OR start_at <= ?)
		  AND (end_at IS NULL OR end_at >= ?)
		ORDER BY priority DESC, created_at DESC`, placementColumns)

	start := time.Now()
	nowStr := database.FormatTimestamp(now)

	rows, err := r.db.Query(query, string(ads.StatusActive), nowStr, nowStr)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible placements: %w", err)
	}
	defer rows.Close()

	var eligible []*ads.AdPlacement
	for rows.Next() {
		placement, err := r.scanPlacement(rows.Scan)
		if err != nil {
			return nil, err
		}
		if placement.Eligible(pageType, slotType, now) {
			eligible = append(eligible, placement)
		}
	}

	if duration := time.Since(start); duration > config.SlowQueryThreshold && r.logger != nil {
		r.logger.LogSlowQuery(query, duration)
	}
	return eligible, rows.Err()
}

// Create saves a new placement. A missing ID is generated.
func (r *SQLPlacementRepository) Create(placement *ads.AdPlacement) error {
	if placement.ID == "" {
		placement.ID = security.GenerateULID()
	}
	now := time.Now().UTC()
	placement.CreatedAt = now
	placement.UpdatedAt = now

	targets, creatives, err := marshalPlacementJSON(placement)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO ad_placements (id, title, status, targets, priority, start_at, end_at,
			click_url, utm_source, utm_campaign, utm_medium, creatives, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(
		query,
		placement.ID,
		placement.Title,
		string(placement.Status),
		targets,
		placement.Priority,
		optionalTimestamp(placement.StartAt),
		optionalTimestamp(placement.EndAt),
		placement.ClickURL,
		placement.UTMSource,
		placement.UTMCampaign,
		placement.UTMMedium,
		creatives,
		database.FormatTimestamp(placement.CreatedAt),
		database.FormatTimestamp(placement.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create ad placement: %w", err)
	}
	return nil
}

// Update overwrites an existing placement.
func (r *SQLPlacementRepository) Update(placement *ads.AdPlacement) error {
	placement.UpdatedAt = time.Now().UTC()

	targets, creatives, err := marshalPlacementJSON(placement)
	if err != nil {
		return err
	}

	const query = `
		UPDATE ad_placements
		SET title = ?, status = ?, targets = ?, priority = ?, start_at = ?, end_at = ?,
			click_url = ?, utm_source = ?, utm_campaign = ?, utm_medium = ?, creatives = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.Exec(
		query,
		placement.Title,
		string(placement.Status),
		targets,
		placement.Priority,
		optionalTimestamp(placement.StartAt),
		optionalTimestamp(placement.EndAt),
		placement.ClickURL,
		placement.UTMSource,
		placement.UTMCampaign,
		placement.UTMMedium,
		creatives,
		database.FormatTimestamp(placement.UpdatedAt),
		placement.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ad placement %s: %w", placement.ID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete removes a placement.
func (r *SQLPlacementRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM ad_placements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ad placement %s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// scanPlacement is a helper to scan one row into an AdPlacement.
func (r *SQLPlacementRepository) scanPlacement(scan func(dest ...any) error) (*ads.AdPlacement, error) {
	var placement ads.AdPlacement
	var status, targetsJSON, creativesJSON string
	var startAt, endAt, utmSource, utmCampaign, utmMedium sql.NullString
	var createdAtStr, updatedAtStr string

	err := scan(
		&placement.ID,
		&placement.Title,
		&status,
		&targetsJSON,
		&placement.Priority,
		&startAt,
		&endAt,
		&placement.ClickURL,
		&utmSource,
		&utmCampaign,
		&utmMedium,
		&creativesJSON,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	placement.Status = ads.Status(status)
	placement.UTMSource = database.NullableString(utmSource)
	placement.UTMCampaign = database.NullableString(utmCampaign)
	placement.UTMMedium = database.NullableString(utmMedium)

	if err := json.Unmarshal([]byte(targetsJSON), &placement.Targets); err != nil {
		return nil, fmt.Errorf("invalid targets payload for ad %s: %w", placement.ID, err)
	}
	if err := json.Unmarshal([]byte(creativesJSON), &placement.Creatives); err != nil {
		return nil, fmt.Errorf("invalid creatives payload for ad %s: %w", placement.ID, err)
	}

	if placement.StartAt, err = database.NullableTimestamp(startAt); err != nil {
		return nil, err
	}
	if placement.EndAt, err = database.NullableTimestamp(endAt); err != nil {
		return nil, err
	}
	if placement.CreatedAt, err = database.ParseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if placement.UpdatedAt, err = database.ParseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}

	return &placement, nil
}

func marshalPlacementJSON(placement *ads.AdPlacement) (targets string, creatives string, err error) {
	if placement.Targets == nil {
		placement.Targets = []string{}
	}
	if placement.Creatives == nil {
		placement.Creatives = map[ads.SlotType]string{}
	}

	targetsBytes, err := json.Marshal(placement.Targets)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal targets: %w", err)
	}
	creativesBytes, err := json.Marshal(placement.Creatives)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal creatives: %w", err)
	}
	return string(targetsBytes), string(creativesBytes), nil
}

func optionalTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return database.FormatTimestamp(*t)
}
