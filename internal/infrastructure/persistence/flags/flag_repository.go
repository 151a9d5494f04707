// Package flags provides the SQL and file-backed implementations of the
// feature flag provider.
package flags

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/flags"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/persistence/database"
)

var _ repositories.FlagRepository = (*SQLFlagRepository)(nil)

// SQLFlagRepository is the SQL-based implementation of the FlagRepository.
type SQLFlagRepository struct {
	db *database.DB
}

// NewSQLFlagRepository creates a new instance of the repository.
func NewSQLFlagRepository(db *database.DB) *SQLFlagRepository {
	return &SQLFlagRepository{db: db}
}

// GetFlag retrieves one flag by key, or (nil, nil) when absent.
func (r *SQLFlagRepository) GetFlag(key string) (*flags.FeatureFlag, error) {
	const query = `SELECT key, enabled, metadata FROM feature_flags WHERE key = ?`

	row := r.db.QueryRow(query, key)
	flag, err := scanFlag(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return flag, err
}

// GetAllFlags retrieves every flag.
func (r *SQLFlagRepository) GetAllFlags() ([]*flags.FeatureFlag, error) {
	const query = `SELECT key, enabled, metadata FROM feature_flags ORDER BY key`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*flags.FeatureFlag
	for rows.Next() {
		flag, err := scanFlag(rows.Scan)
		if err != nil {
			return nil, err
		}
		all = append(all, flag)
	}
	return all, rows.Err()
}

// Upsert creates or replaces a flag.
func (r *SQLFlagRepository) Upsert(flag *flags.FeatureFlag) error {
	metadata := flag.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal flag metadata: %w", err)
	}

	const query = `
		INSERT INTO feature_flags (key, enabled, metadata) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET enabled = excluded.enabled, metadata = excluded.metadata`

	if _, err := r.db.Exec(query, flag.Key, boolToInt(flag.Enabled), string(metadataBytes)); err != nil {
		return fmt.Errorf("failed to upsert flag %s: %w", flag.Key, err)
	}
	return nil
}

// Delete removes a flag.
func (r *SQLFlagRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM feature_flags WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete flag %s: %w", key, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func scanFlag(scan func(dest ...any) error) (*flags.FeatureFlag, error) {
	var flag flags.FeatureFlag
	var enabled int
	var metadataJSON string

	if err := scan(&flag.Key, &enabled, &metadataJSON); err != nil {
		return nil, err
	}

	flag.Enabled = enabled != 0
	if err := json.Unmarshal([]byte(metadataJSON), &flag.Metadata); err != nil {
		return nil, fmt.Errorf("invalid metadata payload for flag %s: %w", flag.Key, err)
	}
	return &flag, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
