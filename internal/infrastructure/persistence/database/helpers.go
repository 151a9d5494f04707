package database

import (
	"database/sql"
	"time"
)

// SQLiteTimeFormat is the layout used for timestamps written by this schema.
const SQLiteTimeFormat = "2006-01-02 15:04:05"

// FormatTimestamp renders a time for storage.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(SQLiteTimeFormat)
}

// ParseTimestamp reads a stored timestamp, accepting RFC3339 for rows
// written by other tooling.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(SQLiteTimeFormat, s)
}

// NullableTimestamp parses an optional timestamp column.
func NullableTimestamp(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// NullableString converts an optional column to a *string.
func NullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
