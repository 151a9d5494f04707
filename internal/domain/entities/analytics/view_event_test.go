package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	now := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	today := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	t.Run("all", func(t *testing.T) {
		r, err := ParseRange("all", "", "", now)
		require.NoError(t, err)
		assert.Equal(t, "all", r.Selector)
		assert.Nil(t, r.From)
		assert.Nil(t, r.To)
		assert.True(t, r.Live)
	})

	t.Run("empty selector defaults to all", func(t *testing.T) {
		r, err := ParseRange("", "", "", now)
		require.NoError(t, err)
		assert.Equal(t, "all", r.Selector)
	})

	t.Run("today", func(t *testing.T) {
		r, err := ParseRange("today", "", "", now)
		require.NoError(t, err)
		require.NotNil(t, r.From)
		assert.Equal(t, today, *r.From)
		assert.Nil(t, r.To)
		assert.True(t, r.Live)
	})

	t.Run("yesterday is closed", func(t *testing.T) {
		r, err := ParseRange("yesterday", "", "", now)
		require.NoError(t, err)
		require.NotNil(t, r.From)
		require.NotNil(t, r.To)
		assert.Equal(t, today.AddDate(0, 0, -1), *r.From)
		assert.Equal(t, today, *r.To)
		assert.False(t, r.Live)
	})

	t.Run("rolling windows are live", func(t *testing.T) {
		for selector, days := range map[string]int{"7d": 7, "28d": 28} {
			r, err := ParseRange(selector, "", "", now)
			require.NoError(t, err)
			require.NotNil(t, r.From)
			assert.Equal(t, today.AddDate(0, 0, -days), *r.From)
			assert.True(t, r.Live)
		}
	})

	t.Run("custom closed range", func(t *testing.T) {
		r, err := ParseRange("custom", "2026-08-01", "2026-08-07", now)
		require.NoError(t, err)
		assert.Equal(t, "custom:2026-08-01:2026-08-07", r.Selector)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), *r.From)
		// End bound is exclusive of the midnight after the last day.
		assert.Equal(t, time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC), *r.To)
		assert.False(t, r.Live)
	})

	t.Run("custom range including today is live", func(t *testing.T) {
		r, err := ParseRange("custom", "2026-08-10", "2026-08-15", now)
		require.NoError(t, err)
		assert.True(t, r.Live)
	})

	t.Run("custom range end before start", func(t *testing.T) {
		_, err := ParseRange("custom", "2026-08-07", "2026-08-01", now)
		assert.Error(t, err)
	})

	t.Run("custom range malformed dates", func(t *testing.T) {
		_, err := ParseRange("custom", "not-a-date", "2026-08-07", now)
		assert.Error(t, err)
	})

	t.Run("unknown selector", func(t *testing.T) {
		_, err := ParseRange("90d", "", "", now)
		assert.Error(t, err)
	})
}
