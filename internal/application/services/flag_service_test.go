package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/flags"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

func TestIsEnabledFailClosed(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error reads as disabled", func(t *testing.T) {
		provider := &fakeFlagProvider{err: errors.New("provider down")}
		svc := NewFlagService(provider, nil)

		assert.False(t, svc.IsEnabled(ctx, flags.KeyAds))
	})

	t.Run("missing flag reads as disabled", func(t *testing.T) {
		svc := NewFlagService(&fakeFlagProvider{}, nil)

		assert.False(t, svc.IsEnabled(ctx, "no-such-flag"))
	})

	t.Run("enabled flag reads as enabled", func(t *testing.T) {
		svc := NewFlagService(adsFlag(true, nil), nil)

		assert.True(t, svc.IsEnabled(ctx, flags.KeyAds))
	})
}

func TestGetFlagCachesProviderResult(t *testing.T) {
	ctx := context.Background()
	provider := adsFlag(true, nil)
	svc := NewFlagService(provider, nil)

	for i := 0; i < 5; i++ {
		flag, err := svc.GetFlag(ctx, flags.KeyAds)
		require.NoError(t, err)
		require.NotNil(t, flag)
	}
	assert.Equal(t, 1, provider.calls)
}

func TestGetFlagCachesAbsence(t *testing.T) {
	ctx := context.Background()
	provider := &fakeFlagProvider{}
	svc := NewFlagService(provider, nil)

	for i := 0; i < 3; i++ {
		flag, err := svc.GetFlag(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, flag)
	}
	assert.Equal(t, 1, provider.calls)
}

func TestGetFlagProviderErrorNotCached(t *testing.T) {
	ctx := context.Background()
	provider := &fakeFlagProvider{err: errors.New("provider down")}
	svc := NewFlagService(provider, nil)

	_, err := svc.GetFlag(ctx, flags.KeyAds)
	require.Error(t, err)

	provider.err = nil
	provider.flags = map[string]*flags.FeatureFlag{
		flags.KeyAds: {Key: flags.KeyAds, Enabled: true},
	}

	flag, err := svc.GetFlag(ctx, flags.KeyAds)
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.True(t, flag.Enabled)
}

func TestInvalidateDropsCachedFlags(t *testing.T) {
	ctx := context.Background()
	provider := adsFlag(true, nil)
	svc := NewFlagService(provider, nil)

	svc.IsEnabled(ctx, flags.KeyAds)
	svc.Invalidate()
	svc.IsEnabled(ctx, flags.KeyAds)

	assert.Equal(t, 2, provider.calls)
}

func TestResolveAdsPlanSlotIntersection(t *testing.T) {
	ctx := context.Background()
	svc := NewFlagService(adsFlag(true, map[string]any{
		"enabledSlots": []any{"leaderboard", "rectangle"},
	}), nil)

	plan := svc.ResolveAdsPlan(ctx, []ads.SlotType{ads.SlotLeaderboard, ads.SlotSkyscraper}, nil)

	require.True(t, plan.Enabled)
	assert.Equal(t, []ads.SlotType{ads.SlotLeaderboard}, plan.Slots)
}

func TestResolveAdsPlanDisabledFlag(t *testing.T) {
	ctx := context.Background()
	svc := NewFlagService(adsFlag(false, map[string]any{
		"enabledSlots": []any{"leaderboard"},
	}), nil)

	plan := svc.ResolveAdsPlan(ctx, []ads.SlotType{ads.SlotLeaderboard}, nil)
	assert.False(t, plan.Enabled)
}

func TestResolveAdsPlanNoEnabledSlotsMetadata(t *testing.T) {
	ctx := context.Background()
	svc := NewFlagService(adsFlag(true, nil), nil)

	plan := svc.ResolveAdsPlan(ctx, []ads.SlotType{ads.SlotLeaderboard}, nil)

	require.True(t, plan.Enabled)
	assert.Empty(t, plan.Slots)
}

func TestResolveAdsPlanMaxPerPagePrecedence(t *testing.T) {
	ctx := context.Background()
	slots := []ads.SlotType{ads.SlotLeaderboard}
	metadata := map[string]any{
		"enabledSlots": []any{"leaderboard"},
		"maxPerPage":   float64(2),
	}

	t.Run("request override wins", func(t *testing.T) {
		svc := NewFlagService(adsFlag(true, metadata), nil)
		override := 5

		plan := svc.ResolveAdsPlan(ctx, slots, &override)
		assert.Equal(t, 5, plan.MaxPerPage)
	})

	t.Run("metadata beats default", func(t *testing.T) {
		svc := NewFlagService(adsFlag(true, metadata), nil)

		plan := svc.ResolveAdsPlan(ctx, slots, nil)
		assert.Equal(t, 2, plan.MaxPerPage)
	})

	t.Run("default when unconfigured", func(t *testing.T) {
		svc := NewFlagService(adsFlag(true, map[string]any{
			"enabledSlots": []any{"leaderboard"},
		}), nil)

		plan := svc.ResolveAdsPlan(ctx, slots, nil)
		assert.Equal(t, config.MaxAdsPerPage, plan.MaxPerPage)
	})
}

func TestResolveAdsPlanProbability(t *testing.T) {
	ctx := context.Background()
	slots := []ads.SlotType{ads.SlotLeaderboard}

	t.Run("metadata probability wins", func(t *testing.T) {
		svc := NewFlagService(adsFlag(true, map[string]any{
			"enabledSlots":          []any{"leaderboard"},
			"internalAdProbability": 0.25,
		}), nil)

		plan := svc.ResolveAdsPlan(ctx, slots, nil)
		assert.InDelta(t, 0.25, plan.Probability, 1e-9)
	})

	t.Run("default when unconfigured", func(t *testing.T) {
		svc := NewFlagService(adsFlag(true, map[string]any{
			"enabledSlots": []any{"leaderboard"},
		}), nil)

		plan := svc.ResolveAdsPlan(ctx, slots, nil)
		assert.InDelta(t, config.InternalAdProbability, plan.Probability, 1e-9)
	})

	t.Run("out of range values clamp", func(t *testing.T) {
		svc := NewFlagService(adsFlag(true, map[string]any{
			"enabledSlots":          []any{"leaderboard"},
			"internalAdProbability": 1.8,
		}), nil)

		plan := svc.ResolveAdsPlan(ctx, slots, nil)
		assert.InDelta(t, 1.0, plan.Probability, 1e-9)
	})
}
