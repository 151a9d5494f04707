package caching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCompute_MissThenHit(t *testing.T) {
	s := newTestStore()
	calls := 0

	producer := func(context.Context) (string, error) {
		calls++
		return "computed", nil
	}

	got, err := GetOrCompute(context.Background(), s, "k", time.Hour, producer)
	require.NoError(t, err)
	assert.Equal(t, "computed", got)
	assert.Equal(t, 1, calls)

	got, err = GetOrCompute(context.Background(), s, "k", time.Hour, producer)
	require.NoError(t, err)
	assert.Equal(t, "computed", got)
	assert.Equal(t, 1, calls, "second read must be served from cache")
}

func TestGetOrCompute_ProducerErrorNotCached(t *testing.T) {
	s := newTestStore()
	boom := errors.New("backend unavailable")
	calls := 0

	producer := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 42, nil
	}

	_, err := GetOrCompute(context.Background(), s, "k", time.Hour, producer)
	require.ErrorIs(t, err, boom)
	assert.False(t, s.Has("k"), "a failed producer must not populate the cache")

	got, err := GetOrCompute(context.Background(), s, "k", time.Hour, producer)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
}

func TestGetOrCompute_ZeroTTLAlwaysRecomputes(t *testing.T) {
	s := newTestStore()
	calls := 0

	producer := func(context.Context) (string, error) {
		calls++
		return "preview", nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrCompute(context.Background(), s, "pb:posts:list:preview", 0, producer)
		require.NoError(t, err)
		assert.Equal(t, "preview", got)
	}
	assert.Equal(t, 3, calls)
}

func TestGetOrCompute_TypeMismatchRecomputes(t *testing.T) {
	s := newTestStore()
	s.Set("k", 123)

	got, err := GetOrCompute(context.Background(), s, "k", time.Hour, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	cached, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "fresh", cached)
}
