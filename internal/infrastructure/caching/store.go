// Package caching provides the in-memory TTL cache store and the
// cache-aside fetch helper used by all read paths.
package caching

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
)

// entry is a single cached value with an absolute expiry. An entry is
// logically absent once now is at or past expiresAt.
type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Store is a process-local key/value cache with per-entry expiry and
// glob-style bulk invalidation. Expiry is checked lazily on access; there
// is no background sweeper. Pattern invalidation is the escape valve that
// clears stale entries after admin writes.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	logger     *logging.ChanneledLogger
}

// DebugInfo is an observability snapshot of the store. The byte estimate is
// approximate and carries no behavioral guarantee.
type DebugInfo struct {
	Size              int      `json:"size"`
	Keys              []string `json:"keys"`
	ApproxMemoryBytes int64    `json:"approxMemoryBytes"`
}

// NewStore creates a cache store. Entries set without an explicit TTL use
// defaultTTL.
func NewStore(defaultTTL time.Duration, logger *logging.ChanneledLogger) *Store {
	if logger != nil {
		logger.Cache().Info("Initializing cache store", "defaultTTL", defaultTTL)
	}
	return &Store{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// DefaultTTL returns the TTL applied by Set.
func (s *Store) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Get returns the stored value if present and not expired. An expired entry
// behaves as if never set and is evicted as a side effect.
func (s *Store) Get(key string) (any, bool) {
	start := time.Now()

	s.mu.RLock()
	e, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		if s.logger != nil {
			s.logger.LogCacheOperation("get", key, false, time.Since(start))
		}
		return nil, false
	}

	if e.expired(start) {
		s.mu.Lock()
		// Re-check under the write lock; the entry may have been replaced
		// by a fresh Set since the read.
		if current, ok := s.entries[key]; ok && current.expired(time.Now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()

		if s.logger != nil {
			s.logger.LogCacheOperation("get", key, false, time.Since(start))
		}
		return nil, false
	}

	if s.logger != nil {
		s.logger.LogCacheOperation("get", key, true, time.Since(start))
	}
	return e.value, true
}

// Set stores a value under key with the store's default TTL, overwriting any
// existing entry unconditionally.
func (s *Store) Set(key string, value any) {
	s.SetWithTTL(key, value, s.defaultTTL)
}

// SetWithTTL stores a value with expiry now + ttl. A non-positive ttl yields
// an already-expired entry, which reads as absent; always-recompute keys
// (preview views) are expressed that way.
func (s *Store) SetWithTTL(key string, value any, ttl time.Duration) {
	start := time.Now()

	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: start.Add(ttl)}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Cache().Debug("Cache operation", "operation", "set", "key", key, "ttl", ttl, "duration", time.Since(start))
	}
}

// Delete removes one entry; no-op if absent.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Has reports whether key holds a live entry, with the same liveness
// semantics as Get.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Invalidate removes every entry, live or expired, whose key matches the
// pattern. The pattern is anchored to the full key and uses * as a
// multi-character wildcard, e.g. "ads:position:*". Returns the number of
// entries removed.
func (s *Store) Invalidate(pattern string) int {
	start := time.Now()

	s.mu.Lock()
	removed := 0
	for key := range s.entries {
		if MatchPattern(pattern, key) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Cache().Info("Cache invalidated by pattern", "pattern", pattern, "removed", removed, "duration", time.Since(start))
	}
	return removed
}

// Clear removes everything.
func (s *Store) Clear() {
	s.mu.Lock()
	count := len(s.entries)
	s.entries = make(map[string]entry)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Cache().Info("Cache cleared", "removed", count)
	}
}

// DebugInfo returns an observability snapshot: entry count, sorted keys and
// a rough memory estimate.
func (s *Store) DebugInfo() DebugInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := DebugInfo{
		Size: len(s.entries),
		Keys: make([]string, 0, len(s.entries)),
	}
	for key, e := range s.entries {
		info.Keys = append(info.Keys, key)
		info.ApproxMemoryBytes += int64(len(key)) + approxValueBytes(e.value)
	}
	sort.Strings(info.Keys)
	return info
}

// approxValueBytes gives a crude size estimate for a cached value. Only
// common payload shapes are sized; everything else counts as one word.
func approxValueBytes(v any) int64 {
	switch val := v.(type) {
	case string:
		return int64(len(val))
	case []byte:
		return int64(len(val))
	case []string:
		var n int64
		for _, s := range val {
			n += int64(len(s))
		}
		return n
	default:
		return 8
	}
}

// MatchPattern reports whether key matches pattern, where * matches any run
// of characters (including none) and the match is anchored at both ends.
func MatchPattern(pattern, key string) bool {
	parts := strings.Split(pattern, "*")

	if len(parts) == 1 {
		return pattern == key
	}

	// Anchor the first literal segment at the start of the key.
	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	key = key[len(parts[0]):]

	// Middle segments match greedily left to right.
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(key, part)
		if idx < 0 {
			return false
		}
		key = key[idx+len(part):]
	}

	// Anchor the last literal segment at the end of the key.
	return strings.HasSuffix(key, parts[len(parts)-1])
}
