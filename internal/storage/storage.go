package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a solution stays cached unless configured otherwise.
	DefaultTTL = time.Hour
	// DefaultMaxEntries bounds the in-memory cache.
	DefaultMaxEntries = 1024

	keyPrefix = "solution"
)

var (
	// ErrInvalidBackend indicates an unknown cache backend name.
	ErrInvalidBackend = errors.New("cache backend must be one of memory, redis, none")
)

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Solution is the cached outcome of solving one multiset of treats.
type Solution struct {
	Happiness      int   `json:"happiness"`
	Treats         []int `json:"treats"`
	GuessHappiness int   `json:"guessHappiness"`
}

// Storage caches solutions keyed by Key.
type Storage interface {
	Get(ctx context.Context, key string) (Solution, bool, error)
	Set(ctx context.Context, key string, solution Solution) error
	Close() error
}

// Key returns the cache key for a set of treats. Any ordering of the same
// treats yields the same key.
func Key(treats []int) string {
	sorted := slices.Clone(treats)
	slices.Sort(sorted)
	data, _ := json.Marshal(sorted)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", keyPrefix, hex.EncodeToString(hash[:]))
}

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) bool {
	switch name {
	case BackendMemory, BackendRedis, BackendNone:
		return true
	}
	return false
}

type memoryEntry struct {
	solution  Solution
	expiresAt time.Time
}

// MemoryOption configures a MemoryStorage.
type MemoryOption func(*MemoryStorage)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

// MemoryStorage keeps solutions in-memory and guards access with a RWMutex.
// When full, the oldest entry is evicted.
type MemoryStorage struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	order      []string
	ttl        time.Duration
	maxEntries int
	clock      func() time.Time
}

// NewMemoryStorage creates an in-memory cache. Non-positive ttl or maxEntries
// fall back to the defaults.
func NewMemoryStorage(ttl time.Duration, maxEntries int, opts ...MemoryOption) *MemoryStorage {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	s := &MemoryStorage{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the cached solution, if present and not expired.
func (s *MemoryStorage) Get(_ context.Context, key string) (Solution, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !s.clock().Before(entry.expiresAt) {
		return Solution{}, false, nil
	}
	return cloneSolution(entry.solution), true, nil
}

// Set stores a copy of the solution.
func (s *MemoryStorage) Set(_ context.Context, key string, solution Solution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		for len(s.order) >= s.maxEntries {
			delete(s.entries, s.order[0])
			s.order = s.order[1:]
		}
		s.order = append(s.order, key)
	}
	s.entries[key] = memoryEntry{
		solution:  cloneSolution(solution),
		expiresAt: s.clock().Add(s.ttl),
	}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close drops all entries.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.order = nil
	s.mu.Unlock()
	return nil
}

func cloneSolution(src Solution) Solution {
	src.Treats = slices.Clone(src.Treats)
	return src
}

// NullStorage never stores anything. It is used when caching is disabled.
type NullStorage struct{}

// NewNullStorage creates a null cache.
func NewNullStorage() *NullStorage {
	return &NullStorage{}
}

// Get always reports a miss.
func (NullStorage) Get(context.Context, string) (Solution, bool, error) {
	return Solution{}, false, nil
}

// Set does nothing.
func (NullStorage) Set(context.Context, string, Solution) error {
	return nil
}

// Close does nothing.
func (NullStorage) Close() error {
	return nil
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Storage = (*NullStorage)(nil)
	_ Storage = (*RedisStorage)(nil)
)
