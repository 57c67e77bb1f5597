package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
)

// SpendCache memoizes grouped expense sums per user. Entries are removed
// explicitly whenever a transaction is written, never served stale past a
// known write.
type SpendCache struct {
	cache *ristretto.Cache

	// keysByUser tracks live keys per user so a transaction write can clear
	// everything that user's sums may depend on.
	mu         sync.Mutex
	keysByUser map[uuid.UUID]map[string]struct{}
}

// NewSpendCache creates a new SpendCache
func NewSpendCache() (*SpendCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     10000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &SpendCache{
		cache:      c,
		keysByUser: make(map[uuid.UUID]map[string]struct{}),
	}, nil
}

// Key builds a deterministic cache key for a grouped sum query.
func Key(userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time) string {
	ids := make([]string, len(categoryIDs))
	for i, id := range categoryIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	return fmt.Sprintf("spend:%s:%d:%d:%s", userID, from.Unix(), to.Unix(), strings.Join(ids, ","))
}

// Get returns a cached grouped sum, if present.
func (s *SpendCache) Get(key string) ([]*domain.CategorySpend, bool) {
	value, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	spends, ok := value.([]*domain.CategorySpend)
	return spends, ok
}

// Set stores a grouped sum under the user's key set.
func (s *SpendCache) Set(userID uuid.UUID, key string, spends []*domain.CategorySpend) {
	s.mu.Lock()
	if s.keysByUser[userID] == nil {
		s.keysByUser[userID] = make(map[string]struct{})
	}
	s.keysByUser[userID][key] = struct{}{}
	s.mu.Unlock()

	s.cache.Set(key, spends, 1)
	s.cache.Wait()
}

// InvalidateUser drops every cached sum for the user. Called on any
// transaction write.
func (s *SpendCache) InvalidateUser(userID uuid.UUID) {
	s.mu.Lock()
	keys := s.keysByUser[userID]
	delete(s.keysByUser, userID)
	s.mu.Unlock()

	for key := range keys {
		s.cache.Del(key)
	}
}
