package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/store"
)

// MockStatsStore implements store.StatsStore in memory with the same
// clamp-at-zero and prune-on-zero rules as the postgres implementation.
type MockStatsStore struct {
	AdjustUserStatsFn func(ctx context.Context, userID uuid.UUID, delta store.UserStatsDelta) error
	AdjustTagFn       func(ctx context.Context, userID uuid.UUID, tag string, delta int) error
	AdjustBloomFn     func(ctx context.Context, userID uuid.UUID, level domain.BloomLevel, delta int) error

	mu     sync.Mutex
	stats  map[uuid.UUID]*domain.UserStats
	tags   map[uuid.UUID]map[string]*domain.TagCount
	blooms map[uuid.UUID]map[domain.BloomLevel]int
	seq    int
}

// NewMockStatsStore creates an empty in-memory stats store.
func NewMockStatsStore() *MockStatsStore {
	return &MockStatsStore{
		stats:  make(map[uuid.UUID]*domain.UserStats),
		tags:   make(map[uuid.UUID]map[string]*domain.TagCount),
		blooms: make(map[uuid.UUID]map[domain.BloomLevel]int),
	}
}

// GetUserStats implements the StatsStore interface
func (m *MockStatsStore) GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.stats[userID]
	if !ok {
		return nil, store.ErrStatsNotFound
	}
	copied := *stats
	return &copied, nil
}

// AdjustUserStats implements the StatsStore interface
func (m *MockStatsStore) AdjustUserStats(ctx context.Context, userID uuid.UUID, delta store.UserStatsDelta) error {
	if m.AdjustUserStatsFn != nil {
		return m.AdjustUserStatsFn(ctx, userID, delta)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if delta.IsZero() {
		return nil
	}

	stats, ok := m.stats[userID]
	if !ok {
		stats = domain.NewUserStats(userID)
		m.stats[userID] = stats
	}

	stats.FlashcardsCreated = clampZero(stats.FlashcardsCreated + delta.FlashcardsCreated)
	stats.DecksCount = clampZero(stats.DecksCount + delta.DecksCount)
	stats.StudiesCompleted = clampZero(stats.StudiesCompleted + delta.StudiesCompleted)
	stats.TotalCorrectAnswers = clampZero(stats.TotalCorrectAnswers + delta.TotalCorrectAnswers)
	stats.TotalWrongAnswers = clampZero(stats.TotalWrongAnswers + delta.TotalWrongAnswers)
	stats.UpdatedAt = time.Now().UTC()
	return nil
}

// AdjustTag implements the StatsStore interface
func (m *MockStatsStore) AdjustTag(ctx context.Context, userID uuid.UUID, tag string, delta int) error {
	if m.AdjustTagFn != nil {
		return m.AdjustTagFn(ctx, userID, tag, delta)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if delta == 0 {
		return nil
	}

	userTags, ok := m.tags[userID]
	if !ok {
		userTags = make(map[string]*domain.TagCount)
		m.tags[userID] = userTags
	}

	tc, ok := userTags[tag]
	if !ok {
		if delta < 0 {
			return nil
		}
		m.seq++
		tc = &domain.TagCount{
			UserID: userID,
			Tag:    tag,
			// seq stands in for created_at ordering; wall clock ties are
			// too coarse for tests.
			CreatedAt: time.Unix(int64(m.seq), 0).UTC(),
		}
		userTags[tag] = tc
	}

	tc.Count += delta
	if tc.Count <= 0 {
		delete(userTags, tag)
	}
	return nil
}

// TopTags implements the StatsStore interface
func (m *MockStatsStore) TopTags(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.TagCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	tags := make([]*domain.TagCount, 0, len(m.tags[userID]))
	for _, tc := range m.tags[userID] {
		copied := *tc
		tags = append(tags, &copied)
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].CreatedAt.Before(tags[j].CreatedAt)
	})

	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// AdjustBloom implements the StatsStore interface
func (m *MockStatsStore) AdjustBloom(ctx context.Context, userID uuid.UUID, level domain.BloomLevel, delta int) error {
	if m.AdjustBloomFn != nil {
		return m.AdjustBloomFn(ctx, userID, level, delta)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if delta == 0 {
		return nil
	}

	userBlooms, ok := m.blooms[userID]
	if !ok {
		if delta < 0 {
			return nil
		}
		userBlooms = make(map[domain.BloomLevel]int)
		m.blooms[userID] = userBlooms
	}

	userBlooms[level] += delta
	if userBlooms[level] <= 0 {
		delete(userBlooms, level)
	}
	return nil
}

// BloomCounts implements the StatsStore interface
func (m *MockStatsStore) BloomCounts(ctx context.Context, userID uuid.UUID) ([]*domain.BloomCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make([]*domain.BloomCount, 0, len(m.blooms[userID]))
	for _, level := range domain.AllBloomLevels() {
		if count, ok := m.blooms[userID][level]; ok {
			counts = append(counts, &domain.BloomCount{
				UserID: userID,
				Level:  level,
				Count:  count,
			})
		}
	}
	return counts, nil
}

// WithTx implements the StatsStore interface. The mock has no transaction
// state, so it returns itself.
func (m *MockStatsStore) WithTx(tx *sql.Tx) store.StatsStore {
	return m
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
