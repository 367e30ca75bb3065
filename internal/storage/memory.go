package storage

import (
	"context"
	"sort"
	"sync"

	"SignalFeed/internal/domain"
	"SignalFeed/internal/ports"
)

// Memory is an in-process ItemStore. It backs tests and dry runs; the
// ordering and uniqueness guarantees match the SQLite store exactly.
type Memory struct {
	mu     sync.RWMutex
	items  map[domain.ItemKey]domain.Item
	closed bool
}

var _ ports.ItemStore = (*Memory)(nil)

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[domain.ItemKey]domain.Item)}
}

// Close makes every subsequent call fail with domain.ErrUnavailable.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// Upsert inserts or replaces the row for the item's natural key.
func (m *Memory) Upsert(_ context.Context, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrUnavailable
	}
	m.items[item.Key()] = cloneItem(item)
	return nil
}

// Get returns the stored item or domain.ErrNotFound.
func (m *Memory) Get(_ context.Context, key domain.ItemKey) (domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return domain.Item{}, domain.ErrUnavailable
	}
	item, ok := m.items[key]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	return cloneItem(item), nil
}

// Query filters and orders items deterministically: published_at desc,
// ingested_at desc, then natural key ascending.
func (m *Memory) Query(_ context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, domain.ErrUnavailable
	}

	var results []domain.Item
	for _, item := range m.items {
		if matchesFilter(item, filter) {
			results = append(results, cloneItem(item))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		if !a.IngestedAt.Equal(b.IngestedAt) {
			return a.IngestedAt.After(b.IngestedAt)
		}
		if a.SourceType != b.SourceType {
			return a.SourceType < b.SourceType
		}
		return a.SourceID < b.SourceID
	})

	return paginate(results, filter), nil
}

func matchesFilter(item domain.Item, filter domain.ItemFilter) bool {
	if len(filter.Classes) > 0 && !containsClass(filter.Classes, item.SignalClass) {
		return false
	}
	if len(filter.SourceTypes) > 0 && !containsType(filter.SourceTypes, item.SourceType) {
		return false
	}
	if !filter.PublishedAfter.IsZero() && item.PublishedAt.Before(filter.PublishedAfter) {
		return false
	}
	if !filter.PublishedBefore.IsZero() && item.PublishedAt.After(filter.PublishedBefore) {
		return false
	}
	return true
}

func paginate(items []domain.Item, filter domain.ItemFilter) []domain.Item {
	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return nil
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items
}

func containsClass(classes []domain.SignalClass, class domain.SignalClass) bool {
	for _, c := range classes {
		if c == class {
			return true
		}
	}
	return false
}

func containsType(types []domain.SourceType, sourceType domain.SourceType) bool {
	for _, t := range types {
		if t == sourceType {
			return true
		}
	}
	return false
}

func cloneItem(item domain.Item) domain.Item {
	clone := item
	if item.MatchedKeywords != nil {
		clone.MatchedKeywords = append([]string(nil), item.MatchedKeywords...)
	}
	return clone
}
