package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFeed/internal/domain"
	"SignalFeed/internal/ports"
)

var base = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func storeItem(sourceType domain.SourceType, id string, class domain.SignalClass, published, ingested time.Time) domain.Item {
	return domain.Item{
		SourceType:      sourceType,
		SourceID:        id,
		Title:           "title " + id,
		Summary:         "summary",
		URL:             "https://example.org/" + id,
		PublishedAt:     published,
		IngestedAt:      ingested,
		Engagement:      42,
		SignalClass:     class,
		Score:           1.5,
		MatchedKeywords: []string{"breakthrough"},
	}
}

// Both implementations must satisfy the same contract; every test runs
// against each.
func stores(t *testing.T) map[string]ports.ItemStore {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]ports.ItemStore{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestUpsertRoundTrip(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			item := storeItem(domain.SourcePaper, "p1", domain.SignalRed, base, base.Add(time.Hour))
			item.PublishedAtInferred = true

			require.NoError(t, store.Upsert(ctx, item))

			got, err := store.Get(ctx, item.Key())
			require.NoError(t, err)
			assert.Equal(t, item.Title, got.Title)
			assert.Equal(t, item.URL, got.URL)
			assert.True(t, got.PublishedAt.Equal(item.PublishedAt))
			assert.True(t, got.IngestedAt.Equal(item.IngestedAt))
			assert.True(t, got.PublishedAtInferred)
			assert.Equal(t, item.Engagement, got.Engagement)
			assert.Equal(t, item.SignalClass, got.SignalClass)
			assert.Equal(t, item.Score, got.Score)
			assert.Equal(t, item.MatchedKeywords, got.MatchedKeywords)
		})
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), domain.ItemKey{SourceType: domain.SourcePaper, SourceID: "missing"})
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestUpsertEnforcesKeyUniqueness(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := storeItem(domain.SourcePaper, "p1", domain.SignalGreen, base, base)
			second := storeItem(domain.SourcePaper, "p1", domain.SignalRed, base, base)
			second.Score = 9

			require.NoError(t, store.Upsert(ctx, first))
			require.NoError(t, store.Upsert(ctx, second))

			items, err := store.Query(ctx, domain.ItemFilter{})
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, domain.SignalRed, items[0].SignalClass)
			assert.Equal(t, 9.0, items[0].Score)
		})
	}
}

func TestQueryDeterministicOrder(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// Same published_at for b/c: ingested_at breaks the tie; same
			// both for c/d: natural key ascending decides.
			items := []domain.Item{
				storeItem(domain.SourcePaper, "a", domain.SignalRed, base.Add(2*time.Hour), base.Add(2*time.Hour)),
				storeItem(domain.SourcePaper, "b", domain.SignalRed, base.Add(time.Hour), base.Add(3*time.Hour)),
				storeItem(domain.SourcePaper, "c", domain.SignalRed, base.Add(time.Hour), base.Add(2*time.Hour)),
				storeItem(domain.SourceLink, "d", domain.SignalRed, base.Add(time.Hour), base.Add(2*time.Hour)),
			}
			for _, item := range items {
				require.NoError(t, store.Upsert(ctx, item))
			}

			got, err := store.Query(ctx, domain.ItemFilter{})
			require.NoError(t, err)
			require.Len(t, got, 4)

			ids := make([]string, len(got))
			for i, item := range got {
				ids[i] = item.SourceID
			}
			// d (link) sorts before c (paper) on source_type.
			assert.Equal(t, []string{"a", "b", "d", "c"}, ids)
		})
	}
}

func TestQueryFilters(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Upsert(ctx, storeItem(domain.SourcePaper, "p1", domain.SignalRed, base, base)))
			require.NoError(t, store.Upsert(ctx, storeItem(domain.SourceLink, "l1", domain.SignalYellow, base.Add(time.Hour), base.Add(time.Hour))))
			require.NoError(t, store.Upsert(ctx, storeItem(domain.SourceRepository, "r1", domain.SignalGreen, base.Add(2*time.Hour), base.Add(2*time.Hour))))

			byClass, err := store.Query(ctx, domain.ItemFilter{Classes: []domain.SignalClass{domain.SignalRed, domain.SignalYellow}})
			require.NoError(t, err)
			assert.Len(t, byClass, 2)

			byType, err := store.Query(ctx, domain.ItemFilter{SourceTypes: []domain.SourceType{domain.SourceRepository}})
			require.NoError(t, err)
			require.Len(t, byType, 1)
			assert.Equal(t, "r1", byType[0].SourceID)

			byRange, err := store.Query(ctx, domain.ItemFilter{
				PublishedAfter:  base.Add(30 * time.Minute),
				PublishedBefore: base.Add(90 * time.Minute),
			})
			require.NoError(t, err)
			require.Len(t, byRange, 1)
			assert.Equal(t, "l1", byRange[0].SourceID)
		})
	}
}

func TestQueryPagination(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"a", "b", "c", "d", "e"} {
				offset := time.Duration(i) * time.Hour
				require.NoError(t, store.Upsert(ctx, storeItem(domain.SourcePaper, id, domain.SignalGreen, base.Add(offset), base.Add(offset))))
			}

			page, err := store.Query(ctx, domain.ItemFilter{Limit: 2, Offset: 1})
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.Equal(t, "d", page[0].SourceID)
			assert.Equal(t, "c", page[1].SourceID)
		})
	}
}

func TestMemoryUnavailableAfterClose(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, storeItem(domain.SourcePaper, "p1", domain.SignalRed, base, base)))

	store.Close()

	assert.ErrorIs(t, store.Upsert(ctx, storeItem(domain.SourcePaper, "p2", domain.SignalRed, base, base)), domain.ErrUnavailable)
	_, err := store.Get(ctx, domain.ItemKey{SourceType: domain.SourcePaper, SourceID: "p1"})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	_, err = store.Query(ctx, domain.ItemFilter{})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestSQLiteUnavailableAfterClose(t *testing.T) {
	t.Parallel()

	store, err := NewSQLite(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Upsert(context.Background(), storeItem(domain.SourcePaper, "p1", domain.SignalRed, base, base))
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
