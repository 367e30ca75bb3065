package ports

import (
	"context"
	"time"

	"SignalFeed/internal/domain"
)

// SourceAdapter pulls a finite, restartable batch of raw records from one
// upstream source. Adapters never interpret record contents beyond producing
// the key/value shape; that is the Normalizer's job.
type SourceAdapter interface {
	Name() string
	Type() domain.SourceType
	FetchRecent(ctx context.Context) ([]domain.RawRecord, error)
}

// ItemStore persists canonical items keyed by (source_type, source_id).
type ItemStore interface {
	// Upsert inserts or replaces the row for the item's natural key. A failed
	// upsert leaves prior state unchanged.
	Upsert(ctx context.Context, item domain.Item) error
	// Get returns the stored item or domain.ErrNotFound.
	Get(ctx context.Context, key domain.ItemKey) (domain.Item, error)
	// Query returns items matching the filter in deterministic order:
	// published_at desc, ingested_at desc, then natural key ascending.
	Query(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
}

// Notifier delivers cycle digests to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// CycleScheduler controls when ingestion cycles execute.
type CycleScheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
