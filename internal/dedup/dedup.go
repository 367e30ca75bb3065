package dedup

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"SignalFeed/internal/domain"
	"SignalFeed/internal/ports"
)

// Upsert is the outcome of reconciling a candidate against the store.
type Upsert struct {
	IsNew bool
	Final domain.Item
}

const lockStripes = 64

// Reconciler decides between inserting a candidate item and refreshing an
// existing row sharing its natural key. Reconciliations of the same key are
// serialized through striped locks; unrelated keys proceed in parallel.
type Reconciler struct {
	store ports.ItemStore
	locks [lockStripes]sync.Mutex
}

// New wires the reconciler to an item store.
func New(store ports.ItemStore) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile looks up the candidate's natural key and commits either a fresh
// insert or a latest-classification-wins merge. A write conflict is retried
// exactly once before surfacing as a per-record failure.
func (r *Reconciler) Reconcile(ctx context.Context, candidate domain.Item) (Upsert, error) {
	mu := &r.locks[stripe(candidate.Key())]
	mu.Lock()
	defer mu.Unlock()

	up, err := r.reconcileOnce(ctx, candidate)
	if errors.Is(err, domain.ErrConflict) {
		up, err = r.reconcileOnce(ctx, candidate)
	}
	return up, err
}

func (r *Reconciler) reconcileOnce(ctx context.Context, candidate domain.Item) (Upsert, error) {
	existing, err := r.store.Get(ctx, candidate.Key())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := r.store.Upsert(ctx, candidate); err != nil {
			return Upsert{}, fmt.Errorf("insert %s: %w", candidate.Key(), err)
		}
		return Upsert{IsNew: true, Final: candidate}, nil
	case err != nil:
		return Upsert{}, fmt.Errorf("lookup %s: %w", candidate.Key(), err)
	}

	final := merge(existing, candidate)
	if err := r.store.Upsert(ctx, final); err != nil {
		return Upsert{}, fmt.Errorf("refresh %s: %w", candidate.Key(), err)
	}
	return Upsert{IsNew: false, Final: final}, nil
}

// merge keeps the existing row's identity (ingested_at and natural key are
// immutable) and overwrites everything freshly computed by the classifier.
// A source republishing updated engagement reclassifies the same logical
// item rather than creating a duplicate row.
func merge(existing, candidate domain.Item) domain.Item {
	final := candidate
	final.SourceType = existing.SourceType
	final.SourceID = existing.SourceID
	final.IngestedAt = existing.IngestedAt
	if final.PublishedAt.After(final.IngestedAt) {
		final.PublishedAt = final.IngestedAt
	}
	return final
}

func stripe(key domain.ItemKey) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.String()))
	return h.Sum32() % lockStripes
}
