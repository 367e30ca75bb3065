package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"SignalFeed/internal/classify"
	"SignalFeed/internal/dedup"
	"SignalFeed/internal/domain"
	"SignalFeed/internal/normalize"
	"SignalFeed/internal/ports"
)

// PipelineDeps wires all collaborators into the ingestion pipeline.
type PipelineDeps struct {
	Sources    []ports.SourceAdapter
	Normalizer *normalize.Normalizer
	Classifier *classify.Classifier
	Reconciler *dedup.Reconciler
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Pipeline drives one ingestion cycle across all configured sources:
// fetch -> normalize -> classify -> reconcile, isolating per-source and
// per-record failures.
type Pipeline struct {
	sources    []ports.SourceAdapter
	normalizer *normalize.Normalizer
	classifier *classify.Classifier
	reconciler *dedup.Reconciler
	notifier   ports.Notifier
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		sources:    deps.Sources,
		normalizer: deps.Normalizer,
		classifier: deps.Classifier,
		reconciler: deps.Reconciler,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// RunCycle executes one full pass over all configured sources, fanning out
// one task per source. Committed items stay committed if the context is
// cancelled mid-flight; the cycle is resumable, not transactional.
func (p *Pipeline) RunCycle(ctx context.Context) (domain.CycleSummary, error) {
	summary := domain.CycleSummary{
		StartedAt: time.Now().UTC(),
		Sources:   make([]domain.SourceReport, len(p.sources)),
	}
	freshReds := make([][]domain.Item, len(p.sources))

	var g errgroup.Group
	for i, adapter := range p.sources {
		g.Go(func() error {
			summary.Sources[i], freshReds[i] = p.runSource(ctx, adapter)
			return nil
		})
	}
	_ = g.Wait()

	summary.CompletedAt = time.Now().UTC()
	p.debug("cycle completed",
		"ingested", summary.TotalIngested(),
		"updated", summary.TotalUpdated(),
		"failed", summary.TotalFailed(),
	)

	p.publishDigest(ctx, freshReds)

	return summary, ctx.Err()
}

// runSource walks one source's records. A bad record never aborts the
// source's remaining items; only the store going unavailable does.
func (p *Pipeline) runSource(ctx context.Context, adapter ports.SourceAdapter) (report domain.SourceReport, reds []domain.Item) {
	report = domain.SourceReport{
		Source:    adapter.Name(),
		StartedAt: time.Now().UTC(),
	}
	defer func() { report.CompletedAt = time.Now().UTC() }()

	records, err := adapter.FetchRecent(ctx)
	if err != nil {
		report.Fail(fmt.Sprintf("fetch: %v", err))
		p.error("source fetch failed", "source", adapter.Name(), "error", err)
		return report, nil
	}
	for _, record := range records {
		if ctx.Err() != nil {
			report.Fail("cycle cancelled")
			break
		}

		item, err := p.normalizer.Normalize(record, adapter.Type())
		if err != nil {
			report.AddError(record.Identifier(), fmt.Sprintf("normalization: %v", err))
			p.warn("record dropped", "source", adapter.Name(), "record", record.Identifier(), "error", err)
			continue
		}

		result := p.classifier.Classify(item)
		item.SignalClass = result.Class
		item.Score = result.Score
		item.MatchedKeywords = result.Matched

		up, err := p.reconciler.Reconcile(ctx, item)
		if err != nil {
			report.AddError(item.Key().String(), fmt.Sprintf("reconcile: %v", err))
			if errors.Is(err, domain.ErrUnavailable) {
				// Infrastructure failure: abort this source's remaining
				// batch. Sibling sources keep going.
				report.Fail("store unavailable")
				p.error("store unavailable, aborting source batch", "source", adapter.Name())
				break
			}
			p.warn("record not committed", "source", adapter.Name(), "key", item.Key().String(), "error", err)
			continue
		}

		if up.IsNew {
			report.Ingested++
			if up.Final.SignalClass == domain.SignalRed {
				reds = append(reds, up.Final)
			}
		} else {
			report.Updated++
		}
	}

	p.debug("source processed",
		"source", adapter.Name(),
		"records", len(records),
		"ingested", report.Ingested,
		"updated", report.Updated,
		"failed", report.Failed,
	)
	return report, reds
}

// publishDigest sends newly ingested red items to the optional notifier.
// Delivery failures are logged, never surfaced to the cycle caller.
func (p *Pipeline) publishDigest(ctx context.Context, freshReds [][]domain.Item) {
	if p.notifier == nil {
		return
	}

	var items []domain.Item
	for _, batch := range freshReds {
		items = append(items, batch...)
	}
	if len(items) == 0 {
		return
	}

	if err := p.notifier.PublishDigest(ctx, buildDigest(items)); err != nil {
		p.warn("digest delivery failed", "items", len(items), "error", err)
	}
}

func buildDigest(items []domain.Item) string {
	digest := fmt.Sprintf("*%d new red-signal items*\n\n", len(items))
	for _, item := range items {
		digest += fmt.Sprintf("- %s\nScore: %.2f\n%s\n\n", item.Title, item.Score, item.URL)
	}
	return digest
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) error(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
