package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"SignalFeed/internal/domain"
	"SignalFeed/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
    source_type           TEXT NOT NULL,
    source_id             TEXT NOT NULL,
    title                 TEXT NOT NULL DEFAULT '',
    summary               TEXT NOT NULL DEFAULT '',
    url                   TEXT NOT NULL DEFAULT '',
    published_at          TEXT NOT NULL,
    published_at_inferred INTEGER NOT NULL DEFAULT 0,
    ingested_at           TEXT NOT NULL,
    engagement            REAL NOT NULL DEFAULT 0,
    signal_class          TEXT NOT NULL,
    score                 REAL NOT NULL DEFAULT 0,
    matched_keywords      TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (source_type, source_id)
);
CREATE INDEX IF NOT EXISTS idx_items_published ON items (published_at);
CREATE INDEX IF NOT EXISTS idx_items_class ON items (signal_class);
`

var itemColumns = []string{
	"source_type", "source_id", "title", "summary", "url",
	"published_at", "published_at_inferred", "ingested_at",
	"engagement", "signal_class", "score", "matched_keywords",
}

// SQLite persists items durably in a single-file database. WAL mode plus a
// busy timeout lets concurrent per-source writers proceed without a global
// lock; the primary key enforces natural-key uniqueness transactionally.
type SQLite struct {
	db *sql.DB
}

var _ ports.ItemStore = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the database at path and applies the
// schema.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces the row for the item's natural key. The write
// is a single statement, so a failure leaves prior state unchanged.
func (s *SQLite) Upsert(ctx context.Context, item domain.Item) error {
	keywords, err := json.Marshal(item.MatchedKeywords)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}

	query, args, err := sq.Insert("items").
		Columns(itemColumns...).
		Values(
			string(item.SourceType), item.SourceID, item.Title, item.Summary, item.URL,
			formatTime(item.PublishedAt), boolInt(item.PublishedAtInferred), formatTime(item.IngestedAt),
			item.Engagement, string(item.SignalClass), item.Score, string(keywords),
		).
		Suffix(`ON CONFLICT (source_type, source_id) DO UPDATE SET
            title = excluded.title,
            summary = excluded.summary,
            url = excluded.url,
            published_at = excluded.published_at,
            published_at_inferred = excluded.published_at_inferred,
            engagement = excluded.engagement,
            signal_class = excluded.signal_class,
            score = excluded.score,
            matched_keywords = excluded.matched_keywords`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", item.Key(), translateErr(err))
	}
	return nil
}

// Get returns the stored item or domain.ErrNotFound.
func (s *SQLite) Get(ctx context.Context, key domain.ItemKey) (domain.Item, error) {
	query, args, err := sq.Select(itemColumns...).
		From("items").
		Where(sq.Eq{"source_type": string(key.SourceType), "source_id": key.SourceID}).
		ToSql()
	if err != nil {
		return domain.Item{}, fmt.Errorf("build get: %w", err)
	}

	item, err := scanItem(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("get %s: %w", key, translateErr(err))
	}
	return item, nil
}

// Query returns items matching the filter in deterministic order for stable
// pagination: published_at desc, ingested_at desc, natural key ascending.
func (s *SQLite) Query(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	builder := sq.Select(itemColumns...).
		From("items").
		OrderBy("published_at DESC", "ingested_at DESC", "source_type ASC", "source_id ASC")

	if len(filter.Classes) > 0 {
		classes := make([]string, len(filter.Classes))
		for i, c := range filter.Classes {
			classes[i] = string(c)
		}
		builder = builder.Where(sq.Eq{"signal_class": classes})
	}
	if len(filter.SourceTypes) > 0 {
		types := make([]string, len(filter.SourceTypes))
		for i, t := range filter.SourceTypes {
			types[i] = string(t)
		}
		builder = builder.Where(sq.Eq{"source_type": types})
	}
	if !filter.PublishedAfter.IsZero() {
		builder = builder.Where(sq.GtOrEq{"published_at": formatTime(filter.PublishedAfter)})
	}
	if !filter.PublishedBefore.IsZero() {
		builder = builder.Where(sq.LtOrEq{"published_at": formatTime(filter.PublishedBefore)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", translateErr(err))
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", translateErr(err))
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var (
		item                domain.Item
		sourceType, class   string
		published, ingested string
		inferred            int
		keywords            string
	)

	err := row.Scan(
		&sourceType, &item.SourceID, &item.Title, &item.Summary, &item.URL,
		&published, &inferred, &ingested,
		&item.Engagement, &class, &item.Score, &keywords,
	)
	if err != nil {
		return domain.Item{}, err
	}

	item.SourceType = domain.SourceType(sourceType)
	item.SignalClass = domain.SignalClass(class)
	item.PublishedAtInferred = inferred != 0

	if item.PublishedAt, err = parseTime(published); err != nil {
		return domain.Item{}, fmt.Errorf("published_at: %w", err)
	}
	if item.IngestedAt, err = parseTime(ingested); err != nil {
		return domain.Item{}, fmt.Errorf("ingested_at: %w", err)
	}
	if keywords != "" && keywords != "null" {
		if err := json.Unmarshal([]byte(keywords), &item.MatchedKeywords); err != nil {
			return domain.Item{}, fmt.Errorf("matched_keywords: %w", err)
		}
	}

	return item, nil
}

// Timestamps are stored as fixed-width UTC RFC 3339 text so lexicographic
// ORDER BY and range predicates agree with chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case errors.Is(err, sql.ErrConnDone) || strings.Contains(msg, "database is closed"):
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	case strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}
