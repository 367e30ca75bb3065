package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"SignalFeed/internal/domain"
)

// ErrMissingKey marks a raw record without a stable identifier. Such records
// are dropped by the orchestrator; a missing title only degrades to empty.
var ErrMissingKey = errors.New("record has no stable identifier")

// Normalizer maps raw source records into the canonical Item shape. It is a
// pure mapping: the only ambient input is the injected clock, used when a
// source provides no published timestamp.
type Normalizer struct {
	now func() time.Time
}

// New builds a Normalizer on the wall clock.
func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock builds a Normalizer with an injected clock for tests.
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize maps one raw record into an Item for the given source type.
// The returned item carries no classification yet; ingested_at is stamped
// here so the classifier's recency input is embedded in the item itself.
func (n *Normalizer) Normalize(rec domain.RawRecord, sourceType domain.SourceType) (domain.Item, error) {
	item := domain.Item{
		SourceType: sourceType,
		IngestedAt: n.now().UTC(),
	}

	switch sourceType {
	case domain.SourcePaper:
		item.SourceID = stringField(rec, "id")
		item.Title = stringField(rec, "title")
		item.Summary = stringField(rec, "summary", "abstract")
		item.URL = stringField(rec, "url", "link")
	case domain.SourceRepository:
		item.SourceID = stringField(rec, "full_name", "id")
		item.Title = stringField(rec, "full_name")
		item.Summary = stringField(rec, "description")
		item.URL = stringField(rec, "html_url", "url")
		item.Engagement = floatField(rec, "stargazers_count")
	case domain.SourceDiscussion:
		item.SourceID = stringField(rec, "id")
		item.Title = stringField(rec, "title")
		item.Summary = stringField(rec, "selftext")
		item.URL = discussionURL(rec)
		item.Engagement = floatField(rec, "ups", "score")
	case domain.SourceLink:
		item.SourceID = stringField(rec, "objectID", "id")
		item.Title = stringField(rec, "title")
		item.Summary = stringField(rec, "story_text")
		item.URL = stringField(rec, "url")
		item.Engagement = floatField(rec, "points")
	default:
		return domain.Item{}, fmt.Errorf("unknown source type %q", sourceType)
	}

	if item.SourceID == "" {
		return domain.Item{}, fmt.Errorf("%w: %s record %s", ErrMissingKey, sourceType, rec.Identifier())
	}

	item.Title = strings.TrimSpace(item.Title)
	item.Summary = strings.TrimSpace(item.Summary)

	if published, ok := timeField(rec, "published_at", "created_at", "created_utc"); ok {
		item.PublishedAt = published.UTC()
	} else {
		item.PublishedAt = item.IngestedAt
		item.PublishedAtInferred = true
	}

	// Sources occasionally report future timestamps (clock skew on
	// crowd-sourced feeds). Clamp rather than reject so the
	// published_at <= ingested_at invariant holds.
	if item.PublishedAt.After(item.IngestedAt) {
		item.PublishedAt = item.IngestedAt
	}

	return item, nil
}

func discussionURL(rec domain.RawRecord) string {
	if link := stringField(rec, "permalink"); link != "" {
		if strings.HasPrefix(link, "http") {
			return link
		}
		return "https://www.reddit.com" + link
	}
	return stringField(rec, "url")
}

func stringField(rec domain.RawRecord, keys ...string) string {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case fmt.Stringer:
			if s.String() != "" {
				return s.String()
			}
		case int, int32, int64, float64:
			return fmt.Sprintf("%v", s)
		}
	}
	return ""
}

func floatField(rec domain.RawRecord, keys ...string) float64 {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int32:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return 0
}

func timeField(rec domain.RawRecord, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			return t, true
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if parsed, err := time.Parse(layout, t); err == nil {
					return parsed, true
				}
			}
		case float64:
			// Epoch seconds, as reddit reports created_utc.
			if t > 0 {
				return time.Unix(int64(t), 0), true
			}
		case int64:
			if t > 0 {
				return time.Unix(t, 0), true
			}
		}
	}
	return time.Time{}, false
}
