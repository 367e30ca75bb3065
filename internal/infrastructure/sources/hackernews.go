package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"SignalFeed/internal/config"
	"SignalFeed/internal/domain"
	"SignalFeed/internal/ports"
)

const (
	hnSearchURL        = "https://hn.algolia.com/api/v1/search"
	hnHitsPerPage      = 50
	hnDefaultMinPoints = 20
)

// HackerNewsAdapter queries the Algolia search API for stories matching the
// configured keywords above a minimum point threshold.
type HackerNewsAdapter struct {
	name      string
	endpoint  string
	keywords  []string
	minPoints int
	fetch     *fetcher
	logger    *slog.Logger
}

var _ ports.SourceAdapter = (*HackerNewsAdapter)(nil)

// NewHackerNews builds the adapter; client may be nil.
func NewHackerNews(cfg config.SourceConfig, client *http.Client, logger *slog.Logger) (*HackerNewsAdapter, error) {
	if len(cfg.Keywords) == 0 {
		return nil, fmt.Errorf("hackernews source %s: no keywords configured", cfg.Name)
	}

	endpoint := cfg.Options["endpoint"]
	if endpoint == "" {
		endpoint = hnSearchURL
	}

	minPoints := hnDefaultMinPoints
	if cfg.MinEngagement > 0 {
		minPoints = int(cfg.MinEngagement)
	}

	return &HackerNewsAdapter{
		name:      cfg.Name,
		endpoint:  endpoint,
		keywords:  cfg.Keywords,
		minPoints: minPoints,
		fetch:     newFetcher(client, 2),
		logger:    logger,
	}, nil
}

func (h *HackerNewsAdapter) Name() string            { return h.name }
func (h *HackerNewsAdapter) Type() domain.SourceType { return domain.SourceLink }

type hnHit struct {
	ObjectID  string `json:"objectID"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	StoryText string `json:"story_text"`
	Points    int    `json:"points"`
	CreatedAt string `json:"created_at"`
}

type hnResponse struct {
	Hits []hnHit `json:"hits"`
}

// FetchRecent runs one search per keyword and aggregates hits by story ID.
func (h *HackerNewsAdapter) FetchRecent(ctx context.Context) ([]domain.RawRecord, error) {
	records := make([]domain.RawRecord, 0)
	seen := map[string]struct{}{}

	for _, keyword := range h.keywords {
		query := url.Values{}
		query.Set("query", keyword)
		query.Set("tags", "story")
		query.Set("hitsPerPage", strconv.Itoa(hnHitsPerPage))
		query.Set("numericFilters", fmt.Sprintf("points>=%d", h.minPoints))

		var resp hnResponse
		if err := h.fetch.getJSON(ctx, h.endpoint+"?"+query.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("search %q: %w", keyword, err)
		}

		for _, hit := range resp.Hits {
			if hit.ObjectID == "" {
				continue
			}
			if _, ok := seen[hit.ObjectID]; ok {
				continue
			}
			seen[hit.ObjectID] = struct{}{}

			rec := domain.RawRecord{
				"objectID":   hit.ObjectID,
				"title":      hit.Title,
				"points":     hit.Points,
				"story_text": hit.StoryText,
			}
			if hit.URL != "" {
				rec["url"] = hit.URL
			} else {
				rec["url"] = "https://news.ycombinator.com/item?id=" + hit.ObjectID
			}
			if hit.CreatedAt != "" {
				rec["created_at"] = hit.CreatedAt
			}
			records = append(records, rec)
		}

		h.debug("keyword searched", "keyword", keyword, "hits", len(resp.Hits))
	}

	return records, nil
}

func (h *HackerNewsAdapter) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}
