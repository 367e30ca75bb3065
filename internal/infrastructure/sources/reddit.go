package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"SignalFeed/internal/config"
	"SignalFeed/internal/domain"
	"SignalFeed/internal/ports"
)

const (
	redditBaseURL   = "https://www.reddit.com"
	redditPostLimit = 25
)

// RedditAdapter pulls hot listings from the configured subreddits through
// the public JSON endpoints; no OAuth credentials required for read access.
type RedditAdapter struct {
	name       string
	baseURL    string
	subreddits []string
	fetch      *fetcher
	logger     *slog.Logger
}

var _ ports.SourceAdapter = (*RedditAdapter)(nil)

// NewReddit builds the adapter; client may be nil. Subreddits come from the
// source's category list.
func NewReddit(cfg config.SourceConfig, client *http.Client, logger *slog.Logger) (*RedditAdapter, error) {
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("reddit source %s: no subreddits configured", cfg.Name)
	}

	baseURL := cfg.Options["baseUrl"]
	if baseURL == "" {
		baseURL = redditBaseURL
	}

	subreddits := make([]string, 0, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		subreddits = append(subreddits, cat.Name)
	}

	// Reddit rate-limits unauthenticated clients hard; stay well under.
	return &RedditAdapter{
		name:       cfg.Name,
		baseURL:    baseURL,
		subreddits: subreddits,
		fetch:      newFetcher(client, 0.5),
		logger:     logger,
	}, nil
}

func (r *RedditAdapter) Name() string            { return r.name }
func (r *RedditAdapter) Type() domain.SourceType { return domain.SourceDiscussion }

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	Ups        int     `json:"ups"`
	CreatedUTC float64 `json:"created_utc"`
}

// FetchRecent pulls the hot listing of each subreddit.
func (r *RedditAdapter) FetchRecent(ctx context.Context) ([]domain.RawRecord, error) {
	records := make([]domain.RawRecord, 0)
	seen := map[string]struct{}{}

	for _, subreddit := range r.subreddits {
		listingURL := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", r.baseURL, subreddit, redditPostLimit)

		var listing redditListing
		if err := r.fetch.getJSON(ctx, listingURL, &listing); err != nil {
			return nil, fmt.Errorf("subreddit %s: %w", subreddit, err)
		}

		for _, child := range listing.Data.Children {
			post := child.Data
			if post.ID == "" {
				continue
			}
			if _, ok := seen[post.ID]; ok {
				continue
			}
			seen[post.ID] = struct{}{}

			records = append(records, domain.RawRecord{
				"id":          post.ID,
				"title":       post.Title,
				"selftext":    post.SelfText,
				"permalink":   post.Permalink,
				"ups":         post.Ups,
				"created_utc": post.CreatedUTC,
			})
		}

		r.debug("subreddit scanned", "subreddit", subreddit, "posts", len(listing.Data.Children))
	}

	return records, nil
}

func (r *RedditAdapter) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
