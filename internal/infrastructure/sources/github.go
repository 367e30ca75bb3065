package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"

	"SignalFeed/internal/config"
	"SignalFeed/internal/domain"
	"SignalFeed/internal/ports"
)

const githubSearchPageSize = 50

// GitHubAdapter surfaces recently active repositories matching the
// configured topics via the search API.
type GitHubAdapter struct {
	name     string
	client   *gh.Client
	keywords []string
	minStars int
	window   time.Duration
	logger   *slog.Logger
}

var _ ports.SourceAdapter = (*GitHubAdapter)(nil)

// NewGitHub builds the adapter; an empty token falls back to the
// unauthenticated rate limit.
func NewGitHub(cfg config.SourceConfig, httpClient *http.Client, logger *slog.Logger) (*GitHubAdapter, error) {
	if len(cfg.Keywords) == 0 {
		return nil, fmt.Errorf("github source %s: no keywords configured", cfg.Name)
	}

	client := gh.NewClient(httpClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	return &GitHubAdapter{
		name:     cfg.Name,
		client:   client,
		keywords: cfg.Keywords,
		minStars: int(cfg.MinEngagement),
		window:   7 * 24 * time.Hour,
		logger:   logger,
	}, nil
}

func (g *GitHubAdapter) Name() string            { return g.name }
func (g *GitHubAdapter) Type() domain.SourceType { return domain.SourceRepository }

// FetchRecent runs one search per configured keyword and aggregates the
// results, deduplicating by repository full name.
func (g *GitHubAdapter) FetchRecent(ctx context.Context) ([]domain.RawRecord, error) {
	since := time.Now().UTC().Add(-g.window).Format("2006-01-02")

	records := make([]domain.RawRecord, 0)
	seen := map[string]struct{}{}

	for _, keyword := range g.keywords {
		query := fmt.Sprintf("%s in:name,description,topics stars:>=%d pushed:>%s", keyword, g.minStars, since)
		opts := &gh.SearchOptions{
			Sort:        "stars",
			Order:       "desc",
			ListOptions: gh.ListOptions{PerPage: githubSearchPageSize},
		}

		result, _, err := g.client.Search.Repositories(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", keyword, err)
		}

		for _, repo := range result.Repositories {
			fullName := repo.GetFullName()
			if fullName == "" {
				continue
			}
			if _, ok := seen[fullName]; ok {
				continue
			}
			seen[fullName] = struct{}{}

			rec := domain.RawRecord{
				"full_name":        fullName,
				"description":      repo.GetDescription(),
				"html_url":         repo.GetHTMLURL(),
				"stargazers_count": repo.GetStargazersCount(),
			}
			if created := repo.GetCreatedAt(); !created.IsZero() {
				rec["created_at"] = created.Time
			}
			records = append(records, rec)
		}

		g.debug("keyword searched", "keyword", keyword, "total", result.GetTotal())
	}

	return records, nil
}

func (g *GitHubAdapter) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
