package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SignalFeed/internal/config"
	"SignalFeed/internal/domain"
	"SignalFeed/internal/ports"
)

const (
	arxivBaseURL         = "https://arxiv.org"
	arxivDefaultPageSize = 100
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivAdapter walks category listing pages and emits one raw record per
// paper. Listings are HTML only; the adapter never interprets record
// semantics beyond extraction.
type ArxivAdapter struct {
	name       string
	categories []config.CategoryConfig
	fetch      *fetcher
	pageSize   int
	logger     *slog.Logger
}

var _ ports.SourceAdapter = (*ArxivAdapter)(nil)

// NewArxiv wires an adapter from source configuration; client may be nil.
func NewArxiv(cfg config.SourceConfig, client *http.Client, logger *slog.Logger) (*ArxivAdapter, error) {
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("arxiv source %s: no categories configured", cfg.Name)
	}

	pageSize := arxivDefaultPageSize
	if v := cfg.Options["pageSize"]; v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("arxiv source %s: invalid pageSize %q", cfg.Name, v)
		}
		pageSize = parsed
	}

	return &ArxivAdapter{
		name:       cfg.Name,
		categories: cfg.Categories,
		fetch:      newFetcher(client, 1),
		pageSize:   pageSize,
		logger:     logger,
	}, nil
}

func (a *ArxivAdapter) Name() string            { return a.name }
func (a *ArxivAdapter) Type() domain.SourceType { return domain.SourcePaper }

// FetchRecent pulls the first listing page of each configured category.
func (a *ArxivAdapter) FetchRecent(ctx context.Context) ([]domain.RawRecord, error) {
	records := make([]domain.RawRecord, 0)
	seen := map[string]struct{}{}

	for _, cat := range a.categories {
		pageURL, err := buildListingURL(cat.URL, a.pageSize)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		doc, err := a.fetch.getDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		extracted := extractRecords(doc)
		a.debug("category scanned", "category", cat.Name, "entries", len(extracted))

		for _, rec := range extracted {
			id, _ := rec["id"].(string)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			records = append(records, rec)
		}
	}

	return records, nil
}

func extractRecords(doc *goquery.Document) []domain.RawRecord {
	var records []domain.RawRecord

	doc.Find("dl > dt").Each(func(i int, dt *goquery.Selection) {
		dd := dt.Next()
		if rec, ok := parseListingEntry(dt, dd); ok {
			records = append(records, rec)
		}
	})

	return records
}

func parseListingEntry(dt, dd *goquery.Selection) (domain.RawRecord, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()

	id := strings.TrimSpace(link.Text())
	href, _ := link.Attr("href")
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if id == "" {
		return nil, false
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	summary := dd.Find(".mathjax").First().Text()
	summary = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:"))

	rec := domain.RawRecord{
		"id":      id,
		"title":   title,
		"summary": summary,
		"url":     href,
	}

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			rec["published_at"] = parsed.UTC().Format(time.RFC3339)
		}
	}

	return rec, true
}

func buildListingURL(base string, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", "0")
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (a *ArxivAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
