package retrieval

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quorumlabs/quorum/internal/domain"
)

const searchResultLimit = 3

// WebIngestor turns one search query into one stored-ready piece of evidence:
// search, pick the first usable unseen URL, extract, summarize, attach
// metadata. Per-source failures move on to the next result; (nil, nil) means
// no usable source was found for the query.
type WebIngestor struct {
	search      SearchClient
	capability  domain.CapabilityClient
	minRawChars int
	maxRawChars int
	logger      *zap.Logger
}

func NewWebIngestor(search SearchClient, capability domain.CapabilityClient, minRawChars, maxRawChars int, logger *zap.Logger) *WebIngestor {
	return &WebIngestor{
		search:      search,
		capability:  capability,
		minRawChars: minRawChars,
		maxRawChars: maxRawChars,
		logger:      logger,
	}
}

func (w *WebIngestor) Ingest(ctx context.Context, query string, seen func(url string) bool) (*domain.Ingestion, error) {
	results, err := w.search.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	for _, result := range results {
		if result.URL == "" {
			continue
		}
		if seen(result.URL) {
			w.logger.Debug("skipping already-held url", zap.String("url", result.URL))
			continue
		}

		raw, err := w.search.Extract(ctx, result.URL)
		if err != nil {
			w.logger.Warn("extraction failed, trying next result",
				zap.String("url", result.URL), zap.Error(err))
			continue
		}

		raw = strings.TrimSpace(raw)
		if len(raw) < w.minRawChars {
			w.logger.Debug("page too thin to summarize",
				zap.String("url", result.URL), zap.Int("chars", len(raw)))
			continue
		}
		if len(raw) > w.maxRawChars {
			raw = raw[:w.maxRawChars]
		}

		summary, err := w.capability.Summarize(ctx, raw)
		if err != nil {
			w.logger.Warn("summarization failed, trying next result",
				zap.String("url", result.URL), zap.Error(err))
			continue
		}
		if summary == "" {
			continue
		}

		ingestion := &domain.Ingestion{
			URL:     result.URL,
			Domain:  hostOf(result.URL),
			Summary: summary,
		}

		// Metadata extraction is best-effort; a failure never discards the source.
		meta, err := w.capability.ExtractMetadata(ctx, raw)
		if err != nil {
			w.logger.Warn("metadata extraction failed",
				zap.String("url", result.URL), zap.Error(err))
		} else if meta != nil {
			ingestion.Author = meta.Author
			ingestion.PublishedDate = normalizeDate(meta.PublishedDate)
		}

		return ingestion, nil
	}

	return nil, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// normalizeDate reduces a published date to YYYY-MM-DD when one of the known
// layouts parses it. Unparseable dates pass through untouched.
func normalizeDate(date *string) *string {
	if date == nil {
		return nil
	}
	s := strings.TrimSpace(*date)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			norm := t.Format("2006-01-02")
			return &norm
		}
	}
	return date
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
