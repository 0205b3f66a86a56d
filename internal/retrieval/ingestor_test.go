package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/quorumlabs/quorum/internal/domain"
	"github.com/quorumlabs/quorum/internal/llm"
)

type mockSearch struct {
	results    []SearchResult
	searchErr  error
	pages      map[string]string
	extractErr map[string]error

	extractCalls []string
}

func (m *mockSearch) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

func (m *mockSearch) Extract(ctx context.Context, url string) (string, error) {
	m.extractCalls = append(m.extractCalls, url)
	if err := m.extractErr[url]; err != nil {
		return "", err
	}
	return m.pages[url], nil
}

func page(n int) string {
	return strings.Repeat("evidence text ", n)
}

func neverSeen(string) bool { return false }

func TestIngestReturnsFirstUsableResult(t *testing.T) {
	search := &mockSearch{
		results: []SearchResult{{Title: "hit", URL: "https://www.example.org/paper"}},
		pages:   map[string]string{"https://www.example.org/paper": page(200)},
	}
	cap := llm.NewMockClient()
	cap.SummarizeResponse = "condensed claim"
	author := "Jane Roe"
	cap.MetadataResponse = &domain.Metadata{Author: &author}

	ing := NewWebIngestor(search, cap, 1200, 8000, zap.NewNop())
	got, err := ing.Ingest(context.Background(), "some query", neverSeen)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected an ingestion")
	}
	if got.URL != "https://www.example.org/paper" {
		t.Fatalf("unexpected url: %s", got.URL)
	}
	if got.Domain != "example.org" {
		t.Fatalf("unexpected domain: %s", got.Domain)
	}
	if got.Summary != "condensed claim" {
		t.Fatalf("unexpected summary: %s", got.Summary)
	}
	if got.Author == nil || *got.Author != "Jane Roe" {
		t.Fatal("author metadata lost")
	}
}

func TestIngestSkipsSeenURLs(t *testing.T) {
	search := &mockSearch{
		results: []SearchResult{
			{URL: "https://seen.example/one"},
			{URL: "https://fresh.example/two"},
		},
		pages: map[string]string{"https://fresh.example/two": page(200)},
	}
	cap := llm.NewMockClient()
	cap.SummarizeResponse = "fresh summary"

	ing := NewWebIngestor(search, cap, 1200, 8000, zap.NewNop())
	got, err := ing.Ingest(context.Background(), "q", func(url string) bool {
		return url == "https://seen.example/one"
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if got == nil || got.URL != "https://fresh.example/two" {
		t.Fatalf("expected fresh url, got %+v", got)
	}
	for _, url := range search.extractCalls {
		if url == "https://seen.example/one" {
			t.Fatal("seen url must not be extracted")
		}
	}
}

func TestIngestSkipsThinPages(t *testing.T) {
	search := &mockSearch{
		results: []SearchResult{
			{URL: "https://thin.example/a"},
			{URL: "https://full.example/b"},
		},
		pages: map[string]string{
			"https://thin.example/a": "too short",
			"https://full.example/b": page(200),
		},
	}
	cap := llm.NewMockClient()
	cap.SummarizeResponse = "summary"

	ing := NewWebIngestor(search, cap, 1200, 8000, zap.NewNop())
	got, err := ing.Ingest(context.Background(), "q", neverSeen)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if got == nil || got.URL != "https://full.example/b" {
		t.Fatalf("expected full page, got %+v", got)
	}
}

func TestIngestTruncatesOversizedPages(t *testing.T) {
	search := &mockSearch{
		results: []SearchResult{{URL: "https://big.example/a"}},
		pages:   map[string]string{"https://big.example/a": page(5000)},
	}
	cap := llm.NewMockClient()
	cap.SummarizeResponse = "summary"

	ing := NewWebIngestor(search, cap, 1200, 8000, zap.NewNop())
	if _, err := ing.Ingest(context.Background(), "q", neverSeen); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(cap.SummarizeCalls) != 1 {
		t.Fatalf("expected 1 summarize call, got %d", len(cap.SummarizeCalls))
	}
	if len(cap.SummarizeCalls[0]) != 8000 {
		t.Fatalf("raw text not truncated: %d chars", len(cap.SummarizeCalls[0]))
	}
}

func TestIngestMetadataFailureIsNonFatal(t *testing.T) {
	search := &mockSearch{
		results: []SearchResult{{URL: "https://example.com/a"}},
		pages:   map[string]string{"https://example.com/a": page(200)},
	}
	cap := llm.NewMockClient()
	cap.SummarizeResponse = "summary"
	cap.MetadataError = errors.New("model unavailable")

	ing := NewWebIngestor(search, cap, 1200, 8000, zap.NewNop())
	got, err := ing.Ingest(context.Background(), "q", neverSeen)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if got == nil {
		t.Fatal("source must survive metadata failure")
	}
	if got.Author != nil || got.PublishedDate != nil {
		t.Fatal("metadata fields must stay nil")
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"already iso", "2024-03-01", "2024-03-01"},
		{"slashes", "2024/03/01", "2024-03-01"},
		{"long form", "March 1, 2024", "2024-03-01"},
		{"short month", "Mar 1, 2024", "2024-03-01"},
		{"day first", "1 March 2024", "2024-03-01"},
		{"unparseable passes through", "last spring", "last spring"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeDate(&tc.in)
			if got == nil || *got != tc.want {
				t.Fatalf("normalizeDate(%q) = %v, want %q", tc.in, got, tc.want)
			}
		})
	}

	if normalizeDate(nil) != nil {
		t.Fatal("nil must stay nil")
	}
	empty := "  "
	if normalizeDate(&empty) != nil {
		t.Fatal("blank must become nil")
	}
}

func TestIngestExhaustedResultsReturnsNil(t *testing.T) {
	search := &mockSearch{
		results:    []SearchResult{{URL: "https://broken.example/a"}},
		extractErr: map[string]error{"https://broken.example/a": errors.New("fetch failed")},
	}
	ing := NewWebIngestor(search, llm.NewMockClient(), 1200, 8000, zap.NewNop())

	got, err := ing.Ingest(context.Background(), "q", neverSeen)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil ingestion, got %+v", got)
	}
}

func TestIngestSearchErrorPropagates(t *testing.T) {
	search := &mockSearch{searchErr: errors.New("rate limited")}
	ing := NewWebIngestor(search, llm.NewMockClient(), 1200, 8000, zap.NewNop())

	if _, err := ing.Ingest(context.Background(), "q", neverSeen); err == nil {
		t.Fatal("expected search error to propagate")
	}
}
