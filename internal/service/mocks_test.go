package service

import (
	"context"
	"sync"

	"github.com/quorumlabs/quorum/internal/domain"
)

// memStore is an in-memory EvidenceStore for tests.
type memStore struct {
	mu      sync.Mutex
	records []domain.StoredEvidence
	hits    []domain.StoredEvidence

	searchErr error
	upsertErr error

	searchCalls int
	upsertCalls [][]domain.StoredEvidence
}

func (m *memStore) Load(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *memStore) Search(ctx context.Context, embedding []float32, k int) ([]domain.StoredEvidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	hits := m.hits
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]domain.StoredEvidence, len(hits))
	copy(out, hits)
	return out, nil
}

func (m *memStore) Upsert(ctx context.Context, records []domain.StoredEvidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertCalls = append(m.upsertCalls, records)
	for _, rec := range records {
		exists := false
		for _, held := range m.records {
			if held.URL == rec.URL {
				exists = true
				break
			}
		}
		if !exists {
			m.records = append(m.records, rec)
		}
	}
	return nil
}

// scriptedIngestor maps query text to a fixed ingestion outcome.
type scriptedIngestor struct {
	mu      sync.Mutex
	byQuery map[string]*domain.Ingestion
	err     error
	calls   []string
}

func (s *scriptedIngestor) Ingest(ctx context.Context, query string, seen func(url string) bool) (*domain.Ingestion, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	ing := s.byQuery[query]
	if ing == nil || seen(ing.URL) {
		return nil, nil
	}
	return ing, nil
}

func stored(queryText, url, summary string) domain.StoredEvidence {
	return domain.StoredEvidence{
		QueryText:     queryText,
		Summary:       summary,
		URL:           url,
		RetrievedDate: "2026-01-15",
	}
}
