package service

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/quorumlabs/quorum/internal/config"
	"github.com/quorumlabs/quorum/internal/embedding"
	"github.com/quorumlabs/quorum/internal/llm"
	"github.com/quorumlabs/quorum/internal/retrieval"
	"github.com/quorumlabs/quorum/internal/scoring"
	"github.com/quorumlabs/quorum/internal/store"
)

// Bootstrap assembles a ready ResearchService from the environment config:
// providers, store, credibility datasets, gate, ingestor. Both the server and
// the CLI build through here so they cannot drift apart.
func Bootstrap(pool *pgxpool.Pool, logger *zap.Logger) (*ResearchService, error) {
	capability, err := llm.NewClient(config.LLMProvider(), config.LLMAPIKey())
	if err != nil {
		return nil, fmt.Errorf("capability client: %w", err)
	}

	embedder, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey(), config.EmbeddingDim())
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	credibility, err := scoring.LoadCredibilityConfig(config.CredibilityAuthorsPath(), config.CredibilitySourcesPath())
	if err != nil {
		return nil, fmt.Errorf("credibility datasets: %w", err)
	}

	evidenceStore := store.NewEvidenceStore(pool, config.EmbeddingDim())

	var search retrieval.SearchClient = retrieval.NewTavilyClient(config.TavilyAPIKey())
	ingestor := retrieval.NewWebIngestor(search, capability, config.MinRawChars(), config.MaxRawChars(), logger)

	gate := NewReuseGate(evidenceStore, embedder, capability,
		config.VectorTopK(), config.RerankTopN(), config.QueryConcurrency(), logger)

	return NewResearchService(capability, embedder, evidenceStore, ingestor, gate,
		credibility, config.QueryConcurrency(), logger), nil
}
