package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quorumlabs/quorum/internal/domain"
)

// GateOutcome is the reuse gate's decision for one query: either a stored
// record to reuse, or nil meaning the query must go to fresh ingestion.
type GateOutcome struct {
	Query  domain.Query
	Reused *domain.StoredEvidence
}

// ReuseGate decides, per round, which queries can be answered from vector
// memory instead of the web. Retrieval and rerank run per query; the
// equivalence judgment is one batched call across the whole round.
type ReuseGate struct {
	store       domain.EvidenceStore
	embedder    domain.EmbeddingClient
	capability  domain.CapabilityClient
	topK        int
	topN        int
	concurrency int
	logger      *zap.Logger
}

func NewReuseGate(store domain.EvidenceStore, embedder domain.EmbeddingClient, capability domain.CapabilityClient, topK, topN, concurrency int, logger *zap.Logger) *ReuseGate {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReuseGate{
		store:       store,
		embedder:    embedder,
		capability:  capability,
		topK:        topK,
		topN:        topN,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Evaluate runs the gate for one round's queries. seen filters out stored
// records whose URL the run already holds, before any reranking. Per-query
// retrieval failures degrade that query to fresh ingestion; a failed or
// malformed judgment is fatal for the run. The same stored URL is never
// reused for two queries in one round.
func (g *ReuseGate) Evaluate(ctx context.Context, queries []domain.Query, seen func(url string) bool) ([]GateOutcome, error) {
	candidates := make([][]*domain.Candidate, len(queries))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, q := range queries {
		i, q := i, q
		eg.Go(func() error {
			cands, err := g.retrieve(gctx, q, seen)
			if err != nil {
				g.logger.Warn("candidate retrieval failed, query goes fresh",
					zap.String("query_id", q.ID), zap.Error(err))
				return nil
			}
			candidates[i] = cands
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	offered := make(map[string][]*domain.Candidate, len(queries))
	anyCandidates := false
	for i, q := range queries {
		offered[q.ID] = candidates[i]
		if len(candidates[i]) > 0 {
			anyCandidates = true
		}
	}

	outcomes := make([]GateOutcome, len(queries))
	for i, q := range queries {
		outcomes[i] = GateOutcome{Query: q}
	}
	if !anyCandidates {
		return outcomes, nil
	}

	decisions, err := g.capability.JudgeEquivalence(ctx, queries, offered)
	if err != nil {
		return nil, fmt.Errorf("judge equivalence: %w", err)
	}

	// Honor picks in query order; a stored URL claimed by an earlier query
	// cannot be claimed again, the later query falls through to ingestion.
	claimed := make(map[string]bool)
	for i, q := range queries {
		pick := decisions[q.ID]
		if pick == "" {
			continue
		}
		cand := findCandidate(offered[q.ID], pick)
		if cand == nil {
			return nil, domain.NewContractError("JudgeEquivalence",
				fmt.Sprintf("picked candidate %q not offered for query %s", pick, q.ID), decisions)
		}
		if claimed[cand.URL] {
			g.logger.Warn("candidate already claimed this round, query goes fresh",
				zap.String("query_id", q.ID), zap.String("url", cand.URL))
			continue
		}
		claimed[cand.URL] = true
		stored := cand.StoredEvidence
		outcomes[i].Reused = &stored
	}
	return outcomes, nil
}

// retrieve embeds one query, searches the store, drops hits whose URL the run
// already holds, and reranks what remains down to the gate's offer size.
// Candidate ids are scoped to this query's pass.
func (g *ReuseGate) retrieve(ctx context.Context, q domain.Query, seen func(url string) bool) ([]*domain.Candidate, error) {
	embedding, err := g.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := g.store.Search(ctx, embedding, g.topK)
	if err != nil {
		return nil, fmt.Errorf("search store: %w", err)
	}

	cands := make([]*domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		if seen(hit.URL) {
			continue
		}
		cands = append(cands, &domain.Candidate{
			ID:             fmt.Sprintf("VS_%02d", len(cands)+1),
			StoredEvidence: hit,
		})
	}
	if len(cands) == 0 {
		return nil, nil
	}

	ranked, err := g.capability.RerankCandidates(ctx, q.Text, cands)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}
	if len(ranked) > g.topN {
		ranked = ranked[:g.topN]
	}
	return ranked, nil
}

func findCandidate(cands []*domain.Candidate, id string) *domain.Candidate {
	for _, c := range cands {
		if c.ID == id {
			return c
		}
	}
	return nil
}
