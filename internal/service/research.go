package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quorumlabs/quorum/internal/domain"
	"github.com/quorumlabs/quorum/internal/scoring"
)

// ResearchService drives a full research run: plan once, iterate discovery
// rounds through the reuse gate and fresh ingestion, then score and resolve
// conflicts over the accumulated evidence. Rounds are strictly sequential;
// the queries inside a round fan out.
type ResearchService struct {
	capability  domain.CapabilityClient
	embedder    domain.EmbeddingClient
	store       domain.EvidenceStore
	ingestor    domain.Ingestor
	gate        *ReuseGate
	credibility *scoring.CredibilityConfig
	concurrency int
	logger      *zap.Logger
}

func NewResearchService(capability domain.CapabilityClient, embedder domain.EmbeddingClient, store domain.EvidenceStore, ingestor domain.Ingestor, gate *ReuseGate, credibility *scoring.CredibilityConfig, concurrency int, logger *zap.Logger) *ResearchService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ResearchService{
		capability:  capability,
		embedder:    embedder,
		store:       store,
		ingestor:    ingestor,
		gate:        gate,
		credibility: credibility,
		concurrency: concurrency,
		logger:      logger,
	}
}

// runState is the mutable heart of one run. The mutex guards the seen-URL set
// and the record list together, so id assignment and URL claims are atomic.
type runState struct {
	mu      sync.Mutex
	seen    map[string]bool
	records []*domain.EvidenceRecord
}

func newRunState() *runState {
	return &runState{seen: make(map[string]bool)}
}

func (st *runState) Seen(url string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.seen[url]
}

// accept claims the record's URL and assigns the next sequential id. Returns
// nil if another query claimed the URL first.
func (st *runState) accept(stored domain.StoredEvidence, credibility int) *domain.EvidenceRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.seen[stored.URL] {
		return nil
	}
	st.seen[stored.URL] = true
	rec := &domain.EvidenceRecord{
		ID:               fmt.Sprintf("S%d", len(st.records)+1),
		StoredEvidence:   stored,
		CredibilityScore: credibility,
	}
	st.records = append(st.records, rec)
	return rec
}

func (st *runState) summaries() map[string]string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[string]string, len(st.records))
	for _, rec := range st.records {
		out[rec.ID] = rec.Summary
	}
	return out
}

// Run executes one complete research run.
func (s *ResearchService) Run(ctx context.Context, question string, rounds, queriesPerRound int) (*domain.RunResult, error) {
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	trace := domain.NewRunTrace()

	plan, err := s.capability.PlanResearch(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("plan research: %w", err)
	}
	trace.Log("plan", plan.Goal, map[string]any{"dimensions": plan.Dimensions})
	logger.Info("research planned",
		zap.String("goal", plan.Goal), zap.Int("dimensions", len(plan.Dimensions)))

	state := newRunState()

	for round := 1; round <= rounds; round++ {
		queries, err := s.roundQueries(ctx, question, plan, state, round, queriesPerRound)
		if err != nil {
			return nil, err
		}

		texts := make([]string, len(queries))
		for i, q := range queries {
			texts[i] = q.Text
		}
		trace.Log("round", fmt.Sprintf("round %d start", round), map[string]any{"queries": texts})

		outcomes, err := s.gate.Evaluate(ctx, queries, state.Seen)
		if err != nil {
			return nil, fmt.Errorf("reuse gate: %w", err)
		}

		s.executeRound(ctx, outcomes, state, trace, logger)
		logger.Info("round complete",
			zap.Int("round", round), zap.Int("records", len(state.records)))
	}

	result := &domain.RunResult{
		RunID:    runID,
		Question: question,
		Plan:     *plan,
		Records:  state.records,
	}

	if len(state.records) < 2 {
		for _, rec := range state.records {
			rec.TotalScore = rec.CredibilityScore
		}
		trace.Log("analysis", "fewer than two records, skipping agreement and conflict analysis", nil)
		result.Trace = trace.Events()
		return result, nil
	}

	if err := s.scoreAndResolve(ctx, state.records, result, trace, logger); err != nil {
		return nil, err
	}

	result.Trace = trace.Events()
	return result, nil
}

// roundQueries asks the capability for this round's sub-queries. Round one
// works from the question alone; later rounds see everything gathered so far.
// Receiving fewer queries than asked for is a contract violation.
func (s *ResearchService) roundQueries(ctx context.Context, question string, plan *domain.ResearchPlan, state *runState, round, count int) ([]domain.Query, error) {
	var texts []string
	var err error
	contract := "GenerateInitialQueries"
	if round == 1 {
		texts, err = s.capability.GenerateInitialQueries(ctx, question, plan, count)
	} else {
		contract = "RefineQueries"
		texts, err = s.capability.RefineQueries(ctx, plan, state.summaries(), count)
	}
	if err != nil {
		return nil, fmt.Errorf("round %d queries: %w", round, err)
	}
	if len(texts) < count {
		return nil, domain.NewContractError(contract,
			fmt.Sprintf("round %d produced %d queries, need %d", round, len(texts), count), texts)
	}

	queries := make([]domain.Query, count)
	for i := 0; i < count; i++ {
		queries[i] = domain.Query{ID: fmt.Sprintf("Q%d", i+1), Text: texts[i]}
	}
	return queries, nil
}

// executeRound materializes the gate's decisions: reuse outcomes register the
// stored record under a fresh id, fresh outcomes go through ingestion. Queries
// fan out; all mutation funnels through state.accept. Per-query failures are
// logged and skipped, a round never aborts the run.
func (s *ResearchService) executeRound(ctx context.Context, outcomes []GateOutcome, state *runState, trace *domain.RunTrace, logger *zap.Logger) {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)

	for _, outcome := range outcomes {
		outcome := outcome
		eg.Go(func() error {
			if outcome.Reused != nil {
				rec := state.accept(*outcome.Reused, s.credibility.CredibilityScore(outcome.Reused))
				if rec == nil {
					trace.Logf("skip", "%s: reused url already held", outcome.Query.ID)
					return nil
				}
				trace.Log("reuse", outcome.Query.ID, map[string]any{"record": rec.ID, "url": rec.URL})
				return nil
			}

			ingestion, err := s.ingestor.Ingest(gctx, outcome.Query.Text, state.Seen)
			if err != nil {
				logger.Warn("ingestion failed", zap.String("query_id", outcome.Query.ID), zap.Error(err))
				trace.Logf("skip", "%s: ingestion failed", outcome.Query.ID)
				return nil
			}
			if ingestion == nil {
				trace.Logf("skip", "%s: no usable source", outcome.Query.ID)
				return nil
			}

			embedding, err := s.embedder.Embed(gctx, outcome.Query.Text)
			if err != nil {
				logger.Warn("embedding failed", zap.String("query_id", outcome.Query.ID), zap.Error(err))
				trace.Logf("skip", "%s: embedding failed", outcome.Query.ID)
				return nil
			}

			stored := domain.StoredEvidence{
				QueryText:     outcome.Query.Text,
				Summary:       ingestion.Summary,
				URL:           ingestion.URL,
				Domain:        ingestion.Domain,
				Author:        ingestion.Author,
				PublishedDate: ingestion.PublishedDate,
				RetrievedDate: time.Now().UTC().Format("2006-01-02"),
				Embedding:     embedding,
			}

			rec := state.accept(stored, s.credibility.CredibilityScore(&stored))
			if rec == nil {
				trace.Logf("skip", "%s: url landed via another query", outcome.Query.ID)
				return nil
			}
			trace.Log("ingest", outcome.Query.ID, map[string]any{"record": rec.ID, "url": rec.URL})

			if err := s.store.Upsert(gctx, []domain.StoredEvidence{stored}); err != nil {
				logger.Error("persisting evidence failed",
					zap.String("record", rec.ID), zap.Error(err))
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// scoreAndResolve runs the post-round analysis: agreement scoring, conflict
// detection, and the score-dominance rewrite of losing summaries. Detector
// outputs are validated before they touch anything; a violation aborts the
// run rather than half-applying bad data.
func (s *ResearchService) scoreAndResolve(ctx context.Context, records []*domain.EvidenceRecord, result *domain.RunResult, trace *domain.RunTrace, logger *zap.Logger) error {
	ids := make(map[string]bool, len(records))
	summaries := make(map[string]string, len(records))
	for _, rec := range records {
		ids[rec.ID] = true
		summaries[rec.ID] = rec.Summary
	}

	agreement, err := s.capability.DetectAgreement(ctx, summaries)
	if err != nil {
		return fmt.Errorf("detect agreement: %w", err)
	}
	if err := scoring.ValidateAgreementMap(agreement, ids); err != nil {
		return err
	}

	agreementScores := scoring.ComputeAgreementScores(agreement)
	totals := make(map[string]int, len(records))
	for _, rec := range records {
		rec.AgreementScore = agreementScores[rec.ID]
		rec.TotalScore = rec.CredibilityScore + rec.AgreementScore
		totals[rec.ID] = rec.TotalScore
	}
	trace.Log("scores", "totals computed", map[string]any{"totals": totals})

	conflicts, err := s.capability.DetectConflicts(ctx, summaries)
	if err != nil {
		return fmt.Errorf("detect conflicts: %w", err)
	}
	if err := scoring.ValidateConflicts(conflicts, ids); err != nil {
		return err
	}

	removals := scoring.ResolveConflicts(conflicts, totals)
	result.Removals = removals
	if len(removals) == 0 {
		trace.Log("conflicts", "no summaries need rewriting", nil)
		return nil
	}

	rewritePlan := make(map[string]domain.RewriteRequest, len(removals))
	for id, claims := range removals {
		rewritePlan[id] = domain.RewriteRequest{Summary: summaries[id], RemoveClaims: claims}
	}
	rewritten, err := s.capability.RewriteSummaries(ctx, rewritePlan)
	if err != nil {
		return fmt.Errorf("rewrite summaries: %w", err)
	}

	for _, rec := range records {
		if newSummary, ok := rewritten[rec.ID]; ok {
			rec.Summary = newSummary
			trace.Logf("rewrite", "%s: summary rewritten after conflict loss", rec.ID)
		}
	}
	for id := range removals {
		if _, ok := rewritten[id]; !ok {
			logger.Warn("rewrite response missing record, summary kept", zap.String("record", id))
		}
	}
	logger.Info("conflicts resolved", zap.Int("rewritten", len(rewritten)))
	return nil
}
