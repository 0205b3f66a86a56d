package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/quorumlabs/quorum/internal/domain"
	"github.com/quorumlabs/quorum/internal/embedding"
	"github.com/quorumlabs/quorum/internal/llm"
	"github.com/quorumlabs/quorum/internal/scoring"
)

// newTestService wires a service over in-memory fakes with concurrency 1 so
// record ids follow query order.
func newTestService(store *memStore, cap *llm.MockClient, ing *scriptedIngestor) *ResearchService {
	embedder := embedding.NewMockClient(8)
	gate := NewReuseGate(store, embedder, cap, 10, 5, 1, zap.NewNop())
	credibility := scoring.NewCredibilityConfig(nil, nil)
	return NewResearchService(cap, embedder, store, ing, gate, credibility, 1, zap.NewNop())
}

func TestRunSingleRecordSkipsAnalysis(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"only query"}
	ing := &scriptedIngestor{byQuery: map[string]*domain.Ingestion{
		"only query": {URL: "https://a.example/1", Domain: "a.example", Summary: "claim one"},
	}}
	svc := newTestService(&memStore{}, cap, ing)

	result, err := svc.Run(context.Background(), "question", 1, 1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	rec := result.Records[0]
	if rec.ID != "S1" {
		t.Fatalf("unexpected id: %s", rec.ID)
	}
	if rec.TotalScore != rec.CredibilityScore {
		t.Fatal("total must equal credibility when analysis is skipped")
	}
	if len(cap.AgreementCalls) != 0 || len(cap.ConflictCalls) != 0 {
		t.Fatal("analysis must not run for fewer than two records")
	}
}

func TestRunDuplicateURLAcrossQueriesLandsOnce(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"first", "second"}
	shared := &domain.Ingestion{URL: "https://same.example/1", Domain: "same.example", Summary: "claim"}
	ing := &scriptedIngestor{byQuery: map[string]*domain.Ingestion{
		"first":  shared,
		"second": shared,
	}}
	svc := newTestService(&memStore{}, cap, ing)

	result, err := svc.Run(context.Background(), "question", 1, 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	if result.Records[0].ID != "S1" {
		t.Fatalf("unexpected id: %s", result.Records[0].ID)
	}
}

func TestRunAgreementTotals(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"q one", "q two"}
	cap.AgreementResponse = domain.AgreementMap{
		"S1": {"S2": domain.AgreementStrong},
	}
	ing := &scriptedIngestor{byQuery: map[string]*domain.Ingestion{
		"q one": {URL: "https://a.example/1", Domain: "a.example", Summary: "claim a"},
		"q two": {URL: "https://b.example/2", Domain: "b.example", Summary: "claim b"},
	}}
	svc := newTestService(&memStore{}, cap, ing)

	result, err := svc.Run(context.Background(), "question", 1, 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	byID := map[string]*domain.EvidenceRecord{}
	for _, rec := range result.Records {
		byID[rec.ID] = rec
	}
	if byID["S2"].AgreementScore != 5 {
		t.Fatalf("S2 agreement: got %d, want 5", byID["S2"].AgreementScore)
	}
	if byID["S1"].AgreementScore != 0 {
		t.Fatalf("S1 agreement: got %d, want 0", byID["S1"].AgreementScore)
	}
	if byID["S2"].TotalScore != byID["S2"].CredibilityScore+5 {
		t.Fatal("total must be credibility plus agreement")
	}
}

func TestRunConflictRewritesLoser(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"q one", "q two"}
	cap.AgreementResponse = domain.AgreementMap{
		"S2": {"S1": domain.AgreementStrong},
	}
	cap.ConflictsResponse = []domain.ConflictRecord{
		{IDs: []string{"S1", "S2"}, ClaimA: "x rose", ClaimB: "x fell"},
	}
	cap.RewriteResponse = map[string]string{"S2": "claim b without the dispute"}
	ing := &scriptedIngestor{byQuery: map[string]*domain.Ingestion{
		"q one": {URL: "https://a.example/1", Domain: "a.example", Summary: "claim a"},
		"q two": {URL: "https://b.example/2", Domain: "b.example", Summary: "claim b"},
	}}
	svc := newTestService(&memStore{}, cap, ing)

	result, err := svc.Run(context.Background(), "question", 1, 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := result.Removals["S2"]; len(got) != 1 || got[0] != "x fell" {
		t.Fatalf("unexpected removal plan: %v", result.Removals)
	}
	if _, ok := result.Removals["S1"]; ok {
		t.Fatal("winner must not appear in the removal plan")
	}

	byID := map[string]*domain.EvidenceRecord{}
	for _, rec := range result.Records {
		byID[rec.ID] = rec
	}
	if byID["S2"].Summary != "claim b without the dispute" {
		t.Fatalf("loser summary not rewritten: %q", byID["S2"].Summary)
	}
	if byID["S1"].Summary != "claim a" {
		t.Fatal("winner summary must stay untouched")
	}
}

func TestRunTieLeavesBothSummaries(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"q one", "q two"}
	cap.ConflictsResponse = []domain.ConflictRecord{
		{IDs: []string{"S1", "S2"}, ClaimA: "x rose", ClaimB: "x fell"},
	}
	ing := &scriptedIngestor{byQuery: map[string]*domain.Ingestion{
		"q one": {URL: "https://a.example/1", Domain: "a.example", Summary: "claim a"},
		"q two": {URL: "https://b.example/2", Domain: "b.example", Summary: "claim b"},
	}}
	svc := newTestService(&memStore{}, cap, ing)

	result, err := svc.Run(context.Background(), "question", 1, 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Removals) != 0 {
		t.Fatalf("tied conflict must resolve to no removals: %v", result.Removals)
	}
	if len(cap.RewriteCalls) != 0 {
		t.Fatal("no rewrite call for an empty removal plan")
	}
	for _, rec := range result.Records {
		if rec.Summary != "claim a" && rec.Summary != "claim b" {
			t.Fatalf("summary changed on tie: %q", rec.Summary)
		}
	}
}

func TestRunInvalidAgreementAborts(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"q one", "q two"}
	cap.AgreementResponse = domain.AgreementMap{
		"S1": {"S99": domain.AgreementStrong},
	}
	ing := &scriptedIngestor{byQuery: map[string]*domain.Ingestion{
		"q one": {URL: "https://a.example/1", Summary: "a"},
		"q two": {URL: "https://b.example/2", Summary: "b"},
	}}
	svc := newTestService(&memStore{}, cap, ing)

	_, err := svc.Run(context.Background(), "question", 1, 2)
	if err == nil {
		t.Fatal("expected run to abort on invalid agreement map")
	}
	var cerr *domain.ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ContractError, got %v", err)
	}
	if cerr.Contract != "DetectAgreement" {
		t.Fatalf("unexpected contract: %s", cerr.Contract)
	}
}

func TestRunTooFewQueriesAborts(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"only one"}
	svc := newTestService(&memStore{}, cap, &scriptedIngestor{})

	_, err := svc.Run(context.Background(), "question", 1, 3)
	if err == nil {
		t.Fatal("expected run to abort when the generator under-delivers")
	}
	var cerr *domain.ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ContractError, got %v", err)
	}
	if cerr.Contract != "GenerateInitialQueries" {
		t.Fatalf("unexpected contract: %s", cerr.Contract)
	}
}

func TestRunRefineShortfallNamesRefineContract(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"q one", "q two"}
	cap.RefinedQueries = []string{"only one"}
	ing := &scriptedIngestor{byQuery: map[string]*domain.Ingestion{
		"q one": {URL: "https://a.example/1", Summary: "a"},
		"q two": {URL: "https://b.example/2", Summary: "b"},
	}}
	svc := newTestService(&memStore{}, cap, ing)

	_, err := svc.Run(context.Background(), "question", 2, 2)
	if err == nil {
		t.Fatal("expected run to abort when refinement under-delivers")
	}
	var cerr *domain.ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ContractError, got %v", err)
	}
	if cerr.Contract != "RefineQueries" {
		t.Fatalf("unexpected contract: %s", cerr.Contract)
	}
}

func TestRunPersistsFreshRecords(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"q one", "q two"}
	ing := &scriptedIngestor{byQuery: map[string]*domain.Ingestion{
		"q one": {URL: "https://a.example/1", Summary: "a"},
		"q two": {URL: "https://b.example/2", Summary: "b"},
	}}
	store := &memStore{}
	svc := newTestService(store, cap, ing)

	if _, err := svc.Run(context.Background(), "question", 1, 2); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(store.upsertCalls) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(store.upsertCalls))
	}
	for _, call := range store.upsertCalls {
		if len(call) != 1 || len(call[0].Embedding) == 0 {
			t.Fatal("each fresh record must persist with its embedding")
		}
	}
}

func TestRunReuseSkipsIngestion(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"new phrasing"}
	cap.JudgeResponse = map[string]string{"Q1": "VS_01"}
	store := &memStore{hits: []domain.StoredEvidence{
		stored("stored phrasing", "https://held.example/a", "held claim"),
	}}
	ing := &scriptedIngestor{}
	svc := newTestService(store, cap, ing)

	result, err := svc.Run(context.Background(), "question", 1, 1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(ing.calls) != 0 {
		t.Fatalf("ingestor must not run for a reused query: %v", ing.calls)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	rec := result.Records[0]
	if rec.QueryText != "stored phrasing" {
		t.Fatal("reused record must keep its stored query text")
	}
	if len(store.upsertCalls) != 0 {
		t.Fatal("reuse must not write to the store")
	}
}

func TestRunRefinesLaterRounds(t *testing.T) {
	cap := llm.NewMockClient()
	cap.InitialQueries = []string{"round one"}
	cap.RefinedQueries = []string{"round two"}
	ing := &scriptedIngestor{byQuery: map[string]*domain.Ingestion{
		"round one": {URL: "https://a.example/1", Summary: "a"},
		"round two": {URL: "https://b.example/2", Summary: "b"},
	}}
	svc := newTestService(&memStore{}, cap, ing)

	result, err := svc.Run(context.Background(), "question", 2, 1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(cap.InitialCalls) != 1 || len(cap.RefineCalls) != 1 {
		t.Fatalf("round query routing wrong: %d initial, %d refine", len(cap.InitialCalls), len(cap.RefineCalls))
	}
	if len(cap.RefineCalls[0]) != 1 {
		t.Fatal("refinement must see round one's evidence")
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
}
