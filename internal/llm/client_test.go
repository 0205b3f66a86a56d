package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/quorumlabs/quorum/internal/domain"
)

// stubCompleter returns canned completions and records prompts.
type stubCompleter struct {
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestPlanResearchParsesFencedJSON(t *testing.T) {
	stub := &stubCompleter{response: "```json\n{\"goal\": \"map the field\", \"dimensions\": [\"a\", \"b\", \"c\"]}\n```"}
	c := &Client{c: stub}

	plan, err := c.PlanResearch(context.Background(), "what is the field?")
	if err != nil {
		t.Fatalf("PlanResearch failed: %v", err)
	}
	if plan.Goal != "map the field" {
		t.Fatalf("unexpected goal: %q", plan.Goal)
	}
	if len(plan.Dimensions) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(plan.Dimensions))
	}
}

func TestPlanResearchRejectsEmptyPlan(t *testing.T) {
	stub := &stubCompleter{response: `{"goal": "", "dimensions": []}`}
	c := &Client{c: stub}

	if _, err := c.PlanResearch(context.Background(), "q"); err == nil {
		t.Fatal("expected error for empty plan")
	}
}

func TestRerankCandidatesSortsByScore(t *testing.T) {
	stub := &stubCompleter{response: `{"scores": {"VS_01": 0.2, "VS_02": 0.9}}`}
	c := &Client{c: stub}

	cands := []*domain.Candidate{
		{ID: "VS_01", StoredEvidence: domain.StoredEvidence{QueryText: "first"}},
		{ID: "VS_02", StoredEvidence: domain.StoredEvidence{QueryText: "second"}},
	}
	ranked, err := c.RerankCandidates(context.Background(), "query", cands)
	if err != nil {
		t.Fatalf("RerankCandidates failed: %v", err)
	}
	if ranked[0].ID != "VS_02" || ranked[1].ID != "VS_01" {
		t.Fatalf("unexpected order: %s, %s", ranked[0].ID, ranked[1].ID)
	}
	if ranked[0].Relevance != 0.9 {
		t.Fatalf("unexpected relevance: %f", ranked[0].Relevance)
	}
}

func TestRerankCandidatesEmptyInput(t *testing.T) {
	stub := &stubCompleter{}
	c := &Client{c: stub}

	ranked, err := c.RerankCandidates(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("RerankCandidates failed: %v", err)
	}
	if ranked != nil {
		t.Fatalf("expected nil, got %v", ranked)
	}
	if len(stub.prompts) != 0 {
		t.Fatal("no completion should run for empty candidate set")
	}
}

func TestJudgeEquivalenceFillsMissingAndNull(t *testing.T) {
	stub := &stubCompleter{response: `{"Q1": "VS_01", "Q2": null}`}
	c := &Client{c: stub}

	queries := []domain.Query{{ID: "Q1", Text: "a"}, {ID: "Q2", Text: "b"}, {ID: "Q3", Text: "c"}}
	decisions, err := c.JudgeEquivalence(context.Background(), queries, map[string][]*domain.Candidate{})
	if err != nil {
		t.Fatalf("JudgeEquivalence failed: %v", err)
	}
	if decisions["Q1"] != "VS_01" {
		t.Fatalf("Q1: got %q", decisions["Q1"])
	}
	if decisions["Q2"] != "" || decisions["Q3"] != "" {
		t.Fatalf("null and missing queries must decide fresh: %v", decisions)
	}
}

func TestExtractMetadataNormalizesEmpty(t *testing.T) {
	stub := &stubCompleter{response: `{"author": "", "published_date": "2024-03-01"}`}
	c := &Client{c: stub}

	meta, err := c.ExtractMetadata(context.Background(), "raw page text")
	if err != nil {
		t.Fatalf("ExtractMetadata failed: %v", err)
	}
	if meta.Author != nil {
		t.Fatalf("empty author must be nil, got %q", *meta.Author)
	}
	if meta.PublishedDate == nil || *meta.PublishedDate != "2024-03-01" {
		t.Fatal("published date lost")
	}
}

func TestDetectConflictsParsesList(t *testing.T) {
	stub := &stubCompleter{response: `{"conflicts": [{"ids": ["S1", "S2"], "claim_a": "x rose", "claim_b": "x fell"}]}`}
	c := &Client{c: stub}

	conflicts, err := c.DetectConflicts(context.Background(), map[string]string{"S1": "a", "S2": "b"})
	if err != nil {
		t.Fatalf("DetectConflicts failed: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].IDs[1] != "S2" || conflicts[0].ClaimB != "x fell" {
		t.Fatalf("unexpected conflicts: %+v", conflicts)
	}
}

func TestRewriteSummariesSkipsEmptyPlan(t *testing.T) {
	stub := &stubCompleter{}
	c := &Client{c: stub}

	out, err := c.RewriteSummaries(context.Background(), nil)
	if err != nil {
		t.Fatalf("RewriteSummaries failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty map, got %v", out)
	}
	if len(stub.prompts) != 0 {
		t.Fatal("no completion should run for empty plan")
	}
}

func TestEvidenceBlockOrdersIDsNumerically(t *testing.T) {
	summaries := map[string]string{
		"S10": "tenth", "S2": "second", "S1": "first", "S9": "ninth",
	}

	block := evidenceBlock(summaries)
	want := "[S1] first\n[S2] second\n[S9] ninth\n[S10] tenth\n"
	if block != want {
		t.Fatalf("expected creation order, got:\n%s", block)
	}
}

func TestRewriteSummariesPromptFollowsCreationOrder(t *testing.T) {
	stub := &stubCompleter{response: `{"S2": "second rewritten", "S10": "tenth rewritten"}`}
	c := &Client{c: stub}

	plan := map[string]domain.RewriteRequest{
		"S10": {Summary: "tenth", RemoveClaims: []string{"a"}},
		"S2":  {Summary: "second", RemoveClaims: []string{"b"}},
	}
	if _, err := c.RewriteSummaries(context.Background(), plan); err != nil {
		t.Fatalf("RewriteSummaries failed: %v", err)
	}

	prompt := stub.prompts[0]
	if strings.Index(prompt, "Summary S2:") > strings.Index(prompt, "Summary S10:") {
		t.Fatalf("S2 must precede S10 in the prompt:\n%s", prompt)
	}
}

func TestDetectAgreementParsesNestedMap(t *testing.T) {
	stub := &stubCompleter{response: `{"S1": {"S2": "strongly_supports"}}`}
	c := &Client{c: stub}

	m, err := c.DetectAgreement(context.Background(), map[string]string{"S1": "a", "S2": "b"})
	if err != nil {
		t.Fatalf("DetectAgreement failed: %v", err)
	}
	if m["S1"]["S2"] != domain.AgreementStrong {
		t.Fatalf("unexpected map: %v", m)
	}
}
