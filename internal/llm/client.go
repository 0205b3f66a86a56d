package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/quorumlabs/quorum/internal/domain"
)

// completer is the one provider-specific operation: send a prompt, get the
// completion text back. Everything above it (prompt building, parsing,
// shape checks) is shared across providers.
type completer interface {
	complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Client implements domain.CapabilityClient on top of a completer.
type Client struct {
	c completer
}

func (c *Client) PlanResearch(ctx context.Context, question string) (*domain.ResearchPlan, error) {
	raw, err := c.c.complete(ctx, fmt.Sprintf(planPrompt, question), 0.3)
	if err != nil {
		return nil, fmt.Errorf("plan research: %w", err)
	}

	var plan domain.ResearchPlan
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &plan); err != nil {
		return nil, fmt.Errorf("parse research plan: %w", err)
	}
	if plan.Goal == "" || len(plan.Dimensions) == 0 {
		return nil, fmt.Errorf("research plan missing goal or dimensions")
	}
	return &plan, nil
}

func (c *Client) GenerateInitialQueries(ctx context.Context, question string, plan *domain.ResearchPlan, count int) ([]string, error) {
	prompt := fmt.Sprintf(initialQueriesPrompt, plan.Goal, bulletList(plan.Dimensions), count, question)
	raw, err := c.c.complete(ctx, prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("generate initial queries: %w", err)
	}
	return parseLines(raw), nil
}

func (c *Client) RefineQueries(ctx context.Context, plan *domain.ResearchPlan, summaries map[string]string, count int) ([]string, error) {
	prompt := fmt.Sprintf(refineQueriesPrompt, plan.Goal, bulletList(plan.Dimensions), evidenceBlock(summaries), count)
	raw, err := c.c.complete(ctx, prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("refine queries: %w", err)
	}
	return parseLines(raw), nil
}

func (c *Client) RerankCandidates(ctx context.Context, query string, candidates []*domain.Candidate) ([]*domain.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	for _, cand := range candidates {
		fmt.Fprintf(&sb, "%s: %s\n", cand.ID, cand.QueryText)
	}

	raw, err := c.c.complete(ctx, fmt.Sprintf(rerankPrompt, query, sb.String()), 0)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}

	var result struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &result); err != nil {
		return nil, fmt.Errorf("parse rerank scores: %w", err)
	}

	ranked := make([]*domain.Candidate, len(candidates))
	copy(ranked, candidates)
	for _, cand := range ranked {
		cand.Relevance = result.Scores[cand.ID]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})
	return ranked, nil
}

func (c *Client) JudgeEquivalence(ctx context.Context, queries []domain.Query, candidates map[string][]*domain.Candidate) (map[string]string, error) {
	var sb strings.Builder
	for _, q := range queries {
		fmt.Fprintf(&sb, "Query %s: %s\n", q.ID, q.Text)
		for _, cand := range candidates[q.ID] {
			fmt.Fprintf(&sb, "  Candidate %s (original query: %s): %s\n", cand.ID, cand.QueryText, cand.Summary)
		}
		if len(candidates[q.ID]) == 0 {
			sb.WriteString("  (no candidates)\n")
		}
		sb.WriteString("\n")
	}

	raw, err := c.c.complete(ctx, fmt.Sprintf(equivalencePrompt, sb.String()), 0)
	if err != nil {
		return nil, fmt.Errorf("judge equivalence: %w", err)
	}

	var picks map[string]*string
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &picks); err != nil {
		return nil, fmt.Errorf("parse equivalence decision: %w", err)
	}

	decisions := make(map[string]string, len(queries))
	for _, q := range queries {
		if pick, ok := picks[q.ID]; ok && pick != nil {
			decisions[q.ID] = *pick
		} else {
			decisions[q.ID] = ""
		}
	}
	return decisions, nil
}

func (c *Client) Summarize(ctx context.Context, rawText string) (string, error) {
	out, err := c.c.complete(ctx, fmt.Sprintf(summarizePrompt, rawText), 0.3)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) ExtractMetadata(ctx context.Context, rawText string) (*domain.Metadata, error) {
	raw, err := c.c.complete(ctx, fmt.Sprintf(metadataPrompt, rawText), 0)
	if err != nil {
		return nil, fmt.Errorf("extract metadata: %w", err)
	}

	var meta domain.Metadata
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if meta.Author != nil && *meta.Author == "" {
		meta.Author = nil
	}
	if meta.PublishedDate != nil && *meta.PublishedDate == "" {
		meta.PublishedDate = nil
	}
	return &meta, nil
}

func (c *Client) DetectAgreement(ctx context.Context, summaries map[string]string) (domain.AgreementMap, error) {
	raw, err := c.c.complete(ctx, fmt.Sprintf(agreementPrompt, evidenceBlock(summaries)), 0)
	if err != nil {
		return nil, fmt.Errorf("detect agreement: %w", err)
	}

	var m domain.AgreementMap
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &m); err != nil {
		return nil, fmt.Errorf("parse agreement map: %w", err)
	}
	if m == nil {
		m = domain.AgreementMap{}
	}
	return m, nil
}

func (c *Client) DetectConflicts(ctx context.Context, summaries map[string]string) ([]domain.ConflictRecord, error) {
	raw, err := c.c.complete(ctx, fmt.Sprintf(conflictPrompt, evidenceBlock(summaries)), 0)
	if err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}

	var result struct {
		Conflicts []domain.ConflictRecord `json:"conflicts"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &result); err != nil {
		return nil, fmt.Errorf("parse conflicts: %w", err)
	}
	return result.Conflicts, nil
}

func (c *Client) RewriteSummaries(ctx context.Context, plan map[string]domain.RewriteRequest) (map[string]string, error) {
	if len(plan) == 0 {
		return map[string]string{}, nil
	}

	ids := make([]string, 0, len(plan))
	for id := range plan {
		ids = append(ids, id)
	}
	sortRecordIDs(ids)

	var sb strings.Builder
	for _, id := range ids {
		req := plan[id]
		fmt.Fprintf(&sb, "Summary %s:\n%s\nClaims to remove from %s:\n%s\n\n", id, req.Summary, id, bulletList(req.RemoveClaims))
	}

	raw, err := c.c.complete(ctx, fmt.Sprintf(rewritePrompt, sb.String()), 0.3)
	if err != nil {
		return nil, fmt.Errorf("rewrite summaries: %w", err)
	}

	var rewritten map[string]string
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &rewritten); err != nil {
		return nil, fmt.Errorf("parse rewritten summaries: %w", err)
	}
	return rewritten, nil
}

func bulletList(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	return sb.String()
}

// evidenceBlock renders id-keyed summaries in a stable order so identical
// inputs produce identical prompts.
func evidenceBlock(summaries map[string]string) string {
	ids := make([]string, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sortRecordIDs(ids)

	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "[%s] %s\n", id, summaries[id])
	}
	return sb.String()
}

// sortRecordIDs orders ids by prefix and then numeric suffix, so S2 comes
// before S10. Ids without a numeric suffix fall back to plain string order.
func sortRecordIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		pi, ni, oki := splitRecordID(ids[i])
		pj, nj, okj := splitRecordID(ids[j])
		if oki && okj && pi == pj {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
}

func splitRecordID(id string) (prefix string, n int, ok bool) {
	k := len(id)
	for k > 0 && id[k-1] >= '0' && id[k-1] <= '9' {
		k--
	}
	if k == len(id) {
		return id, 0, false
	}
	n, err := strconv.Atoi(id[k:])
	if err != nil {
		return id, 0, false
	}
	return id[:k], n, true
}
