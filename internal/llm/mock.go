package llm

import (
	"context"
	"fmt"

	"github.com/quorumlabs/quorum/internal/domain"
)

// MockClient is a configurable capability client for testing.
// Set the response fields to control what each method returns.
type MockClient struct {
	PlanResponse        *domain.ResearchPlan
	PlanError           error
	InitialQueries      []string
	InitialQueriesError error
	RefinedQueries      []string
	RefinedQueriesError error
	RerankResponse      []*domain.Candidate
	RerankError         error
	JudgeResponse       map[string]string
	JudgeError          error
	SummarizeResponse   string
	SummarizeError      error
	MetadataResponse    *domain.Metadata
	MetadataError       error
	AgreementResponse   domain.AgreementMap
	AgreementError      error
	ConflictsResponse   []domain.ConflictRecord
	ConflictsError      error
	RewriteResponse     map[string]string
	RewriteError        error

	// Call tracking for assertions
	PlanCalls      []string
	InitialCalls   []string
	RefineCalls    []map[string]string
	RerankCalls    []string
	JudgeCalls     [][]domain.Query
	SummarizeCalls []string
	MetadataCalls  []string
	AgreementCalls []map[string]string
	ConflictCalls  []map[string]string
	RewriteCalls   []map[string]domain.RewriteRequest
}

func NewMockClient() *MockClient {
	return &MockClient{
		PlanResponse: &domain.ResearchPlan{
			Goal:       "Mock research goal",
			Dimensions: []string{"background", "current state", "open problems"},
		},
		SummarizeResponse: "Mock summary",
		MetadataResponse:  &domain.Metadata{},
		AgreementResponse: domain.AgreementMap{},
	}
}

func (c *MockClient) PlanResearch(ctx context.Context, question string) (*domain.ResearchPlan, error) {
	c.PlanCalls = append(c.PlanCalls, question)
	if c.PlanError != nil {
		return nil, c.PlanError
	}
	return c.PlanResponse, nil
}

func (c *MockClient) GenerateInitialQueries(ctx context.Context, question string, plan *domain.ResearchPlan, count int) ([]string, error) {
	c.InitialCalls = append(c.InitialCalls, question)
	if c.InitialQueriesError != nil {
		return nil, c.InitialQueriesError
	}
	if c.InitialQueries != nil {
		return c.InitialQueries, nil
	}
	queries := make([]string, count)
	for i := range queries {
		queries[i] = fmt.Sprintf("%s aspect %d", question, i+1)
	}
	return queries, nil
}

func (c *MockClient) RefineQueries(ctx context.Context, plan *domain.ResearchPlan, summaries map[string]string, count int) ([]string, error) {
	c.RefineCalls = append(c.RefineCalls, summaries)
	if c.RefinedQueriesError != nil {
		return nil, c.RefinedQueriesError
	}
	if c.RefinedQueries != nil {
		return c.RefinedQueries, nil
	}
	queries := make([]string, count)
	for i := range queries {
		queries[i] = fmt.Sprintf("%s follow-up %d-%d", plan.Goal, len(summaries), i+1)
	}
	return queries, nil
}

func (c *MockClient) RerankCandidates(ctx context.Context, query string, candidates []*domain.Candidate) ([]*domain.Candidate, error) {
	c.RerankCalls = append(c.RerankCalls, query)
	if c.RerankError != nil {
		return nil, c.RerankError
	}
	if c.RerankResponse != nil {
		return c.RerankResponse, nil
	}
	return candidates, nil
}

func (c *MockClient) JudgeEquivalence(ctx context.Context, queries []domain.Query, candidates map[string][]*domain.Candidate) (map[string]string, error) {
	c.JudgeCalls = append(c.JudgeCalls, queries)
	if c.JudgeError != nil {
		return nil, c.JudgeError
	}
	decisions := make(map[string]string, len(queries))
	for _, q := range queries {
		decisions[q.ID] = c.JudgeResponse[q.ID]
	}
	return decisions, nil
}

func (c *MockClient) Summarize(ctx context.Context, rawText string) (string, error) {
	c.SummarizeCalls = append(c.SummarizeCalls, rawText)
	if c.SummarizeError != nil {
		return "", c.SummarizeError
	}
	return c.SummarizeResponse, nil
}

func (c *MockClient) ExtractMetadata(ctx context.Context, rawText string) (*domain.Metadata, error) {
	c.MetadataCalls = append(c.MetadataCalls, rawText)
	if c.MetadataError != nil {
		return nil, c.MetadataError
	}
	return c.MetadataResponse, nil
}

func (c *MockClient) DetectAgreement(ctx context.Context, summaries map[string]string) (domain.AgreementMap, error) {
	c.AgreementCalls = append(c.AgreementCalls, summaries)
	if c.AgreementError != nil {
		return nil, c.AgreementError
	}
	return c.AgreementResponse, nil
}

func (c *MockClient) DetectConflicts(ctx context.Context, summaries map[string]string) ([]domain.ConflictRecord, error) {
	c.ConflictCalls = append(c.ConflictCalls, summaries)
	if c.ConflictsError != nil {
		return nil, c.ConflictsError
	}
	return c.ConflictsResponse, nil
}

func (c *MockClient) RewriteSummaries(ctx context.Context, plan map[string]domain.RewriteRequest) (map[string]string, error) {
	c.RewriteCalls = append(c.RewriteCalls, plan)
	if c.RewriteError != nil {
		return nil, c.RewriteError
	}
	if c.RewriteResponse != nil {
		return c.RewriteResponse, nil
	}
	rewritten := make(map[string]string, len(plan))
	for id, req := range plan {
		rewritten[id] = req.Summary
	}
	return rewritten, nil
}
