package domain

import "context"

// Metadata carries the optional attributes extracted for a fetched page.
type Metadata struct {
	Author        *string `json:"author"`
	PublishedDate *string `json:"published_date"`
}

// Ingestion is the outcome of fetching and condensing one fresh web source.
type Ingestion struct {
	URL           string
	Domain        string
	Summary       string
	Author        *string
	PublishedDate *string
}

// CapabilityClient is the contract for every external text-generation
// capability the engine consumes. Implementations are interchangeable
// providers; all outputs are untrusted until validated by the caller.
type CapabilityClient interface {
	// PlanResearch turns the user's question into a goal and 4-6 coverage
	// dimensions. Called once per run.
	PlanResearch(ctx context.Context, question string) (*ResearchPlan, error)

	// GenerateInitialQueries produces at least count round-one sub-queries.
	GenerateInitialQueries(ctx context.Context, question string, plan *ResearchPlan, count int) ([]string, error)

	// RefineQueries produces at least count queries targeting under-covered
	// dimensions, given all evidence texts collected so far.
	RefineQueries(ctx context.Context, plan *ResearchPlan, summaries map[string]string, count int) ([]string, error)

	// RerankCandidates scores each candidate's stored query text against the
	// query and returns them sorted by descending relevance.
	RerankCandidates(ctx context.Context, query string, candidates []*Candidate) ([]*Candidate, error)

	// JudgeEquivalence decides, per query, whether any offered candidate asks
	// the same question. Returns candidate id or "" per query id. Must not
	// assign the same candidate id to two queries; the gate enforces this as
	// a post-condition regardless.
	JudgeEquivalence(ctx context.Context, queries []Query, candidates map[string][]*Candidate) (map[string]string, error)

	// Summarize condenses raw page text into one evidence-dense paragraph.
	Summarize(ctx context.Context, rawText string) (string, error)

	// ExtractMetadata pulls author and publication date out of raw page text.
	// Failures are non-fatal; absent attributes come back nil.
	ExtractMetadata(ctx context.Context, rawText string) (*Metadata, error)

	// DetectAgreement maps directed support relations over the full evidence
	// set. The caller validates the result before it touches any score.
	DetectAgreement(ctx context.Context, summaries map[string]string) (AgreementMap, error)

	// DetectConflicts finds hard factual contradictions, at most one per
	// unordered record pair.
	DetectConflicts(ctx context.Context, summaries map[string]string) ([]ConflictRecord, error)

	// RewriteSummaries rewrites each listed summary so the given claims are
	// no longer present. Batched: one call covers every affected record.
	RewriteSummaries(ctx context.Context, plan map[string]RewriteRequest) (map[string]string, error)
}

// RewriteRequest is one entry of a batched rewrite call.
type RewriteRequest struct {
	Summary      string   `json:"summary"`
	RemoveClaims []string `json:"remove_claims"`
}

// EmbeddingClient embeds text into the fixed-dimension vector space shared by
// storage and search. Returned vectors are unit-normalized.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Ingestor performs the opaque fetch-and-summarize step for one query: web
// search, extraction, metadata, summary. seen filters URLs the run already
// holds; the controller re-checks under its write lock before accepting.
type Ingestor interface {
	Ingest(ctx context.Context, query string, seen func(url string) bool) (*Ingestion, error)
}

// EvidenceStore is the persistent, append-only vector memory. Records are
// never updated or deleted; a stored position always resolves to the same
// vector.
type EvidenceStore interface {
	// Load verifies the index/metadata count invariant and returns the
	// number of stored records. A mismatch is an unrecoverable fault.
	Load(ctx context.Context) (int, error)

	// Search returns up to k stored records ranked by descending inner
	// product against the query vector. Empty store yields an empty slice.
	Search(ctx context.Context, embedding []float32, k int) ([]StoredEvidence, error)

	// Upsert appends records atomically; records whose URL is already stored
	// are skipped. Input order is preserved for the records that land.
	Upsert(ctx context.Context, records []StoredEvidence) error
}
