package domain

// Fallback literals for metadata the ingestion step could not determine.
const (
	UnknownAuthor = "Unknown Author"
	UnknownSource = "Unknown Source"
)

// StoredEvidence is the durable part of an evidence record: the query intent
// that produced it, the condensed claim text, and source metadata. This is
// exactly what the vector memory persists; run-scoped ids and scores are not
// part of it.
type StoredEvidence struct {
	QueryText     string    `json:"query_text"`
	Summary       string    `json:"summary"`
	URL           string    `json:"url"`
	Domain        string    `json:"domain,omitempty"`
	Author        *string   `json:"author,omitempty"`
	VenueType     *string   `json:"venue_type,omitempty"`
	PublishedDate *string   `json:"published_date,omitempty"`
	RetrievedDate string    `json:"retrieved_date"`
	Embedding     []float32 `json:"-"`
}

// AuthorName returns the author or the fallback literal.
func (e *StoredEvidence) AuthorName() string {
	if e.Author == nil || *e.Author == "" {
		return UnknownAuthor
	}
	return *e.Author
}

// SourceName returns the domain or the fallback literal.
func (e *StoredEvidence) SourceName() string {
	if e.Domain == "" {
		return UnknownSource
	}
	return e.Domain
}

// EvidenceRecord is one scored unit of evidence within a run. The id is
// assigned once (S1, S2, ...) and never reused. Credibility is set at
// creation, agreement and total after all discovery rounds; only Summary may
// be overwritten afterwards, by conflict resolution.
type EvidenceRecord struct {
	ID string `json:"id"`
	StoredEvidence
	CredibilityScore int `json:"credibility_score"`
	AgreementScore   int `json:"agreement_score"`
	TotalScore       int `json:"total_score"`
}

// Candidate is a vector-memory hit offered to the reuse gate. Candidates are
// transient: ids (VS_01, VS_02, ...) are scoped to a single query's gate pass.
type Candidate struct {
	ID string `json:"id"`
	StoredEvidence
	Relevance float64 `json:"relevance"`
}

// AgreementLabel classifies a directed support relation between two records.
type AgreementLabel string

const (
	AgreementStrong      AgreementLabel = "strongly_supports"
	AgreementPartial     AgreementLabel = "partially_supports"
	AgreementIndependent AgreementLabel = "independent"
)

// ValidAgreementLabel reports whether l is one of the three allowed labels.
func ValidAgreementLabel(l string) bool {
	switch AgreementLabel(l) {
	case AgreementStrong, AgreementPartial, AgreementIndependent:
		return true
	}
	return false
}

// AgreementMap is the validated output of the agreement detector: for each
// source id, the records it supports and how strongly. Directional by design.
type AgreementMap map[string]map[string]AgreementLabel

// ConflictRecord is one hard factual contradiction between exactly two
// records, with the conflicting claims extracted verbatim from each side.
type ConflictRecord struct {
	IDs    []string `json:"ids"`
	ClaimA string   `json:"claim_a"`
	ClaimB string   `json:"claim_b"`
}

// RemovalPlan maps record ids to the claim texts that must be excised from
// that record's summary before synthesis. Claim order follows conflict order.
type RemovalPlan map[string][]string
