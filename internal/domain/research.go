package domain

// ResearchPlan is the fixed blueprint produced once per run by the external
// planner: a rephrased goal plus the coverage dimensions the discovery rounds
// must fill.
type ResearchPlan struct {
	Goal       string   `json:"goal"`
	Dimensions []string `json:"dimensions"`
}

// Query is one sub-query within a discovery round. Ids (Q1, Q2, ...) are
// scoped to the round that produced them.
type Query struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// RunResult is the final state handed to synthesis: the plan, every accepted
// record in creation order, and the conflict-resolution outcome.
type RunResult struct {
	RunID    string            `json:"run_id"`
	Question string            `json:"question"`
	Plan     ResearchPlan      `json:"plan"`
	Records  []*EvidenceRecord `json:"records"`
	Removals RemovalPlan       `json:"removals,omitempty"`
	Trace    []TraceEvent      `json:"trace,omitempty"`
}
