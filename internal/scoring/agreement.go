package scoring

import (
	"fmt"

	"github.com/quorumlabs/quorum/internal/domain"
)

// AgreementWeights are the fixed per-label weights added to the target of a
// support relation. Stronger corroboration counts for more.
var AgreementWeights = map[domain.AgreementLabel]int{
	domain.AgreementStrong:      5,
	domain.AgreementPartial:     3,
	domain.AgreementIndependent: 1,
}

// ValidateAgreementMap checks a detector response against the run's record
// ids before any score is computed. Every referenced id must exist, no entry
// may relate a record to itself, and only the three allowed labels may
// appear. Any violation aborts the run.
func ValidateAgreementMap(m domain.AgreementMap, ids map[string]bool) error {
	for src, relations := range m {
		if !ids[src] {
			return domain.NewContractError("DetectAgreement", fmt.Sprintf("unknown source id %q", src), m)
		}
		for tgt, label := range relations {
			if !ids[tgt] {
				return domain.NewContractError("DetectAgreement", fmt.Sprintf("unknown target id %q", tgt), m)
			}
			if src == tgt {
				return domain.NewContractError("DetectAgreement", fmt.Sprintf("self-relation on %q", src), m)
			}
			if !domain.ValidAgreementLabel(string(label)) {
				return domain.NewContractError("DetectAgreement", fmt.Sprintf("invalid label %q for %s->%s", label, src, tgt), m)
			}
		}
	}
	return nil
}

// ComputeAgreementScores accumulates incoming support: for every relation
// src->tgt the target's score grows by the label weight. A record nobody
// supports scores 0. Callers must validate the map first.
func ComputeAgreementScores(m domain.AgreementMap) map[string]int {
	scores := make(map[string]int)

	for src, relations := range m {
		if _, ok := scores[src]; !ok {
			scores[src] = 0
		}
		for tgt := range relations {
			if _, ok := scores[tgt]; !ok {
				scores[tgt] = 0
			}
		}
	}

	for _, relations := range m {
		for tgt, label := range relations {
			scores[tgt] += AgreementWeights[label]
		}
	}

	return scores
}

// ValidateConflicts checks a conflict-detector response: both ids of every
// conflict must exist among the run's records, a conflict must not pair a
// record with itself, and an unordered pair may appear at most once.
func ValidateConflicts(conflicts []domain.ConflictRecord, ids map[string]bool) error {
	seen := make(map[[2]string]bool)
	for _, c := range conflicts {
		if len(c.IDs) != 2 {
			return domain.NewContractError("DetectConflicts", fmt.Sprintf("conflict with %d ids", len(c.IDs)), c)
		}
		a, b := c.IDs[0], c.IDs[1]
		if a == b {
			return domain.NewContractError("DetectConflicts", fmt.Sprintf("conflict pairs %q with itself", a), c)
		}
		if !ids[a] || !ids[b] {
			return domain.NewContractError("DetectConflicts", fmt.Sprintf("unknown id in pair (%s, %s)", a, b), c)
		}
		key := [2]string{a, b}
		if b < a {
			key = [2]string{b, a}
		}
		if seen[key] {
			return domain.NewContractError("DetectConflicts", fmt.Sprintf("duplicate conflict for pair (%s, %s)", a, b), c)
		}
		seen[key] = true
	}
	return nil
}
