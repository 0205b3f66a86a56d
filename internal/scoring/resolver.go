package scoring

import "github.com/quorumlabs/quorum/internal/domain"

// ResolveConflicts decides, per conflict pair, which side's claim must be
// excised before synthesis. The policy is score dominance: the strictly
// lower-scoring record loses its conflicting claim; on a tie neither side is
// touched. Each pair is resolved independently, in input order; the surviving
// set is not re-checked for consistency after removals.
func ResolveConflicts(conflicts []domain.ConflictRecord, totals map[string]int) domain.RemovalPlan {
	removals := make(domain.RemovalPlan)

	for _, c := range conflicts {
		if len(c.IDs) != 2 {
			continue
		}
		a, b := c.IDs[0], c.IDs[1]
		scoreA, okA := totals[a]
		scoreB, okB := totals[b]
		if !okA || !okB {
			continue
		}

		if scoreA == scoreB {
			continue
		}

		loser, claim := b, c.ClaimB
		if scoreA < scoreB {
			loser, claim = a, c.ClaimA
		}
		removals[loser] = append(removals[loser], claim)
	}

	return removals
}
