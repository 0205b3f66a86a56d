// Package scoring holds the deterministic scoring model: static credibility
// from source attributes, agreement from incoming cross-source support, and
// the conflict-resolution policy that consumes the combined totals. Nothing
// in this package calls a language model.
package scoring

import (
	"net/url"
	"strings"

	"github.com/quorumlabs/quorum/internal/domain"
)

// Fixed bonuses for credibility scoring.
const (
	AuthorBonus = 5
	DomainBonus = 5
)

// VenueBonuses refines a trusted domain's score by venue type.
var VenueBonuses = map[string]int{
	"journal":     3,
	"repository":  2,
	"book series": 1,
}

// CredibilityConfig is the immutable credibility knowledge base: a set of
// trusted authors and a trusted domain to venue-type map. It is constructed
// once and injected into the scorer; there is no process-wide singleton, so
// tests can supply fixtures directly.
type CredibilityConfig struct {
	authors map[string]struct{}
	sources map[string]string
}

// NewCredibilityConfig normalizes and freezes the given datasets. Author
// matching is case-insensitive and trimmed; domains are lowercased.
func NewCredibilityConfig(authors []string, sources map[string]string) *CredibilityConfig {
	cfg := &CredibilityConfig{
		authors: make(map[string]struct{}, len(authors)),
		sources: make(map[string]string, len(sources)),
	}
	for _, a := range authors {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			cfg.authors[a] = struct{}{}
		}
	}
	for d, venue := range sources {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			cfg.sources[d] = strings.ToLower(strings.TrimSpace(venue))
		}
	}
	return cfg
}

// TrustedAuthor reports whether the author is in the trusted set.
func (c *CredibilityConfig) TrustedAuthor(author string) bool {
	_, ok := c.authors[strings.ToLower(strings.TrimSpace(author))]
	return ok
}

// Venue returns the venue type for a trusted domain, if present.
func (c *CredibilityConfig) Venue(domain string) (string, bool) {
	v, ok := c.sources[strings.ToLower(strings.TrimSpace(domain))]
	return v, ok
}

// CredibilityScore computes the static trust score for one record: a fixed
// bonus for a trusted author, a fixed bonus for a trusted domain, and a
// venue-type bonus on top of the domain bonus. Computed once, at record
// creation; corroboration plays no part here.
func (c *CredibilityConfig) CredibilityScore(rec *domain.StoredEvidence) int {
	score := 0

	if rec.Author != nil && c.TrustedAuthor(*rec.Author) {
		score += AuthorBonus
	}

	d := rec.Domain
	if d == "" {
		d = domainFromURL(rec.URL)
	}
	if venue, ok := c.Venue(d); ok {
		score += DomainBonus
		score += VenueBonuses[venue]
	}

	return score
}

func domainFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
