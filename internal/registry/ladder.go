package registry

import (
	"sort"

	"github.com/corectl/corectl/internal/identity"
)

// rankedCandidate pairs a candidate with the capability-match count used by
// rule 2 of the ladder.
type rankedCandidate struct {
	candidate      *Candidate
	optionalScore  int
	eliminatedBy   string // not set by the ranking; Explain derives rule names separately
}

// eligibleLocked returns the candidates for (domain,key) that satisfy the
// required-capability filter, ordered by the five-rule precedence ladder
// (spec.md §4.1) with index 0 the winner. Callers must hold r.mu (read or
// write).
func (r *Registry) eligibleLocked(domain identity.Domain, key string, required, optional []string) []rankedCandidate {
	return r.eligibleLockedFiltered(domain, key, required, optional, nil)
}

// eligibleLockedFiltered is eligibleLocked with an optional explicit
// provider filter that, when non-nil, takes precedence over the stored
// override table — used by swap's "re-resolve with optional provider
// filter" step (spec.md §4.2) without mutating persistent override state.
func (r *Registry) eligibleLockedFiltered(domain identity.Domain, key string, required, optional []string, providerFilter *string) []rankedCandidate {
	bucket := r.candidates[bucketKey{domain: domain, key: key}]
	if len(bucket) == 0 {
		return nil
	}

	var override string
	var hasOverride bool
	if providerFilter != nil {
		override, hasOverride = *providerFilter, true
	} else {
		override, hasOverride = r.overrides[bucketKey{domain: domain, key: key}]
	}

	var ranked []rankedCandidate
	for _, c := range bucket {
		if hasOverride && c.Provider != override {
			continue
		}
		if !hasAllRequired(c, required) {
			continue
		}
		ranked = append(ranked, rankedCandidate{candidate: c, optionalScore: countOptionalMatches(c, optional)})
	}
	if len(ranked) == 0 {
		return nil
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return lessByLadder(ranked[i], ranked[j])
	})
	return ranked
}

// lessByLadder reports whether a should sort before b, i.e. a wins.
func lessByLadder(a, b rankedCandidate) bool {
	if a.optionalScore != b.optionalScore {
		return a.optionalScore > b.optionalScore
	}
	ap, bp := a.candidate.priorityOrLowest(), b.candidate.priorityOrLowest()
	if ap != bp {
		return ap > bp
	}
	as, bs := a.candidate.stackLevelOrLowest(), b.candidate.stackLevelOrLowest()
	if as != bs {
		return as > bs
	}
	if !a.candidate.RegisteredAt.Equal(b.candidate.RegisteredAt) {
		return a.candidate.RegisteredAt.After(b.candidate.RegisteredAt)
	}
	// Documented tie-break of last resort.
	return a.candidate.Provider < b.candidate.Provider
}

func hasAllRequired(c *Candidate, required []string) bool {
	if len(required) == 0 {
		return true
	}
	caps := c.Capabilities()
	for _, tag := range required {
		if _, ok := caps[tag]; !ok {
			return false
		}
	}
	return true
}

func countOptionalMatches(c *Candidate, optional []string) int {
	if len(optional) == 0 {
		return 0
	}
	caps := c.Capabilities()
	n := 0
	for _, tag := range optional {
		if _, ok := caps[tag]; ok {
			n++
		}
	}
	return n
}
