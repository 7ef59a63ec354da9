package registry

import (
	"fmt"

	"github.com/corectl/corectl/internal/identity"
)

// ExplainEntry describes one candidate considered during resolution: either
// the rule that eliminated it, or that it is the winner.
type ExplainEntry struct {
	Candidate Candidate
	Winner    bool
	Rule      string
	Reason    string
}

// ExplainTrace is the full decision trace for one (domain,key) resolution.
type ExplainTrace struct {
	Domain  identity.Domain
	Key     string
	Entries []ExplainEntry
}

// Explain returns a decision trace enumerating every candidate considered
// for (domain,key) and the rule that eliminated it or made it the winner,
// per spec.md §4.1.
func (r *Registry) Explain(domain identity.Domain, key string) ExplainTrace {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trace := ExplainTrace{Domain: domain, Key: key}

	bucket := r.candidates[bucketKey{domain: domain, key: key}]
	if len(bucket) == 0 {
		return trace
	}

	override, hasOverride := r.overrides[bucketKey{domain: domain, key: key}]

	var all []*Candidate
	for _, c := range bucket {
		all = append(all, c)
	}

	ranked := r.eligibleLocked(domain, key, nil, nil)
	rankedSet := make(map[identityKey]int, len(ranked)) // identityKey -> rank position
	for i, rc := range ranked {
		rankedSet[rc.candidate.identityKey()] = i
	}

	for _, c := range all {
		ik := c.identityKey()
		if hasOverride && c.Provider != override {
			trace.Entries = append(trace.Entries, ExplainEntry{
				Candidate: *c, Rule: "explicit_override",
				Reason: fmt.Sprintf("eliminated: override selects provider %q", override),
			})
			continue
		}
		pos, eligible := rankedSet[ik]
		if !eligible {
			trace.Entries = append(trace.Entries, ExplainEntry{
				Candidate: *c, Rule: "capability_filter",
				Reason: "eliminated: missing a required capability",
			})
			continue
		}
		if pos == 0 {
			trace.Entries = append(trace.Entries, ExplainEntry{
				Candidate: *c, Winner: true, Rule: winningRule(ranked),
				Reason: "selected as active candidate",
			})
			continue
		}
		trace.Entries = append(trace.Entries, ExplainEntry{
			Candidate: *c, Rule: eliminationRule(ranked[0], *c),
			Reason: "outranked by the active candidate",
		})
	}
	return trace
}

// winningRule reports which ladder rule distinguished the winner from the
// runner-up, for the winner's own explain entry.
func winningRule(ranked []rankedCandidate) string {
	if len(ranked) < 2 {
		return "sole_candidate"
	}
	return eliminationRule(ranked[0], *ranked[1].candidate)
}

// eliminationRule reports the first ladder rule that distinguishes winner
// from other.
func eliminationRule(winner rankedCandidate, other Candidate) string {
	otherScore := countOptionalMatches(&other, nil)
	if winner.optionalScore != otherScore {
		return "capability_score"
	}
	if winner.candidate.priorityOrLowest() != other.priorityOrLowest() {
		return "priority"
	}
	if winner.candidate.stackLevelOrLowest() != other.stackLevelOrLowest() {
		return "stack_level"
	}
	if !winner.candidate.RegisteredAt.Equal(other.RegisteredAt) {
		return "registration_recency"
	}
	return "provider_lexicographic"
}
