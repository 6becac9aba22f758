// Package registry implements the Matcher Registry (spec.md §4.1,
// component C3): the set of currently-registered matchers, with an
// idempotent add/remove protocol.
//
// Registry is not safe for concurrent use; like Accountant, it is
// owned exclusively by the single-writer Offer Processor goroutine.
package registry

import (
	"github.com/samber/lo"

	"github.com/uber/peloton-offermatch/offermatch/matcher"
)

// Registry holds the live matcher set. Equality of matchers is by
// identity supplied by the caller (matcher.ID), per spec.md §4.1; the
// registry stores no state about a matcher beyond its identity and its
// precedence predicate.
type Registry struct {
	byID map[matcher.ID]matcher.Matcher
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{byID: make(map[matcher.ID]matcher.Matcher)}
}

// AddOrUpdateMatcher inserts m if it is not already a member. It
// reports whether m was newly inserted; the caller always acknowledges
// with MatcherAdded(m) regardless of the return value (spec.md §4.1).
func (r *Registry) AddOrUpdateMatcher(m matcher.Matcher) (inserted bool) {
	id := m.ID()
	if _, ok := r.byID[id]; ok {
		return false
	}
	r.byID[id] = m
	return true
}

// RemoveMatcher removes m if it is a member. It reports whether m was
// removed; the caller always acknowledges with MatcherRemoved(m)
// regardless of the return value (spec.md §4.1).
func (r *Registry) RemoveMatcher(m matcher.Matcher) (removed bool) {
	id := m.ID()
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	return true
}

// Count returns the number of registered matchers, used by the
// wanted-signal predicate (spec.md §3 invariant 6).
func (r *Registry) Count() int {
	return len(r.byID)
}

// Snapshot returns every currently registered matcher, in unspecified
// order. BuildQueue turns it into a dispatch order; it keeps this
// order within each precedence class except for what its Shuffler
// changes.
func (r *Registry) Snapshot() []matcher.Matcher {
	return lo.Values(r.byID)
}
