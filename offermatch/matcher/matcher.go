// Package matcher defines the Matcher contract the Offer Matcher
// Manager dispatches offers to. Matchers are opaque participants
// (launch-queue, reservation, residency matchers per spec.md §1); this
// package only carries their identity and calling convention.
package matcher

import (
	"context"
	"time"

	"github.com/uber/peloton-offermatch/offermatch/offer"
)

// ID identifies a Matcher by the caller-supplied identity; equality is
// by identity, not value (spec.md §4.1).
type ID interface{}

// Matcher is a participant willing to translate (part of) an offer
// into launch operations for a specific workload. MatchOffer must
// return promptly relative to deadline; a Matcher that cannot decide
// in time should return what it has and let the manager's deadline
// handling take over.
type Matcher interface {
	// ID returns this matcher's identity, used for registry membership
	// and precedence bookkeeping.
	ID() ID

	// MatchOffer proposes ops against b before deadline. ctx is
	// cancelled once deadline passes.
	MatchOffer(ctx context.Context, now time.Time, deadline time.Time, b offer.Bundle) (offer.MatchedOps, error)

	// Precedence optionally returns the set of app identifiers this
	// matcher should be tried first for (e.g. because it holds a
	// persistent reservation for them). A nil/empty return means this
	// matcher carries no precedence and is ordered with the "normal"
	// class (spec.md §4.4).
	Precedence() map[string]struct{}
}
