package processor

import (
	"time"

	"github.com/uber/peloton-offermatch/offermatch/matcher"
	"github.com/uber/peloton-offermatch/offermatch/offer"
)

// offerData is the per-in-flight-offer state record (spec.md §3,
// component C2). It is mutated exclusively by the single-writer
// Processor goroutine.
type offerData struct {
	offer    offer.Bundle // the remaining offer after successive ops are applied
	deadline time.Time

	promise *promise

	matcherQueue []matcher.Matcher // ordered sequence of matchers still to consult

	ops []offer.OpWithSource // accepted so far, newest first

	matchPasses     int
	resendThisOffer bool // sticky, OR-accumulated across passes and on timeout

	// awaitingMatcher is true while a matchOffer call for this offer is
	// outstanding; at most one is ever outstanding per offer (spec.md §5).
	awaitingMatcher bool

	// cancelMatcher cancels the context handed to the currently
	// outstanding matcher call, if any. It is invoked on completion so
	// a well-behaved matcher can stop promptly; spec.md §5 notes this
	// is advisory only — a late response is still handled via the
	// unknown-offerId branch, not relied upon to actually stop.
	cancelMatcher func()
}

// prependOps prepends accepted to data.ops, newest first.
func (d *offerData) prependOps(accepted []offer.OpWithSource) {
	d.ops = append(append([]offer.OpWithSource{}, accepted...), d.ops...)
}
