// Package metrics defines the Metrics Surface (spec.md §4, component
// C7): the launch-token and in-flight-offer gauges, set synchronously
// after every mutation, plus a matcher-count gauge and accepted/rejected
// op counters, in the shape of hostmgr/offer/offerpool.Metrics.
package metrics

import "github.com/uber-go/tally"

// Metrics holds the gauges the manager updates after every mutation
// of launch tokens or the in-flight offer map.
type Metrics struct {
	scope tally.Scope

	// LaunchTokens is the current launch-token balance.
	LaunchTokens tally.Gauge

	// CurrentOffers is the number of offers currently in flight.
	CurrentOffers tally.Gauge

	// MatcherCount is the current matcher registry size. Not required
	// by spec.md §6, but natural to expose alongside the two mandated
	// gauges since the registry already tracks it.
	MatcherCount tally.Gauge

	// OpsRejected counts ops rejected for lack of tokens or cap room.
	OpsRejected tally.Counter

	// OpsAccepted counts ops admitted into some offer's ops list.
	OpsAccepted tally.Counter
}

// New constructs a Metrics rooted at scope, the way peloton's
// NewMetrics constructors build gauges/counters off a tally.Scope.
func New(scope tally.Scope) *Metrics {
	return &Metrics{
		scope:         scope,
		LaunchTokens:  scope.Gauge("launch_tokens"),
		CurrentOffers: scope.Gauge("current_offers"),
		MatcherCount:  scope.Gauge("matcher_count"),
		OpsRejected:   scope.Counter("ops_rejected"),
		OpsAccepted:   scope.Counter("ops_accepted"),
	}
}
