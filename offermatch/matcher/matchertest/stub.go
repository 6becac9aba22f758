// Package matchertest provides a minimal, deterministic Matcher stub
// for use across this module's test suites, standing in for
// gomock-generated mocks where scripted sequences aren't needed.
package matchertest

import (
	"context"
	"time"

	"github.com/uber/peloton-offermatch/offermatch/matcher"
	"github.com/uber/peloton-offermatch/offermatch/offer"
)

// Stub is a Matcher whose responses are scripted by the test: each
// call to MatchOffer pops the next entry from Responses (or returns
// the last one, repeated, once exhausted).
type Stub struct {
	Name      string
	Precedent map[string]struct{}
	Responses []StubResponse
	Calls     []offer.Bundle
	calls     int

	// Block, when non-nil, makes MatchOffer wait for a send on this
	// channel before returning its scripted response — useful for
	// simulating a matcher that is slower than the offer's deadline.
	// Deliberately does not select on ctx: tests that use Block want
	// full control over when the late response is delivered, and the
	// manager's cancellation of a timed-out offer's context is
	// advisory only (spec.md §5 Cancellation).
	Block chan struct{}
}

// StubResponse is one scripted reply.
type StubResponse struct {
	Ops []offer.OpWithSource
	Err error
}

// NewStub builds a Stub identified by name.
func NewStub(name string, responses ...StubResponse) *Stub {
	return &Stub{Name: name, Responses: responses}
}

// ID implements matcher.Matcher.
func (s *Stub) ID() matcher.ID { return s.Name }

// Precedence implements matcher.Matcher.
func (s *Stub) Precedence() map[string]struct{} { return s.Precedent }

// MatchOffer implements matcher.Matcher.
func (s *Stub) MatchOffer(_ context.Context, _, _ time.Time, b offer.Bundle) (offer.MatchedOps, error) {
	if s.Block != nil {
		<-s.Block
	}
	s.Calls = append(s.Calls, b)
	idx := s.calls
	if idx >= len(s.Responses) {
		idx = len(s.Responses) - 1
	}
	s.calls++
	if idx < 0 {
		return offer.MatchedOps{OfferID: b.OfferID}, nil
	}
	resp := s.Responses[idx]
	if resp.Err != nil {
		return offer.MatchedOps{}, resp.Err
	}
	return offer.MatchedOps{OfferID: b.OfferID, Ops: resp.Ops}, nil
}
