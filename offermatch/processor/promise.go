package processor

import (
	"sync"

	"github.com/uber/peloton-offermatch/offermatch/offer"
)

// promise is the single-shot completion handle for one MatchOffer
// requester (spec.md §3 OfferData.promise, §7 error kind 5). A second
// attempt to complete it succeeds silently (trySucceed semantics): it
// is a programmer-error path, never fatal.
type promise struct {
	done   chan struct{}
	once   sync.Once
	result offer.MatchedOps
}

func newPromise() *promise {
	return &promise{done: make(chan struct{})}
}

// trySucceed completes the promise with result, if it has not already
// been completed. Safe to call more than once; only the first call has
// any effect.
func (p *promise) trySucceed(result offer.MatchedOps) {
	p.once.Do(func() {
		p.result = result
		close(p.done)
	})
}

// wait blocks until the promise is completed and returns its result.
// Exported as Future.Wait for callers outside this package.
func (p *promise) wait() offer.MatchedOps {
	<-p.done
	return p.result
}

// Done exposes the completion channel for select-based callers.
func (p *promise) Done() <-chan struct{} { return p.done }

// Future is the requester-facing view of a promise: wait for the
// single result this offer will ever produce.
type Future struct {
	p *promise
}

// Wait blocks until the offer is resolved and returns the result.
func (f Future) Wait() offer.MatchedOps { return f.p.wait() }

// Done returns a channel closed exactly once, when the result is
// ready; useful alongside a context or select loop.
func (f Future) Done() <-chan struct{} { return f.p.Done() }

// Result returns the result once Done() has fired. Calling it before
// then returns the zero value.
func (f Future) Result() offer.MatchedOps { return f.p.result }
