// Package wanted implements the Wanted-Signal Publisher (spec.md §4.3,
// component C6): a non-deduplicating push of `wanted = |matchers| > 0
// && launchTokens > 0` to an external observer.
package wanted

// Observer receives every computed wanted value. Consumers must
// tolerate repeats; this publisher does not deduplicate (spec.md
// §4.3).
type Observer interface {
	OnWanted(wanted bool)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(wanted bool)

// OnWanted implements Observer.
func (f ObserverFunc) OnWanted(wanted bool) { f(wanted) }

// Publisher computes and pushes the wanted signal.
type Publisher struct {
	observer Observer
}

// NewPublisher constructs a Publisher pushing to observer. A nil
// observer is legal and makes Publish a no-op, useful for callers that
// do not care about backpressure signalling.
func NewPublisher(observer Observer) *Publisher {
	return &Publisher{observer: observer}
}

// Publish computes wanted from the current matcher count and launch
// token balance and pushes it to the observer, unconditionally.
func (p *Publisher) Publish(matcherCount int, launchTokens int64) {
	if p.observer == nil {
		return
	}
	wanted := matcherCount > 0 && launchTokens > 0
	p.observer.OnWanted(wanted)
}
