package registry

import (
	"github.com/samber/lo"

	"github.com/uber/peloton-offermatch/offermatch/matcher"
	"github.com/uber/peloton-offermatch/offermatch/offer"
)

// Shuffler supplies the randomness source for BuildQueue. Production
// code wires in a *rand.Rand; tests can substitute a deterministic
// (or identity) shuffler to make dispatch order assertions exact.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// BuildQueue computes the initial matcherQueue for one offer, per
// spec.md §4.4: matchers whose precedence predicate intersects the
// offer's reserved app ids go first (independently shuffled), then
// every other matcher (also independently shuffled).
//
// Reserved-first ordering exists so a matcher awaiting a specific
// reservation gets first refusal on it, before a generic matcher can
// consume the same resource; the within-class shuffle prevents
// starvation among peers.
func BuildQueue(matchers []matcher.Matcher, b offer.Bundle, decode offer.PersistenceDecoder, shuffle Shuffler) []matcher.Matcher {
	reservedApps := b.ReservedAppIDs(decode)

	reserved, normal := lo.FilterReject(matchers, func(m matcher.Matcher, _ int) bool {
		return intersects(m.Precedence(), reservedApps)
	})

	shuffle.Shuffle(len(reserved), func(i, j int) { reserved[i], reserved[j] = reserved[j], reserved[i] })
	shuffle.Shuffle(len(normal), func(i, j int) { normal[i], normal[j] = normal[j], normal[i] })

	return append(reserved, normal...)
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return len(lo.Intersect(lo.Keys(a), lo.Keys(b))) > 0
}
