package processor

import (
	"fmt"

	"github.com/uber/peloton-offermatch/offermatch/offer"
)

// launchOp is a minimal offer.Op used by tests and the demo binary: it
// consumes one named resource entirely from the bundle.
type launchOp struct {
	Resource string
}

// NewLaunchOp constructs an Op that removes one resource entry (by
// name) from whatever bundle it is applied to.
func NewLaunchOp(resource string) offer.Op {
	return launchOp{Resource: resource}
}

func (o launchOp) String() string { return fmt.Sprintf("launch(%s)", o.Resource) }

func (o launchOp) ApplyToOffer(b offer.Bundle) offer.Bundle {
	remaining := make([]offer.Resource, 0, len(b.Resources))
	removed := false
	for _, r := range b.Resources {
		if !removed && r.Name == o.Resource {
			removed = true
			continue
		}
		remaining = append(remaining, r)
	}
	b.Resources = remaining
	return b
}
