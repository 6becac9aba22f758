// Package offer defines the resource-offer data model the manager
// reasons about: the Bundle the cluster manager hands in, the
// InstanceOp a matcher proposes against it, and the persistent-disk
// reservation decoding rule used to order matchers (see
// offermatch/registry BuildQueue).
package offer

import "fmt"

// ID uniquely identifies one offer for the lifetime of its processing.
type ID string

// Resource is one resource entry of an Offer (cpu, mem, disk, ports,
// ...). A Resource may carry a persistent disk reservation; Peloton's
// `mesos.Resource.DiskInfo.Persistence.Id` is the template this is
// generalized from (see hostmgr/offer/offerpool/pool.go ClaimForPlace).
type Resource struct {
	Name          string
	Reserved      bool
	PersistenceID string // empty when this resource carries no reservation
}

// Bundle is the externally-defined resource bundle carried by one
// offer. It is immutable; Op.ApplyToOffer returns a new, reduced Bundle.
type Bundle struct {
	OfferID   ID
	Hostname  string
	Resources []Resource
}

// PersistenceDecoder extracts the app identifier embedded in a
// persistence id. The embedding rule is owned by the cluster-manager
// adapter; an id this core cannot parse decodes to ("", false) and is
// treated as non-matching (see spec Design Notes, "Persistent-reservation
// decoding").
type PersistenceDecoder func(persistenceID string) (appID string, ok bool)

// ReservedAppIDs returns the set of app identifiers found in this
// bundle's persistent disk reservations, via decode.
func (b Bundle) ReservedAppIDs(decode PersistenceDecoder) map[string]struct{} {
	apps := make(map[string]struct{})
	for _, r := range b.Resources {
		if !r.Reserved || r.PersistenceID == "" {
			continue
		}
		if appID, ok := decode(r.PersistenceID); ok {
			apps[appID] = struct{}{}
		}
	}
	return apps
}

// Op is a launch (or reservation) action a matcher proposes against a
// Bundle. ApplyToOffer must be pure: it returns the reduced bundle
// without mutating b.
type Op interface {
	fmt.Stringer
	ApplyToOffer(b Bundle) Bundle
}

// OpWithSource is an immutable record pairing a proposed Op with the
// callback the Processor must invoke exactly once if it declines the
// op (spec.md §3 Invariant 3).
type OpWithSource struct {
	Op     Op
	Reject func(reason string)
}

// MatchedOps is what a matcher returns for one offer, and what the
// Processor ultimately hands back to the original requester.
type MatchedOps struct {
	OfferID         ID
	Ops             []OpWithSource
	ResendThisOffer bool
}
