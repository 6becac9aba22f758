// Package tokens implements the Token Accountant (spec.md §4.2,
// component C4): the global launch-token balance and the edge
// detection that drives wanted-signal publication.
//
// Mutations (Set/Add/Debit) are owned exclusively by the single-writer
// Offer Processor goroutine (spec.md §5); the balance itself is kept
// in an atomic.Int64 so Balance can also be read from a metrics
// reporter goroutine outside that loop without a lock, the same
// pattern as `p.availableHosts atomic.Uint32` in the teacher's
// offerPool.
package tokens

import "go.uber.org/atomic"

// Accountant maintains the global launch-token balance. Tokens
// decrement only on op acceptance (offermatch/processor), never
// inside a matcher (spec.md §4.2 invariant).
type Accountant struct {
	balance atomic.Int64
}

// NewAccountant constructs an Accountant starting at the given
// balance.
func NewAccountant(initial int64) *Accountant {
	a := &Accountant{}
	a.balance.Store(initial)
	return a
}

// Balance returns the current token balance. Safe to call from any
// goroutine.
func (a *Accountant) Balance() int64 {
	return a.balance.Load()
}

// Set overwrites the balance to n. It reports whether this call caused
// a transition from "not wanted" (balance <= 0) to "wanted" (n > 0),
// per spec.md §4.2's SetInstanceLaunchTokens rule.
func (a *Accountant) Set(n int64) (becamePositive bool) {
	wasPositive := a.balance.Load() > 0
	a.balance.Store(n)
	return !wasPositive && n > 0
}

// Add adds n to the balance (n may be negative for debits applied
// elsewhere, though the Processor is the only admitted debiter). It
// reports whether the balance became positive on this call, per
// spec.md §4.2's AddInstanceLaunchTokens rule.
func (a *Accountant) Add(n int64) (becamePositive bool) {
	wasPositive := a.balance.Load() > 0
	newBalance := a.balance.Add(n)
	return !wasPositive && newBalance > 0
}

// Debit decrements the balance by n, the only mutation path permitted
// from inside the Offer Processor's admission step (spec.md §4.5
// step 5). The balance must never go negative (spec.md §3 invariant
// 5); callers are responsible for bounding n to the residual balance.
func (a *Accountant) Debit(n int64) {
	if a.balance.Sub(n) < 0 {
		// Invariant 5 violation: a caller admitted more ops than the
		// residual budget allowed. Clamp rather than go negative so a
		// bug here cannot be compounded by downstream accounting.
		a.balance.Store(0)
	}
}
