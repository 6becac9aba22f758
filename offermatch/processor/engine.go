// Package processor implements the Offer Processor (spec.md §4.5,
// component C5) together with the Delegate Facade (spec.md §4.6,
// component C8): in Go, the single-writer "agent" of spec.md §5 is one
// goroutine draining a mailbox, and the facade IS that goroutine's
// exported entry points — there is no separate actor-mailbox layer to
// peel apart the way the Scala source does (see DESIGN.md).
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/uber/peloton-offermatch/common/clock"
	"github.com/uber/peloton-offermatch/offermatch/config"
	"github.com/uber/peloton-offermatch/offermatch/matcher"
	"github.com/uber/peloton-offermatch/offermatch/metrics"
	"github.com/uber/peloton-offermatch/offermatch/offer"
	"github.com/uber/peloton-offermatch/offermatch/registry"
	"github.com/uber/peloton-offermatch/offermatch/tokens"
	"github.com/uber/peloton-offermatch/offermatch/wanted"
)

// Manager is the single-writer coordinator. All exported methods are
// safe to call from any goroutine: each hands its request to the
// manager's run loop over a channel and the loop applies it serially,
// in send order per sender (spec.md §5 ordering guarantees).
type Manager struct {
	cfg      config.Config
	clock    clock.Clock
	decode   offer.PersistenceDecoder
	shuffler registry.Shuffler
	logger   *logrus.Entry

	registry *registry.Registry
	tokens   *tokens.Accountant
	wanted   *wanted.Publisher
	metrics  *metrics.Metrics

	inFlight map[offer.ID]*offerData

	mailbox   chan func()
	matchedCh chan matchedOpsMsg
	timeoutCh chan offer.ID
	stopCh    chan struct{}
}

type matchedOpsMsg struct {
	offerID offer.ID
	m       matcher.Matcher
	ops     offer.MatchedOps
}

// Options bundles the Manager's dependencies, all injected so the
// core has no ambient state (spec.md §6 Environment).
type Options struct {
	Config             config.Config
	Clock              clock.Clock
	PersistenceDecoder offer.PersistenceDecoder
	Shuffler           registry.Shuffler
	Metrics            *metrics.Metrics
	WantedObserver     wanted.Observer
	Logger             *logrus.Logger
}

// NewManager validates opts and constructs a Manager. Call Start to
// begin processing. Every missing or invalid dependency is reported
// together, rather than one at a time, so a misconfigured caller sees
// the whole list on the first attempt.
func NewManager(opts Options) (*Manager, error) {
	var errs error
	errs = multierr.Append(errs, opts.Config.Validate())
	if opts.Clock == nil {
		errs = multierr.Append(errs, errors.New("offermatch: Clock is required"))
	}
	if opts.PersistenceDecoder == nil {
		errs = multierr.Append(errs, errors.New("offermatch: PersistenceDecoder is required"))
	}
	if opts.Shuffler == nil {
		errs = multierr.Append(errs, errors.New("offermatch: Shuffler is required"))
	}
	if opts.Metrics == nil {
		errs = multierr.Append(errs, errors.New("offermatch: Metrics is required"))
	}
	if errs != nil {
		return nil, errs
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		cfg:       opts.Config,
		clock:     opts.Clock,
		decode:    opts.PersistenceDecoder,
		shuffler:  opts.Shuffler,
		logger:    logger.WithField("component", "offer_matcher_manager"),
		registry:  registry.New(),
		tokens:    tokens.NewAccountant(0),
		wanted:    wanted.NewPublisher(opts.WantedObserver),
		metrics:   opts.Metrics,
		inFlight:  make(map[offer.ID]*offerData),
		mailbox:   make(chan func(), 64),
		matchedCh: make(chan matchedOpsMsg, 64),
		timeoutCh: make(chan offer.ID, 64),
		stopCh:    make(chan struct{}),
	}, nil
}

// Start spawns the manager's run loop. It must be called exactly once.
func (m *Manager) Start() {
	go m.run()
}

// Stop terminates the run loop. Outstanding promises are left
// unresolved; callers should not Stop while offers are in flight
// unless they intend to abandon them.
func (m *Manager) Stop() {
	close(m.stopCh)
}

func (m *Manager) run() {
	for {
		select {
		case <-m.stopCh:
			return
		case cmd := <-m.mailbox:
			cmd()
		case msg := <-m.matchedCh:
			m.handleMatchedOps(msg)
		case id := <-m.timeoutCh:
			m.handleTimeout(id)
		}
	}
}

// send enqueues fn onto the mailbox and blocks until it has run,
// preserving per-sender ordering (spec.md §5) without exposing the
// mailbox's internal message types to callers.
func (m *Manager) send(fn func()) {
	done := make(chan struct{})
	m.mailbox <- func() {
		fn()
		close(done)
	}
	<-done
}

// MatchOffer submits offer b for matching against the registered
// matchers, with the given absolute deadline. The returned Future
// resolves exactly once (spec.md §3 invariant 4).
func (m *Manager) MatchOffer(deadline time.Time, b offer.Bundle) Future {
	p := newPromise()
	m.send(func() { m.handleMatchOffer(deadline, b, p) })
	return Future{p: p}
}

// AddOrUpdateMatcher registers mt (idempotent) and always acknowledges
// with mt, per spec.md §4.1.
func (m *Manager) AddOrUpdateMatcher(mt matcher.Matcher) matcher.Matcher {
	m.send(func() { m.handleAddMatcher(mt) })
	return mt
}

// RemoveMatcher unregisters mt (idempotent) and always acknowledges
// with mt, per spec.md §4.1.
func (m *Manager) RemoveMatcher(mt matcher.Matcher) matcher.Matcher {
	m.send(func() { m.handleRemoveMatcher(mt) })
	return mt
}

// SetInstanceLaunchTokens overwrites the launch-token balance.
func (m *Manager) SetInstanceLaunchTokens(n int64) {
	m.send(func() { m.handleSetTokens(n) })
}

// AddInstanceLaunchTokens adds n to the launch-token balance.
func (m *Manager) AddInstanceLaunchTokens(n int64) {
	m.send(func() { m.handleAddTokens(n) })
}

func (m *Manager) publishWanted() {
	m.wanted.Publish(m.registry.Count(), m.tokens.Balance())
}

func (m *Manager) handleAddMatcher(mt matcher.Matcher) {
	inserted := m.registry.AddOrUpdateMatcher(mt)
	if inserted {
		// A freshly registered matcher may still benefit in-flight
		// offers; append it to every live offer's queue (spec.md §4.1 —
		// this is the spec's deliberate fix of the teacher's lost
		// `.map` bug, see DESIGN.md).
		for _, data := range m.inFlight {
			data.matcherQueue = append(data.matcherQueue, mt)
		}
		m.publishWanted()
	}
	if m.metrics != nil {
		m.metrics.MatcherCount.Update(float64(m.registry.Count()))
	}
}

func (m *Manager) handleRemoveMatcher(mt matcher.Matcher) {
	removed := m.registry.RemoveMatcher(mt)
	if removed {
		// In-flight queues are left untouched: a matcher removed
		// mid-processing is still consulted if already queued
		// (spec.md §4.1, a deliberate best-effort choice).
		m.publishWanted()
	}
	if m.metrics != nil {
		m.metrics.MatcherCount.Update(float64(m.registry.Count()))
	}
}

func (m *Manager) handleSetTokens(n int64) {
	becamePositive := m.tokens.Set(n)
	if m.metrics != nil {
		m.metrics.LaunchTokens.Update(float64(m.tokens.Balance()))
	}
	if becamePositive {
		m.publishWanted()
	}
}

func (m *Manager) handleAddTokens(n int64) {
	becamePositive := m.tokens.Add(n)
	if m.metrics != nil {
		m.metrics.LaunchTokens.Update(float64(m.tokens.Balance()))
	}
	if becamePositive {
		m.publishWanted()
	}
}

func (m *Manager) handleMatchOffer(deadline time.Time, b offer.Bundle, p *promise) {
	if _, exists := m.inFlight[b.OfferID]; exists {
		// spec.md §3 invariant 1: at most one entry per offerId. A
		// duplicate MatchOffer for a live offer is a caller error; fail
		// it fast rather than silently clobbering the live OfferData.
		p.trySucceed(offer.MatchedOps{OfferID: b.OfferID, ResendThisOffer: true})
		return
	}

	wantedNow := m.registry.Count() > 0 && m.tokens.Balance() > 0
	if !wantedNow {
		p.trySucceed(offer.MatchedOps{OfferID: b.OfferID, ResendThisOffer: false})
		return
	}

	now := m.clock.Now()
	queue := registry.BuildQueue(m.registry.Snapshot(), b, m.decode, m.shuffler)
	data := &offerData{
		offer:        b,
		deadline:     deadline,
		promise:      p,
		matcherQueue: queue,
	}
	m.inFlight[b.OfferID] = data
	if m.metrics != nil {
		m.metrics.CurrentOffers.Update(float64(len(m.inFlight)))
	}
	m.scheduleTimeout(b.OfferID, now, deadline)
	m.step(b.OfferID)
}

func (m *Manager) scheduleTimeout(id offer.ID, now, deadline time.Time) {
	// Register the timer on the single-writer goroutine, before MatchOffer
	// returns, so a clock advanced right afterwards still fires it.
	fire := m.clock.After(deadline.Sub(now))
	go func() {
		select {
		case <-fire:
		case <-m.stopCh:
			return
		}
		select {
		case m.timeoutCh <- id:
		case <-m.stopCh:
		}
	}()
}

// step implements scheduleNextMatcherOrFinish (spec.md §4.5): evaluate
// the stop conditions in order, or dispatch the next matcher.
func (m *Manager) step(id offer.ID) {
	data, ok := m.inFlight[id]
	if !ok {
		return
	}

	now := m.clock.Now()
	switch {
	case !now.Before(data.deadline):
		data.resendThisOffer = true
		m.logger.WithFields(logrus.Fields{
			"offer_id": id,
			"deadline": data.deadline,
			"now":      now,
		}).Warn("offer match overdue")
		m.complete(id, data)
		return
	case len(data.ops) >= m.cfg.MaxInstancesPerOffer:
		m.logger.WithFields(logrus.Fields{
			"offer_id": id,
			"flag":     m.cfg.MaxInstancesPerOfferFlagName,
			"cap":      m.cfg.MaxInstancesPerOffer,
		}).Info("offer hit max instances per offer cap")
		m.complete(id, data)
		return
	case m.tokens.Balance() <= 0:
		m.complete(id, data)
		return
	case len(data.matcherQueue) == 0:
		m.complete(id, data)
		return
	}

	mt := data.matcherQueue[0]
	data.matcherQueue = data.matcherQueue[1:]
	data.awaitingMatcher = true
	ctx, cancel := context.WithCancel(context.Background())
	data.cancelMatcher = cancel
	m.dispatch(ctx, id, mt, now, data.deadline, data.offer)
}

// dispatch calls mt.MatchOffer off the single-writer goroutine and
// feeds its (possibly synthesized) response back through matchedCh, so
// the agent never blocks on a matcher (spec.md §5 Suspension points).
// ctx is cancelled from complete(), driven by the injected Clock
// rather than a real wall-clock deadline, so deadlines remain
// deterministic under a Mock clock in tests.
func (m *Manager) dispatch(ctx context.Context, id offer.ID, mt matcher.Matcher, now, deadline time.Time, b offer.Bundle) {
	go func() {
		ops, err := mt.MatchOffer(ctx, now, deadline, b)
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"offer_id": id,
			}).WithError(err).Warn("matcher call failed; treating as no-match")
			ops = offer.MatchedOps{OfferID: id, ResendThisOffer: true}
		}
		select {
		case m.matchedCh <- matchedOpsMsg{offerID: id, m: mt, ops: ops}:
		case <-m.stopCh:
		}
	}()
}

func (m *Manager) handleMatchedOps(msg matchedOpsMsg) {
	data, ok := m.inFlight[msg.offerID]
	if !ok {
		// spec.md §7 error kind 3: benign race, offer already timed out
		// or completed. Reject every op in the late response.
		reason := fmt.Sprintf("offer '%s' already timed out", msg.offerID)
		for _, op := range msg.ops.Ops {
			op.Reject(reason)
		}
		return
	}

	data.matchPasses++
	data.resendThisOffer = data.resendThisOffer || msg.ops.ResendThisOffer
	data.awaitingMatcher = false

	reQueue := m.admitOps(msg.offerID, data, msg.ops.Ops)
	if reQueue {
		data.matcherQueue = append(data.matcherQueue, msg.m)
	}

	m.step(msg.offerID)
}

// admitOps performs spec.md §4.5 steps 2-7 for one matcher response.
// It reports whether the matcher should be re-enqueued.
func (m *Manager) admitOps(id offer.ID, data *offerData, addedOps []offer.OpWithSource) (reQueue bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithFields(logrus.Fields{
				"offer_id": id,
			}).Errorf("op admission panic, retaining prior offer data: %v", r)
			reQueue = false
		}
	}()

	residual := int64(m.cfg.MaxInstancesPerOffer - len(data.ops))
	k := m.tokens.Balance()
	if int64(len(addedOps)) < k {
		k = int64(len(addedOps))
	}
	if residual < k {
		k = residual
	}
	if k < 0 {
		k = 0
	}

	accepted := addedOps[:k]
	rejected := addedOps[k:]
	for _, op := range rejected {
		op.Reject("not enough launch tokens OR already scheduled sufficient instances on offer")
	}
	if m.metrics != nil && len(rejected) > 0 {
		m.metrics.OpsRejected.Inc(int64(len(rejected)))
	}

	newOffer := data.offer
	for _, op := range accepted {
		newOffer = op.Op.ApplyToOffer(newOffer)
	}

	// Commit only once the fold above has succeeded without panicking;
	// spec.md §7 error kind 2 requires no partial admission.
	data.offer = newOffer
	data.prependOps(accepted)
	m.tokens.Debit(int64(len(accepted)))
	if m.metrics != nil {
		m.metrics.OpsAccepted.Inc(int64(len(accepted)))
		m.metrics.LaunchTokens.Update(float64(m.tokens.Balance()))
	}

	return len(addedOps) > 0
}

func (m *Manager) handleTimeout(id offer.ID) {
	data, ok := m.inFlight[id]
	if !ok {
		// spec.md §7 error kind 4: timer after completion, benign no-op.
		return
	}
	data.resendThisOffer = true
	m.complete(id, data)
}

func (m *Manager) complete(id offer.ID, data *offerData) {
	result := offer.MatchedOps{
		OfferID:         id,
		Ops:             append([]offer.OpWithSource{}, data.ops...),
		ResendThisOffer: data.resendThisOffer,
	}
	data.promise.trySucceed(result)
	if data.cancelMatcher != nil {
		data.cancelMatcher()
	}
	delete(m.inFlight, id)
	if m.metrics != nil {
		m.metrics.CurrentOffers.Update(float64(len(m.inFlight)))
	}
	m.logger.WithFields(logrus.Fields{
		"offer_id":      id,
		"match_passes":  data.matchPasses,
		"ops_accepted":  len(data.ops),
		"resend_offer":  data.resendThisOffer,
		"leftover_host": data.offer.Hostname,
	}).Info("offer match completed")
}
