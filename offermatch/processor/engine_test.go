package processor

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/uber/peloton-offermatch/common/clock"
	"github.com/uber/peloton-offermatch/offermatch/config"
	"github.com/uber/peloton-offermatch/offermatch/matcher"
	"github.com/uber/peloton-offermatch/offermatch/matcher/matchermock"
	"github.com/uber/peloton-offermatch/offermatch/matcher/matchertest"
	"github.com/uber/peloton-offermatch/offermatch/metrics"
	"github.com/uber/peloton-offermatch/offermatch/offer"
	"github.com/uber/peloton-offermatch/offermatch/wanted"

	"github.com/uber-go/tally"
)

func decodeAppID(persistenceID string) (string, bool) {
	if persistenceID == "" {
		return "", false
	}
	return persistenceID, true
}

// identityShuffler performs no shuffling. Dispatch order within a class
// then follows the registry snapshot, whose order is unspecified, so
// no test here asserts which of several normal matchers runs first.
type identityShuffler struct{}

func (identityShuffler) Shuffle(int, func(i, j int)) {}

type recordingObserver struct {
	seen []bool
}

func (r *recordingObserver) OnWanted(w bool) { r.seen = append(r.seen, w) }

type EngineTestSuite struct {
	suite.Suite
	clk      *clock.Mock
	obs      *recordingObserver
	m        *Manager
	scope    tally.TestScope
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) newManager(maxPerOffer int) *Manager {
	s.clk = clock.NewMock(time.Unix(1700000000, 0))
	s.obs = &recordingObserver{}
	s.scope = tally.NewTestScope("", nil)
	mgr, err := NewManager(Options{
		Config:             config.Config{MaxInstancesPerOffer: maxPerOffer, MaxInstancesPerOfferFlagName: "max_instances_per_offer"},
		Clock:              s.clk,
		PersistenceDecoder: decodeAppID,
		Shuffler:           identityShuffler{},
		Metrics:            metrics.New(s.scope),
		WantedObserver:     s.obs,
	})
	s.Require().NoError(err)
	mgr.Start()
	s.m = mgr
	return mgr
}

// NewManager reports every missing dependency at once rather than
// stopping at the first.
func (s *EngineTestSuite) TestNewManagerCombinesValidationErrors() {
	_, err := NewManager(Options{
		Config: config.Config{MaxInstancesPerOffer: 0},
	})
	s.Require().Error(err)
	msg := err.Error()
	s.Contains(msg, "maxInstancesPerOffer")
	s.Contains(msg, "Clock is required")
	s.Contains(msg, "PersistenceDecoder is required")
	s.Contains(msg, "Shuffler is required")
	s.Contains(msg, "Metrics is required")

	// No manager was built; nothing for TearDownTest to stop.
	s.m = nil
}

func (s *EngineTestSuite) TearDownTest() {
	if s.m != nil {
		s.m.Stop()
	}
}

func bundle(id offer.ID, resources ...offer.Resource) offer.Bundle {
	return offer.Bundle{OfferID: id, Hostname: "host-" + string(id), Resources: resources}
}

func opWithReject(name string) (offer.OpWithSource, *string) {
	var reason string
	return offer.OpWithSource{
		Op: NewLaunchOp(name),
		Reject: func(r string) {
			reason = r
		},
	}, &reason
}

// Scenario 1: no matchers registered, tokens=5: immediate noMatch, no
// wanted=true ever published.
func (s *EngineTestSuite) TestNoMatchersShortCircuits() {
	m := s.newManager(5)
	m.SetInstanceLaunchTokens(5)

	future := m.MatchOffer(s.clk.Now().Add(10*time.Second), bundle("offerA"))
	result := future.Wait()

	s.Equal(offer.ID("offerA"), result.OfferID)
	s.Empty(result.Ops)
	s.False(result.ResendThisOffer)
	for _, w := range s.obs.seen {
		s.False(w, "wanted must never be true with zero matchers")
	}
}

// Scenario 2: registry warm-up transitions.
func (s *EngineTestSuite) TestRegistryWarmup() {
	m := s.newManager(5)
	mt := matchertest.NewStub("m1")

	m.AddOrUpdateMatcher(mt)
	for _, w := range s.obs.seen {
		s.False(w, "still not wanted, zero tokens")
	}

	m.SetInstanceLaunchTokens(3)
	s.Require().NotEmpty(s.obs.seen)
	s.True(s.obs.seen[len(s.obs.seen)-1])

	m.RemoveMatcher(mt)
	s.Require().NotEmpty(s.obs.seen)
	s.False(s.obs.seen[len(s.obs.seen)-1])
}

// Scenario 3: token-bounded admission.
func (s *EngineTestSuite) TestTokenBoundedAdmission() {
	m := s.newManager(5)
	m.SetInstanceLaunchTokens(2)

	op1, _ := opWithReject("o1")
	op2, _ := opWithReject("o2")
	op3, reason3 := opWithReject("o3")

	mt := matchertest.NewStub("m1",
		matchertest.StubResponse{Ops: []offer.OpWithSource{op1, op2, op3}},
		matchertest.StubResponse{Ops: nil},
	)
	m.AddOrUpdateMatcher(mt)

	future := m.MatchOffer(s.clk.Now().Add(10*time.Second), bundle("offerA"))
	result := future.Wait()

	s.Len(result.Ops, 2)
	s.Equal("not enough launch tokens OR already scheduled sufficient instances on offer", *reason3)
	s.EqualValues(0, m.tokens.Balance())
}

// Scenario 3 variant: same token-bounded admission, but driven by a
// gomock MockMatcher with a scripted EXPECT() call sequence instead of
// matchertest.Stub, exercising the generated-mock path.
func (s *EngineTestSuite) TestTokenBoundedAdmissionWithMockMatcher() {
	m := s.newManager(5)
	m.SetInstanceLaunchTokens(2)

	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()

	op1, _ := opWithReject("o1")
	op2, _ := opWithReject("o2")
	op3, reason3 := opWithReject("o3")

	mt := matchermock.NewMockMatcher(ctrl)
	mt.EXPECT().ID().Return(matcher.ID("mock1")).AnyTimes()
	mt.EXPECT().Precedence().Return(nil).AnyTimes()
	mt.EXPECT().
		MatchOffer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(offer.MatchedOps{OfferID: "offerA", Ops: []offer.OpWithSource{op1, op2, op3}}, nil).
		Times(1)

	m.AddOrUpdateMatcher(mt)

	future := m.MatchOffer(s.clk.Now().Add(10*time.Second), bundle("offerA"))
	result := future.Wait()

	s.Len(result.Ops, 2)
	s.Equal("not enough launch tokens OR already scheduled sufficient instances on offer", *reason3)
	s.EqualValues(0, m.tokens.Balance())
}

// panicOp is an Op whose ApplyToOffer always panics, used to exercise
// admitOps's recover path.
type panicOp struct{}

func (panicOp) String() string                           { return "panic-op" }
func (panicOp) ApplyToOffer(b offer.Bundle) offer.Bundle { panic("boom") }

// An op-admission panic must leave the offer's prior data untouched
// and must not re-queue the matcher that produced it (spec.md §7
// error kind 2, §4.5 step 6).
func (s *EngineTestSuite) TestAdmitOpsPanicRetainsPriorDataAndDropsRequeue() {
	m := s.newManager(5)
	m.SetInstanceLaunchTokens(5)

	badOp := offer.OpWithSource{Op: panicOp{}, Reject: func(string) {}}
	mt := matchertest.NewStub("m1", matchertest.StubResponse{Ops: []offer.OpWithSource{badOp}})
	m.AddOrUpdateMatcher(mt)

	future := m.MatchOffer(s.clk.Now().Add(10*time.Second), bundle("offerA", offer.Resource{Name: "cpus"}))
	result := future.Wait()

	s.Empty(result.Ops, "the panicking op must not be admitted")
	s.False(result.ResendThisOffer)
	s.EqualValues(5, m.tokens.Balance(), "no debit happens on the panicking path")
	s.Len(mt.Calls, 1, "the offending matcher must not be re-queued")
}

// Scenario 4: deadline timeout with partial result, then a late
// response is rejected per-op.
func (s *EngineTestSuite) TestDeadlineTimeoutWithPartialResult() {
	m := s.newManager(5)
	m.SetInstanceLaunchTokens(10)

	op1, _ := opWithReject("o1")
	block := make(chan struct{})
	mt := &matchertest.Stub{
		Name:  "slow",
		Block: block,
		Responses: []matchertest.StubResponse{
			{Ops: []offer.OpWithSource{op1}},
		},
	}
	m.AddOrUpdateMatcher(mt)

	deadline := s.clk.Now().Add(5 * time.Second)
	future := m.MatchOffer(deadline, bundle("offerA"))

	s.clk.Advance(5 * time.Second)

	select {
	case <-future.Done():
	case <-time.After(2 * time.Second):
		s.FailNow("offer did not complete on timeout")
	}
	result := future.Result()
	s.Empty(result.Ops)
	s.True(result.ResendThisOffer)

	// Now let the slow matcher's response arrive late.
	lateOp, lateReason := opWithReject("late")
	mt.Responses = []matchertest.StubResponse{{Ops: []offer.OpWithSource{lateOp}}}
	close(block)

	s.Require().Eventually(func() bool {
		return *lateReason != ""
	}, 2*time.Second, 10*time.Millisecond)
	s.Equal("offer 'offerA' already timed out", *lateReason)
}

// Scenario 6: mid-offer matcher registration appends to the live
// offer's queue.
func (s *EngineTestSuite) TestMidOfferMatcherRegistration() {
	m := s.newManager(5)
	m.SetInstanceLaunchTokens(5)

	block := make(chan struct{})
	n1 := &matchertest.Stub{Name: "n1", Block: block, Responses: []matchertest.StubResponse{{}}}
	m.AddOrUpdateMatcher(n1)

	future := m.MatchOffer(s.clk.Now().Add(10*time.Second), bundle("offerA"))

	r := matchertest.NewStub("reserved", matchertest.StubResponse{})
	m.AddOrUpdateMatcher(r)

	close(block)
	result := future.Wait()
	s.Equal(offer.ID("offerA"), result.OfferID)

	s.Len(r.Calls, 1, "R must be consulted for offerA after being registered mid-processing")
}

// maxInstancesPerOffer boundary: first op admitted, offer completes
// once the cap is hit without consulting every matcher.
func (s *EngineTestSuite) TestMaxInstancesPerOfferBoundary() {
	m := s.newManager(1)
	m.SetInstanceLaunchTokens(5)

	op1, _ := opWithReject("o1")
	m1 := matchertest.NewStub("m1", matchertest.StubResponse{Ops: []offer.OpWithSource{op1}})
	m.AddOrUpdateMatcher(m1)

	op2, _ := opWithReject("o2")
	m2 := matchertest.NewStub("m2", matchertest.StubResponse{Ops: []offer.OpWithSource{op2}})
	m.AddOrUpdateMatcher(m2)

	future := m.MatchOffer(s.clk.Now().Add(10*time.Second), bundle("offerA"))
	result := future.Wait()

	s.Len(result.Ops, 1, "offer completes as soon as the cap is hit")
}

// launchTokens=0 at arrival: offer short-circuits with
// resendThisOffer=false.
func (s *EngineTestSuite) TestZeroTokensAtArrivalShortCircuits() {
	m := s.newManager(5)
	mt := matchertest.NewStub("m1")
	m.AddOrUpdateMatcher(mt)

	future := m.MatchOffer(s.clk.Now().Add(10*time.Second), bundle("offerA"))
	result := future.Wait()

	s.Empty(result.Ops)
	s.False(result.ResendThisOffer)
}

// Deadline already past at arrival completes immediately with
// resendThisOffer=true.
func (s *EngineTestSuite) TestDeadlineAlreadyPastAtArrival() {
	m := s.newManager(5)
	m.SetInstanceLaunchTokens(5)
	mt := matchertest.NewStub("m1")
	m.AddOrUpdateMatcher(mt)

	past := s.clk.Now().Add(-1 * time.Second)
	future := m.MatchOffer(past, bundle("offerA"))
	result := future.Wait()

	s.True(result.ResendThisOffer)
}
