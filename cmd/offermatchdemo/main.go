// Command offermatchdemo wires a Manager with real collaborators and
// feeds it a handful of synthetic offers, to exercise token admission
// and the per-offer cap end to end without standing up any transport.
// The one matcher is registered before any offer arrives and replies
// at once, so no offer in this demo reaches its deadline.
package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/uber/peloton-offermatch/common/clock"
	"github.com/uber/peloton-offermatch/offermatch/config"
	"github.com/uber/peloton-offermatch/offermatch/matcher"
	"github.com/uber/peloton-offermatch/offermatch/metrics"
	"github.com/uber/peloton-offermatch/offermatch/offer"
	"github.com/uber/peloton-offermatch/offermatch/processor"
)

// consoleObserver logs every wanted-signal transition it sees.
type consoleObserver struct {
	logger *logrus.Entry
}

func (o consoleObserver) OnWanted(wanted bool) {
	o.logger.WithField("wanted", wanted).Info("wanted signal published")
}

// demoMatcher proposes launching on the first remaining resource of
// every offer it is asked about, on every call.
type demoMatcher struct {
	name      string
	precedent map[string]struct{}
}

func (d demoMatcher) ID() matcher.ID                  { return d.name }
func (d demoMatcher) Precedence() map[string]struct{} { return d.precedent }
func (d demoMatcher) MatchOffer(_ context.Context, _, _ time.Time, b offer.Bundle) (offer.MatchedOps, error) {
	if len(b.Resources) == 0 {
		return offer.MatchedOps{OfferID: b.OfferID}, nil
	}
	resource := b.Resources[0].Name
	op := offer.OpWithSource{
		Op:     processor.NewLaunchOp(resource),
		Reject: func(reason string) { logrus.WithField("matcher", d.name).Warnf("op rejected: %s", reason) },
	}
	return offer.MatchedOps{OfferID: b.OfferID, Ops: []offer.OpWithSource{op}}, nil
}

// decodePersistenceID treats a non-empty persistence id as the app id
// that reserved it; there's no real persistence store in this demo.
func decodePersistenceID(persistenceID string) (string, bool) {
	if persistenceID == "" {
		return "", false
	}
	return persistenceID, true
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := logger.WithField("component", "offermatchdemo")

	scope := tally.NewTestScope("offermatchdemo", nil)

	mgr, err := processor.NewManager(processor.Options{
		Config: config.Config{
			MaxInstancesPerOffer:         2,
			MaxInstancesPerOfferFlagName: "max_instances_per_offer",
		},
		Clock:              clock.System{},
		PersistenceDecoder: decodePersistenceID,
		Shuffler:           rand.New(rand.NewSource(1)),
		Metrics:            metrics.New(scope),
		WantedObserver:     consoleObserver{logger: entry},
		Logger:             logger,
	})
	if err != nil {
		entry.WithError(err).Fatal("invalid configuration")
	}
	mgr.Start()
	defer mgr.Stop()

	mgr.AddOrUpdateMatcher(demoMatcher{name: "m1"})
	mgr.SetInstanceLaunchTokens(3)

	// Offer identifiers are synthesized here since there's no real
	// cluster manager generating them in this demo.
	for i := 0; i < 3; i++ {
		bundle := offer.Bundle{
			OfferID:  offer.ID(uuid.New()),
			Hostname: "host-a",
			Resources: []offer.Resource{
				{Name: "cpus", Reserved: false},
				{Name: "mem", Reserved: false},
			},
		}

		future := mgr.MatchOffer(time.Now().Add(2*time.Second), bundle)
		result := future.Wait()

		entry.WithFields(logrus.Fields{
			"offer_id":          result.OfferID,
			"ops_accepted":      len(result.Ops),
			"resend_this_offer": result.ResendThisOffer,
		}).Info("demo offer resolved")
	}
}
