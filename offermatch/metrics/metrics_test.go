package metrics

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsTestSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (s *MetricsTestSuite) TestNewRegistersGaugesAndCounters() {
	scope := tally.NewTestScope("", nil)
	m := New(scope)

	m.LaunchTokens.Update(3)
	m.CurrentOffers.Update(1)
	m.MatcherCount.Update(2)
	m.OpsAccepted.Inc(1)
	m.OpsRejected.Inc(1)

	snapshot := scope.Snapshot()

	var sawLaunchTokens, sawOpsAccepted bool
	for _, g := range snapshot.Gauges() {
		if g.Name() == "launch_tokens" {
			sawLaunchTokens = true
			s.Equal(float64(3), g.Value())
		}
	}
	for _, c := range snapshot.Counters() {
		if c.Name() == "ops_accepted" {
			sawOpsAccepted = true
			s.EqualValues(1, c.Value())
		}
	}

	s.True(sawLaunchTokens, "launch_tokens gauge must be present in the snapshot")
	s.True(sawOpsAccepted, "ops_accepted counter must be present in the snapshot")
}
