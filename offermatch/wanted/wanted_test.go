package wanted

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type PublisherTestSuite struct {
	suite.Suite
	seen []bool
	pub  *Publisher
}

func TestPublisherTestSuite(t *testing.T) {
	suite.Run(t, new(PublisherTestSuite))
}

func (s *PublisherTestSuite) SetupTest() {
	s.seen = nil
	s.pub = NewPublisher(ObserverFunc(func(w bool) {
		s.seen = append(s.seen, w)
	}))
}

func (s *PublisherTestSuite) TestWantedTrueOnlyWithMatchersAndTokens() {
	s.pub.Publish(0, 0)
	s.pub.Publish(1, 0)
	s.pub.Publish(0, 5)
	s.pub.Publish(1, 5)

	s.Equal([]bool{false, false, false, true}, s.seen)
}

func (s *PublisherTestSuite) TestPublishesEveryCallWithoutDeduping() {
	s.pub.Publish(1, 5)
	s.pub.Publish(1, 5)

	s.Equal([]bool{true, true}, s.seen, "repeats are tolerated, not deduplicated")
}

func (s *PublisherTestSuite) TestNilObserverIsNoop() {
	p := NewPublisher(nil)
	s.NotPanics(func() { p.Publish(1, 5) })
}
