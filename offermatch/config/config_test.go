package config

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestValidatePositiveCap() {
	c := Config{MaxInstancesPerOffer: 1, MaxInstancesPerOfferFlagName: "max_instances_per_offer"}
	s.NoError(c.Validate())
}

func (s *ConfigTestSuite) TestValidateRejectsZero() {
	c := Config{MaxInstancesPerOffer: 0}
	s.Error(c.Validate())
}

func (s *ConfigTestSuite) TestValidateRejectsNegative() {
	c := Config{MaxInstancesPerOffer: -1}
	s.Error(c.Validate())
}
