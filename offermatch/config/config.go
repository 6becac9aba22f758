// Package config holds the small, static configuration surface the
// manager recognizes (spec.md §6 Configuration surface). Loading it
// from files/flags/env is an external concern (spec.md §1); this
// package only validates.
package config

import "github.com/pkg/errors"

// Config is the manager's configuration surface.
type Config struct {
	// MaxInstancesPerOffer is the hard per-offer ops cap (spec.md §3
	// invariant 2). Must be positive.
	MaxInstancesPerOffer int

	// MaxInstancesPerOfferFlagName is the diagnostic string used in
	// user-facing log messages when the cap is hit, mirroring the
	// style of peloton's flag-name-carrying config fields.
	MaxInstancesPerOfferFlagName string
}

// Validate checks the configuration surface for internal consistency.
func (c Config) Validate() error {
	if c.MaxInstancesPerOffer <= 0 {
		return errors.Errorf("maxInstancesPerOffer must be positive, got %d", c.MaxInstancesPerOffer)
	}
	return nil
}
