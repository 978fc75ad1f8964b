package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/studydeck-api/internal/domain"
)

// ErrInvalidParams is returned when a Params value cannot drive the algorithm.
var ErrInvalidParams = errors.New("invalid SRS parameters")

// Params defines the tunable constants of the SM-2 update rule
type Params struct {
	// MinEaseFactor is the floor applied to incoming and computed ease factors
	MinEaseFactor float64

	// PassingQuality is the lowest quality treated as a successful recall
	PassingQuality int

	// Intervals (days) for the first and second successful repetitions
	FirstInterval  int
	SecondInterval int

	// RelearnInterval is the interval (days) after a failed recall
	RelearnInterval int

	// MaxInterval caps every computed interval (days)
	MaxInterval int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the default.
type ParamsConfig struct {
	MinEaseFactor   float64
	PassingQuality  int
	FirstInterval   int
	SecondInterval  int
	RelearnInterval int
	MaxInterval     int
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:   domain.MinEaseFactor,
		PassingQuality:  domain.PassingQuality,
		FirstInterval:   1,
		SecondInterval:  6,
		RelearnInterval: 1,
		MaxInterval:     domain.MaxInterval,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.PassingQuality > 0 {
		params.PassingQuality = config.PassingQuality
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.RelearnInterval > 0 {
		params.RelearnInterval = config.RelearnInterval
	}
	if config.MaxInterval > 0 {
		params.MaxInterval = config.MaxInterval
	}

	return params
}

// Validate checks that the parameters keep the log invariants intact.
func (p *Params) Validate() error {
	if p.MinEaseFactor < domain.MinEaseFactor {
		return fmt.Errorf("%w: min ease factor %.2f is below %.2f",
			ErrInvalidParams, p.MinEaseFactor, domain.MinEaseFactor)
	}
	if p.PassingQuality <= domain.MinQuality || p.PassingQuality > domain.MaxQuality {
		return fmt.Errorf("%w: passing quality %d out of range", ErrInvalidParams, p.PassingQuality)
	}
	if p.FirstInterval < 1 || p.SecondInterval < 1 || p.RelearnInterval < 1 {
		return fmt.Errorf("%w: intervals must be at least one day", ErrInvalidParams)
	}
	if p.MaxInterval > domain.MaxInterval {
		return fmt.Errorf("%w: max interval %d exceeds %d days",
			ErrInvalidParams, p.MaxInterval, domain.MaxInterval)
	}
	if p.MaxInterval < max(p.FirstInterval, p.SecondInterval, p.RelearnInterval) {
		return fmt.Errorf("%w: max interval %d is shorter than a fixed interval", ErrInvalidParams, p.MaxInterval)
	}
	return nil
}
