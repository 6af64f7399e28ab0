// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package wheel

import (
	"errors"
	"fmt"
	"time"
)

// Default tuning, matching the web wheel.
const (
	DefaultMaxAngularVelocity = 6.0 // rad/s
	DefaultAcceleration       = 4.0 // rad/s^2 while pressed
	DefaultStopDuration       = 3500 * time.Millisecond
	DefaultMinStopDuration    = 2 * time.Second
	DefaultMaxStopDuration    = 5 * time.Second
	DefaultStopEpsilon        = 0.00005
	DefaultFrameHz            = 60
)

var (
	ErrEmptyCollection     = errors.New("no items to select")
	ErrInvalidStopDuration = errors.New("stop duration out of range")
	ErrSpinInProgress      = errors.New("spin already in progress")
)

// Config contains all tunable parameters for the rotation engine.
type Config struct {
	MaxAngularVelocity float64 // clamp while accelerating (rad/s)
	Acceleration       float64 // velocity gained per second of holding (rad/s^2)

	// StopDuration is the time from release to settle. The decel rate is derived
	// from it so the wheel always stops after exactly this long.
	StopDuration    time.Duration
	MinStopDuration time.Duration
	MaxStopDuration time.Duration

	StopEpsilon float64 // velocity below this is floored to 0

	// MaxDt clamps a single integration step (seconds). 0 disables clamping.
	MaxDt float64

	// Snap rounds a stopped wheel to the nearest cabin boundary.
	Snap bool
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		MaxAngularVelocity: DefaultMaxAngularVelocity,
		Acceleration:       DefaultAcceleration,
		StopDuration:       DefaultStopDuration,
		MinStopDuration:    DefaultMinStopDuration,
		MaxStopDuration:    DefaultMaxStopDuration,
		StopEpsilon:        DefaultStopEpsilon,
	}
}

// Validate checks config invariants and returns a user-friendly error.
func (c Config) Validate() error {
	if c.MaxAngularVelocity <= 0 {
		return errors.New("max angular velocity must be > 0")
	}
	if c.Acceleration <= 0 {
		return errors.New("acceleration must be > 0")
	}
	if c.StopEpsilon < 0 {
		return errors.New("stop epsilon must be >= 0")
	}
	if c.MaxDt < 0 {
		return errors.New("max dt must be >= 0")
	}
	if c.MinStopDuration <= 0 {
		return errors.New("min stop duration must be > 0")
	}
	if c.MaxStopDuration < c.MinStopDuration {
		return errors.New("max stop duration must be >= min stop duration")
	}
	return c.CheckStopDuration(c.StopDuration)
}

// CheckStopDuration reports whether d is inside the allowed stop duration range.
func (c Config) CheckStopDuration(d time.Duration) error {
	if d < c.MinStopDuration || d > c.MaxStopDuration {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrInvalidStopDuration, d, c.MinStopDuration, c.MaxStopDuration)
	}
	return nil
}
