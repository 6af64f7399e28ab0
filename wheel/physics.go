// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package wheel

import (
	"fmt"
	"math"
	"time"
)

// State is the ephemeral rotation state of one wheel.
type State struct {
	Angle    float64 // radians, unbounded
	Velocity float64 // radians per second, never negative
	Pressing bool
	Decel    float64 // rad/s^2, set once at release (<= 0)
}

// Step advances s by dt seconds and returns the new state.
//
// While pressing, velocity grows by cfg.Acceleration and is clamped at
// cfg.MaxAngularVelocity. After release it shrinks by s.Decel until it falls
// below cfg.StopEpsilon, at which point it is exactly 0. The angle is
// integrated with the updated velocity.
func Step(s State, cfg Config, dt float64) State {
	if dt <= 0 {
		return s
	}
	if cfg.MaxDt > 0 && dt > cfg.MaxDt {
		dt = cfg.MaxDt
	}

	if s.Pressing {
		s.Velocity += cfg.Acceleration * dt
		if s.Velocity > cfg.MaxAngularVelocity {
			s.Velocity = cfg.MaxAngularVelocity
		}
	} else if s.Velocity > 0 {
		s.Velocity += s.Decel * dt
		if s.Velocity < cfg.StopEpsilon {
			s.Velocity = 0
		}
	}

	s.Angle += s.Velocity * dt

	mustBeFinite(s)
	return s
}

// Release ends the press and derives the decel rate so that the current
// velocity reaches zero after stop.
func Release(s State, stop time.Duration) State {
	s.Pressing = false
	s.Decel = 0
	if secs := stop.Seconds(); secs > 0 && s.Velocity > 0 {
		s.Decel = -s.Velocity / secs
	}
	return s
}

// SnapAngle rounds angle to the nearest multiple of the cabin step.
func SnapAngle(angle float64, count int) float64 {
	if count < 1 {
		return angle
	}
	step := 2 * math.Pi / float64(count)
	return math.Round(angle/step) * step
}

func mustBeFinite(s State) {
	if math.IsNaN(s.Angle) || math.IsInf(s.Angle, 0) || math.IsNaN(s.Velocity) || math.IsInf(s.Velocity, 0) {
		panic(fmt.Sprintf("wheel: non-finite rotation state (angle=%v velocity=%v)", s.Angle, s.Velocity))
	}
}
