// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package wheel

import (
	"time"
)

// Phase is the lifecycle position of a Session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAccelerating
	PhaseDecelerating
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAccelerating:
		return "accelerating"
	case PhaseDecelerating:
		return "decelerating"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Session drives one wheel over a fixed, ordered set of items.
//
// Press and Release only flip flags; Tick integrates the physics up to the
// given time and settles the wheel once the stop duration has elapsed since
// release. A Session is owned by a single goroutine and is not safe for
// concurrent use.
type Session[T any] struct {
	cfg   Config
	items []T

	state    State
	phase    Phase
	stop     time.Duration
	lastTick time.Time
	settleAt time.Time
	result   int // -1 while nothing is revealed
}

// NewSession creates an idle session over items. It fails with
// ErrEmptyCollection when items is empty.
func NewSession[T any](items []T, cfg Config) (*Session[T], error) {
	if len(items) == 0 {
		return nil, ErrEmptyCollection
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Session[T]{
		cfg:    cfg,
		items:  items,
		stop:   cfg.StopDuration,
		result: -1,
	}, nil
}

// Len returns the number of cabins on the wheel.
func (s *Session[T]) Len() int { return len(s.items) }

func (s *Session[T]) Phase() Phase { return s.phase }

func (s *Session[T]) State() State { return s.state }

func (s *Session[T]) StopDuration() time.Duration { return s.stop }

// SetStopDuration changes the stop duration used by the next release.
// A spin already settling keeps its deadline.
func (s *Session[T]) SetStopDuration(d time.Duration) error {
	if err := s.cfg.CheckStopDuration(d); err != nil {
		return err
	}
	s.stop = d
	return nil
}

// SetAngle places a stopped wheel at angle. It is ignored while the wheel is
// moving or pressed.
func (s *Session[T]) SetAngle(angle float64) bool {
	if s.phase == PhaseAccelerating || s.phase == PhaseDecelerating {
		return false
	}
	s.state.Angle = angle
	mustBeFinite(s.state)
	return true
}

// Press starts accelerating and hides any previous result. Pressing while
// already accelerating, or while the wheel is settling, does nothing.
func (s *Session[T]) Press(now time.Time) bool {
	switch s.phase {
	case PhaseAccelerating, PhaseDecelerating:
		return false
	}
	// The wheel is at rest here, so nothing is lost by restarting the clock.
	s.lastTick = now
	s.result = -1
	s.state.Pressing = true
	s.phase = PhaseAccelerating
	return true
}

// Release computes the decel rate from the current velocity and returns the
// time at which the wheel settles. A release without a matching press does
// nothing and returns false.
func (s *Session[T]) Release(now time.Time) (time.Time, bool) {
	if s.phase != PhaseAccelerating || !s.state.Pressing {
		return time.Time{}, false
	}
	s.state = Release(s.state, s.stop)
	s.phase = PhaseDecelerating
	s.settleAt = now.Add(s.stop)
	return s.settleAt, true
}

// SettleDeadline returns the pending settle time while decelerating.
func (s *Session[T]) SettleDeadline() (time.Time, bool) {
	if s.phase != PhaseDecelerating {
		return time.Time{}, false
	}
	return s.settleAt, true
}

// Tick advances the simulation to now. It reports whether the wheel settled
// during this call.
func (s *Session[T]) Tick(now time.Time) bool {
	if s.lastTick.IsZero() {
		s.lastTick = now
		return false
	}

	settled := false
	if s.phase == PhaseDecelerating && !now.Before(s.settleAt) {
		s.advance(s.settleAt)
		s.settle()
		settled = true
	}
	s.advance(now)
	return settled
}

// Result returns the revealed item and its index.
func (s *Session[T]) Result() (T, int, bool) {
	var zero T
	if s.result < 0 {
		return zero, -1, false
	}
	return s.items[s.result], s.result, true
}

// Pointer returns the index currently under the selection point.
func (s *Session[T]) Pointer() int {
	return ResolveIndex(s.state.Angle, len(s.items))
}

func (s *Session[T]) advance(to time.Time) {
	dt := to.Sub(s.lastTick).Seconds()
	if dt <= 0 {
		return
	}
	s.lastTick = to
	// A wheel at rest has nothing to integrate. Otherwise long gaps are cut
	// into MaxDt slices so the clamp never drops time.
	for dt > 0 && (s.state.Pressing || s.state.Velocity > 0) {
		h := dt
		if s.cfg.MaxDt > 0 && h > s.cfg.MaxDt {
			h = s.cfg.MaxDt
		}
		s.state = Step(s.state, s.cfg, h)
		dt -= h
	}
	if s.cfg.Snap && s.phase == PhaseDecelerating && s.state.Velocity == 0 {
		s.state.Angle = SnapAngle(s.state.Angle, len(s.items))
	}
}

func (s *Session[T]) settle() {
	s.state.Velocity = 0
	s.state.Decel = 0
	if s.cfg.Snap {
		s.state.Angle = SnapAngle(s.state.Angle, len(s.items))
	}
	s.result = ResolveIndex(s.state.Angle, len(s.items))
	s.phase = PhaseSettled
}
