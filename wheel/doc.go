// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package wheel implements the spinning-wheel selection engine.

# Physics

Step is a pure update of the rotation State over dt seconds. While the control
is held the wheel accelerates (Config.Acceleration) up to
Config.MaxAngularVelocity. Release derives a constant decel rate from the
velocity at release:

	decel = -velocityAtRelease / stopDuration

so every spin stops stopDuration after release regardless of its speed.
Velocity below Config.StopEpsilon is floored to 0.

# Resolver

ResolveIndex maps a stopped angle to the cabin at the selection point:

	a    = angle mod 2pi
	step = 2pi / count
	idx  = round((pi - a) / step) mod count

Cabin 0 is laid out at -pi/2 (see CabinAngle). A single cabin always resolves
to 0.

# Sessions

A Session owns one wheel over an ordered item slice:

	idle -> accelerating (Press) -> decelerating (Release) -> settled

	s, err := wheel.NewSession(cards, cfg)
	s.Press(now)
	s.Tick(now)               // every frame
	deadline, _ := s.Release(now)
	s.Tick(deadline)          // settles, result available
	card, idx, ok := s.Result()

Tick integrates exactly up to the settle deadline before resolving, so a late
timer or a missed frame never changes the outcome. Sessions are single-owner;
drive them from one goroutine.

# Replay and fairness

Replay feeds a scripted press/hold/release through a Session at a fixed frame
rate, which makes spins reproducible for previews and tests. Simulate runs many
replays with random hold durations and reports the outcome distribution.
*/
package wheel
