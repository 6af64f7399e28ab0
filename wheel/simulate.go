// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package wheel

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64
}

// SpinPlan describes one scripted spin fed through a Session at a fixed
// frame rate.
type SpinPlan struct {
	StartAngle float64
	Hold       time.Duration
	Stop       time.Duration // 0 uses the session default
	FrameHz    int
}

// SpinOutcome is the result of a replayed spin.
type SpinOutcome struct {
	Index        int
	FinalAngle   float64
	PeakVelocity float64
	Frames       int
	SettledAfter time.Duration // measured from release
}

// epoch anchors replays so identical plans produce identical float sequences.
var epoch = time.Unix(0, 0).UTC()

// Replay runs plan through s, starting from its current angle unless the plan
// sets one, and returns where it settled. Frame timestamps are derived from
// the frame index only.
func Replay[T any](s *Session[T], plan SpinPlan) (SpinOutcome, error) {
	hz := plan.FrameHz
	if hz <= 0 {
		hz = DefaultFrameHz
	}
	if plan.Hold < 0 {
		return SpinOutcome{}, errors.New("hold must be >= 0")
	}
	if plan.Stop != 0 {
		if err := s.SetStopDuration(plan.Stop); err != nil {
			return SpinOutcome{}, err
		}
	}
	if plan.StartAngle != 0 {
		s.SetAngle(plan.StartAngle)
	}

	frame := time.Second / time.Duration(hz)
	at := func(n int) time.Time { return epoch.Add(time.Duration(n) * frame) }

	var out SpinOutcome
	n := 0
	if !s.Press(at(n)) {
		return SpinOutcome{}, fmt.Errorf("%w: session is %s", ErrSpinInProgress, s.Phase())
	}
	holdFrames := int(plan.Hold / frame)
	for ; n < holdFrames; n++ {
		s.Tick(at(n + 1))
		out.PeakVelocity = math.Max(out.PeakVelocity, s.State().Velocity)
	}

	releasedAt := at(n)
	deadline, ok := s.Release(releasedAt)
	if !ok {
		return SpinOutcome{}, fmt.Errorf("%w: session is %s", ErrSpinInProgress, s.Phase())
	}
	for {
		n++
		now := at(n)
		if now.After(deadline) {
			now = deadline
		}
		if s.Tick(now) {
			break
		}
	}

	_, idx, _ := s.Result()
	out.Index = idx
	out.FinalAngle = s.State().Angle
	out.Frames = n
	out.SettledAfter = deadline.Sub(releasedAt)
	return out, nil
}

// FairnessOptions configures Simulate.
type FairnessOptions struct {
	Cabins  int
	Spins   int
	MinHold time.Duration
	MaxHold time.Duration
	FrameHz int

	// CarryAngle keeps one wheel across spins, as a visitor spinning again
	// would. Otherwise every spin starts from angle 0.
	CarryAngle bool
}

// FairnessReport summarises the outcome distribution of many spins.
type FairnessReport struct {
	Cabins       int     `yaml:"cabins"`
	Spins        int     `yaml:"spins"`
	Snap         bool    `yaml:"snap"`
	CarryAngle   bool    `yaml:"carry_angle"`
	Counts       []int   `yaml:"counts"`
	Expected     float64 `yaml:"expected"`
	ChiSquare    float64 `yaml:"chi_square"`
	MaxDeviation float64 `yaml:"max_deviation"` // largest |count-expected|/expected
}

// Simulate spins a wheel many times with random hold durations and tallies
// which cabin each spin lands on.
func Simulate(cfg Config, opts FairnessOptions, rng RNG) (FairnessReport, error) {
	if opts.Cabins < 1 {
		return FairnessReport{}, ErrEmptyCollection
	}
	if opts.Spins < 1 {
		return FairnessReport{}, errors.New("spins must be >= 1")
	}
	if opts.MaxHold < opts.MinHold {
		return FairnessReport{}, errors.New("max hold must be >= min hold")
	}

	cabins := make([]int, opts.Cabins)
	for i := range cabins {
		cabins[i] = i
	}

	report := FairnessReport{
		Cabins:     opts.Cabins,
		Spins:      opts.Spins,
		Snap:       cfg.Snap,
		CarryAngle: opts.CarryAngle,
		Counts:     make([]int, opts.Cabins),
	}

	var s *Session[int]
	for i := 0; i < opts.Spins; i++ {
		if s == nil || !opts.CarryAngle {
			var err error
			s, err = NewSession(cabins, cfg)
			if err != nil {
				return FairnessReport{}, err
			}
		}
		span := float64(opts.MaxHold - opts.MinHold)
		hold := opts.MinHold + time.Duration(rng.Float64()*span)

		out, err := Replay(s, SpinPlan{Hold: hold, FrameHz: opts.FrameHz})
		if err != nil {
			return FairnessReport{}, err
		}
		report.Counts[out.Index]++
	}

	report.Expected = float64(opts.Spins) / float64(opts.Cabins)
	for _, c := range report.Counts {
		d := float64(c) - report.Expected
		report.ChiSquare += d * d / report.Expected
		report.MaxDeviation = math.Max(report.MaxDeviation, math.Abs(d)/report.Expected)
	}
	return report, nil
}
