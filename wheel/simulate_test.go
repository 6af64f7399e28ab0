// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package wheel

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

// fixedRNG always returns the same value.
type fixedRNG struct{ val float64 }

func (r fixedRNG) Float64() float64 { return r.val }

func TestSimulate_CarriedAngleIsRoughlyUniform(t *testing.T) {
	opts := FairnessOptions{
		Cabins:     6,
		Spins:      3000,
		MinHold:    300 * time.Millisecond,
		MaxHold:    3 * time.Second,
		FrameHz:    60,
		CarryAngle: true,
	}

	for _, snap := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.Snap = snap

		report, err := Simulate(cfg, opts, rand.New(rand.NewPCG(42, 1)))
		if err != nil {
			t.Fatalf("snap=%v: unexpected error: %v", snap, err)
		}

		total := 0
		for _, c := range report.Counts {
			total += c
		}
		if total != opts.Spins {
			t.Fatalf("snap=%v: expected %d outcomes, got %d", snap, opts.Spins, total)
		}
		if report.MaxDeviation > 0.2 {
			t.Errorf("snap=%v: distribution too skewed: %v (counts %v)", snap, report.MaxDeviation, report.Counts)
		}
	}
}

func TestSimulate_FixedHoldAlwaysLandsTheSame(t *testing.T) {
	opts := FairnessOptions{
		Cabins:  7,
		Spins:   20,
		MinHold: time.Second,
		MaxHold: 2 * time.Second,
	}

	report, err := Simulate(DefaultConfig(), opts, fixedRNG{val: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nonZero := 0
	for _, c := range report.Counts {
		if c > 0 {
			nonZero++
		}
	}
	if nonZero != 1 {
		t.Errorf("fresh wheels with identical holds should agree, got counts %v", report.Counts)
	}
	if report.Expected != 20.0/7.0 {
		t.Errorf("unexpected expected count %v", report.Expected)
	}
}

func TestSimulate_InvalidOptions(t *testing.T) {
	rng := fixedRNG{}

	if _, err := Simulate(DefaultConfig(), FairnessOptions{Cabins: 0, Spins: 1}, rng); !errors.Is(err, ErrEmptyCollection) {
		t.Errorf("expected ErrEmptyCollection, got %v", err)
	}
	if _, err := Simulate(DefaultConfig(), FairnessOptions{Cabins: 6, Spins: 0}, rng); err == nil {
		t.Error("expected error for zero spins")
	}
	if _, err := Simulate(DefaultConfig(), FairnessOptions{Cabins: 6, Spins: 1, MinHold: time.Second}, rng); err == nil {
		t.Error("expected error for inverted hold range")
	}
}

func TestReplay_RejectsBadPlan(t *testing.T) {
	s, _ := NewSession(testItems(6), DefaultConfig())

	if _, err := Replay(s, SpinPlan{Hold: -time.Second}); err == nil {
		t.Error("expected error for negative hold")
	}
	if _, err := Replay(s, SpinPlan{Hold: time.Second, Stop: 10 * time.Second}); !errors.Is(err, ErrInvalidStopDuration) {
		t.Errorf("expected ErrInvalidStopDuration, got %v", err)
	}
}

func TestReplay_StartAngle(t *testing.T) {
	s, _ := NewSession(testItems(6), DefaultConfig())

	out, err := Replay(s, SpinPlan{StartAngle: 3.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FinalAngle != 3.0 {
		t.Errorf("zero hold should leave the wheel at its start angle, got %v", out.FinalAngle)
	}
	if out.Index != ResolveIndex(3.0, 6) {
		t.Errorf("unexpected index %d", out.Index)
	}
}

func TestReplay_RefusesSessionMidSpin(t *testing.T) {
	s, _ := NewSession(testItems(6), DefaultConfig())
	t0 := time.Unix(0, 0)
	s.Press(t0)
	s.Tick(t0.Add(time.Second))
	s.Release(t0.Add(time.Second))

	done := make(chan error, 1)
	go func() {
		_, err := Replay(s, SpinPlan{Hold: time.Second})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSpinInProgress) {
			t.Errorf("expected ErrSpinInProgress, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("replay of a decelerating session did not return")
	}
	if s.Phase() != PhaseDecelerating {
		t.Errorf("session should be left decelerating, got %s", s.Phase())
	}
}
