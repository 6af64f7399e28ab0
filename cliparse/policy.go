// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/literary-wheel/ratings"
	"github.com/danielhkuo/literary-wheel/wheel"
)

// Bucket size defaults
const (
	DefaultMinCards = 6
	DefaultMaxCards = 24
)

// Policy is the YAML tuning file. Every section is optional; missing keys keep
// their defaults.
type Policy struct {
	Wheel   WheelPolicy   `yaml:"wheel"`
	Ratings RatingsPolicy `yaml:"ratings"`
	Buckets BucketsPolicy `yaml:"buckets"`
}

// WheelPolicy is the YAML form of wheel.Config. Durations are in seconds.
type WheelPolicy struct {
	MaxAngularVelocity float64 `yaml:"max_angular_velocity"`
	Acceleration       float64 `yaml:"acceleration"`
	StopDurationSec    float64 `yaml:"stop_duration_sec"`
	MinStopDurationSec float64 `yaml:"min_stop_duration_sec"`
	MaxStopDurationSec float64 `yaml:"max_stop_duration_sec"`
	StopEpsilon        float64 `yaml:"stop_epsilon"`
	MaxDtMS            int     `yaml:"max_dt_ms"`
	Snap               bool    `yaml:"snap"`
	FrameHz            int     `yaml:"frame_hz"`
}

type RatingsPolicy struct {
	MinValue int `yaml:"min_value"`
	MaxValue int `yaml:"max_value"`
}

type BucketsPolicy struct {
	MinCards int `yaml:"min_cards"`
	MaxCards int `yaml:"max_cards"`
}

// DefaultPolicy returns a fully-populated Policy with defaults.
func DefaultPolicy() Policy {
	return Policy{
		Wheel: WheelPolicy{
			MaxAngularVelocity: wheel.DefaultMaxAngularVelocity,
			Acceleration:       wheel.DefaultAcceleration,
			StopDurationSec:    wheel.DefaultStopDuration.Seconds(),
			MinStopDurationSec: wheel.DefaultMinStopDuration.Seconds(),
			MaxStopDurationSec: wheel.DefaultMaxStopDuration.Seconds(),
			StopEpsilon:        wheel.DefaultStopEpsilon,
			MaxDtMS:            250,
			FrameHz:            wheel.DefaultFrameHz,
		},
		Ratings: RatingsPolicy{
			MinValue: ratings.DefaultMinValue,
			MaxValue: ratings.DefaultMaxValue,
		},
		Buckets: BucketsPolicy{
			MinCards: DefaultMinCards,
			MaxCards: DefaultMaxCards,
		},
	}
}

// LoadPolicyFile reads a YAML policy on top of DefaultPolicy. Unknown keys
// are rejected.
func LoadPolicyFile(path string) (Policy, error) {
	if path == "" {
		return Policy{}, errors.New("policy path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(b)
}

// ParsePolicy decodes YAML policy bytes on top of DefaultPolicy.
func ParsePolicy(b []byte) (Policy, error) {
	p := DefaultPolicy()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return p, nil // empty file
		}
		return Policy{}, fmt.Errorf("decode policy yaml: %w", err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); err != io.EOF {
		return Policy{}, errors.New("decode policy yaml: unexpected trailing document")
	}

	return p, nil
}

// Validate checks policy invariants.
func (p Policy) Validate() error {
	if p.Wheel.FrameHz < 1 || p.Wheel.FrameHz > 240 {
		return errors.New("wheel.frame_hz must be in [1, 240]")
	}
	if err := p.WheelConfig().Validate(); err != nil {
		return fmt.Errorf("wheel: %w", err)
	}

	if p.Ratings.MinValue > p.Ratings.MaxValue {
		return errors.New("ratings.min_value must be <= ratings.max_value")
	}

	if p.Buckets.MinCards < 1 {
		return errors.New("buckets.min_cards must be >= 1")
	}
	if p.Buckets.MinCards > p.Buckets.MaxCards {
		return errors.New("buckets.min_cards must be <= buckets.max_cards")
	}

	return nil
}

// WheelConfig converts the YAML section into the engine config.
func (p Policy) WheelConfig() wheel.Config {
	w := p.Wheel
	return wheel.Config{
		MaxAngularVelocity: w.MaxAngularVelocity,
		Acceleration:       w.Acceleration,
		StopDuration:       seconds(w.StopDurationSec),
		MinStopDuration:    seconds(w.MinStopDurationSec),
		MaxStopDuration:    seconds(w.MaxStopDurationSec),
		StopEpsilon:        w.StopEpsilon,
		MaxDt:              float64(w.MaxDtMS) / 1000,
		Snap:               w.Snap,
	}
}

// RatingBounds returns the accepted rating range.
func (p Policy) RatingBounds() ratings.Bounds {
	return ratings.Bounds{Min: p.Ratings.MinValue, Max: p.Ratings.MaxValue}
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// ParseLogLevel maps a level name to slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
}
