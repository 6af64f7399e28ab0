// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package wheel

import (
	"fmt"
	"math"
)

// ResolveIndex returns the index of the cabin sitting at the selection point
// (angle pi in the wheel frame) when the wheel is rotated by angle.
//
// Cabin i is laid out at CabinAngle(i, count), so index 0 starts at -pi/2.
// ResolveIndex panics if count < 1 or angle is not finite.
func ResolveIndex(angle float64, count int) int {
	if count < 1 {
		panic(fmt.Sprintf("wheel: ResolveIndex with count %d", count))
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		panic(fmt.Sprintf("wheel: ResolveIndex with angle %v", angle))
	}
	if count == 1 {
		return 0
	}

	a := NormalizeAngle(angle)
	step := 2 * math.Pi / float64(count)

	// Half-way cases round up, not away from zero.
	idx := int(math.Floor((math.Pi-a)/step+0.5)) % count
	if idx < 0 {
		idx += count
	}
	return idx
}

// NormalizeAngle maps angle into [0, 2pi).
func NormalizeAngle(angle float64) float64 {
	twoPi := 2 * math.Pi
	a := math.Mod(angle, twoPi)
	if a < 0 {
		a += twoPi
	}
	if a >= twoPi {
		a = 0
	}
	return a
}

// CabinAngle is the layout angle of cabin i on an unrotated wheel.
func CabinAngle(i, count int) float64 {
	if count < 1 {
		return 0
	}
	return float64(i)/float64(count)*2*math.Pi - math.Pi/2
}
