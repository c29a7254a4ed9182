// Package motion implements the reflective boundary-bouncing motion rule
// from spec.md §4.4, grounded on Agent::move in
// original_source/prot-2-env-sfml/src/model/Agent.cpp.
package motion

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/nanosatlab/aeodss/internal/vector"
)

const maxRecursionDepth = 1024

// Move returns the position and velocity after attempting to displace p0 by
// dp inside a rectangular world [0,w] x [0,h]. If the straight-line move
// would leave the world, the agent bounces off whichever wall it hits first
// (corner ties are resolved by the smaller overshoot on the respective
// axis), the perpendicular velocity component flips, and the remaining
// displacement is applied from the wall point. The recursion terminates
// because each call strictly reduces |dp|; a depth guard converts a
// degenerate (e.g. zero-size) world into a logged clamp instead of a stack
// overflow.
func Move(p0, v0, dp vector.Vector2, w, h float64) (vector.Vector2, vector.Vector2) {
	return move(p0, v0, dp, w, h, 0)
}

func move(p0, v0, dp vector.Vector2, w, h float64, depth int) (vector.Vector2, vector.Vector2) {
	if depth > maxRecursionDepth {
		log.Warn().Msg("motion: exceeded max bounce recursion depth, clamping position")
		return clamp(p0, w, h), v0
	}

	target := p0.Add(dp)
	if inBounds(target, w, h) {
		return target, v0
	}

	bx0, bx1, by0, by1 := false, false, false, false
	if target.X < 0 {
		bx0 = true
	}
	if target.X > w {
		bx1 = true
	}
	if target.Y < 0 {
		by0 = true
	}
	if target.Y > h {
		by1 = true
	}

	switch {
	case bx0 && by0:
		if -target.X >= -target.Y {
			by0 = false
		} else {
			bx0 = false
		}
	case by0 && bx1:
		if -target.Y >= target.X-w {
			bx1 = false
		} else {
			by0 = false
		}
	case bx1 && by1:
		if target.X-w >= target.Y-h {
			by1 = false
		} else {
			bx1 = false
		}
	case by1 && bx0:
		if target.Y-h >= -target.X {
			bx0 = false
		} else {
			by1 = false
		}
	}

	var newP, newDp vector.Vector2
	newV := v0
	switch {
	case bx0:
		ratio := math.Abs(p0.X / dp.X)
		newP = vector.Vector2{X: 0, Y: p0.Y + ratio*dp.Y}
		newDp = vector.Vector2{X: -dp.X - p0.X, Y: dp.Y * (1 - ratio)}
		newV.X = -v0.X
	case by0:
		ratio := math.Abs(p0.Y / dp.Y)
		newP = vector.Vector2{X: p0.X + ratio*dp.X, Y: 0}
		newDp = vector.Vector2{X: dp.X * (1 - ratio), Y: -dp.Y - p0.Y}
		newV.Y = -v0.Y
	case bx1:
		ratio := math.Abs((w - p0.X) / dp.X)
		newP = vector.Vector2{X: w, Y: p0.Y + ratio*dp.Y}
		newDp = vector.Vector2{X: -dp.X + (w - p0.X), Y: dp.Y * (1 - ratio)}
		newV.X = -v0.X
	case by1:
		ratio := math.Abs((h - p0.Y) / dp.Y)
		newP = vector.Vector2{X: p0.X + ratio*dp.X, Y: h}
		newDp = vector.Vector2{X: dp.X * (1 - ratio), Y: -dp.Y + (h - p0.Y)}
		newV.Y = -v0.Y
	default:
		// No wall resolved (degenerate dp==0 at the boundary): stay put.
		return clamp(p0, w, h), v0
	}

	return move(newP, newV, newDp, w, h, depth+1)
}

func inBounds(p vector.Vector2, w, h float64) bool {
	return p.X >= 0 && p.X <= w && p.Y >= 0 && p.Y <= h
}

func clamp(p vector.Vector2, w, h float64) vector.Vector2 {
	if p.X < 0 {
		p.X = 0
	} else if p.X > w {
		p.X = w
	}
	if p.Y < 0 {
		p.Y = 0
	} else if p.Y > h {
		p.Y = h
	}
	return p
}
