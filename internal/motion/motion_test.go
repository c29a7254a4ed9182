package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nanosatlab/aeodss/internal/vector"
)

func TestMove_PreservesBounds(t *testing.T) {
	cases := []struct {
		name   string
		p, v   vector.Vector2
		dp     vector.Vector2
		w, h   float64
	}{
		{"interior, no bounce", vector.Vector2{X: 50, Y: 50}, vector.Vector2{X: 1, Y: 1}, vector.Vector2{X: 1, Y: 1}, 100, 100},
		{"bounce off left wall", vector.Vector2{X: 1, Y: 50}, vector.Vector2{X: -10, Y: 0}, vector.Vector2{X: -10, Y: 0}, 100, 100},
		{"bounce off right wall", vector.Vector2{X: 99, Y: 50}, vector.Vector2{X: 10, Y: 0}, vector.Vector2{X: 10, Y: 0}, 100, 100},
		{"bounce off top", vector.Vector2{X: 50, Y: 1}, vector.Vector2{X: 0, Y: -10}, vector.Vector2{X: 0, Y: -10}, 100, 100},
		{"bounce off bottom", vector.Vector2{X: 50, Y: 99}, vector.Vector2{X: 0, Y: 10}, vector.Vector2{X: 0, Y: 10}, 100, 100},
		{"corner bounce", vector.Vector2{X: 1, Y: 1}, vector.Vector2{X: -10, Y: -10}, vector.Vector2{X: -10, Y: -10}, 100, 100},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, _ := Move(c.p, c.v, c.dp, c.w, c.h)
			assert.GreaterOrEqual(t, p.X, 0.0)
			assert.LessOrEqual(t, p.X, c.w)
			assert.GreaterOrEqual(t, p.Y, 0.0)
			assert.LessOrEqual(t, p.Y, c.h)
		})
	}
}

func TestMove_PreservesSpeed(t *testing.T) {
	p0 := vector.Vector2{X: 1, Y: 1}
	v0 := vector.Vector2{X: -10, Y: -10}
	_, v1 := Move(p0, v0, v0, 100, 100)
	assert.InDelta(t, v0.Magnitude(), v1.Magnitude(), 1e-9)
}

// TestMove_CornerReflection is scenario S1 from the specification.
func TestMove_CornerReflection(t *testing.T) {
	p0 := vector.Vector2{X: 1, Y: 1}
	v0 := vector.Vector2{X: -10, Y: -10}
	p1, v1 := Move(p0, v0, v0, 100, 100)

	assert.InDelta(t, 9, p1.X, 1e-9)
	assert.InDelta(t, 9, p1.Y, 1e-9)
	assert.InDelta(t, 10, v1.X, 1e-9)
	assert.InDelta(t, 10, v1.Y, 1e-9)
}

func TestMove_DegenerateWorldClamps(t *testing.T) {
	p, v := Move(vector.Vector2{X: 0, Y: 0}, vector.Vector2{X: 0, Y: 0}, vector.Vector2{X: 0, Y: 0}, 0, 0)
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 0.0, p.Y)
	assert.Equal(t, 0.0, v.X)
}

func TestMove_NoBounceWhenInBounds(t *testing.T) {
	p0 := vector.Vector2{X: 50, Y: 50}
	dp := vector.Vector2{X: 5, Y: -3}
	p1, v1 := Move(p0, vector.Vector2{X: 5, Y: -3}, dp, 100, 100)
	assert.InDelta(t, 55, p1.X, 1e-9)
	assert.InDelta(t, 47, p1.Y, 1e-9)
	assert.Equal(t, 5.0, v1.X)
	assert.Equal(t, -3.0, v1.Y)
}

func TestMove_WallBounceFlipsPerpendicularComponent(t *testing.T) {
	p0 := vector.Vector2{X: 99, Y: 50}
	v0 := vector.Vector2{X: 10, Y: 2}
	_, v1 := Move(p0, v0, v0, 100, 100)
	assert.Equal(t, -10.0, v1.X)
	assert.Equal(t, 2.0, v1.Y)
}

func TestMove_LargeDisplacementTerminates(t *testing.T) {
	p0 := vector.Vector2{X: 50, Y: 50}
	v0 := vector.Vector2{X: 1000, Y: 733}
	assert.NotPanics(t, func() {
		p, _ := Move(p0, v0, v0, 100, 100)
		assert.True(t, p.X >= 0 && p.X <= 100)
		assert.True(t, p.Y >= 0 && p.Y <= 100)
	})
}

func TestMove_MagnitudeStableAcrossManySteps(t *testing.T) {
	p := vector.Vector2{X: 10, Y: 10}
	v := vector.Vector2{X: 7, Y: -13}
	speed := v.Magnitude()
	for i := 0; i < 500; i++ {
		p, v = Move(p, v, v, 200, 150)
		assert.InDelta(t, speed, v.Magnitude(), 1e-6)
	}
}
