// Package vector provides 2D/3D value types with named arithmetic, replacing
// the operator-overloaded sf::Vector2f/Vector3D types of the original
// prototype (spec.md §9 design note: "Operator-overloaded vectors become
// value types with named arithmetic").
package vector

import "math"

// Vector2 is an ordered pair of real numbers.
type Vector2 struct {
	X, Y float64
}

func (a Vector2) Add(b Vector2) Vector2 { return Vector2{a.X + b.X, a.Y + b.Y} }
func (a Vector2) Sub(b Vector2) Vector2 { return Vector2{a.X - b.X, a.Y - b.Y} }
func (a Vector2) Scale(k float64) Vector2 { return Vector2{a.X * k, a.Y * k} }

func (a Vector2) Magnitude() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y)
}

func (a Vector2) Distance(b Vector2) float64 {
	return a.Sub(b).Magnitude()
}

// Normalized returns a unit vector in the direction of a, or the zero vector
// if a has zero magnitude.
func (a Vector2) Normalized() Vector2 {
	m := a.Magnitude()
	if m == 0 {
		return Vector2{}
	}
	return a.Scale(1 / m)
}

// Quadrant classifies a vector into one of the four plane quadrants (1-4,
// going counter-clockwise from +x/+y), or 0 for the exact origin.
func (a Vector2) Quadrant() int {
	switch {
	case a.X == 0 && a.Y == 0:
		return 0
	case a.X >= 0 && a.Y >= 0:
		return 1
	case a.X <= 0 && a.Y >= 0:
		return 2
	case a.X <= 0 && a.Y <= 0:
		return 3
	case a.X >= 0 && a.Y <= 0:
		return 4
	default:
		return 0
	}
}

// AngleDeg returns the direction of a in degrees, using the same
// quadrant-aware acos construction as the original AgentView direction
// computation.
func (a Vector2) AngleDeg() float64 {
	n := a.Normalized()
	var dir float64
	switch n.Quadrant() {
	case 1, 2:
		dir = math.Acos(n.X)
	case 3, 4:
		dir = -math.Acos(n.X)
	}
	return dir * 180 / math.Pi
}

// Vector3 is an ordered triple of real numbers.
type Vector3 struct {
	X, Y, Z float64
}

func (a Vector3) Add(b Vector3) Vector3 { return Vector3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vector3) Sub(b Vector3) Vector3 { return Vector3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vector3) Scale(k float64) Vector3 { return Vector3{a.X * k, a.Y * k, a.Z * k} }

func (a Vector3) Dot(b Vector3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func (a Vector3) Cross(b Vector3) Vector3 {
	return Vector3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func (a Vector3) Magnitude() float64 {
	return math.Sqrt(a.Dot(a))
}

func (a Vector3) Distance(b Vector3) float64 {
	return a.Sub(b).Magnitude()
}

// Angle returns the angle in radians between a and b, via the dot product.
func (a Vector3) Angle(b Vector3) float64 {
	ma, mb := a.Magnitude(), b.Magnitude()
	if ma == 0 || mb == 0 {
		return 0
	}
	cos := a.Dot(b) / (ma * mb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}
