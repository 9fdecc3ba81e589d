// Package vmath holds the small float32 vector and quaternion types used for
// instance transforms.
package vmath

import "github.com/chewxy/math32"

// Epsilon is the tolerance used by the ApproxEqual helpers.
const Epsilon = 1e-5

// Vector3 is a 3-dimensional direction or offset.
type Vector3 struct {
	X, Y, Z float32
}

func V3(x, y, z float32) Vector3 {
	return Vector3{x, y, z}
}

// Add the argument to a copy of the receiver, returning the sum.
func (v Vector3) Add(b Vector3) Vector3 {
	v.X += b.X
	v.Y += b.Y
	v.Z += b.Z
	return v
}

// Scale a copy of the receiver by s.
func (v Vector3) Scale(s float32) Vector3 {
	v.X *= s
	v.Y *= s
	v.Z *= s
	return v
}

// Length returns the euclidean length of the receiver.
func (v Vector3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit-length copy of the receiver. The zero vector is
// returned unchanged.
func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

func (v Vector3) ApproxEqual(b Vector3) bool {
	return near(v.X, b.X) && near(v.Y, b.Y) && near(v.Z, b.Z)
}

// Point3 is a position in space.
type Point3 struct {
	X, Y, Z float32
}

func P3(x, y, z float32) Point3 {
	return Point3{x, y, z}
}

// Add offsets a copy of the receiver by v.
func (p Point3) Add(v Vector3) Point3 {
	p.X += v.X
	p.Y += v.Y
	p.Z += v.Z
	return p
}

// Vector returns the offset of the point from the origin.
func (p Point3) Vector() Vector3 {
	return Vector3{p.X, p.Y, p.Z}
}

func (p Point3) ApproxEqual(b Point3) bool {
	return near(p.X, b.X) && near(p.Y, b.Y) && near(p.Z, b.Z)
}

func near(a, b float32) bool {
	return math32.Abs(a-b) <= Epsilon
}
