package vmath

import "github.com/chewxy/math32"

// Quat is a rotation quaternion with the scalar part in W.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the rotation that leaves vectors unchanged.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

func Q(x, y, z, w float32) Quat {
	return Quat{x, y, z, w}
}

// QuatAxisAngle returns the rotation of angle radians around axis. The axis
// is normalized first.
func QuatAxisAngle(axis Vector3, angle float32) Quat {
	a := axis.Normalize()
	s := math32.Sin(angle / 2)
	return Quat{a.X * s, a.Y * s, a.Z * s, math32.Cos(angle / 2)}
}

// Mul returns the Hamilton product q*b, i.e. b applied first, then q.
func (q Quat) Mul(b Quat) Quat {
	return Quat{
		X: q.W*b.X + q.X*b.W + q.Y*b.Z - q.Z*b.Y,
		Y: q.W*b.Y - q.X*b.Z + q.Y*b.W + q.Z*b.X,
		Z: q.W*b.Z + q.X*b.Y - q.Y*b.X + q.Z*b.W,
		W: q.W*b.W - q.X*b.X - q.Y*b.Y - q.Z*b.Z,
	}
}

// Conj returns the conjugate of q, which is its inverse when q is unit length.
func (q Quat) Conj() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

func (q Quat) Length() float32 {
	return math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns a unit-length copy of q. A zero quaternion becomes the
// identity.
func (q Quat) Normalize() Quat {
	l := q.Length()
	if l == 0 {
		return QuatIdentity()
	}
	inv := 1 / l
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

func (q Quat) ApproxEqual(b Quat) bool {
	return near(q.X, b.X) && near(q.Y, b.Y) && near(q.Z, b.Z) && near(q.W, b.W)
}

// Rotate rotates v by q using the sandwich product q ⊗ (v, 0) ⊗ conj(q).
func Rotate(q Quat, v Vector3) Vector3 {
	p := Quat{v.X, v.Y, v.Z, 0}
	r := q.Mul(p).Mul(q.Conj())
	return Vector3{r.X, r.Y, r.Z}
}
