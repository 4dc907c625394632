package math

import "math"

// Mat4 is a 4x4 matrix in column-major order.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
//
// Vectors are columns, so a.Mul(b) applies b first and then a.
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// RotateX returns a rotation matrix around the X axis.
// angle is in radians.
func RotateX(angle float32) Mat4 {
	c, s := sincos(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns a rotation matrix around the Y axis.
func RotateY(angle float32) Mat4 {
	c, s := sincos(angle)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ returns a rotation matrix around the Z axis.
func RotateZ(angle float32) Mat4 {
	c, s := sincos(angle)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// RotateAxis creates a rotation matrix around an arbitrary axis.
// axis is normalized here; a zero axis yields identity.
func RotateAxis(axis Vec3, angle float32) Mat4 {
	axis = axis.Normalize()
	if axis == (Vec3{}) {
		return Identity()
	}
	c, s := sincos(angle)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z

	return Mat4{
		t*x*x + c, t*x*y + s*z, t*x*z - s*y, 0,
		t*x*y - s*z, t*y*y + c, t*y*z + s*x, 0,
		t*x*z + s*y, t*y*z - s*x, t*z*z + c, 0,
		0, 0, 0, 1,
	}
}

func sincos(angle float32) (c, s float32) {
	sn, cs := math.Sincos(float64(angle))
	return float32(cs), float32(sn)
}

// Mul returns m * other, the transform that applies other first.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 16; c += 4 {
		x, y, z, w := other[c], other[c+1], other[c+2], other[c+3]
		for r := 0; r < 4; r++ {
			out[c+r] = m[r]*x + m[4+r]*y + m[8+r]*z + m[12+r]*w
		}
	}
	return out
}

// Add returns the element-wise sum m + other.
func (m Mat4) Add(other Mat4) Mat4 {
	for i := range m {
		m[i] += other[i]
	}
	return m
}

// MulScalar returns every element of m multiplied by s.
func (m Mat4) MulScalar(s float32) Mat4 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// IsIdentity reports whether m is exactly the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == Identity()
}

// TransformPoint transforms a point by this matrix (w=1).
// Projective matrices are divided through by w.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	x := m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y := m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z := m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w := m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	if w != 0 && w != 1 {
		return Vec3{x / w, y / w, z / w}
	}
	return Vec3{x, y, z}
}

// TransformAffine transforms a point ignoring the bottom row.
// Blended skinning matrices are affine, but their w row is the sum of the
// weights rather than 1, so the projective divide must not be applied.
func (m Mat4) TransformAffine(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// TransformDirection transforms a direction vector (ignores translation).
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// MaxScale returns the length of the longest basis column of the upper 3x3.
// It bounds how far a unit distance can stretch under m.
func (m Mat4) MaxScale() float32 {
	sx := Vec3{m[0], m[1], m[2]}.Length()
	sy := Vec3{m[4], m[5], m[6]}.Length()
	sz := Vec3{m[8], m[9], m[10]}.Length()
	return max(sx, sy, sz)
}

// StretchBound returns an upper bound on how much the upper 3x3 can
// lengthen any vector, valid for sheared matrices too.
func (m Mat4) StretchBound() float32 {
	var sum float32
	for _, i := range [...]int{0, 1, 2, 4, 5, 6, 8, 9, 10} {
		sum += m[i] * m[i]
	}
	return float32(math.Sqrt(float64(sum)))
}

// Inverse returns the inverse of an affine matrix, or identity when m is
// singular.
func (m Mat4) Inverse() Mat4 {
	inv, ok := m.TryInverse()
	if !ok {
		return Identity()
	}
	return inv
}

// TryInverse inverts m as an affine transform: the upper 3x3 is inverted
// through its adjugate and the translation is carried through it. The
// bottom row is assumed to be (0, 0, 0, 1). It reports false when the 3x3
// part is singular.
func (m Mat4) TryInverse() (Mat4, bool) {
	// Basis columns of the linear part.
	a := Vec3{m[0], m[1], m[2]}
	b := Vec3{m[4], m[5], m[6]}
	c := Vec3{m[8], m[9], m[10]}

	// Rows of the inverse are the cross products of column pairs over the
	// determinant.
	r0 := b.Cross(c)
	r1 := c.Cross(a)
	r2 := a.Cross(b)
	det := a.Dot(r0)
	if det == 0 {
		return Mat4{}, false
	}
	k := 1 / det
	r0, r1, r2 = r0.Scale(k), r1.Scale(k), r2.Scale(k)

	t := m.Translation()
	return Mat4{
		r0.X, r1.X, r2.X, 0,
		r0.Y, r1.Y, r2.Y, 0,
		r0.Z, r1.Z, r2.Z, 0,
		-r0.Dot(t), -r1.Dot(t), -r2.Dot(t), 1,
	}, true
}
