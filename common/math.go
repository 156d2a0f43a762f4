package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// Epsilon is the squared-length floor below which vectors are treated as degenerate.
const Epsilon float32 = 1e-12

// Clamp restricts value to the closed range [lo, hi].
//
// Parameters:
//   - value: the value to clamp
//   - lo: the lower bound
//   - hi: the upper bound
//
// Returns:
//   - T: lo if value < lo, hi if value > hi, otherwise value
func Clamp[T constraints.Ordered](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// ComposeMatrix builds a column-major affine matrix from translation, rotation and scale.
// The result is T * R * S, so scale is applied first and translation last.
//
// Parameters:
//   - t: the translation
//   - r: the rotation quaternion
//   - s: the per-axis scale
//
// Returns:
//   - mgl32.Mat4: the composed matrix
func ComposeMatrix(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	m := r.Normalize().Mat4()

	// Scale the rotation columns in place rather than multiplying by a scale matrix.
	for c := 0; c < 3; c++ {
		for row := 0; row < 3; row++ {
			m[c*4+row] *= s[c]
		}
	}
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}

// MatrixTranslation returns the translation column of an affine matrix.
func MatrixTranslation(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}

// SafeNormalize normalizes v, reporting false instead of producing NaNs when v is degenerate.
//
// Parameters:
//   - v: the vector to normalize
//
// Returns:
//   - mgl32.Vec3: the unit vector, or the zero vector if v is degenerate
//   - bool: true if v had a usable length
func SafeNormalize(v mgl32.Vec3) (mgl32.Vec3, bool) {
	len2 := v.Dot(v)
	if len2 <= Epsilon || !IsFinite(len2) {
		return mgl32.Vec3{}, false
	}
	return v.Mul(1 / float32(math.Sqrt(float64(len2)))), true
}

// QuatFromVectors returns the shortest rotation taking the direction of from onto the direction of to.
// Degenerate inputs yield the identity quaternion.
func QuatFromVectors(from, to mgl32.Vec3) mgl32.Quat {
	f, ok := SafeNormalize(from)
	if !ok {
		return mgl32.QuatIdent()
	}
	t, ok := SafeNormalize(to)
	if !ok {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatBetweenVectors(f, t).Normalize()
}

// QuatFromAxisAngle returns a rotation of angle radians around axis. A degenerate axis yields identity.
func QuatFromAxisAngle(axis mgl32.Vec3, angle float32) mgl32.Quat {
	a, ok := SafeNormalize(axis)
	if !ok {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(angle, a)
}

// QuatFromAxisCosAngle returns a rotation around a unit axis given the cosine of the rotation angle.
//
// Parameters:
//   - axis: the unit rotation axis
//   - cos: the cosine of the rotation angle, clamped to [-1, 1]
//
// Returns:
//   - mgl32.Quat: the rotation quaternion
func QuatFromAxisCosAngle(axis mgl32.Vec3, cos float32) mgl32.Quat {
	cos = Clamp(cos, -1, 1)
	halfCos := float32(math.Sqrt(float64((1 + cos) * 0.5)))
	halfSin := float32(math.Sqrt(float64((1 - cos) * 0.5)))
	return mgl32.Quat{W: halfCos, V: axis.Mul(halfSin)}
}

// QuatPositiveW flips q into the hemisphere with a non-negative scalar part.
func QuatPositiveW(q mgl32.Quat) mgl32.Quat {
	if q.W < 0 {
		return q.Scale(-1)
	}
	return q
}

// QuatAlign flips q into the hemisphere of ref so that summing or lerping takes the short path.
func QuatAlign(q, ref mgl32.Quat) mgl32.Quat {
	if q.Dot(ref) < 0 {
		return q.Scale(-1)
	}
	return q
}

// QuatWeighted scales a rotation toward identity by weight using a normalized lerp.
// Weights at or above 1 return q unchanged (with a positive scalar part), weights at or below 0 return identity.
//
// Parameters:
//   - q: the full rotation
//   - weight: the blend factor in [0, 1]
//
// Returns:
//   - mgl32.Quat: the weighted rotation
func QuatWeighted(q mgl32.Quat, weight float32) mgl32.Quat {
	q = QuatPositiveW(q)
	if weight >= 1 {
		return q
	}
	if weight <= 0 {
		return mgl32.QuatIdent()
	}
	return QuatNlerpShortest(mgl32.QuatIdent(), q, weight)
}

// QuatNlerpShortest interpolates a and b along the shortest arc and renormalizes the result.
// A degenerate sum falls back to a.
func QuatNlerpShortest(a, b mgl32.Quat, t float32) mgl32.Quat {
	b = QuatAlign(b, a)
	q := mgl32.Quat{
		W: Lerp(a.W, b.W, t),
		V: mgl32.Vec3{Lerp(a.V[0], b.V[0], t), Lerp(a.V[1], b.V[1], t), Lerp(a.V[2], b.V[2], t)},
	}
	l := q.Len()
	if l <= 1e-6 || !IsFinite(l) {
		return a
	}
	return q.Scale(1 / l)
}

// RotationAngle returns the unsigned angle in radians between two directions, or 0 if either is degenerate.
func RotationAngle(a, b mgl32.Vec3) float32 {
	na, ok := SafeNormalize(a)
	if !ok {
		return 0
	}
	nb, ok := SafeNormalize(b)
	if !ok {
		return 0
	}
	return float32(math.Acos(float64(Clamp(na.Dot(nb), -1, 1))))
}
