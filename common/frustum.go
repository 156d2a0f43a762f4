package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: n·p + d = 0
// where n is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the distance of point from the plane, positive on the side the normal points to.
func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustum extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the view-projection matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)
	rows := [6]mgl32.Vec4{
		FrustumLeft:   r3.Add(r0),
		FrustumRight:  r3.Sub(r0),
		FrustumBottom: r3.Add(r1),
		FrustumTop:    r3.Sub(r1),
		FrustumNear:   r3.Add(r2),
		FrustumFar:    r3.Sub(r2),
	}

	for i, row := range rows {
		f.Planes[i] = Plane{Normal: row.Vec3(), Distance: row.W()}
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := p.Normal.Len()

	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
}

// IntersectsAABB reports whether an axis-aligned box is at least partly inside the frustum.
// The test is conservative: boxes near a frustum corner may be reported visible.
//
// Parameters:
//   - lo: the minimum corner
//   - hi: the maximum corner
//
// Returns:
//   - bool: false only if the box is fully outside one of the planes
func (f *Frustum) IntersectsAABB(lo, hi mgl32.Vec3) bool {
	for _, p := range f.Planes {
		// The corner furthest along the plane normal.
		var corner mgl32.Vec3
		for a := 0; a < 3; a++ {
			if p.Normal[a] >= 0 {
				corner[a] = hi[a]
			} else {
				corner[a] = lo[a]
			}
		}
		if p.SignedDistance(corner) < 0 {
			return false
		}
	}
	return true
}

// TransformAABB returns the axis-aligned bounds of a box after an affine transform.
//
// Parameters:
//   - m: the affine transform
//   - lo: the minimum corner
//   - hi: the maximum corner
//
// Returns:
//   - mgl32.Vec3: the transformed minimum corner
//   - mgl32.Vec3: the transformed maximum corner
func TransformAABB(m mgl32.Mat4, lo, hi mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	t := MatrixTranslation(m)
	outLo, outHi := t, t
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			e := m.At(row, col)
			a, b := e*lo[col], e*hi[col]
			outLo[row] += min(a, b)
			outHi[row] += max(a, b)
		}
	}
	return outLo, outHi
}
