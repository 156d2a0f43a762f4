package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testFrustum() Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	return ExtractFrustum(proj.Mul4(view))
}

func TestFrustumPlanesAreNormalized(t *testing.T) {
	f := testFrustum()
	for i, p := range f.Planes {
		if l := p.Normal.Len(); l < 0.9999 || l > 1.0001 {
			t.Errorf("plane %d normal length = %f, want 1", i, l)
		}
	}
	if d := f.Planes[FrustumNear].SignedDistance(mgl32.Vec3{0, 0, -1}); d <= 0 {
		t.Errorf("point in front of the camera is behind the near plane: %f", d)
	}
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := testFrustum()
	cases := []struct {
		name   string
		lo, hi mgl32.Vec3
		want   bool
	}{
		{"ahead", mgl32.Vec3{-1, -1, -6}, mgl32.Vec3{1, 1, -4}, true},
		{"behind", mgl32.Vec3{-1, -1, 4}, mgl32.Vec3{1, 1, 6}, false},
		{"far right", mgl32.Vec3{49, -1, -6}, mgl32.Vec3{51, 1, -4}, false},
		{"beyond far plane", mgl32.Vec3{-1, -1, -300}, mgl32.Vec3{1, 1, -200}, false},
		{"straddling left edge", mgl32.Vec3{-6, -1, -6}, mgl32.Vec3{-4, 1, -4}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := f.IntersectsAABB(c.lo, c.hi); got != c.want {
				t.Errorf("IntersectsAABB = %v, want %v", got, c.want)
			}
		})
	}
}

func TestTransformAABB(t *testing.T) {
	m := mgl32.Translate3D(10, 0, 0).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(90)))
	lo, hi := TransformAABB(m, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 1, 1})

	if !vecApprox(lo, mgl32.Vec3{9, 0, 0}, 1e-5) {
		t.Errorf("lo = %v, want {9 0 0}", lo)
	}
	if !vecApprox(hi, mgl32.Vec3{10, 2, 1}, 1e-5) {
		t.Errorf("hi = %v, want {10 2 1}", hi)
	}
}
