package crowd

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/go-gl/mathgl/mgl32"
)

// FrustumVisibility builds a visibility test for WithVisibility that culls instances whose joint bounds
// fall outside a camera frustum.
//
// The bounds come from the instance's model-space joint positions, so the test only sees the pose of the
// Update it runs in. Meshes that extend past their joints should be checked with a padded frustum.
//
// Parameters:
//   - f: the camera frustum, usually from common.ExtractFrustum
//   - world: returns the model-to-world transform of an instance; nil treats every instance as placed at the origin
//
// Returns:
//   - func(animator.PlayerAnimation) bool: true if the instance is at least partly inside the frustum
func FrustumVisibility(f common.Frustum, world func(animator.PlayerAnimation) mgl32.Mat4) func(animator.PlayerAnimation) bool {
	return func(p animator.PlayerAnimation) bool {
		lo, hi := p.ComputeSkeletonBounds()
		if world != nil {
			lo, hi = common.TransformAABB(world(p), lo, hi)
		}
		return f.IntersectsAABB(lo, hi)
	}
}
