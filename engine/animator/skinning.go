package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// PrepareSkinning builds the skinning palette of a mesh: out[k] = models[remap[k]] * invBind[k].
// It reads only its inputs and writes only out.
//
// Parameters:
//   - models: the model-space joint matrices
//   - remap: the palette-slot to joint mapping of the mesh
//   - invBind: the inverse bind matrices of the mesh, one per palette slot
//   - out: the destination palette, one matrix per palette slot
//
// Returns:
//   - error: ErrInvalidSkin if the lengths disagree or a slot references a missing joint
func PrepareSkinning(models []mgl32.Mat4, remap []int32, invBind []mgl32.Mat4, out []mgl32.Mat4) error {
	if len(remap) != len(invBind) || len(out) != len(remap) {
		return fmt.Errorf("palette of %d slots with %d remap entries and %d inverse bind poses: %w",
			len(out), len(remap), len(invBind), common.ErrInvalidSkin)
	}
	for k, j := range remap {
		if j < 0 || int(j) >= len(models) {
			return fmt.Errorf("palette slot %d references joint %d of %d: %w", k, j, len(models), common.ErrInvalidSkin)
		}
	}

	for k, j := range remap {
		out[k] = models[j].Mul4(invBind[k])
	}
	return nil
}

// InverseBindMatrices returns the inverse of every joint's rest-pose model matrix.
// A mesh bound to the skeleton in its rest pose can use these as its inverse bind poses with an identity remap.
//
// Parameters:
//   - skeleton: the skeleton
//
// Returns:
//   - []mgl32.Mat4: one inverse bind matrix per joint
func InverseBindMatrices(skeleton *model.Skeleton) []mgl32.Mat4 {
	models := make([]mgl32.Mat4, skeleton.JointCount())
	_ = NewPoseEvaluator(skeleton).Evaluate(skeleton.RestPose(), models, -1)
	for i := range models {
		models[i] = models[i].Inv()
	}
	return models
}
