package animator

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// AimLink is one joint of an aim chain.
type AimLink struct {
	// Joint is the skeleton joint index.
	Joint int32

	// Weight is the correction weight in (0, 1]; values above 1 behave like 1.
	Weight float32

	// Up is the joint-local up vector aligned toward the pole.
	Up mgl32.Vec3

	// Forward is the joint-local aiming direction. Only the first link's Forward is used;
	// later links inherit the corrected forward of the link before them.
	Forward mgl32.Vec3
}

// aimJob holds the inputs of a single-joint aim solve.
type aimJob struct {
	joint  mgl32.Mat4
	target mgl32.Vec3
	pole   mgl32.Vec3

	// Joint-local vectors.
	forward mgl32.Vec3
	offset  mgl32.Vec3
	up      mgl32.Vec3

	weight float32
}

// SolveAimChain orients a chain of joints so the first link's forward vector, shifted by offset, points at target.
//
// The chain runs from the aiming joint toward its ancestors (head, neck, spine...). Each link is solved
// with the forward and offset of the previous link carried through that link's correction, so the final
// link accounts for everything before it. Corrections are written to the local rotations and the model
// matrices are refreshed from the last link down.
//
// Parameters:
//   - locals: the local pose, updated in place
//   - models: the model-space matrices matching locals, refreshed on success
//   - eval: the evaluator used to refresh models
//   - target: the model-space point to aim at
//   - chain: the links, first link is the aiming joint
//   - offset: the aiming origin in the first link's local space
//   - pole: the model-space direction the links' up vectors lean toward
//
// Returns:
//   - error: ErrInvalidIKChain if a link is invalid; no joint is modified in that case
func SolveAimChain(locals []model.Transform, models []mgl32.Mat4, eval *PoseEvaluator, target mgl32.Vec3, chain []AimLink, offset, pole mgl32.Vec3) error {
	if err := validateAimChain(eval.skeleton, chain); err != nil {
		return err
	}
	jointCount := eval.skeleton.JointCount()
	if len(locals) != jointCount || len(models) != jointCount {
		return fmt.Errorf("aim chain over %d locals / %d matrices for %d joints: %w", len(locals), len(models), jointCount, common.ErrJointCountMismatch)
	}

	var (
		forward, linkOffset mgl32.Vec3
		prevCorrection      mgl32.Quat
		prevJoint           int32
	)
	for i, link := range chain {
		jointModel := models[link.Joint]
		if i == 0 {
			forward = link.Forward
			linkOffset = offset
		} else {
			prevModel := models[prevJoint]
			forwardMS := mgl32.TransformNormal(prevCorrection.Rotate(forward), prevModel)
			offsetMS := mgl32.TransformCoordinate(prevCorrection.Rotate(linkOffset), prevModel)

			inv := jointModel.Inv()
			forward = mgl32.TransformNormal(forwardMS, inv)
			linkOffset = mgl32.TransformCoordinate(offsetMS, inv)
		}

		correction, _ := solveAim(aimJob{
			joint:   jointModel,
			target:  target,
			pole:    pole,
			forward: forward,
			offset:  linkOffset,
			up:      link.Up,
			weight:  link.Weight,
		})
		applyJointCorrection(locals, link.Joint, correction)

		prevCorrection = correction
		prevJoint = link.Joint
	}

	return eval.Evaluate(locals, models, chain[len(chain)-1].Joint)
}

func validateAimChain(skeleton *model.Skeleton, chain []AimLink) error {
	if len(chain) == 0 {
		return fmt.Errorf("empty chain: %w", common.ErrInvalidIKChain)
	}
	for i, link := range chain {
		if !skeleton.ValidJoint(link.Joint) {
			return fmt.Errorf("link %d joint %d: %w", i, link.Joint, common.ErrInvalidIKChain)
		}
		if !(link.Weight > 0) || !common.IsFinite(link.Weight) {
			return fmt.Errorf("link %d weight %f must be positive: %w", i, link.Weight, common.ErrInvalidIKChain)
		}
	}
	return nil
}

// solveAim computes the joint-local rotation aiming a single joint.
// It returns identity and false when the target sits inside the offset sphere or on the joint itself.
func solveAim(job aimJob) (mgl32.Quat, bool) {
	inv := job.joint.Inv()
	toTarget := mgl32.TransformCoordinate(job.target, inv)

	forward, ok := common.SafeNormalize(job.forward)
	if !ok || toTarget.Dot(toTarget) <= common.Epsilon {
		return mgl32.QuatIdent(), false
	}
	offsetForward, reached := offsettedForward(forward, job.offset, toTarget)
	if !reached {
		return mgl32.QuatIdent(), false
	}

	toTargetRot := common.QuatFromVectors(offsetForward, toTarget)

	// Roll around the aim axis so the corrected up vector lies in the plane of the pole.
	rotatePlane := mgl32.QuatIdent()
	correctedUp := toTargetRot.Rotate(job.up)
	poleJS := mgl32.TransformNormal(job.pole, inv)
	refNormal := poleJS.Cross(toTarget)
	jointNormal := correctedUp.Cross(toTarget)

	refN, okRef := common.SafeNormalize(refNormal)
	jointN, okJoint := common.SafeNormalize(jointNormal)
	axis, okAxis := common.SafeNormalize(toTarget)
	if okRef && okJoint && okAxis {
		if refNormal.Dot(correctedUp) < 0 {
			axis = axis.Mul(-1)
		}
		rotatePlane = common.QuatFromAxisCosAngle(axis, jointN.Dot(refN))
	}

	return common.QuatWeighted(rotatePlane.Mul(toTargetRot).Normalize(), job.weight), true
}

// offsettedForward finds the point on the forward ray from offset that lies at the target's distance
// from the joint. Aiming that point at the target makes the offset ray pass through the target.
func offsettedForward(forward, offset, target mgl32.Vec3) (mgl32.Vec3, bool) {
	aoDot := offset.Dot(forward)
	ao2 := offset.Dot(offset)
	at2 := target.Dot(target)

	r2 := aoDot*aoDot - ao2 + at2
	if r2 < 0 {
		return mgl32.Vec3{}, false
	}
	r := float32(math.Sqrt(float64(r2)))
	return offset.Add(forward.Mul(r - aoDot)), true
}

// applyJointCorrection rotates a joint by a correction expressed in the joint's own frame.
// The correction is re-expressed in the parent frame so it composes on the left of the local rotation.
func applyJointCorrection(locals []model.Transform, joint int32, correction mgl32.Quat) {
	rot := locals[joint].Rotation.Normalize()
	parentSpace := rot.Mul(correction).Mul(rot.Inverse())
	locals[joint].Rotation = parentSpace.Mul(rot).Normalize()
}
