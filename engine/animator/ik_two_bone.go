package animator

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// TwoBoneRequest describes a two-bone IK solve (shoulder/elbow/hand, hip/knee/ankle).
type TwoBoneRequest struct {
	// Target is the model-space point the end joint should reach.
	Target mgl32.Vec3

	// Start, Mid and End are the joint indices of the chain.
	Start, Mid, End int32

	// Weight blends the correction from identity (0) to full (1).
	Weight float32

	// Soften is the fraction of the chain length at which reaching starts to ease off, in [0, 1].
	// 1 disables softening.
	Soften float32

	// TwistAngle rotates the chain plane around the start-to-target axis, in radians.
	TwistAngle float32

	// MidAxis is the mid joint's bend axis in its local space.
	MidAxis mgl32.Vec3

	// Pole is the model-space direction the chain plane is turned toward.
	Pole mgl32.Vec3
}

// SolveTwoBone bends the start and mid joints so the end joint reaches the target.
// Only the start and mid local rotations are modified; model matrices are refreshed from Start.
//
// Parameters:
//   - locals: the local pose, updated in place
//   - models: the model-space matrices matching locals, refreshed on success
//   - eval: the evaluator used to refresh models
//   - req: the solve request
//
// Returns:
//   - bool: true if the target is within the (softened) reach of the chain and the weight is full
//   - error: ErrInvalidJoint if a joint index is invalid; nothing is modified in that case
func SolveTwoBone(locals []model.Transform, models []mgl32.Mat4, eval *PoseEvaluator, req TwoBoneRequest) (bool, error) {
	s := eval.skeleton
	for _, j := range []int32{req.Start, req.Mid, req.End} {
		if !s.ValidJoint(j) {
			return false, fmt.Errorf("two-bone joints (%d, %d, %d): %w", req.Start, req.Mid, req.End, common.ErrInvalidJoint)
		}
	}
	if len(locals) != s.JointCount() || len(models) != s.JointCount() {
		return false, fmt.Errorf("two-bone over %d locals / %d matrices for %d joints: %w", len(locals), len(models), s.JointCount(), common.ErrJointCountMismatch)
	}
	if !(req.Weight > 0) {
		return false, nil
	}

	startCorrection, midCorrection, reached := solveTwoBone(models[req.Start], models[req.Mid], models[req.End], req)
	applyJointCorrection(locals, req.Start, startCorrection)
	applyJointCorrection(locals, req.Mid, midCorrection)

	return reached, eval.Evaluate(locals, models, req.Start)
}

// twoBoneSetup holds the chain expressed in the start and mid joint spaces.
type twoBoneSetup struct {
	invStart mgl32.Mat4

	startMidMS, midEndMS mgl32.Vec3
	startMidSS, midEndSS mgl32.Vec3

	startMidLen2, midEndLen2, startEndLen2 float32
}

func newTwoBoneSetup(start, mid, end mgl32.Mat4) twoBoneSetup {
	invStart := start.Inv()
	invMid := mid.Inv()

	startPos := common.MatrixTranslation(start)
	midPos := common.MatrixTranslation(mid)
	endPos := common.MatrixTranslation(end)

	startMS := mgl32.TransformCoordinate(startPos, invMid)
	endMS := mgl32.TransformCoordinate(endPos, invMid)
	midSS := mgl32.TransformCoordinate(midPos, invStart)
	endSS := mgl32.TransformCoordinate(endPos, invStart)

	setup := twoBoneSetup{
		invStart:   invStart,
		startMidMS: startMS.Mul(-1),
		midEndMS:   endMS,
		startMidSS: midSS,
		midEndSS:   endSS.Sub(midSS),
	}
	setup.startMidLen2 = setup.startMidSS.Dot(setup.startMidSS)
	setup.midEndLen2 = setup.midEndSS.Dot(setup.midEndSS)
	setup.startEndLen2 = endSS.Dot(endSS)
	return setup
}

func solveTwoBone(start, mid, end mgl32.Mat4, req TwoBoneRequest) (mgl32.Quat, mgl32.Quat, bool) {
	setup := newTwoBoneSetup(start, mid, end)

	targetSS, targetLen2, reached := softenTarget(setup, req)
	midRot := midJointRotation(setup, req, targetLen2)
	startRot := startJointRotation(setup, req, mid, midRot, targetSS, targetLen2)

	return common.QuatWeighted(startRot, req.Weight), common.QuatWeighted(midRot, req.Weight), reached && req.Weight >= 1
}

// softenTarget pulls a far target toward the start joint so the chain eases into full extension
// instead of snapping straight. It also reports whether the target is reachable at all.
func softenTarget(setup twoBoneSetup, req TwoBoneRequest) (mgl32.Vec3, float32, bool) {
	targetSS := mgl32.TransformCoordinate(req.Target, setup.invStart)
	targetLen2 := targetSS.Dot(targetSS)

	targetLen := sqrt32(targetLen2)
	startMidLen := sqrt32(setup.startMidLen2)
	midEndLen := sqrt32(setup.midEndLen2)

	bonesDiff := float32(math.Abs(float64(startMidLen - midEndLen)))
	chainLen := startMidLen + midEndLen
	da := chainLen * common.Clamp(req.Soften, 0, 1)
	ds := chainLen - da

	reached := targetLen <= da && targetLen > bonesDiff

	if targetLen > da && targetLen > 0 && ds > 0 {
		alpha := (targetLen - da) / ds
		op := 3 + alpha
		op2 := op * op
		ratio := 81 / (op2 * op2)
		softLen := da + ds - ds*ratio
		return targetSS.Mul(softLen / targetLen), softLen * softLen, reached
	}
	return targetSS, targetLen2, reached
}

// midJointRotation opens or closes the mid joint so the start-to-end distance matches the target distance.
func midJointRotation(setup twoBoneSetup, req TwoBoneRequest, targetLen2 float32) mgl32.Quat {
	product := setup.startMidLen2 * setup.midEndLen2
	if product <= common.Epsilon {
		return mgl32.QuatIdent()
	}
	halfRLen := 0.5 / sqrt32(product)
	sum := setup.startMidLen2 + setup.midEndLen2

	// Law of cosines on the start/mid/end triangle, for the wanted and the current extension.
	correctedCos := common.Clamp((sum-targetLen2)*halfRLen, -1, 1)
	initialCos := common.Clamp((sum-setup.startEndLen2)*halfRLen, -1, 1)

	corrected := acos32(correctedCos)
	initial := acos32(initialCos)

	// A mid joint bent against its axis has a negative initial angle.
	bentSide := setup.startMidMS.Cross(req.MidAxis)
	if bentSide.Dot(setup.midEndMS) < 0 {
		initial = -initial
	}

	return common.QuatFromAxisAngle(req.MidAxis, corrected-initial)
}

// startJointRotation swings the chain so the end lands on the target, then rolls the chain plane toward the pole.
func startJointRotation(setup twoBoneSetup, req TwoBoneRequest, mid mgl32.Mat4, midRot mgl32.Quat, targetSS mgl32.Vec3, targetLen2 float32) mgl32.Quat {
	poleSS := mgl32.TransformNormal(req.Pole, setup.invStart)

	midEndFinal := mgl32.TransformNormal(mgl32.TransformNormal(midRot.Rotate(setup.midEndMS), mid), setup.invStart)
	startEndFinal := setup.startMidSS.Add(midEndFinal)

	endToTarget := common.QuatFromVectors(startEndFinal, targetSS)
	if targetLen2 <= common.Epsilon {
		return endToTarget
	}

	refNormal := targetSS.Cross(poleSS)
	midAxisSS := mgl32.TransformNormal(mgl32.TransformNormal(req.MidAxis, mid), setup.invStart)
	jointNormal := endToTarget.Rotate(midAxisSS)

	refN, okRef := common.SafeNormalize(refNormal)
	jointN, okJoint := common.SafeNormalize(jointNormal)
	axis, okAxis := common.SafeNormalize(targetSS)
	if !okRef || !okJoint || !okAxis {
		return endToTarget
	}

	flipped := axis
	if jointNormal.Dot(poleSS) < 0 {
		flipped = axis.Mul(-1)
	}
	rotatePlane := common.QuatFromAxisCosAngle(flipped, jointN.Dot(refN))

	if req.TwistAngle != 0 {
		twist := common.QuatFromAxisAngle(axis, req.TwistAngle)
		return twist.Mul(rotatePlane).Mul(endToTarget).Normalize()
	}
	return rotatePlane.Mul(endToTarget).Normalize()
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func acos32(v float32) float32 {
	return float32(math.Acos(float64(v)))
}
