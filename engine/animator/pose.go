package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// PoseEvaluator converts local joint transforms into model-space matrices.
// It owns per-joint model overrides and scratch state, so each PlayerAnimation keeps its own evaluator.
type PoseEvaluator struct {
	skeleton  *model.Skeleton
	dirty     []bool
	overrides map[int32]mgl32.Mat4
}

// NewPoseEvaluator creates an evaluator for a skeleton.
func NewPoseEvaluator(skeleton *model.Skeleton) *PoseEvaluator {
	return &PoseEvaluator{
		skeleton:  skeleton,
		dirty:     make([]bool, skeleton.JointCount()),
		overrides: make(map[int32]mgl32.Mat4),
	}
}

// SetOverride pins the model matrix of a joint. Descendants are evaluated relative to the pinned matrix
// until the override is cleared.
func (e *PoseEvaluator) SetOverride(joint int32, m mgl32.Mat4) error {
	if !e.skeleton.ValidJoint(joint) {
		return fmt.Errorf("override joint %d: %w", joint, common.ErrInvalidJoint)
	}
	e.overrides[joint] = m
	return nil
}

// ClearOverride removes a pinned model matrix. It reports whether an override existed.
func (e *PoseEvaluator) ClearOverride(joint int32) bool {
	if _, ok := e.overrides[joint]; !ok {
		return false
	}
	delete(e.overrides, joint)
	return true
}

// Evaluate computes model-space matrices from local transforms.
//
// With fromJoint < 0 every joint is evaluated in stored order. With fromJoint >= 0 only that joint and
// its descendants are recomputed; every other matrix is left as is and is read as the parent input.
//
// Parameters:
//   - locals: one local transform per joint
//   - models: the destination matrices, one per joint
//   - fromJoint: the subtree root to refresh, or a negative value for the whole skeleton
//
// Returns:
//   - error: ErrJointCountMismatch or ErrInvalidJoint; nothing is written on error
func (e *PoseEvaluator) Evaluate(locals []model.Transform, models []mgl32.Mat4, fromJoint int32) error {
	jointCount := e.skeleton.JointCount()
	if len(locals) != jointCount || len(models) != jointCount {
		return fmt.Errorf("evaluate %d locals into %d matrices for %d joints: %w",
			len(locals), len(models), jointCount, common.ErrJointCountMismatch)
	}
	if fromJoint >= int32(jointCount) {
		return fmt.Errorf("evaluate from joint %d of %d: %w", fromJoint, jointCount, common.ErrInvalidJoint)
	}

	start := int32(0)
	if fromJoint >= 0 {
		start = fromJoint
		clear(e.dirty)
		e.dirty[fromJoint] = true
	}

	joints := e.skeleton.Joints
	for j := start; j < int32(jointCount); j++ {
		parent := joints[j].ParentIndex
		if fromJoint >= 0 && j != fromJoint {
			if parent < 0 || !e.dirty[parent] {
				continue
			}
			e.dirty[j] = true
		}

		if m, ok := e.overrides[j]; ok {
			models[j] = m
			continue
		}
		local := locals[j].Mat4()
		if parent < 0 {
			models[j] = local
		} else {
			models[j] = models[parent].Mul4(local)
		}
	}
	return nil
}
