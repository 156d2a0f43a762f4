package model

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
)

// --- Transform & Skeleton Types ---

// Transform represents a decomposed joint transform for animation interpolation.
type Transform struct {
	// Translation is the position offset relative to the parent joint.
	Translation mgl32.Vec3

	// Rotation is the orientation relative to the parent joint.
	Rotation mgl32.Quat

	// Scale is the scale factor along each axis.
	Scale mgl32.Vec3
}

// IdentityTransform returns a transform with no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Mat4 composes the transform into a column-major T * R * S matrix.
//
// Returns:
//   - mgl32.Mat4: the composed local matrix
func (t Transform) Mat4() mgl32.Mat4 {
	return common.ComposeMatrix(t.Translation, t.Rotation, t.Scale)
}

// Joint represents a single joint in a skeleton hierarchy.
type Joint struct {
	// Name is the joint's identifier (for lookup and debugging).
	Name string

	// ParentIndex is the index of the parent joint (-1 for root joints).
	// A parent is always stored before its children.
	ParentIndex int32

	// BindLocal is the joint's rest transform relative to its parent.
	BindLocal Transform
}

// Skeleton represents an immutable joint hierarchy shared by every animation instance bound to it.
// Construct it with NewSkeleton so the stored order is validated.
type Skeleton struct {
	// Joints is the array of all joints in topological order.
	Joints []Joint

	// RootJointIndices are indices of joints with no parent.
	RootJointIndices []int32

	// JointNameToIndex maps joint names to their indices for quick lookup.
	JointNameToIndex map[string]int32
}

// --- Animation Types ---

// AnimationClip represents a single animation (walk, run, wave, etc.).
// Tracks are indexed by joint, so a clip is only valid for skeletons with exactly len(Tracks) joints.
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// Tracks holds one keyframe track per skeleton joint.
	Tracks []JointTrack
}

// JointTrack contains the keyframes animating a single joint.
// An empty key list leaves that component at the joint's rest value.
type JointTrack struct {
	// Translations are keyframes for translation.
	Translations []VectorKeyframe

	// Rotations are keyframes for rotation.
	Rotations []QuaternionKeyframe

	// Scales are keyframes for scale.
	Scales []VectorKeyframe
}

// AnimationChannel is the sparse form importers produce: keyframes for a single joint addressed by index.
// NewClipFromChannels expands a set of channels into a full per-joint track list.
type AnimationChannel struct {
	// JointIndex is the index of the joint this channel animates.
	JointIndex int32

	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe

	// RotationKeys are keyframes for rotation.
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value mgl32.Vec3
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the rotation at this keyframe.
	Value mgl32.Quat
}

// --- Skinning Types ---

// MeshSkin binds a skinned mesh to a skeleton.
// It is owned by the mesh; the animation runtime only reads it.
type MeshSkin struct {
	// JointRemap maps palette slot k to the skeleton joint driving it.
	JointRemap []int32

	// InverseBindPoses holds one inverse bind matrix per palette slot.
	InverseBindPoses []mgl32.Mat4
}
