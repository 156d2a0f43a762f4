package model

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
)

// NewClipFromChannels expands sparse per-joint channels into a clip with one track per joint.
// Joints without a channel get empty tracks and therefore hold their rest pose.
//
// Parameters:
//   - name: the clip name
//   - duration: the clip length in seconds
//   - channels: the sparse channels, at most one per joint
//   - jointCount: the joint count of the target skeleton
//
// Returns:
//   - *AnimationClip: the expanded clip
//   - error: ErrInvalidJoint if a channel addresses a joint outside [0, jointCount)
func NewClipFromChannels(name string, duration float32, channels []AnimationChannel, jointCount int) (*AnimationClip, error) {
	clip := &AnimationClip{
		Name:     name,
		Duration: duration,
		Tracks:   make([]JointTrack, jointCount),
	}
	for _, ch := range channels {
		if ch.JointIndex < 0 || int(ch.JointIndex) >= jointCount {
			return nil, fmt.Errorf("clip %q channel targets joint %d of %d: %w", name, ch.JointIndex, jointCount, common.ErrInvalidJoint)
		}
		clip.Tracks[ch.JointIndex] = JointTrack{
			Translations: ch.PositionKeys,
			Rotations:    ch.RotationKeys,
			Scales:       ch.ScaleKeys,
		}
	}
	return clip, nil
}

// Validate checks that the clip can drive a skeleton with jointCount joints.
//
// Parameters:
//   - jointCount: the joint count of the target skeleton
//
// Returns:
//   - error: ErrJointCountMismatch or ErrInvalidClip describing the first problem found
func (c *AnimationClip) Validate(jointCount int) error {
	if len(c.Tracks) != jointCount {
		return fmt.Errorf("clip %q has %d tracks for %d joints: %w", c.Name, len(c.Tracks), jointCount, common.ErrJointCountMismatch)
	}
	if !common.IsFinite(c.Duration) || c.Duration < 0 {
		return fmt.Errorf("clip %q has duration %f: %w", c.Name, c.Duration, common.ErrInvalidClip)
	}
	for i, tr := range c.Tracks {
		if !vectorKeysOrdered(tr.Translations) || !quatKeysOrdered(tr.Rotations) || !vectorKeysOrdered(tr.Scales) {
			return fmt.Errorf("clip %q track %d has unordered keyframes: %w", c.Name, i, common.ErrInvalidClip)
		}
	}
	return nil
}

// RemapJoints reorders the tracks after the skeleton joints were reordered by SortJoints.
//
// Parameters:
//   - oldToNew: the index mapping returned by SortJoints
func (c *AnimationClip) RemapJoints(oldToNew map[int32]int32) {
	tracks := make([]JointTrack, len(c.Tracks))
	for oldIdx, tr := range c.Tracks {
		newIdx, ok := oldToNew[int32(oldIdx)]
		if !ok || int(newIdx) >= len(tracks) {
			newIdx = int32(oldIdx)
		}
		tracks[newIdx] = tr
	}
	c.Tracks = tracks
}

// SampleRatio evaluates every track at a normalized time and writes one local transform per joint.
// The ratio is clamped to [0, 1] and mapped onto [0, Duration].
//
// Parameters:
//   - ratio: the normalized clip time
//   - rest: the rest pose supplying components with no keyframes
//   - out: the destination pose, one entry per track
//
// Returns:
//   - error: ErrJointCountMismatch if rest or out is not sized to the track count
func (c *AnimationClip) SampleRatio(ratio float32, rest, out []Transform) error {
	if len(rest) != len(c.Tracks) || len(out) != len(c.Tracks) {
		return fmt.Errorf("clip %q sampled with %d rest / %d out transforms for %d tracks: %w",
			c.Name, len(rest), len(out), len(c.Tracks), common.ErrJointCountMismatch)
	}

	t := common.Clamp(ratio, 0, 1) * c.Duration
	for i, tr := range c.Tracks {
		out[i] = Transform{
			Translation: sampleVector(tr.Translations, t, rest[i].Translation),
			Rotation:    sampleQuat(tr.Rotations, t, rest[i].Rotation),
			Scale:       sampleVector(tr.Scales, t, rest[i].Scale),
		}
	}
	return nil
}

// keyInterval finds the keyframe pair surrounding t and the interpolation factor between them.
func keyInterval(count int, timeAt func(int) float32, t float32) (int, int, float32) {
	if t <= timeAt(0) {
		return 0, 0, 0
	}
	if t >= timeAt(count-1) {
		return count - 1, count - 1, 0
	}

	// First key strictly after t; the previous one is at or before it.
	next := sort.Search(count, func(i int) bool { return timeAt(i) > t })
	prev := next - 1
	span := timeAt(next) - timeAt(prev)
	if span <= 0 {
		return next, next, 0
	}
	return prev, next, (t - timeAt(prev)) / span
}

func sampleVector(keys []VectorKeyframe, t float32, fallback mgl32.Vec3) mgl32.Vec3 {
	switch len(keys) {
	case 0:
		return fallback
	case 1:
		return keys[0].Value
	}
	a, b, alpha := keyInterval(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if a == b {
		return keys[a].Value
	}
	return keys[a].Value.Add(keys[b].Value.Sub(keys[a].Value).Mul(alpha))
}

func sampleQuat(keys []QuaternionKeyframe, t float32, fallback mgl32.Quat) mgl32.Quat {
	switch len(keys) {
	case 0:
		return fallback
	case 1:
		return keys[0].Value.Normalize()
	}
	a, b, alpha := keyInterval(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if a == b {
		return keys[a].Value.Normalize()
	}
	return common.QuatNlerpShortest(keys[a].Value.Normalize(), keys[b].Value.Normalize(), alpha)
}

func vectorKeysOrdered(keys []VectorKeyframe) bool {
	for i := 1; i < len(keys); i++ {
		if keys[i].Time < keys[i-1].Time {
			return false
		}
	}
	return true
}

func quatKeysOrdered(keys []QuaternionKeyframe) bool {
	for i := 1; i < len(keys); i++ {
		if keys[i].Time < keys[i-1].Time {
			return false
		}
	}
	return true
}
