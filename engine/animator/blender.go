package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// BlendLayer is one weighted input pose of a blend.
type BlendLayer struct {
	// Pose holds one local transform per joint.
	Pose []model.Transform

	// Weight is the layer weight applied to every joint.
	Weight float32

	// JointWeights optionally scales Weight per joint. Nil means every joint gets the full layer weight.
	JointWeights []float32
}

// BlendOptions tunes how negligible contributions are handled.
type BlendOptions struct {
	// Threshold is the accumulated weight below which the rest pose fills the remainder.
	Threshold float32

	// ContributionEpsilon is the effective weight at or below which a layer is skipped for a joint.
	ContributionEpsilon float32
}

// DefaultBlendOptions returns the blend options matching the default config.
func DefaultBlendOptions() BlendOptions {
	return BlendOptions{
		Threshold:           config.DefaultBlendThreshold,
		ContributionEpsilon: config.DefaultContributionEpsilon,
	}
}

// Blend combines weighted layers into a single local pose.
//
// Translation and scale are averaged linearly by weight. Rotations are summed after being flipped into
// the hemisphere of the joint's dominant contribution (the largest effective weight) and then normalized,
// so the result does not depend on layer order. When a joint's accumulated weight is below the threshold
// the rest pose contributes the missing weight; a joint no layer touches is exactly its rest transform.
//
// Parameters:
//   - layers: the input layers; layers with a non-positive weight are ignored
//   - rest: the skeleton rest pose
//   - opts: the blend options
//   - out: the destination pose, same length as rest
//
// Returns:
//   - error: ErrJointCountMismatch if any buffer is mis-sized
func Blend(layers []BlendLayer, rest []model.Transform, opts BlendOptions, out []model.Transform) error {
	jointCount := len(rest)
	if len(out) != jointCount {
		return fmt.Errorf("blend output has %d transforms for %d joints: %w", len(out), jointCount, common.ErrJointCountMismatch)
	}
	for i, l := range layers {
		if l.Weight <= 0 {
			continue
		}
		if len(l.Pose) != jointCount || (l.JointWeights != nil && len(l.JointWeights) != jointCount) {
			return fmt.Errorf("blend layer %d does not match %d joints: %w", i, jointCount, common.ErrJointCountMismatch)
		}
	}

	for j := 0; j < jointCount; j++ {
		restRot := rest[j].Rotation
		ref, ok := dominantRotation(layers, j, opts.ContributionEpsilon)
		if !ok {
			out[j] = rest[j]
			continue
		}

		var (
			total       float32
			translation mgl32.Vec3
			scale       mgl32.Vec3
			rotation    mgl32.Quat
		)

		for _, l := range layers {
			w := l.effectiveWeight(j)
			if w <= opts.ContributionEpsilon {
				continue
			}

			src := l.Pose[j]
			total += w
			translation = translation.Add(src.Translation.Mul(w))
			scale = scale.Add(src.Scale.Mul(w))
			rotation = rotation.Add(common.QuatAlign(src.Rotation, ref).Scale(w))
		}

		if fill := opts.Threshold - total; fill > 0 {
			total += fill
			translation = translation.Add(rest[j].Translation.Mul(fill))
			scale = scale.Add(rest[j].Scale.Mul(fill))
			rotation = rotation.Add(common.QuatAlign(restRot, ref).Scale(fill))
		}

		inv := 1 / total
		rotLen := rotation.Len()
		if rotLen <= 1e-6 || !common.IsFinite(rotLen) {
			rotation = restRot
		} else {
			rotation = rotation.Scale(1 / rotLen)
		}
		out[j] = model.Transform{
			Translation: translation.Mul(inv),
			Rotation:    rotation,
			Scale:       scale.Mul(inv),
		}
	}
	return nil
}

// effectiveWeight returns the layer weight for joint j, or 0 for a disabled layer.
func (l BlendLayer) effectiveWeight(j int) float32 {
	if l.Weight <= 0 {
		return 0
	}
	if l.JointWeights == nil {
		return l.Weight
	}
	return l.Weight * l.JointWeights[j]
}

// dominantRotation picks the hemisphere reference for joint j: the rotation with the largest effective weight,
// with ties broken by component order. The reference is returned with a non-negative scalar part.
func dominantRotation(layers []BlendLayer, j int, epsilon float32) (mgl32.Quat, bool) {
	var (
		best  mgl32.Quat
		bestW float32
		found bool
	)
	for _, l := range layers {
		w := l.effectiveWeight(j)
		if w <= epsilon {
			continue
		}
		q := common.QuatPositiveW(l.Pose[j].Rotation)
		if !found || w > bestW || (w == bestW && quatLess(best, q)) {
			best, bestW, found = q, w, true
		}
	}
	return best, found
}

func quatLess(a, b mgl32.Quat) bool {
	if a.W != b.W {
		return a.W < b.W
	}
	for i := range a.V {
		if a.V[i] != b.V[i] {
			return a.V[i] < b.V[i]
		}
	}
	return false
}
