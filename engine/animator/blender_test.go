package animator

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

func posesForBlend() ([]model.Transform, []model.Transform, []model.Transform) {
	rest := []model.Transform{model.IdentityTransform(), model.IdentityTransform()}
	a := []model.Transform{
		{Translation: mgl32.Vec3{1, 0, 0}, Rotation: mgl32.QuatRotate(0.4, mgl32.Vec3{0, 1, 0}), Scale: mgl32.Vec3{1, 1, 1}},
		{Translation: mgl32.Vec3{0, 2, 0}, Rotation: mgl32.QuatRotate(-1.1, mgl32.Vec3{1, 0, 0}), Scale: mgl32.Vec3{2, 2, 2}},
	}
	b := []model.Transform{
		{Translation: mgl32.Vec3{3, 1, 0}, Rotation: mgl32.QuatRotate(2.5, mgl32.Vec3{0, 0, 1}).Scale(-1), Scale: mgl32.Vec3{1, 1, 1}},
		{Translation: mgl32.Vec3{0, 0, 5}, Rotation: mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0}), Scale: mgl32.Vec3{1, 3, 1}},
	}
	return rest, a, b
}

func TestBlendIsOrderIndependent(t *testing.T) {
	rest, a, b := posesForBlend()
	la := BlendLayer{Pose: a, Weight: 0.7}
	lb := BlendLayer{Pose: b, Weight: 0.4, JointWeights: []float32{1, 0.5}}

	ab := make([]model.Transform, 2)
	ba := make([]model.Transform, 2)
	if err := Blend([]BlendLayer{la, lb}, rest, DefaultBlendOptions(), ab); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	if err := Blend([]BlendLayer{lb, la}, rest, DefaultBlendOptions(), ba); err != nil {
		t.Fatalf("Blend: %v", err)
	}

	for j := range ab {
		if !vecApprox(ab[j].Translation, ba[j].Translation, 1e-5) {
			t.Errorf("joint %d translation %v != %v", j, ab[j].Translation, ba[j].Translation)
		}
		if !vecApprox(ab[j].Scale, ba[j].Scale, 1e-5) {
			t.Errorf("joint %d scale %v != %v", j, ab[j].Scale, ba[j].Scale)
		}
		if !quatApprox(ab[j].Rotation, ba[j].Rotation, 1e-5) {
			t.Errorf("joint %d rotation %v != %v", j, ab[j].Rotation, ba[j].Rotation)
		}
	}
}

func TestBlendUntouchedJointIsRest(t *testing.T) {
	rest, a, _ := posesForBlend()
	rest[1].Translation = mgl32.Vec3{0.3, 0.7, 0.1}
	rest[1].Rotation = mgl32.QuatRotate(0.9, mgl32.Vec3{0, 0, 1})

	out := make([]model.Transform, 2)
	layers := []BlendLayer{{Pose: a, Weight: 1, JointWeights: []float32{1, 0}}}
	if err := Blend(layers, rest, DefaultBlendOptions(), out); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	if out[1] != rest[1] {
		t.Errorf("untouched joint = %+v, want rest %+v", out[1], rest[1])
	}

	if err := Blend(nil, rest, DefaultBlendOptions(), out); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	for j := range out {
		if out[j] != rest[j] {
			t.Errorf("empty blend joint %d = %+v, want rest", j, out[j])
		}
	}
}

func TestBlendSingleFullLayer(t *testing.T) {
	rest, a, _ := posesForBlend()
	out := make([]model.Transform, 2)
	if err := Blend([]BlendLayer{{Pose: a, Weight: 1}}, rest, DefaultBlendOptions(), out); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	for j := range out {
		if !vecApprox(out[j].Translation, a[j].Translation, 1e-5) {
			t.Errorf("joint %d translation = %v, want %v", j, out[j].Translation, a[j].Translation)
		}
		if !quatApprox(out[j].Rotation, a[j].Rotation, 1e-5) {
			t.Errorf("joint %d rotation = %v, want %v", j, out[j].Rotation, a[j].Rotation)
		}
	}
}

func TestBlendThresholdFillsWithRest(t *testing.T) {
	rest := []model.Transform{model.IdentityTransform()}
	pose := []model.Transform{{Translation: mgl32.Vec3{2, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}}
	out := make([]model.Transform, 1)

	opts := BlendOptions{Threshold: 0.1, ContributionEpsilon: 1e-6}
	if err := Blend([]BlendLayer{{Pose: pose, Weight: 0.05}}, rest, opts, out); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	if !vecApprox(out[0].Translation, mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("translation = %v, want {1 0 0}", out[0].Translation)
	}
}

func TestBlendSkipsNegligibleContribution(t *testing.T) {
	rest := []model.Transform{model.IdentityTransform()}
	pose := []model.Transform{{Translation: mgl32.Vec3{2, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}}
	out := make([]model.Transform, 1)

	if err := Blend([]BlendLayer{{Pose: pose, Weight: 1e-7}}, rest, DefaultBlendOptions(), out); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	if out[0] != rest[0] {
		t.Errorf("negligible layer changed the pose: %+v", out[0])
	}
}

func TestBlendNearHalfTurnFromRest(t *testing.T) {
	rest := []model.Transform{model.IdentityTransform()}
	axis := mgl32.Vec3{1, 0, 0}
	a := []model.Transform{{Rotation: mgl32.QuatRotate(mgl32.DegToRad(170), axis), Scale: mgl32.Vec3{1, 1, 1}}}
	b := []model.Transform{{Rotation: mgl32.QuatRotate(mgl32.DegToRad(190), axis), Scale: mgl32.Vec3{1, 1, 1}}}

	for _, order := range [][]BlendLayer{
		{{Pose: a, Weight: 0.5}, {Pose: b, Weight: 0.5}},
		{{Pose: b, Weight: 0.5}, {Pose: a, Weight: 0.5}},
	} {
		out := make([]model.Transform, 1)
		if err := Blend(order, rest, DefaultBlendOptions(), out); err != nil {
			t.Fatalf("Blend: %v", err)
		}
		got := out[0].Rotation
		// A half turn about X is ±(0, 1, 0, 0).
		if !approx(got.W, 0, 1e-4) || !approx(float32(math.Abs(float64(got.V[0]))), 1, 1e-4) {
			t.Errorf("blended rotation = %v, want a half turn about X", got)
		}
	}

	// A dominant layer pulls the blend toward itself, still across the half-turn boundary.
	out := make([]model.Transform, 1)
	if err := Blend([]BlendLayer{{Pose: a, Weight: 0.75}, {Pose: b, Weight: 0.25}}, rest, DefaultBlendOptions(), out); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	deg := 2 * math.Acos(math.Min(1, math.Abs(float64(out[0].Rotation.W)))) * 180 / math.Pi
	if math.Abs(deg-175) > 0.5 {
		t.Errorf("weighted blend angle = %f deg, want ~175", deg)
	}
}

func TestBlendRotationIsUnit(t *testing.T) {
	rest, a, b := posesForBlend()
	out := make([]model.Transform, 2)
	if err := Blend([]BlendLayer{{Pose: a, Weight: 0.5}, {Pose: b, Weight: 0.5}}, rest, DefaultBlendOptions(), out); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	for j := range out {
		if l := out[j].Rotation.Len(); math.Abs(float64(l-1)) > 1e-5 {
			t.Errorf("joint %d rotation length = %f, want 1", j, l)
		}
	}
}

func TestBlendRejectsMismatchedLayer(t *testing.T) {
	rest, a, _ := posesForBlend()
	out := make([]model.Transform, 2)
	err := Blend([]BlendLayer{{Pose: a[:1], Weight: 1}}, rest, DefaultBlendOptions(), out)
	if !errors.Is(err, common.ErrJointCountMismatch) {
		t.Fatalf("err = %v, want ErrJointCountMismatch", err)
	}
}
