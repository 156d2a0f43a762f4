package model

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestClipValidate(t *testing.T) {
	clip := &AnimationClip{Name: "idle", Duration: 1, Tracks: make([]JointTrack, 3)}
	if err := clip.Validate(3); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := clip.Validate(4); !errors.Is(err, common.ErrJointCountMismatch) {
		t.Errorf("err = %v, want ErrJointCountMismatch", err)
	}

	clip.Duration = float32(math.NaN())
	if err := clip.Validate(3); !errors.Is(err, common.ErrInvalidClip) {
		t.Errorf("err = %v, want ErrInvalidClip for NaN duration", err)
	}

	clip.Duration = 1
	clip.Tracks[1].Translations = []VectorKeyframe{{Time: 0.5}, {Time: 0.2}}
	if err := clip.Validate(3); !errors.Is(err, common.ErrInvalidClip) {
		t.Errorf("err = %v, want ErrInvalidClip for unordered keys", err)
	}
}

func TestSampleRatioInterpolates(t *testing.T) {
	clip := &AnimationClip{
		Duration: 2,
		Tracks: []JointTrack{{
			Translations: []VectorKeyframe{
				{Time: 0, Value: mgl32.Vec3{0, 0, 0}},
				{Time: 2, Value: mgl32.Vec3{4, 0, 0}},
			},
			Rotations: []QuaternionKeyframe{
				{Time: 0, Value: mgl32.QuatIdent()},
				{Time: 2, Value: mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0})},
			},
		}},
	}
	rest := []Transform{IdentityTransform()}
	out := make([]Transform, 1)

	if err := clip.SampleRatio(0.5, rest, out); err != nil {
		t.Fatalf("SampleRatio: %v", err)
	}
	if !vecApprox(out[0].Translation, mgl32.Vec3{2, 0, 0}, 1e-5) {
		t.Errorf("translation = %v, want {2 0 0}", out[0].Translation)
	}
	wantRot := mgl32.QuatRotate(math.Pi/4, mgl32.Vec3{0, 1, 0})
	if !quatApprox(out[0].Rotation, wantRot, 1e-5) {
		t.Errorf("rotation = %v, want %v", out[0].Rotation, wantRot)
	}
	if out[0].Scale != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("scale = %v, want rest scale", out[0].Scale)
	}
}

func TestSampleRatioClampsOutOfRange(t *testing.T) {
	clip := &AnimationClip{
		Duration: 1,
		Tracks: []JointTrack{{
			Translations: []VectorKeyframe{
				{Time: 0, Value: mgl32.Vec3{1, 0, 0}},
				{Time: 1, Value: mgl32.Vec3{3, 0, 0}},
			},
		}},
	}
	rest := []Transform{IdentityTransform()}
	out := make([]Transform, 1)

	_ = clip.SampleRatio(-1, rest, out)
	if out[0].Translation[0] != 1 {
		t.Errorf("ratio -1 translation = %v, want x=1", out[0].Translation)
	}
	_ = clip.SampleRatio(5, rest, out)
	if out[0].Translation[0] != 3 {
		t.Errorf("ratio 5 translation = %v, want x=3", out[0].Translation)
	}
}

func TestSampleRatioSizeMismatch(t *testing.T) {
	clip := &AnimationClip{Duration: 1, Tracks: make([]JointTrack, 2)}
	err := clip.SampleRatio(0, make([]Transform, 2), make([]Transform, 1))
	if !errors.Is(err, common.ErrJointCountMismatch) {
		t.Fatalf("err = %v, want ErrJointCountMismatch", err)
	}
}

func TestNewClipFromChannels(t *testing.T) {
	channels := []AnimationChannel{{
		JointIndex:   1,
		PositionKeys: []VectorKeyframe{{Time: 0, Value: mgl32.Vec3{0, 1, 0}}},
	}}
	clip, err := NewClipFromChannels("wave", 1, channels, 3)
	if err != nil {
		t.Fatalf("NewClipFromChannels: %v", err)
	}
	if len(clip.Tracks) != 3 {
		t.Fatalf("tracks = %d, want 3", len(clip.Tracks))
	}
	if len(clip.Tracks[1].Translations) != 1 || len(clip.Tracks[0].Translations) != 0 {
		t.Errorf("channel not expanded onto joint 1: %+v", clip.Tracks)
	}

	channels[0].JointIndex = 3
	if _, err := NewClipFromChannels("wave", 1, channels, 3); !errors.Is(err, common.ErrInvalidJoint) {
		t.Errorf("err = %v, want ErrInvalidJoint", err)
	}
}

func TestRemapJoints(t *testing.T) {
	clip := &AnimationClip{Tracks: []JointTrack{
		{Translations: []VectorKeyframe{{Value: mgl32.Vec3{0, 0, 0}}}},
		{Translations: []VectorKeyframe{{Value: mgl32.Vec3{1, 0, 0}}}},
		{Translations: []VectorKeyframe{{Value: mgl32.Vec3{2, 0, 0}}}},
	}}
	clip.RemapJoints(map[int32]int32{0: 2, 1: 0, 2: 1})
	for newIdx, want := range []float32{1, 2, 0} {
		if got := clip.Tracks[newIdx].Translations[0].Value[0]; got != want {
			t.Errorf("track %d x = %f, want %f", newIdx, got, want)
		}
	}
}

func TestModelValidate(t *testing.T) {
	s, err := NewSkeleton(chainJoints())
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	m := NewModel(
		WithName("arm"),
		WithSkeleton(s),
		WithAnimations([]*AnimationClip{{Name: "idle", Duration: 1, Tracks: make([]JointTrack, 3)}}),
		WithSkin("body", &MeshSkin{JointRemap: []int32{0, 2}, InverseBindPoses: []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()}}),
	)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if names := m.AnimationNames(); len(names) != 1 || names[0] != "idle" {
		t.Errorf("AnimationNames = %v", names)
	}

	bad := NewModel(WithSkeleton(s), WithSkin("body", &MeshSkin{JointRemap: []int32{5}, InverseBindPoses: []mgl32.Mat4{mgl32.Ident4()}}))
	if err := bad.Validate(); !errors.Is(err, common.ErrInvalidSkin) {
		t.Errorf("err = %v, want ErrInvalidSkin", err)
	}
}

func vecApprox(a, b mgl32.Vec3, eps float32) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > float64(eps) {
			return false
		}
	}
	return true
}

func quatApprox(a, b mgl32.Quat, eps float32) bool {
	return math.Abs(float64(a.W-b.W)) <= float64(eps) && vecApprox(a.V, b.V, eps)
}
