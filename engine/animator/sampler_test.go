package animator

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

func TestSamplerFirstAdvanceAnchors(t *testing.T) {
	s := newAnimationSampler(identityClip("idle", 3, 1), 1)
	if s.TimeRatio() != restartRatio {
		t.Fatalf("initial ratio = %f, want %f", s.TimeRatio(), restartRatio)
	}

	s.Advance(10, false)
	if s.TimeRatio() != 0 {
		t.Errorf("ratio after anchoring = %f, want 0", s.TimeRatio())
	}
	s.Advance(10.5, false)
	if !approx(s.TimeRatio(), 0.5, 1e-6) {
		t.Errorf("ratio = %f, want ~0.5", s.TimeRatio())
	}
}

func TestSamplerLoopRestartsThroughSentinel(t *testing.T) {
	s := newAnimationSampler(identityClip("walk", 3, 1), 1)
	s.SetLooping(true)

	s.Advance(0, false)
	s.Advance(1.2, false)
	if s.TimeRatio() != restartRatio {
		t.Fatalf("ratio past the end = %f, want restart marker", s.TimeRatio())
	}
	s.Advance(1.3, false)
	if s.TimeRatio() != 0 {
		t.Fatalf("ratio one tick after restart = %f, want 0", s.TimeRatio())
	}
	s.Advance(1.8, false)
	if !approx(s.TimeRatio(), 0.5, 1e-6) {
		t.Errorf("ratio = %f, want ~0.5", s.TimeRatio())
	}
}

func TestSamplerNonLoopingRunsPastEnd(t *testing.T) {
	clip := translationClip("push", 1, mgl32.Vec3{4, 0, 0})
	s := newAnimationSampler(clip, 1)
	s.SetWeight(1)

	s.Advance(0, false)
	s.Advance(2, false)
	if !approx(s.TimeRatio(), 2, 1e-6) {
		t.Fatalf("ratio = %f, want 2", s.TimeRatio())
	}
	if err := s.Sample([]model.Transform{model.IdentityTransform()}); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if got := s.Pose()[0].Translation; got != (mgl32.Vec3{4, 0, 0}) {
		t.Errorf("sampled translation = %v, want clamped end {4 0 0}", got)
	}
}

func TestSamplerSeekReanchors(t *testing.T) {
	s := newAnimationSampler(identityClip("idle", 3, 1), 1)
	s.Advance(0, false)
	s.Seek(0.25)

	s.Advance(10, false)
	if !approx(s.TimeRatio(), 0.25, 1e-6) {
		t.Fatalf("ratio after seek = %f, want 0.25", s.TimeRatio())
	}
	s.Advance(10.25, false)
	if !approx(s.TimeRatio(), 0.5, 1e-6) {
		t.Errorf("ratio = %f, want ~0.5", s.TimeRatio())
	}
}

func TestSamplerSpeedChangeKeepsTime(t *testing.T) {
	s := newAnimationSampler(identityClip("idle", 3, 1), 1)
	s.Advance(0, false)
	s.Advance(0.5, false)

	s.SetPlaybackSpeed(2)
	s.Advance(0.5, false)
	if !approx(s.TimeRatio(), 0.5, 1e-6) {
		t.Fatalf("ratio after speed change = %f, want 0.5", s.TimeRatio())
	}
	s.Advance(0.75, false)
	if !approx(s.TimeRatio(), 1, 1e-6) {
		t.Errorf("ratio = %f, want ~1", s.TimeRatio())
	}
}

func TestSamplerPausedAndFrozen(t *testing.T) {
	s := newAnimationSampler(identityClip("idle", 3, 1), 1)
	s.Advance(5, true)
	if s.TimeRatio() != restartRatio {
		t.Fatalf("paused advance changed ratio to %f", s.TimeRatio())
	}

	s.Advance(0, false)
	s.Advance(0.4, false)
	s.SetPlaybackSpeed(0)
	s.Advance(3, false)
	if !approx(s.TimeRatio(), 0.4, 1e-6) {
		t.Errorf("frozen ratio = %f, want 0.4", s.TimeRatio())
	}

	s.SetPlaybackSpeed(1)
	s.Advance(4, false)
	s.Advance(4.1, false)
	if !approx(s.TimeRatio(), 0.5, 1e-5) {
		t.Errorf("ratio after unfreezing = %f, want ~0.5", s.TimeRatio())
	}
}

func TestSamplerZeroDuration(t *testing.T) {
	s := newAnimationSampler(&model.AnimationClip{Tracks: make([]model.JointTrack, 1)}, 1)
	s.SetLooping(true)
	s.Advance(0, false)
	s.Advance(1, false)
	if s.TimeRatio() != 0 {
		t.Errorf("zero-duration ratio = %f, want 0", s.TimeRatio())
	}
}

func TestSamplerWeightClamped(t *testing.T) {
	s := newAnimationSampler(identityClip("idle", 3, 1), 1)
	s.SetWeight(-2)
	if s.Weight() != 0 {
		t.Errorf("weight = %f, want 0", s.Weight())
	}
}

func TestSamplerJointWeights(t *testing.T) {
	skel := armSkeleton(t)
	s := newAnimationSampler(identityClip("wave", 3, 1), 1)
	s.SetJointWeights(skel, func(joint, parent int32) float32 {
		if parent < 0 {
			return 0
		}
		return 2
	})
	want := []float32{0, 1, 1}
	for i, w := range s.JointWeights() {
		if w != want[i] {
			t.Errorf("joint %d weight = %f, want %f", i, w, want[i])
		}
	}
	s.SetJointWeights(skel, nil)
	if s.JointWeights() != nil {
		t.Error("nil mask function should clear the mask")
	}
}
