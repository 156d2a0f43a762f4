package animator

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// restartRatio marks a sampler that has not been anchored to the simulation clock yet.
// The next unpaused Advance anchors it and starts playback from ratio 0.
const restartRatio float32 = -1

// JointWeightFunc computes the per-joint weight of a partial animation.
// It receives the joint index and its parent index (-1 for roots) and returns a weight in [0, 1].
type JointWeightFunc func(jointIndex, parentIndex int32) float32

// AnimationSampler tracks the playback state of one clip on one PlayerAnimation.
// Time is kept as a ratio of the clip duration anchored to an absolute simulation time,
// so the sampler never accumulates per-frame deltas.
type AnimationSampler struct {
	clip *model.AnimationClip

	timeRatio     float32
	playbackSpeed float32
	startTime     float64

	weight  float32
	looping bool
	reset   bool

	jointWeights []float32
	pose         []model.Transform
}

func newAnimationSampler(clip *model.AnimationClip, speed float32) *AnimationSampler {
	return &AnimationSampler{
		clip:          clip,
		timeRatio:     restartRatio,
		playbackSpeed: speed,
		pose:          make([]model.Transform, len(clip.Tracks)),
	}
}

// Clip returns the clip this sampler plays.
func (s *AnimationSampler) Clip() *model.AnimationClip {
	return s.clip
}

// Duration returns the clip length in seconds.
func (s *AnimationSampler) Duration() float32 {
	return s.clip.Duration
}

// TimeRatio returns the current normalized time. Negative values mean playback restarts on the next Advance.
func (s *AnimationSampler) TimeRatio() float32 {
	return s.timeRatio
}

// PlaybackSpeed returns the playback speed multiplier.
func (s *AnimationSampler) PlaybackSpeed() float32 {
	return s.playbackSpeed
}

// Weight returns the blend weight of the sampler.
func (s *AnimationSampler) Weight() float32 {
	return s.weight
}

// Looping reports whether playback restarts after the end of the clip.
func (s *AnimationSampler) Looping() bool {
	return s.looping
}

// JointWeights returns the per-joint mask, or nil when every joint is weighted uniformly.
func (s *AnimationSampler) JointWeights() []float32 {
	return s.jointWeights
}

// Pose returns the last sampled local pose.
func (s *AnimationSampler) Pose() []model.Transform {
	return s.pose
}

// SetWeight sets the blend weight. Negative weights are clamped to 0.
func (s *AnimationSampler) SetWeight(weight float32) {
	if weight < 0 || !common.IsFinite(weight) {
		common.LogWarn("sampler %q: weight %f clamped to 0", s.clip.Name, weight)
		weight = 0
	}
	s.weight = weight
}

// SetLooping toggles looping playback.
func (s *AnimationSampler) SetLooping(looping bool) {
	s.looping = looping
}

// SetJointWeights installs a per-joint mask computed from fn, or clears it when fn is nil.
//
// Parameters:
//   - skeleton: the skeleton providing parent indices
//   - fn: the mask function, called once per joint
func (s *AnimationSampler) SetJointWeights(skeleton *model.Skeleton, fn JointWeightFunc) {
	if fn == nil {
		s.jointWeights = nil
		return
	}
	weights := make([]float32, skeleton.JointCount())
	for i, j := range skeleton.Joints {
		w := fn(int32(i), j.ParentIndex)
		if !common.IsFinite(w) {
			w = 0
		}
		weights[i] = common.Clamp(w, 0, 1)
	}
	s.jointWeights = weights
}

// Seek jumps to a normalized time. The start time is re-anchored on the next unpaused Advance
// so playback continues from ratio without a jump.
func (s *AnimationSampler) Seek(ratio float32) {
	s.timeRatio = ratio
	s.reset = true
}

// SetPlaybackSpeed changes the playback speed without moving the current time.
func (s *AnimationSampler) SetPlaybackSpeed(speed float32) {
	s.playbackSpeed = speed
	s.reset = true
}

// Advance moves the sampler to an absolute simulation time.
//
// The first unpaused call anchors the start time and plays from ratio 0. After a Seek or speed change
// the start time is re-derived from the current ratio. Otherwise the ratio follows the clock; a looping
// sampler that runs past the end goes back through the restart state rather than wrapping.
//
// Parameters:
//   - simTime: the current simulation time in seconds
//   - paused: true to leave the sampler untouched
func (s *AnimationSampler) Advance(simTime float64, paused bool) {
	if paused {
		return
	}

	duration := float64(s.clip.Duration)
	speed := float64(s.playbackSpeed)

	switch {
	case s.timeRatio < 0:
		s.startTime = simTime
		s.timeRatio = 0
		s.reset = false
	case duration <= 0:
		s.timeRatio = 0
		s.reset = false
	case speed == 0:
		// Frozen; re-anchor once the speed is non-zero again.
		s.reset = true
	case s.reset:
		s.startTime = simTime - float64(s.timeRatio)*duration/speed
		s.reset = false
	default:
		s.timeRatio = float32((simTime - s.startTime) * speed / duration)
		if s.looping && s.timeRatio > 1 {
			s.timeRatio = restartRatio
		}
	}
}

// Sample evaluates the clip at the clamped current ratio into the sampler's pose buffer.
// Samplers with zero weight are skipped.
//
// Parameters:
//   - rest: the skeleton rest pose
//
// Returns:
//   - error: ErrJointCountMismatch if rest does not match the clip
func (s *AnimationSampler) Sample(rest []model.Transform) error {
	if s.weight <= 0 {
		return nil
	}
	return s.clip.SampleRatio(common.Clamp(s.timeRatio, 0, 1), rest, s.pose)
}

// samplerState is the mutable playback state of a sampler.
type samplerState struct {
	timeRatio float32
	startTime float64
	weight    float32
	reset     bool
}

func (s *AnimationSampler) state() samplerState {
	return samplerState{timeRatio: s.timeRatio, startTime: s.startTime, weight: s.weight, reset: s.reset}
}

func (s *AnimationSampler) restore(st samplerState) {
	s.timeRatio, s.startTime, s.weight, s.reset = st.timeRatio, st.startTime, st.weight, st.reset
}

func (s *AnimationSampler) layer() BlendLayer {
	return BlendLayer{
		Pose:         s.pose,
		Weight:       s.weight,
		JointWeights: s.jointWeights,
	}
}
