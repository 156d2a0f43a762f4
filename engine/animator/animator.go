package animator

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/tanema/gween/ease"
)

// playerAnimation is the implementation of the PlayerAnimation interface.
type playerAnimation struct {
	mu *sync.Mutex

	id       uuid.UUID
	skeleton *model.Skeleton
	cfg      config.AnimationConfig
	blend    BlendOptions

	samplers map[string]*AnimationSampler
	keys     []string
	fades    []*crossfade

	rest, locals, blendScratch []model.Transform
	models                     []mgl32.Mat4
	palette                    []mgl32.Mat4
	layers                     []BlendLayer
	evaluator                  *PoseEvaluator

	lastSimTime float64
	hasSimTime  bool

	undo updateCheckpoint
}

// updateCheckpoint holds the state Update restores when sampling or blending fails.
type updateCheckpoint struct {
	lastSimTime float64
	hasSimTime  bool
	fades       []*crossfade
	fadeStates  []crossfadeState
	samplers    []samplerState
}

// PlayerAnimation defines the public control surface of one animated skeleton instance.
//
// A PlayerAnimation owns its samplers, blended pose, model-space matrices and palette. The skeleton and
// clips it references are read-only and may be shared with any number of other instances.
//
// Each frame the owner calls Update with the absolute simulation time, optionally runs IK passes, and then
// prepares a skinning palette per mesh. Operations on unknown animation keys return ErrAnimationNotFound;
// they never create samplers.
type PlayerAnimation interface {
	// ID returns the unique identity of this instance.
	//
	// Returns:
	//   - uuid.UUID: the instance identifier
	ID() uuid.UUID

	// Skeleton returns the skeleton this instance animates.
	//
	// Returns:
	//   - *model.Skeleton: the shared skeleton
	Skeleton() *model.Skeleton

	// LoadAnimation registers a clip under key, replacing any sampler already stored there.
	// The clip must have exactly one track per skeleton joint; on failure the sampler map is unchanged.
	//
	// Parameters:
	//   - key: the animation key
	//   - clip: the clip to play
	//
	// Returns:
	//   - error: ErrNilClip, ErrJointCountMismatch or ErrInvalidClip
	LoadAnimation(key string, clip *model.AnimationClip) error

	// UnloadAnimation removes the sampler stored under key together with any crossfade driving it.
	//
	// Parameters:
	//   - key: the animation key
	//
	// Returns:
	//   - bool: true if a sampler was removed
	UnloadAnimation(key string) bool

	// Animations returns the loaded animation keys in sorted order.
	//
	// Returns:
	//   - []string: the animation keys
	Animations() []string

	// Sampler returns the sampler stored under key.
	// The sampler belongs to this instance and must not be used concurrently with Update.
	//
	// Parameters:
	//   - key: the animation key
	//
	// Returns:
	//   - *AnimationSampler: the sampler
	//   - error: ErrAnimationNotFound if no clip is loaded under key
	Sampler(key string) (*AnimationSampler, error)

	// Select sets the blend weight and looping flag of an animation and clears any per-joint mask.
	//
	// Parameters:
	//   - key: the animation key
	//   - weight: the blend weight; negative values are clamped to 0
	//   - looping: true to restart playback after the clip ends
	//
	// Returns:
	//   - error: ErrAnimationNotFound for unknown keys
	Select(key string, weight float32, looping bool) error

	// SelectPartial works like Select but weights each joint by fn(jointIndex, parentIndex).
	//
	// Parameters:
	//   - key: the animation key
	//   - weight: the layer weight
	//   - looping: true to restart playback after the clip ends
	//   - fn: the per-joint mask; nil behaves like Select
	//
	// Returns:
	//   - error: ErrAnimationNotFound for unknown keys
	SelectPartial(key string, weight float32, looping bool, fn JointWeightFunc) error

	// Seek jumps an animation to a normalized time in [0, 1].
	//
	// Parameters:
	//   - key: the animation key
	//   - ratio: the normalized time
	//
	// Returns:
	//   - error: ErrAnimationNotFound for unknown keys
	Seek(key string, ratio float32) error

	// SetPlaybackSpeed changes an animation's speed multiplier without moving its current time.
	//
	// Parameters:
	//   - key: the animation key
	//   - speed: the speed multiplier
	//
	// Returns:
	//   - error: ErrAnimationNotFound for unknown keys
	SetPlaybackSpeed(key string, speed float32) error

	// Duration returns the clip length of an animation in seconds.
	//
	// Parameters:
	//   - key: the animation key
	//
	// Returns:
	//   - float32: the duration
	//   - error: ErrAnimationNotFound for unknown keys
	Duration(key string) (float32, error)

	// TimeRatio returns the current normalized time of an animation.
	//
	// Parameters:
	//   - key: the animation key
	//
	// Returns:
	//   - float32: the ratio, negative while a restart is pending
	//   - error: ErrAnimationNotFound for unknown keys
	TimeRatio(key string) (float32, error)

	// Crossfade moves weight from one animation to another over duration seconds of simulation time.
	// The outgoing weight eases to 0 and the incoming weight to 1. Any fade already driving either
	// animation is cancelled. A non-positive duration applies the final weights immediately.
	//
	// Parameters:
	//   - fromKey: the animation fading out
	//   - toKey: the animation fading in
	//   - duration: the fade length in seconds
	//   - easeFn: the easing curve; nil uses ease.Linear
	//
	// Returns:
	//   - error: ErrAnimationNotFound if either key is unknown
	Crossfade(fromKey, toKey string, duration float32, easeFn ease.TweenFunc) error

	// JointIndex looks up a joint by name.
	//
	// Parameters:
	//   - name: the joint name
	//
	// Returns:
	//   - int32: the joint index, or -1 if absent
	JointIndex(name string) int32

	// JointName returns the name of a joint, or an empty string for invalid indices.
	//
	// Parameters:
	//   - index: the joint index
	//
	// Returns:
	//   - string: the joint name
	JointName(index int32) string

	// Update advances every animation to simTime, blends the weighted samplers into the local pose and
	// recomputes all model-space matrices. When paused, samplers and crossfades hold their state but the
	// pose is still rebuilt. On error the previous pose and matrices are kept.
	//
	// Parameters:
	//   - simTime: the absolute simulation time in seconds
	//   - paused: true to freeze playback
	//
	// Returns:
	//   - error: an error if sampling or blending failed
	Update(simTime float64, paused bool) error

	// UpdateAimIK orients a joint chain toward a model-space target. See SolveAimChain.
	//
	// Parameters:
	//   - target: the model-space point to aim at
	//   - chain: the links, from the aiming joint toward its ancestors
	//   - offset: the aiming origin in the first link's local space
	//   - pole: the model-space pole direction
	//
	// Returns:
	//   - error: ErrInvalidIKChain if the chain is invalid; nothing is modified in that case
	UpdateAimIK(target mgl32.Vec3, chain []AimLink, offset, pole mgl32.Vec3) error

	// UpdateTwoBoneIK solves a two-bone chain toward a target. See SolveTwoBone.
	// A zero Soften uses the configured default.
	//
	// Parameters:
	//   - req: the solve request
	//
	// Returns:
	//   - bool: true if the target is reached
	//   - error: ErrInvalidJoint if a joint index is invalid
	UpdateTwoBoneIK(req TwoBoneRequest) (bool, error)

	// LocalPose returns the current local pose. The slice is owned by the instance and is rewritten in place
	// by every Update and IK pass; copy it to keep a snapshot.
	//
	// Returns:
	//   - []model.Transform: one local transform per joint
	LocalPose() []model.Transform

	// ModelMatrices returns the current model-space matrices. The slice is owned by the instance.
	//
	// Returns:
	//   - []mgl32.Mat4: one matrix per joint
	ModelMatrices() []mgl32.Mat4

	// SetModelOverride pins the model matrix of a joint; descendants follow it until the override is cleared.
	//
	// Parameters:
	//   - joint: the joint index
	//   - m: the model-space matrix
	//
	// Returns:
	//   - error: ErrInvalidJoint for invalid indices
	SetModelOverride(joint int32, m mgl32.Mat4) error

	// ClearModelOverride removes a pinned model matrix and re-evaluates the joint's subtree.
	//
	// Parameters:
	//   - joint: the joint index
	//
	// Returns:
	//   - bool: true if an override was removed
	ClearModelOverride(joint int32) bool

	// ComputeSkeletonBounds returns the axis-aligned bounds of every joint origin in model space.
	//
	// Returns:
	//   - mgl32.Vec3: the minimum corner
	//   - mgl32.Vec3: the maximum corner
	ComputeSkeletonBounds() (mgl32.Vec3, mgl32.Vec3)

	// PrepareSkinning builds the skinning palette of a mesh from the current model-space matrices.
	// The returned slice is reused by the next call.
	//
	// Parameters:
	//   - skin: the mesh's joint remap and inverse bind poses
	//
	// Returns:
	//   - []mgl32.Mat4: the palette
	//   - error: ErrInvalidSkin if the skin does not fit the skeleton
	PrepareSkinning(skin *model.MeshSkin) ([]mgl32.Mat4, error)

	// ApplyToMesh prepares a mesh's palette and hands it to sink.
	//
	// Parameters:
	//   - skin: the mesh's joint remap and inverse bind poses
	//   - sink: the palette consumer
	//
	// Returns:
	//   - error: a skinning or sink error
	ApplyToMesh(skin *model.MeshSkin, sink PaletteSink) error
}

var _ PlayerAnimation = &playerAnimation{}

// NewPlayerAnimation creates an instance bound to skeleton, posed in the skeleton's rest pose.
//
// Parameters:
//   - skeleton: the shared skeleton
//   - options: functional options configuring the instance
//
// Returns:
//   - PlayerAnimation: the new instance
//   - error: ErrNilSkeleton if skeleton is nil
func NewPlayerAnimation(skeleton *model.Skeleton, options ...PlayerAnimationBuilderOption) (PlayerAnimation, error) {
	if skeleton == nil {
		return nil, common.ErrNilSkeleton
	}

	cfg := config.DefaultAnimationConfig()
	p := &playerAnimation{
		mu:       &sync.Mutex{},
		id:       uuid.New(),
		skeleton: skeleton,
		cfg:      cfg,
		blend: BlendOptions{
			Threshold:           cfg.BlendThreshold,
			ContributionEpsilon: cfg.ContributionEpsilon,
		},
		samplers:     make(map[string]*AnimationSampler),
		rest:         skeleton.RestPose(),
		locals:       skeleton.RestPose(),
		blendScratch: make([]model.Transform, skeleton.JointCount()),
		models:       make([]mgl32.Mat4, skeleton.JointCount()),
		evaluator:    NewPoseEvaluator(skeleton),
	}
	for _, opt := range options {
		opt(p)
	}

	if err := p.evaluator.Evaluate(p.locals, p.models, -1); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPlayerAnimationFromModel creates an instance for a model's skeleton and loads every clip of the model
// under its clip name.
//
// Parameters:
//   - m: the model bundle
//   - options: functional options configuring the instance
//
// Returns:
//   - PlayerAnimation: the new instance
//   - error: the model's validation error, if any
func NewPlayerAnimationFromModel(m model.Model, options ...PlayerAnimationBuilderOption) (PlayerAnimation, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	p, err := NewPlayerAnimation(m.Skeleton(), options...)
	if err != nil {
		return nil, err
	}
	for _, clip := range m.Animations() {
		if err := p.LoadAnimation(clip.Name, clip); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *playerAnimation) ID() uuid.UUID {
	return p.id
}

func (p *playerAnimation) Skeleton() *model.Skeleton {
	return p.skeleton
}

func (p *playerAnimation) LoadAnimation(key string, clip *model.AnimationClip) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if clip == nil {
		common.LogWarn("load animation %q: %v", key, common.ErrNilClip)
		return fmt.Errorf("load animation %q: %w", key, common.ErrNilClip)
	}
	if err := clip.Validate(p.skeleton.JointCount()); err != nil {
		common.LogWarn("load animation %q: %v", key, err)
		return fmt.Errorf("load animation %q: %w", key, err)
	}

	if _, exists := p.samplers[key]; !exists {
		p.keys = append(p.keys, key)
		slices.Sort(p.keys)
	}
	p.removeFades(key)
	p.samplers[key] = newAnimationSampler(clip, p.cfg.DefaultPlaybackSpeed)
	common.LogDebug("loaded animation %q (%s, %.3fs)", key, clip.Name, clip.Duration)
	return nil
}

func (p *playerAnimation) UnloadAnimation(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.samplers[key]; !ok {
		return false
	}
	delete(p.samplers, key)
	p.keys = slices.DeleteFunc(p.keys, func(k string) bool { return k == key })
	p.removeFades(key)
	return true
}

func (p *playerAnimation) Animations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.keys)
}

func (p *playerAnimation) Sampler(key string) (*AnimationSampler, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lookup(key)
}

func (p *playerAnimation) Select(key string, weight float32, looping bool) error {
	return p.SelectPartial(key, weight, looping, nil)
}

func (p *playerAnimation) SelectPartial(key string, weight float32, looping bool, fn JointWeightFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.lookup(key)
	if err != nil {
		return err
	}
	s.SetWeight(weight)
	s.SetLooping(looping)
	s.SetJointWeights(p.skeleton, fn)
	return nil
}

func (p *playerAnimation) Seek(key string, ratio float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.lookup(key)
	if err != nil {
		return err
	}
	s.Seek(common.Clamp(ratio, 0, 1))
	return nil
}

func (p *playerAnimation) SetPlaybackSpeed(key string, speed float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.lookup(key)
	if err != nil {
		return err
	}
	s.SetPlaybackSpeed(speed)
	return nil
}

func (p *playerAnimation) Duration(key string) (float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.lookup(key)
	if err != nil {
		return 0, err
	}
	return s.Duration(), nil
}

func (p *playerAnimation) TimeRatio(key string) (float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.lookup(key)
	if err != nil {
		return 0, err
	}
	return s.TimeRatio(), nil
}

func (p *playerAnimation) Crossfade(fromKey, toKey string, duration float32, easeFn ease.TweenFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	from, err := p.lookup(fromKey)
	if err != nil {
		return err
	}
	to, err := p.lookup(toKey)
	if err != nil {
		return err
	}

	p.removeFades(fromKey)
	p.removeFades(toKey)
	if duration <= 0 {
		from.SetWeight(0)
		to.SetWeight(1)
		return nil
	}
	p.fades = append(p.fades, newCrossfade(fromKey, toKey, from, to, duration, easeFn))
	return nil
}

func (p *playerAnimation) JointIndex(name string) int32 {
	return p.skeleton.JointIndex(name)
}

func (p *playerAnimation) JointName(index int32) string {
	return p.skeleton.JointName(index)
}

func (p *playerAnimation) Update(simTime float64, paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.checkpoint()

	var dt float32
	if p.hasSimTime {
		dt = float32(simTime - p.lastSimTime)
	}
	p.lastSimTime = simTime
	p.hasSimTime = true

	if !paused && dt > 0 {
		p.fades = slices.DeleteFunc(p.fades, func(c *crossfade) bool {
			return c.advance(dt)
		})
	}

	p.layers = p.layers[:0]
	for _, key := range p.keys {
		s := p.samplers[key]
		s.Advance(simTime, paused)
		if s.Weight() <= 0 {
			continue
		}
		if err := s.Sample(p.rest); err != nil {
			p.rollback()
			common.LogError("sample animation %q: %v", key, err)
			return fmt.Errorf("sample animation %q: %w", key, err)
		}
		p.layers = append(p.layers, s.layer())
	}

	if err := Blend(p.layers, p.rest, p.blend, p.blendScratch); err != nil {
		p.rollback()
		common.LogError("blend: %v", err)
		return fmt.Errorf("blend: %w", err)
	}
	copy(p.locals, p.blendScratch)

	return p.evaluator.Evaluate(p.locals, p.models, -1)
}

// checkpoint records the clock, fade and sampler playback state so a failed Update can be undone.
func (p *playerAnimation) checkpoint() {
	p.undo.lastSimTime, p.undo.hasSimTime = p.lastSimTime, p.hasSimTime
	p.undo.fades = append(p.undo.fades[:0], p.fades...)
	p.undo.fadeStates = p.undo.fadeStates[:0]
	for _, c := range p.fades {
		p.undo.fadeStates = append(p.undo.fadeStates, c.state())
	}
	p.undo.samplers = p.undo.samplers[:0]
	for _, key := range p.keys {
		p.undo.samplers = append(p.undo.samplers, p.samplers[key].state())
	}
}

func (p *playerAnimation) rollback() {
	p.lastSimTime, p.hasSimTime = p.undo.lastSimTime, p.undo.hasSimTime
	p.fades = append(p.fades[:0], p.undo.fades...)
	for i, c := range p.fades {
		c.restore(p.undo.fadeStates[i])
	}
	for i, key := range p.keys {
		p.samplers[key].restore(p.undo.samplers[i])
	}
}

func (p *playerAnimation) UpdateAimIK(target mgl32.Vec3, chain []AimLink, offset, pole mgl32.Vec3) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := SolveAimChain(p.locals, p.models, p.evaluator, target, chain, offset, pole); err != nil {
		common.LogWarn("aim ik: %v", err)
		return err
	}
	return nil
}

func (p *playerAnimation) UpdateTwoBoneIK(req TwoBoneRequest) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	req.Soften = common.Coalesce(req.Soften, p.cfg.TwoBoneSoften)
	reached, err := SolveTwoBone(p.locals, p.models, p.evaluator, req)
	if err != nil {
		common.LogWarn("two-bone ik: %v", err)
		return false, err
	}
	return reached, nil
}

func (p *playerAnimation) LocalPose() []model.Transform {
	return p.locals
}

func (p *playerAnimation) ModelMatrices() []mgl32.Mat4 {
	return p.models
}

func (p *playerAnimation) SetModelOverride(joint int32, m mgl32.Mat4) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.evaluator.SetOverride(joint, m); err != nil {
		common.LogWarn("model override: %v", err)
		return err
	}
	return p.evaluator.Evaluate(p.locals, p.models, joint)
}

func (p *playerAnimation) ClearModelOverride(joint int32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.evaluator.ClearOverride(joint) {
		return false
	}
	_ = p.evaluator.Evaluate(p.locals, p.models, joint)
	return true
}

func (p *playerAnimation) ComputeSkeletonBounds() (mgl32.Vec3, mgl32.Vec3) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.models) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo := common.MatrixTranslation(p.models[0])
	hi := lo
	for _, m := range p.models[1:] {
		pos := common.MatrixTranslation(m)
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], pos[a])
			hi[a] = max(hi[a], pos[a])
		}
	}
	return lo, hi
}

func (p *playerAnimation) PrepareSkinning(skin *model.MeshSkin) ([]mgl32.Mat4, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prepareSkinning(skin)
}

func (p *playerAnimation) ApplyToMesh(skin *model.MeshSkin, sink PaletteSink) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	palette, err := p.prepareSkinning(skin)
	if err != nil {
		return err
	}
	if err := sink.WritePalette(palette); err != nil {
		common.LogError("write palette: %v", err)
		return fmt.Errorf("write palette: %w", err)
	}
	return nil
}

func (p *playerAnimation) prepareSkinning(skin *model.MeshSkin) ([]mgl32.Mat4, error) {
	if skin == nil {
		return nil, fmt.Errorf("nil skin: %w", common.ErrInvalidSkin)
	}
	if cap(p.palette) < len(skin.JointRemap) {
		p.palette = make([]mgl32.Mat4, len(skin.JointRemap))
	}
	p.palette = p.palette[:len(skin.JointRemap)]

	if err := PrepareSkinning(p.models, skin.JointRemap, skin.InverseBindPoses, p.palette); err != nil {
		common.LogWarn("prepare skinning: %v", err)
		return nil, err
	}
	return p.palette, nil
}

// lookup returns the sampler under key. Callers hold mu.
func (p *playerAnimation) lookup(key string) (*AnimationSampler, error) {
	s, ok := p.samplers[key]
	if !ok {
		common.LogWarn("animation %q is not loaded", key)
		return nil, fmt.Errorf("%q: %w", key, common.ErrAnimationNotFound)
	}
	return s, nil
}

// removeFades cancels every crossfade driving key. Callers hold mu.
func (p *playerAnimation) removeFades(key string) {
	p.fades = slices.DeleteFunc(p.fades, func(c *crossfade) bool {
		return c.touches(key)
	})
}
