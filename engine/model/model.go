package model

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// model is the implementation of the Model interface.
type model struct {
	name       string
	skeleton   *Skeleton
	animations []*AnimationClip
	skins      map[string]*MeshSkin
}

// Model defines the interface for an animation asset bundle.
// A Model groups a skeleton with the clips authored for it and the skins of the meshes bound to it.
// It is produced by an asset collaborator; the animation runtime only reads it.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Skeleton retrieves the joint hierarchy for this model.
	//
	// Returns:
	//   - *Skeleton: the skeleton
	Skeleton() *Skeleton

	// Animations retrieves all animation clips bundled with this model.
	//
	// Returns:
	//   - []*AnimationClip: the animation clips
	Animations() []*AnimationClip

	// AnimationCount returns the number of available animation clips.
	//
	// Returns:
	//   - int: the animation count
	AnimationCount() int

	// AnimationNames returns the names of all animation clips in bundle order.
	//
	// Returns:
	//   - []string: the animation names
	AnimationNames() []string

	// Skin retrieves the skin binding of a named mesh.
	//
	// Parameters:
	//   - mesh: the mesh name
	//
	// Returns:
	//   - *MeshSkin: the skin, or nil if the model has no mesh with that name
	Skin(mesh string) *MeshSkin

	// SkinNames returns the sorted names of every skinned mesh in the model.
	//
	// Returns:
	//   - []string: the mesh names
	SkinNames() []string

	// Validate checks every clip and skin against the skeleton.
	//
	// Returns:
	//   - error: the first validation failure, or nil
	Validate() error
}

var _ Model = &model{}

// NewModel creates a new Model with the provided options.
//
// Parameters:
//   - options: functional options configuring the model
//
// Returns:
//   - Model: the newly created model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		skins: make(map[string]*MeshSkin),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Skeleton() *Skeleton {
	return m.skeleton
}

func (m *model) Animations() []*AnimationClip {
	return m.animations
}

func (m *model) AnimationCount() int {
	return len(m.animations)
}

func (m *model) AnimationNames() []string {
	names := make([]string, len(m.animations))
	for i, a := range m.animations {
		names[i] = a.Name
	}
	return names
}

func (m *model) Skin(mesh string) *MeshSkin {
	return m.skins[mesh]
}

func (m *model) SkinNames() []string {
	names := make([]string, 0, len(m.skins))
	for name := range m.skins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *model) Validate() error {
	if m.skeleton == nil {
		return fmt.Errorf("model %q: %w", m.name, common.ErrNilSkeleton)
	}
	jointCount := m.skeleton.JointCount()
	for _, clip := range m.animations {
		if clip == nil {
			return fmt.Errorf("model %q: %w", m.name, common.ErrNilClip)
		}
		if err := clip.Validate(jointCount); err != nil {
			return fmt.Errorf("model %q: %w", m.name, err)
		}
	}
	for _, name := range m.SkinNames() {
		if err := m.skins[name].Validate(jointCount); err != nil {
			return fmt.Errorf("model %q mesh %q: %w", m.name, name, err)
		}
	}
	return nil
}

// Validate checks that the skin's remap table and inverse bind poses line up and address valid joints.
//
// Parameters:
//   - jointCount: the joint count of the skeleton driving the mesh
//
// Returns:
//   - error: ErrInvalidSkin describing the first problem found
func (s *MeshSkin) Validate(jointCount int) error {
	if len(s.JointRemap) != len(s.InverseBindPoses) {
		return fmt.Errorf("%d remap entries for %d inverse bind poses: %w", len(s.JointRemap), len(s.InverseBindPoses), common.ErrInvalidSkin)
	}
	for k, j := range s.JointRemap {
		if j < 0 || int(j) >= jointCount {
			return fmt.Errorf("palette slot %d references joint %d of %d: %w", k, j, jointCount, common.ErrInvalidSkin)
		}
	}
	return nil
}
