package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithSkeleton is an option builder that sets the joint hierarchy of the Model.
//
// Parameters:
//   - skeleton: the skeleton to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the skeleton option to a model
func WithSkeleton(skeleton *Skeleton) ModelBuilderOption {
	return func(m *model) {
		m.skeleton = skeleton
	}
}

// WithAnimations is an option builder that sets the animation clips of the Model.
//
// Parameters:
//   - animations: the animation clips to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the animations option to a model
func WithAnimations(animations []*AnimationClip) ModelBuilderOption {
	return func(m *model) {
		m.animations = animations
	}
}

// WithSkin is an option builder that registers the skin binding of a named mesh.
// Calling it again with the same mesh name replaces the earlier skin.
//
// Parameters:
//   - mesh: the mesh name
//   - skin: the skin binding
//
// Returns:
//   - ModelBuilderOption: a function that applies the skin option to a model
func WithSkin(mesh string, skin *MeshSkin) ModelBuilderOption {
	return func(m *model) {
		m.skins[mesh] = skin
	}
}
