package animator

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/google/uuid"
)

// PlayerAnimationBuilderOption is a functional option for configuring a PlayerAnimation via NewPlayerAnimation.
type PlayerAnimationBuilderOption func(*playerAnimation)

// WithConfig is an option builder that applies an AnimationConfig to the PlayerAnimation.
// It sets the default playback speed of samplers loaded afterwards, the blend options and the two-bone soften default.
//
// Parameters:
//   - cfg: the animation config
//
// Returns:
//   - PlayerAnimationBuilderOption: a function that applies the config option to a PlayerAnimation
func WithConfig(cfg config.AnimationConfig) PlayerAnimationBuilderOption {
	return func(p *playerAnimation) {
		p.cfg = cfg
		p.blend = BlendOptions{
			Threshold:           cfg.BlendThreshold,
			ContributionEpsilon: cfg.ContributionEpsilon,
		}
	}
}

// WithBlendOptions is an option builder that overrides the blend options of the PlayerAnimation.
//
// Parameters:
//   - opts: the blend options
//
// Returns:
//   - PlayerAnimationBuilderOption: a function that applies the blend options to a PlayerAnimation
func WithBlendOptions(opts BlendOptions) PlayerAnimationBuilderOption {
	return func(p *playerAnimation) {
		p.blend = opts
	}
}

// WithID is an option builder that sets the identity of the PlayerAnimation instead of generating one.
//
// Parameters:
//   - id: the instance identifier
//
// Returns:
//   - PlayerAnimationBuilderOption: a function that applies the id option to a PlayerAnimation
func WithID(id uuid.UUID) PlayerAnimationBuilderOption {
	return func(p *playerAnimation) {
		p.id = id
	}
}
