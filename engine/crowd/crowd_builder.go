package crowd

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
)

// CrowdBuilderOption is a functional option for configuring a Crowd via NewCrowd.
type CrowdBuilderOption func(*crowd)

// WithWorkers is an option builder that sets the number of pool workers.
// Non-positive values keep the configured default.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - CrowdBuilderOption: a function that applies the workers option to a crowd
func WithWorkers(workers int) CrowdBuilderOption {
	return func(c *crowd) {
		if workers > 0 {
			c.workers = workers
		}
	}
}

// WithConfig is an option builder that takes the worker count from an AnimationConfig.
//
// Parameters:
//   - cfg: the animation configuration
//
// Returns:
//   - CrowdBuilderOption: a function that applies the config option to a crowd
func WithConfig(cfg config.AnimationConfig) CrowdBuilderOption {
	return func(c *crowd) {
		if cfg.CrowdWorkers > 0 {
			c.workers = cfg.CrowdWorkers
		}
	}
}

// WithProfiler is an option builder that records every Update duration on p.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - CrowdBuilderOption: a function that applies the profiler option to a crowd
func WithProfiler(p *profiler.Profiler) CrowdBuilderOption {
	return func(c *crowd) {
		c.profiler = p
	}
}

// WithPostUpdate is an option builder that runs fn on each instance right after its Update,
// inside the same worker task. Typical uses are IK passes and ApplyToMesh.
//
// Parameters:
//   - fn: the per-instance hook
//
// Returns:
//   - CrowdBuilderOption: a function that applies the hook option to a crowd
func WithPostUpdate(fn func(animator.PlayerAnimation) error) CrowdBuilderOption {
	return func(c *crowd) {
		c.postUpdate = fn
	}
}

// WithVisibility is an option builder that gates the post-update hook. Instances for which visible returns
// false are still updated but skip the hook, so off-screen members do not upload palettes.
//
// Parameters:
//   - visible: the per-instance visibility test
//
// Returns:
//   - CrowdBuilderOption: a function that applies the visibility option to a crowd
func WithVisibility(visible func(animator.PlayerAnimation) bool) CrowdBuilderOption {
	return func(c *crowd) {
		c.visible = visible
	}
}
