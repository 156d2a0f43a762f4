package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultBlendThreshold      float32 = 0.1
	DefaultContributionEpsilon float32 = 1e-6
	DefaultPlaybackSpeed       float32 = 1
	DefaultTwoBoneSoften       float32 = 1
	DefaultLogLevel            string  = "info"
)

// AnimationConfig holds the tunables of the animation runtime.
// Keys missing from a parsed file keep their defaults, so a config file only needs the keys it overrides.
type AnimationConfig struct {
	// BlendThreshold is the accumulated weight below which the rest pose fills in the remainder.
	BlendThreshold float32 `toml:"blend_threshold"`

	// ContributionEpsilon is the per-joint effective weight at or below which a layer is skipped.
	ContributionEpsilon float32 `toml:"contribution_epsilon"`

	// DefaultPlaybackSpeed is the speed new samplers start with.
	DefaultPlaybackSpeed float32 `toml:"default_playback_speed"`

	// TwoBoneSoften is the soften ratio used when a two-bone request leaves it unset.
	TwoBoneSoften float32 `toml:"two_bone_soften"`

	// LogLevel is the process log level.
	LogLevel string `toml:"log_level"`

	// CrowdWorkers is the worker count of crowd update pools.
	CrowdWorkers int `toml:"crowd_workers"`
}

// DefaultAnimationConfig returns the configuration used when no file is provided.
func DefaultAnimationConfig() AnimationConfig {
	return AnimationConfig{
		BlendThreshold:       DefaultBlendThreshold,
		ContributionEpsilon:  DefaultContributionEpsilon,
		DefaultPlaybackSpeed: DefaultPlaybackSpeed,
		TwoBoneSoften:        DefaultTwoBoneSoften,
		LogLevel:             DefaultLogLevel,
		CrowdWorkers:         defaultCrowdWorkers(),
	}
}

func defaultCrowdWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// ParseAnimationConfig decodes a TOML document over the defaults and validates the result.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - AnimationConfig: the parsed configuration
//   - error: a decode error, or ErrInvalidConfig if a value is out of range
func ParseAnimationConfig(data []byte) (AnimationConfig, error) {
	// Keys present in the document overwrite the defaults, including explicit zeros.
	cfg := DefaultAnimationConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return AnimationConfig{}, fmt.Errorf("decode animation config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return AnimationConfig{}, err
	}
	return cfg, nil
}

// LoadAnimationConfig reads and parses a TOML config file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - AnimationConfig: the parsed configuration
//   - error: a read, decode or validation error
func LoadAnimationConfig(path string) (AnimationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AnimationConfig{}, fmt.Errorf("read animation config %s: %w", path, err)
	}
	return ParseAnimationConfig(data)
}

// Validate checks every field for a usable value.
//
// Returns:
//   - error: ErrInvalidConfig naming the first offending field, or nil
func (c AnimationConfig) Validate() error {
	switch {
	case c.BlendThreshold <= 0 || !common.IsFinite(c.BlendThreshold):
		return fmt.Errorf("blend_threshold %f must be positive: %w", c.BlendThreshold, common.ErrInvalidConfig)
	case c.ContributionEpsilon < 0 || !common.IsFinite(c.ContributionEpsilon):
		return fmt.Errorf("contribution_epsilon %f must be non-negative: %w", c.ContributionEpsilon, common.ErrInvalidConfig)
	case !common.IsFinite(c.DefaultPlaybackSpeed):
		return fmt.Errorf("default_playback_speed %f must be finite: %w", c.DefaultPlaybackSpeed, common.ErrInvalidConfig)
	case c.TwoBoneSoften < 0 || c.TwoBoneSoften > 1:
		return fmt.Errorf("two_bone_soften %f must be within [0, 1]: %w", c.TwoBoneSoften, common.ErrInvalidConfig)
	case c.CrowdWorkers < 1:
		return fmt.Errorf("crowd_workers %d must be at least 1: %w", c.CrowdWorkers, common.ErrInvalidConfig)
	}
	return nil
}

// Apply pushes process-wide settings (currently the log level) into effect.
func (c AnimationConfig) Apply() error {
	if err := common.SetLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level %q: %w", c.LogLevel, common.ErrInvalidConfig)
	}
	return nil
}
