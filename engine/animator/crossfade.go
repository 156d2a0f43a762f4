package animator

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// crossfade moves weight from one sampler to another over simulation time.
type crossfade struct {
	fromKey, toKey string
	from, to       *AnimationSampler

	fadeOut, fadeIn *gween.Tween
}

func newCrossfade(fromKey, toKey string, from, to *AnimationSampler, duration float32, easeFn ease.TweenFunc) *crossfade {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	return &crossfade{
		fromKey: fromKey,
		toKey:   toKey,
		from:    from,
		to:      to,
		fadeOut: gween.New(from.Weight(), 0, duration, easeFn),
		fadeIn:  gween.New(to.Weight(), 1, duration, easeFn),
	}
}

// advance steps both tweens and writes the weights back. It reports whether the fade finished.
func (c *crossfade) advance(dt float32) bool {
	outWeight, outDone := c.fadeOut.Update(dt)
	inWeight, inDone := c.fadeIn.Update(dt)
	c.from.SetWeight(outWeight)
	c.to.SetWeight(inWeight)
	return outDone && inDone
}

// touches reports whether the fade drives the sampler with the given key.
func (c *crossfade) touches(key string) bool {
	return c.fromKey == key || c.toKey == key
}

type crossfadeState struct {
	fadeOut, fadeIn gween.Tween
}

func (c *crossfade) state() crossfadeState {
	return crossfadeState{fadeOut: *c.fadeOut, fadeIn: *c.fadeIn}
}

func (c *crossfade) restore(st crossfadeState) {
	*c.fadeOut, *c.fadeIn = st.fadeOut, st.fadeIn
}
