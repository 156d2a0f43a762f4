package crowd

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/google/uuid"
)

// crowd is the implementation of the Crowd interface.
type crowd struct {
	mu       *sync.Mutex
	updateMu *sync.Mutex

	instances map[uuid.UUID]animator.PlayerAnimation
	order     []uuid.UUID

	workers    int
	pool       worker.DynamicWorkerPool
	profiler   *profiler.Profiler
	postUpdate func(animator.PlayerAnimation) error
	visible    func(animator.PlayerAnimation) bool
}

// Crowd updates many independent PlayerAnimation instances per tick on a shared worker pool.
//
// Each instance is touched by exactly one task per Update, and Update returns only after every task finished,
// so instances never run on two goroutines at once. Skeletons and clips may be shared between members.
type Crowd interface {
	// Add registers an instance under its ID.
	//
	// Parameters:
	//   - p: the instance to add
	//
	// Returns:
	//   - error: ErrNilInstance or ErrDuplicateInstance
	Add(p animator.PlayerAnimation) error

	// Remove unregisters the instance with the given ID.
	//
	// Parameters:
	//   - id: the instance ID
	//
	// Returns:
	//   - bool: true if an instance was removed
	Remove(id uuid.UUID) bool

	// Get returns the instance with the given ID.
	//
	// Parameters:
	//   - id: the instance ID
	//
	// Returns:
	//   - animator.PlayerAnimation: the instance, or nil
	//   - bool: true if the instance is registered
	Get(id uuid.UUID) (animator.PlayerAnimation, bool)

	// Len returns the number of registered instances.
	//
	// Returns:
	//   - int: the instance count
	Len() int

	// IDs returns the registered instance IDs in a stable order.
	//
	// Returns:
	//   - []uuid.UUID: the IDs sorted by their string form
	IDs() []uuid.UUID

	// Update advances every instance to simTime in parallel, then runs the post-update hook on each visible one.
	// One failing instance does not stop the others.
	//
	// Parameters:
	//   - simTime: the absolute simulation time in seconds
	//   - paused: true to freeze playback
	//
	// Returns:
	//   - error: every instance error joined together, each tagged with its instance ID
	Update(simTime float64, paused bool) error
}

var _ Crowd = &crowd{}

// NewCrowd creates an empty Crowd and starts its worker pool.
//
// Parameters:
//   - options: functional options configuring the crowd
//
// Returns:
//   - Crowd: the new crowd
func NewCrowd(options ...CrowdBuilderOption) Crowd {
	c := &crowd{
		mu:        &sync.Mutex{},
		updateMu:  &sync.Mutex{},
		instances: make(map[uuid.UUID]animator.PlayerAnimation),
		workers:   config.DefaultAnimationConfig().CrowdWorkers,
	}

	for _, option := range options {
		option(c)
	}

	// Created after options so WithWorkers can override the default.
	c.pool = worker.NewDynamicWorkerPool(c.workers, 256, 1*time.Second)

	return c
}

func (c *crowd) Add(p animator.PlayerAnimation) error {
	if p == nil {
		common.LogWarn("crowd add: %v", common.ErrNilInstance)
		return common.ErrNilInstance
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := p.ID()
	if _, exists := c.instances[id]; exists {
		common.LogWarn("crowd add %s: %v", id, common.ErrDuplicateInstance)
		return fmt.Errorf("%s: %w", id, common.ErrDuplicateInstance)
	}
	c.instances[id] = p
	c.order = append(c.order, id)
	slices.SortFunc(c.order, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})
	return nil
}

func (c *crowd) Remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.instances[id]; !ok {
		return false
	}
	delete(c.instances, id)
	c.order = slices.DeleteFunc(c.order, func(other uuid.UUID) bool { return other == id })
	return true
}

func (c *crowd) Get(id uuid.UUID) (animator.PlayerAnimation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.instances[id]
	return p, ok
}

func (c *crowd) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.instances)
}

func (c *crowd) IDs() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}

func (c *crowd) Update(simTime float64, paused bool) error {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()

	c.mu.Lock()
	members := make([]animator.PlayerAnimation, len(c.order))
	for i, id := range c.order {
		members[i] = c.instances[id]
	}
	c.mu.Unlock()

	start := time.Now()

	// The pool's own Wait blocks until workers idle out, so each tick uses a WaitGroup as its barrier.
	errs := make([]error, len(members))
	var wg sync.WaitGroup
	for i, p := range members {
		wg.Add(1)
		idx, member := i, p
		c.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				errs[idx] = c.updateMember(member, simTime, paused)
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	if c.profiler != nil {
		c.profiler.Record(time.Since(start))
	}

	err := errors.Join(errs...)
	if err != nil {
		common.LogError("crowd update at %.3fs: %v", simTime, err)
	}
	return err
}

func (c *crowd) updateMember(p animator.PlayerAnimation, simTime float64, paused bool) error {
	if err := p.Update(simTime, paused); err != nil {
		return fmt.Errorf("instance %s: %w", p.ID(), err)
	}
	if c.postUpdate == nil || (c.visible != nil && !c.visible(p)) {
		return nil
	}
	if err := c.postUpdate(p); err != nil {
		return fmt.Errorf("instance %s post-update: %w", p.ID(), err)
	}
	return nil
}
