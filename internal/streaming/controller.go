// Package streaming keeps the device slot arena in step with the viewer.
package streaming

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"voxtrace/internal/gpu"
	"voxtrace/internal/profiling"
	"voxtrace/internal/terrain"
	"voxtrace/internal/world"
)

// Report summarises the work done by one Tick.
type Report struct {
	Viewer    world.ChunkCoord `json:"viewer"`
	Refreshed int              `json:"refreshed"`
	Generated int              `json:"generated"`
	Stored    int              `json:"stored"`
	Elapsed   time.Duration    `json:"elapsed_ns"`
}

// Controller refreshes slots as the viewer crosses chunk boundaries and
// applies single-block edits to both the store and the device.
//
// The controller records which chunk each slot holds. A slot is refreshed
// whenever the chunk the window now maps to it differs from its occupant,
// in addition to the plain distance rule, so a jump of exactly one window
// width still reloads the slot.
type Controller struct {
	store *world.ChunkStore
	sched *gpu.Scheduler
	pool  *gpu.SlotPool
	ring  world.Ring
	up    *terrain.Uploader
	df    *terrain.DistanceField
	log   *zap.Logger

	occupants []world.ChunkCoord
	occupied  []bool
}

// NewController creates a controller with every slot unoccupied.
func NewController(store *world.ChunkStore, sched *gpu.Scheduler, pool *gpu.SlotPool, log *zap.Logger) (*Controller, error) {
	if store.Edge() != pool.Edge() {
		return nil, fmt.Errorf("store edge %d does not match slot edge %d", store.Edge(), pool.Edge())
	}
	return &Controller{
		store:     store,
		sched:     sched,
		pool:      pool,
		ring:      pool.Ring(),
		up:        terrain.NewUploader(sched, pool),
		df:        terrain.NewDistanceField(sched, pool),
		log:       log,
		occupants: make([]world.ChunkCoord, pool.Len()),
		occupied:  make([]bool, pool.Len()),
	}, nil
}

// Store returns the backing chunk store.
func (c *Controller) Store() *world.ChunkStore { return c.store }

// Pool returns the slot arena.
func (c *Controller) Pool() *gpu.SlotPool { return c.pool }

// Occupant returns the chunk currently held by slot.
func (c *Controller) Occupant(slot int) (world.ChunkCoord, bool) {
	return c.occupants[slot], c.occupied[slot]
}

// Drain waits for all outstanding device work.
func (c *Controller) Drain() error {
	return c.sched.WaitAndReset()
}

// Tick refreshes every slot whose content is stale for a viewer in chunk cur.
// prev is the viewer chunk of the previous tick, nil on the first tick.
func (c *Controller) Tick(prev *world.ChunkCoord, cur world.ChunkCoord) (Report, error) {
	r := Report{Viewer: cur}
	if prev != nil && *prev == cur {
		r.Stored = c.store.Len()
		return r, nil
	}
	defer profiling.Track("streaming.Tick")()
	start := time.Now()

	if err := c.sched.WaitAndReset(); err != nil {
		return r, err
	}

	var tickErr error
	c.ring.Window(cur, func(cand world.ChunkCoord) bool {
		slot := c.ring.Slot(cand)
		if !c.stale(prev, cand, slot) {
			return true
		}
		generated, err := c.refresh(slot, cand)
		if err != nil {
			tickErr = fmt.Errorf("refresh slot %d with %v: %w", slot, cand, err)
			return false
		}
		r.Refreshed++
		if generated {
			r.Generated++
		}
		return true
	})

	r.Stored = c.store.Len()
	r.Elapsed = time.Since(start)
	if tickErr != nil {
		return r, tickErr
	}
	c.log.Debug("slots refreshed",
		zap.Stringer("viewer", cur),
		zap.Int("refreshed", r.Refreshed),
		zap.Int("generated", r.Generated),
		zap.Duration("elapsed", r.Elapsed))
	return r, nil
}

func (c *Controller) stale(prev *world.ChunkCoord, cand world.ChunkCoord, slot int) bool {
	switch {
	case prev == nil:
		return true
	case world.Chebyshev(cand, *prev) > c.ring.RenderDistance:
		return true
	default:
		return !c.occupied[slot] || c.occupants[slot] != cand
	}
}

func (c *Controller) refresh(slot int, coord world.ChunkCoord) (generated bool, err error) {
	generated = !c.store.HasChunk(coord)
	ch, err := c.store.GetOrGenerate(coord)
	if err != nil {
		return false, err
	}
	if err := c.up.Upload(slot, ch); err != nil {
		return false, err
	}
	if err := c.df.Build(slot); err != nil {
		return false, err
	}
	c.occupants[slot] = coord
	c.occupied[slot] = true
	return generated, nil
}

// PlaceBlock sets the block at p in the store and, when its chunk is
// resident, in the chunk's slot, then rebuilds that slot's distance field.
// It fails with world.ErrChunkNotLoaded if the chunk was never generated.
func (c *Controller) PlaceBlock(p world.BlockPos, id world.BlockID) error {
	defer profiling.Track("streaming.PlaceBlock")()
	edge := c.pool.Edge()
	coord := world.ChunkOf(p, edge)
	if !c.store.HasChunk(coord) {
		return fmt.Errorf("place block %v: %w: %v", p, world.ErrChunkNotLoaded, coord)
	}

	if err := c.sched.WaitAndReset(); err != nil {
		return err
	}
	if err := c.store.MutateBlock(p, id); err != nil {
		return err
	}

	slot := c.ring.Slot(coord)
	if !c.occupied[slot] || c.occupants[slot] != coord {
		c.log.Debug("edited chunk not resident", zap.Stringer("chunk", coord), zap.Int("slot", slot))
		return nil
	}
	if err := c.up.UploadBlock(slot, world.BlockOffset(p, edge), id); err != nil {
		return err
	}
	return c.df.Build(slot)
}
