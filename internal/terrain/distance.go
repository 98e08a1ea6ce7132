package terrain

import (
	"voxtrace/internal/gpu"
	"voxtrace/internal/profiling"
)

// Directions are the diagonal sweep directions, in dispatch order.
var Directions = [8][3]int32{
	{1, 1, 1},
	{-1, -1, -1},
	{1, 1, -1},
	{-1, -1, 1},
	{1, -1, 1},
	{-1, 1, -1},
	{1, -1, -1},
	{-1, 1, 1},
}

// sweepPasses is how many times the direction sequence is dispatched.
const sweepPasses = 2

// DistanceField rebuilds a slot's distance buffer from its block buffer.
// Each cell ends up holding the Chebyshev distance to the nearest occupied
// cell of the same chunk, capped at the edge length. Chebyshev distance never
// exceeds Euclidean distance, so a raymarcher may step by it safely.
type DistanceField struct {
	sched *gpu.Scheduler
	pool  *gpu.SlotPool
}

func NewDistanceField(sched *gpu.Scheduler, pool *gpu.SlotPool) *DistanceField {
	return &DistanceField{sched: sched, pool: pool}
}

// Build queues the setup dispatch and every sweep for slot. Work is left in
// flight; the next WaitAndReset observes completion.
func (f *DistanceField) Build(slot int) error {
	defer profiling.Track("terrain.DistanceField")()
	if err := f.sched.WaitAndReset(); err != nil {
		return err
	}
	edge := int32(f.pool.Edge())
	s := f.pool.Slot(slot)
	cells := uint32(edge) * uint32(edge) * uint32(edge)

	f.sched.Submit(gpu.Dispatch{
		Kernel:  gpu.KernelDistanceSetup,
		Groups:  [3]uint32{(cells + 255) / 256, 1, 1},
		Params:  [8]int32{3: edge},
		Buffers: []gpu.BufferID{s.Blocks, s.Distance},
	})
	for range sweepPasses {
		for _, d := range Directions {
			f.sched.Submit(gpu.Dispatch{
				Kernel:  gpu.KernelDistanceSweep,
				Groups:  [3]uint32{1, 1, 1},
				Params:  [8]int32{d[0], d[1], d[2], edge},
				Buffers: []gpu.BufferID{s.Distance},
			})
		}
	}
	return nil
}
