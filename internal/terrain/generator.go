// Package terrain runs chunk generation and distance field construction on
// a gpu.Device, and moves chunk content between the host and slot buffers.
package terrain

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"voxtrace/internal/gpu"
	"voxtrace/internal/profiling"
	"voxtrace/internal/world"
)

// Generator produces chunk content with one terrain kernel dispatch per
// chunk and a blocking readback through the staging buffer.
// It implements world.Generator.
type Generator struct {
	sched  *gpu.Scheduler
	pool   *gpu.SlotPool
	seed   int64
	log    *zap.Logger
	buf    []byte
	groups uint32
}

// NewGenerator creates a generator writing into pool's staging buffer.
func NewGenerator(sched *gpu.Scheduler, pool *gpu.SlotPool, seed int64, log *zap.Logger) *Generator {
	edge := pool.Edge()
	return &Generator{
		sched:  sched,
		pool:   pool,
		seed:   seed,
		log:    log,
		buf:    make([]byte, gpu.BlockBufferSize(edge)),
		groups: uint32(edge / 8),
	}
}

func (g *Generator) Generate(coord world.ChunkCoord) (*world.Chunk, error) {
	defer profiling.Track("terrain.Generate")()
	edge := g.pool.Edge()

	// The staging buffer may still be the source of a queued copy.
	if err := g.sched.WaitAndReset(); err != nil {
		return nil, err
	}
	lo, hi := SeedWords(g.seed)
	g.sched.Submit(gpu.Dispatch{
		Kernel:  gpu.KernelTerrain,
		Groups:  [3]uint32{g.groups, g.groups, g.groups},
		Params:  [8]int32{coord.X, coord.Y, coord.Z, int32(edge), lo, hi},
		Buffers: []gpu.BufferID{g.pool.Staging()},
	})
	if err := g.sched.WaitAndReset(); err != nil {
		return nil, err
	}
	if err := g.pool.Device().Read(g.pool.Staging(), 0, g.buf); err != nil {
		return nil, fmt.Errorf("read back chunk %v: %w", coord, err)
	}

	blocks := make([]world.BlockID, edge*edge*edge)
	for i := range blocks {
		blocks[i] = world.BlockID(binary.LittleEndian.Uint16(g.buf[2*i:]))
	}
	ch, err := world.ChunkFromBlocks(edge, blocks)
	if err != nil {
		return nil, fmt.Errorf("chunk %v: kernel output: %w", coord, err)
	}
	g.log.Debug("generated chunk", zap.Stringer("coord", coord))
	return ch, nil
}
