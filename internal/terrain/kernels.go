package terrain

import (
	"encoding/binary"
	"fmt"

	"voxtrace/internal/gpu"
	"voxtrace/internal/world"
)

// SoftKernels returns the CPU implementations of every terrain and distance
// field kernel, for use with gpu.NewSoftDevice.
func SoftKernels() map[gpu.Kernel]gpu.SoftKernel {
	return map[gpu.Kernel]gpu.SoftKernel{
		gpu.KernelTerrain:       terrainKernel,
		gpu.KernelDistanceSetup: setupKernel,
		gpu.KernelDistanceSweep: sweepKernel,
	}
}

func kernelEdge(params [8]int32, bufs [][]byte, want int, elem ...int) (int, error) {
	edge := int(params[3])
	if edge <= 0 {
		return 0, fmt.Errorf("invalid edge %d", edge)
	}
	if len(bufs) != want {
		return 0, fmt.Errorf("want %d buffers, got %d", want, len(bufs))
	}
	n := edge * edge * edge
	for i, size := range elem {
		if len(bufs[i]) < n*size {
			return 0, fmt.Errorf("buffer %d holds %d bytes, need %d", i, len(bufs[i]), n*size)
		}
	}
	return edge, nil
}

// terrainKernel writes the chunk at Params[0:3] into Buffers[0] as
// little-endian uint16 codes.
func terrainKernel(params [8]int32, _ [3]uint32, bufs [][]byte) error {
	edge, err := kernelEdge(params, bufs, 1, 2)
	if err != nil {
		return err
	}
	seed := foldSeed(params[4], params[5])
	o := world.ChunkCoord{X: params[0], Y: params[1], Z: params[2]}.Origin(edge)
	out := bufs[0]
	i := 0
	for z := range edge {
		for y := range edge {
			for x := range edge {
				binary.LittleEndian.PutUint16(out[2*i:], uint16(BlockAt(o.X+x, o.Y+y, o.Z+z, seed).Code()))
				i++
			}
		}
	}
	return nil
}

// setupKernel seeds the distance field: occupied cells 0, air cells edge.
func setupKernel(params [8]int32, _ [3]uint32, bufs [][]byte) error {
	edge, err := kernelEdge(params, bufs, 2, 2, 4)
	if err != nil {
		return err
	}
	blocks, dist := bufs[0], bufs[1]
	for i := range edge * edge * edge {
		v := uint32(edge)
		if binary.LittleEndian.Uint16(blocks[2*i:]) != 0 {
			v = 0
		}
		binary.LittleEndian.PutUint32(dist[4*i:], v)
	}
	return nil
}

// sweepKernel propagates distances along one diagonal direction. Every cell
// takes the minimum of itself and its seven upstream neighbours plus one,
// visiting cells in upstream-first order.
func sweepKernel(params [8]int32, _ [3]uint32, bufs [][]byte) error {
	edge, err := kernelEdge(params, bufs, 1, 4)
	if err != nil {
		return err
	}
	d := [3]int{int(params[0]), int(params[1]), int(params[2])}
	for _, v := range d {
		if v != 1 && v != -1 {
			return fmt.Errorf("invalid sweep direction %v", d)
		}
	}
	dist := bufs[0]
	at := func(x, y, z int) int { return 4 * (x + y*edge + z*edge*edge) }
	orient := func(o, axis int) int {
		if d[axis] > 0 {
			return o
		}
		return edge - 1 - o
	}

	for oz := range edge {
		z := orient(oz, 2)
		for oy := range edge {
			y := orient(oy, 1)
			for ox := range edge {
				x := orient(ox, 0)
				best := binary.LittleEndian.Uint32(dist[at(x, y, z):])
				if best == 0 {
					continue
				}
				for _, n := range upstream {
					nx, ny, nz := x-d[0]*n[0], y-d[1]*n[1], z-d[2]*n[2]
					if nx < 0 || ny < 0 || nz < 0 || nx >= edge || ny >= edge || nz >= edge {
						continue
					}
					if v := binary.LittleEndian.Uint32(dist[at(nx, ny, nz):]) + 1; v < best {
						best = v
					}
				}
				binary.LittleEndian.PutUint32(dist[at(x, y, z):], best)
			}
		}
	}
	return nil
}

// upstream are the neighbour offsets, scaled by the sweep direction and
// subtracted from a cell.
var upstream = [7][3]int{
	{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	{1, 1, 0}, {1, 0, 1}, {0, 1, 1},
	{1, 1, 1},
}
