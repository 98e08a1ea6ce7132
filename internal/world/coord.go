package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord addresses a chunk in the unbounded chunk grid.
// A chunk coordinate is a block position floor-divided by the chunk edge.
type ChunkCoord struct {
	X, Y, Z int32
}

// BlockPos is the position of a single block in world space.
type BlockPos struct {
	X, Y, Z int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Add returns c offset by (dx, dy, dz).
func (c ChunkCoord) Add(dx, dy, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + int32(dx), Y: c.Y + int32(dy), Z: c.Z + int32(dz)}
}

// Origin returns the world position of the chunk's minimum corner block.
func (c ChunkCoord) Origin(edge int) BlockPos {
	return BlockPos{X: int(c.X) * edge, Y: int(c.Y) * edge, Z: int(c.Z) * edge}
}

// Chebyshev returns the maximum per-axis distance between two chunk coordinates.
func Chebyshev(a, b ChunkCoord) int {
	return max(absInt(int(a.X)-int(b.X)), absInt(int(a.Y)-int(b.Y)), absInt(int(a.Z)-int(b.Z)))
}

// ChunkOf returns the chunk owning block p.
func ChunkOf(p BlockPos, edge int) ChunkCoord {
	return ChunkCoord{
		X: int32(floorDiv(p.X, edge)),
		Y: int32(floorDiv(p.Y, edge)),
		Z: int32(floorDiv(p.Z, edge)),
	}
}

// ViewerChunk returns the chunk containing a continuous world position.
// Rounds toward negative infinity, so (-1,-1,-1) lives in chunk (-1,-1,-1).
func ViewerChunk(pos mgl32.Vec3, edge int) ChunkCoord {
	e := float64(edge)
	return ChunkCoord{
		X: int32(math.Floor(float64(pos.X()) / e)),
		Y: int32(math.Floor(float64(pos.Y()) / e)),
		Z: int32(math.Floor(float64(pos.Z()) / e)),
	}
}

// BlockAt returns the block containing a continuous world position.
func BlockAt(pos mgl32.Vec3) BlockPos {
	return BlockPos{
		X: int(math.Floor(float64(pos.X()))),
		Y: int(math.Floor(float64(pos.Y()))),
		Z: int(math.Floor(float64(pos.Z()))),
	}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// mod is the non-negative remainder of a by m.
func mod(a, m int) int {
	return ((a % m) + m) % m
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
