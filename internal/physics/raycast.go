package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxtrace/internal/profiling"
	"voxtrace/internal/world"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 5.0

	stepSize = float32(0.02)
)

// BlockSource answers occupancy queries for the ray march.
// *world.ChunkStore implements it, treating unloaded chunks as air.
type BlockSource interface {
	IsAir(p world.BlockPos) bool
}

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	HitPosition      world.BlockPos
	AdjacentPosition world.BlockPos // last empty block before the hit
	Distance         float32
	Hit              bool
}

// Raycast marches from start along direction in fixed steps and reports the
// first non-air block between minDist and maxDist.
func Raycast(start, direction mgl32.Vec3, minDist, maxDist float32, blocks BlockSource) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	steps := int(maxDist / stepSize)

	lastEmptyPos := world.BlockAt(start)
	result := RaycastResult{Hit: false}

	for i := 0; i <= steps; i++ {
		dist := float32(i) * stepSize
		if dist < minDist {
			continue
		}

		pos := start.Add(direction.Mul(dist))
		blockPos := world.BlockAt(pos)

		if !blocks.IsAir(blockPos) {
			result.HitPosition = blockPos
			result.AdjacentPosition = lastEmptyPos
			result.Distance = dist
			result.Hit = true
			return result
		}

		lastEmptyPos = blockPos
	}

	return result
}
