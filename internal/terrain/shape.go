package terrain

import "voxtrace/internal/world"

// Terrain shape constants. The compute shader in shaders/terrain.comp uses
// the same values.
const (
	heightScale = 1.0 / 64.0
	baseHeight  = -12
	heightAmp   = 40
	seaLevel    = 0
	soilDepth   = 4

	caveScale     = 1.0 / 24.0
	caveThreshold = 0.72
	caveSalt      = 0x5bd1e995
)

// SeedWords splits a world seed into the two kernel parameter words.
func SeedWords(seed int64) (lo, hi int32) {
	return int32(uint32(seed)), int32(uint32(uint64(seed) >> 32))
}

// foldSeed combines the kernel parameter words into the noise seed.
func foldSeed(lo, hi int32) uint32 {
	return uint32(lo) ^ hash32(uint32(hi))
}

// SurfaceHeight is the Y of the topmost terrain block in column (x, z).
func SurfaceHeight(x, z int, seed uint32) int {
	n := octaveNoise2D(float32(x)*heightScale, float32(z)*heightScale, seed, 4)
	return baseHeight + int(floor32(n*heightAmp))
}

// BlockAt is the terrain function evaluated by every terrain kernel.
func BlockAt(x, y, z int, seed uint32) world.Block {
	h := SurfaceHeight(x, z, seed)
	if y > h {
		if y <= seaLevel {
			return world.Water
		}
		return world.Air
	}
	if y < h-1 {
		c := octaveNoise3D(float32(x)*caveScale, float32(y)*caveScale, float32(z)*caveScale, seed^caveSalt, 2)
		if c > caveThreshold {
			return world.Air
		}
	}
	beach := h <= seaLevel+1
	switch {
	case y == h && beach:
		return world.Sand
	case y == h:
		return world.Grass
	case y > h-soilDepth && beach:
		return world.Sand
	case y > h-soilDepth:
		return world.Dirt
	default:
		return world.Stone
	}
}

// Reference evaluates the terrain function on the CPU for a whole chunk.
func Reference(coord world.ChunkCoord, edge int, seed int64) *world.Chunk {
	lo, hi := SeedWords(seed)
	s := foldSeed(lo, hi)
	ch := world.NewChunk(edge)
	o := coord.Origin(edge)
	i := 0
	for z := range edge {
		for y := range edge {
			for x := range edge {
				ch.SetAt(i, BlockAt(o.X+x, o.Y+y, o.Z+z, s).Code())
				i++
			}
		}
	}
	return ch
}
