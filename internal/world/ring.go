package world

// SlotIndex maps a chunk coordinate onto the fixed ring of (2R+1)^3 slots.
// Coordinates differing by a multiple of 2R+1 on every axis share a slot.
func SlotIndex(c ChunkCoord, renderDistance int) int {
	s := 2*renderDistance + 1
	return mod(int(c.X), s) + mod(int(c.Y), s)*s + mod(int(c.Z), s)*s*s
}

// BlockOffset returns the linear index of block p inside its owning chunk,
// using the same x-fastest order as Chunk.
func BlockOffset(p BlockPos, edge int) int {
	return mod(p.X, edge) + mod(p.Y, edge)*edge + mod(p.Z, edge)*edge*edge
}

// Ring describes the viewing window of render distance R around a viewer chunk
// and its backing slot ring.
type Ring struct {
	RenderDistance int
}

// Side is the window edge length in chunks, 2R+1.
func (r Ring) Side() int { return 2*r.RenderDistance + 1 }

// Slots is the number of slots backing the window.
func (r Ring) Slots() int {
	s := r.Side()
	return s * s * s
}

// Slot resolves the slot for chunk c.
func (r Ring) Slot(c ChunkCoord) int { return SlotIndex(c, r.RenderDistance) }

// Contains reports whether c lies inside the window centred on center.
func (r Ring) Contains(center, c ChunkCoord) bool {
	return Chebyshev(center, c) <= r.RenderDistance
}

// Window calls fn for every chunk of the window around center, iterating
// the x offset outermost and z innermost. Returning false stops the walk.
func (r Ring) Window(center ChunkCoord, fn func(c ChunkCoord) bool) {
	d := r.RenderDistance
	for x := -d; x <= d; x++ {
		for y := -d; y <= d; y++ {
			for z := -d; z <= d; z++ {
				if !fn(center.Add(x, y, z)) {
					return
				}
			}
		}
	}
}
