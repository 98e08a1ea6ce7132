package world

import (
	"fmt"
	"slices"
)

// Chunk is the dense block content of one cubic chunk.
// Blocks are stored x fastest, then y, then z; codecs and device
// upload offsets rely on this order.
type Chunk struct {
	edge   int
	blocks []BlockID
}

// NewChunk creates an all-air chunk with the given edge length.
func NewChunk(edge int) *Chunk {
	return &Chunk{
		edge:   edge,
		blocks: make([]BlockID, edge*edge*edge),
	}
}

// ChunkFromBlocks wraps an existing block array. The slice is not copied.
// Every code must name a defined block.
func ChunkFromBlocks(edge int, blocks []BlockID) (*Chunk, error) {
	if len(blocks) != edge*edge*edge {
		return nil, fmt.Errorf("chunk with edge %d needs %d blocks, got %d", edge, edge*edge*edge, len(blocks))
	}
	for i, id := range blocks {
		if _, err := BlockFromCode(id); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
	}
	return &Chunk{edge: edge, blocks: blocks}, nil
}

// Edge returns the chunk edge length in blocks.
func (c *Chunk) Edge() int { return c.edge }

// Volume returns the number of blocks in the chunk.
func (c *Chunk) Volume() int { return len(c.blocks) }

// Blocks exposes the underlying linear block array.
func (c *Chunk) Blocks() []BlockID { return c.blocks }

// indexInChunk converts local chunk coordinates → flat index
func (c *Chunk) indexInChunk(x, y, z int) int {
	return x + y*c.edge + z*c.edge*c.edge
}

func (c *Chunk) inBounds(x, y, z int) bool {
	return x >= 0 && x < c.edge && y >= 0 && y < c.edge && z >= 0 && z < c.edge
}

// GetBlock returns the block at the specified local coordinates.
// Out-of-range coordinates read as air.
func (c *Chunk) GetBlock(x, y, z int) BlockID {
	if !c.inBounds(x, y, z) {
		return 0
	}
	return c.blocks[c.indexInChunk(x, y, z)]
}

// SetBlock sets the block at the specified local coordinates.
func (c *Chunk) SetBlock(x, y, z int, id BlockID) {
	if !c.inBounds(x, y, z) {
		return
	}
	c.blocks[c.indexInChunk(x, y, z)] = id
}

// At returns the block at a linear offset.
func (c *Chunk) At(offset int) BlockID { return c.blocks[offset] }

// SetAt overwrites the block at a linear offset.
func (c *Chunk) SetAt(offset int, id BlockID) { c.blocks[offset] = id }

// IsAir checks if the block at the specified local coordinates is air
func (c *Chunk) IsAir(x, y, z int) bool {
	return c.GetBlock(x, y, z) == 0
}

// CountNonAir returns how many blocks are not air.
func (c *Chunk) CountNonAir() int {
	n := 0
	for _, b := range c.blocks {
		if b != 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (c *Chunk) Clone() *Chunk {
	return &Chunk{edge: c.edge, blocks: slices.Clone(c.blocks)}
}

// Equal reports whether both chunks have the same edge and content.
func (c *Chunk) Equal(o *Chunk) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.edge == o.edge && slices.Equal(c.blocks, o.blocks)
}
