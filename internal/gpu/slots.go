package gpu

import (
	"fmt"

	"voxtrace/internal/world"
)

// Slot is the device storage for one chunk of the viewing window.
type Slot struct {
	Blocks   BufferID // edge^3 little-endian uint16 block codes
	Distance BufferID // edge^3 little-endian uint32 distances
}

// SlotPool owns the fixed arena of (2R+1)^3 slots plus one host-visible
// staging buffer. Slots are addressed by index and reused forever; which
// chunk a slot currently holds is tracked by its user.
type SlotPool struct {
	dev     Device
	ring    world.Ring
	edge    int
	slots   []Slot
	staging BufferID
}

// BlockBufferSize is the byte size of a slot's block buffer.
func BlockBufferSize(edge int) int { return edge * edge * edge * 2 }

// DistanceBufferSize is the byte size of a slot's distance buffer.
func DistanceBufferSize(edge int) int { return edge * edge * edge * 4 }

// NewSlotPool allocates every slot buffer up front.
func NewSlotPool(dev Device, ring world.Ring, edge int) (*SlotPool, error) {
	if edge <= 0 || edge%8 != 0 {
		return nil, fmt.Errorf("slot pool: chunk edge %d must be a positive multiple of 8", edge)
	}
	if ring.RenderDistance < 0 {
		return nil, fmt.Errorf("slot pool: negative render distance %d", ring.RenderDistance)
	}
	p := &SlotPool{
		dev:   dev,
		ring:  ring,
		edge:  edge,
		slots: make([]Slot, ring.Slots()),
	}
	for i := range p.slots {
		blocks, err := dev.CreateBuffer(BlockBufferSize(edge), false)
		if err != nil {
			return nil, fmt.Errorf("slot %d blocks: %w", i, err)
		}
		dist, err := dev.CreateBuffer(DistanceBufferSize(edge), false)
		if err != nil {
			return nil, fmt.Errorf("slot %d distance: %w", i, err)
		}
		p.slots[i] = Slot{Blocks: blocks, Distance: dist}
	}
	staging, err := dev.CreateBuffer(BlockBufferSize(edge), true)
	if err != nil {
		return nil, fmt.Errorf("staging buffer: %w", err)
	}
	p.staging = staging
	return p, nil
}

func (p *SlotPool) Device() Device   { return p.dev }
func (p *SlotPool) Ring() world.Ring { return p.ring }
func (p *SlotPool) Edge() int        { return p.edge }
func (p *SlotPool) Len() int         { return len(p.slots) }

// Staging returns the host-visible transfer buffer.
func (p *SlotPool) Staging() BufferID { return p.staging }

// Slot returns the buffers of slot i.
func (p *SlotPool) Slot(i int) Slot { return p.slots[i] }
