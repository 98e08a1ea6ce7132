package world

import (
	"errors"
	"fmt"
)

// BlockID is the 16-bit code stored in chunk content and device buffers.
// Code 0 is always air.
type BlockID uint16

// Category groups block variants by how the raytracer treats them.
type Category uint8

const (
	CategoryAir Category = iota
	CategorySolid
	CategoryTransparent
)

// Block is the closed set of block variants.
type Block uint8

const (
	Air Block = iota
	Grass
	Stone
	Glass
	Dirt
	Sand
	Water
	Leaves

	blockCount
)

// ErrUnknownBlock is returned when a code does not name a defined variant.
var ErrUnknownBlock = errors.New("unknown block code")

var blockNames = [blockCount]string{
	Air:    "air",
	Grass:  "grass",
	Stone:  "stone",
	Glass:  "glass",
	Dirt:   "dirt",
	Sand:   "sand",
	Water:  "water",
	Leaves: "leaves",
}

// Code returns the wire/device code of b.
func (b Block) Code() BlockID {
	switch b {
	case Air:
		return 0
	case Grass:
		return 1
	case Stone:
		return 2
	case Glass:
		return 3
	case Dirt:
		return 4
	case Sand:
		return 5
	case Water:
		return 6
	case Leaves:
		return 7
	}
	panic(fmt.Sprintf("world: invalid block variant %d", uint8(b)))
}

// BlockFromCode is the inverse of Block.Code.
func BlockFromCode(id BlockID) (Block, error) {
	switch id {
	case 0:
		return Air, nil
	case 1:
		return Grass, nil
	case 2:
		return Stone, nil
	case 3:
		return Glass, nil
	case 4:
		return Dirt, nil
	case 5:
		return Sand, nil
	case 6:
		return Water, nil
	case 7:
		return Leaves, nil
	}
	return Air, fmt.Errorf("%w: %d", ErrUnknownBlock, id)
}

// Category reports how the variant is classified.
func (b Block) Category() Category {
	switch b {
	case Air:
		return CategoryAir
	case Grass, Stone, Dirt, Sand:
		return CategorySolid
	case Glass, Water, Leaves:
		return CategoryTransparent
	}
	panic(fmt.Sprintf("world: invalid block variant %d", uint8(b)))
}

func (b Block) String() string {
	if b < blockCount {
		return blockNames[b]
	}
	return fmt.Sprintf("block(%d)", uint8(b))
}

// Blocks returns every defined variant in code order.
func Blocks() []Block {
	out := make([]Block, 0, blockCount)
	for b := Air; b < blockCount; b++ {
		out = append(out, b)
	}
	return out
}

// Valid reports whether id is the code of a defined variant.
func (id BlockID) Valid() bool {
	_, err := BlockFromCode(id)
	return err == nil
}

// IsAir reports whether id is the air code.
func (id BlockID) IsAir() bool {
	return id == 0
}
