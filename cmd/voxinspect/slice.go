package main

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"voxtrace/internal/gpu"
	"voxtrace/internal/terrain"
	"voxtrace/internal/world"
)

// axis is the coordinate held fixed by a slice.
type axis int

const (
	axisX axis = iota
	axisY
	axisZ
)

func parseAxis(s string) (axis, error) {
	switch s {
	case "x":
		return axisX, nil
	case "y":
		return axisY, nil
	case "z":
		return axisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

var palette = map[world.Block]color.RGBA{
	world.Air:    {0, 0, 0, 0},
	world.Grass:  {0x7d, 0xc4, 0x5c, 0xff},
	world.Stone:  {0x80, 0x80, 0x80, 0xff},
	world.Glass:  {0xc8, 0xe8, 0xf0, 0x80},
	world.Dirt:   {0x86, 0x60, 0x43, 0xff},
	world.Sand:   {0xdb, 0xd3, 0xa0, 0xff},
	world.Water:  {0x30, 0x50, 0xd0, 0xc0},
	world.Leaves: {0x3a, 0x7a, 0x2a, 0xff},
}

// renderSlice draws layer along a of an edge³ volume, one pixel per block.
// Image x follows the first free axis and image y the second, flipped so
// that up is up when slicing along x or z.
func renderSlice(edge int, a axis, layer int, mode string, values func(x, y, z int) uint32) (*image.RGBA, error) {
	if layer < 0 || layer >= edge {
		return nil, fmt.Errorf("layer %d outside [0,%d)", layer, edge)
	}
	img := image.NewRGBA(image.Rect(0, 0, edge, edge))
	for v := range edge {
		for u := range edge {
			var x, y, z int
			switch a {
			case axisX:
				x, y, z = layer, edge-1-v, u
			case axisY:
				x, y, z = u, layer, v
			default:
				x, y, z = u, edge-1-v, layer
			}
			img.SetRGBA(u, v, shade(mode, values(x, y, z), edge))
		}
	}
	return img, nil
}

func shade(mode string, v uint32, edge int) color.RGBA {
	if mode == "distance" {
		g := uint8(255 - min(int(v)*255/edge, 255))
		return color.RGBA{g, g, g, 0xff}
	}
	b, err := world.BlockFromCode(world.BlockID(v))
	if err != nil {
		return color.RGBA{0xff, 0, 0xff, 0xff}
	}
	return palette[b]
}

func upscale(src *image.RGBA, scale int) *image.RGBA {
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// distanceField builds the chunk's distance field on a one-slot software
// device.
func distanceField(ch *world.Chunk, log *zap.Logger) ([]uint32, error) {
	dev := gpu.NewSoftDevice(log, terrain.SoftKernels())
	defer dev.Close()
	pool, err := gpu.NewSlotPool(dev, world.Ring{}, ch.Edge())
	if err != nil {
		return nil, err
	}
	sched := gpu.NewScheduler(dev, log)
	if err := terrain.NewUploader(sched, pool).Upload(0, ch); err != nil {
		return nil, err
	}
	if err := terrain.NewDistanceField(sched, pool).Build(0); err != nil {
		return nil, err
	}
	if err := sched.WaitAndReset(); err != nil {
		return nil, err
	}
	raw := make([]byte, gpu.DistanceBufferSize(ch.Edge()))
	if err := dev.Read(pool.Slot(0).Distance, 0, raw); err != nil {
		return nil, err
	}
	out := make([]uint32, ch.Volume())
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return out, nil
}
