package main

import (
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"voxtrace/internal/world"
)

func TestRenderSliceBlocks(t *testing.T) {
	ch := world.NewChunk(8)
	ch.SetBlock(2, 3, 5, world.Stone.Code())
	values := func(x, y, z int) uint32 { return uint32(ch.GetBlock(x, y, z)) }

	img, err := renderSlice(8, axisY, 3, "blocks", values)
	if err != nil {
		t.Fatalf("renderSlice failed: %v", err)
	}
	if got := img.RGBAAt(2, 5); got != palette[world.Stone] {
		t.Errorf("Expected stone at (2,5), got %v", got)
	}
	if got := img.RGBAAt(0, 0); got != palette[world.Air] {
		t.Errorf("Expected air at (0,0), got %v", got)
	}

	// Side views put y=0 at the bottom row.
	img, err = renderSlice(8, axisZ, 5, "blocks", values)
	if err != nil {
		t.Fatalf("renderSlice failed: %v", err)
	}
	if got := img.RGBAAt(2, 4); got != palette[world.Stone] {
		t.Errorf("Expected stone at (2,4) in the z slice, got %v", got)
	}

	if _, err := renderSlice(8, axisX, 8, "blocks", values); err == nil {
		t.Errorf("Expected an error for a layer outside the chunk")
	}
}

func TestDistanceSlice(t *testing.T) {
	ch := world.NewChunk(8)
	ch.SetBlock(0, 0, 0, world.Stone.Code())

	dist, err := distanceField(ch, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("distanceField failed: %v", err)
	}
	at := func(x, y, z int) uint32 {
		return dist[world.BlockOffset(world.BlockPos{X: x, Y: y, Z: z}, 8)]
	}
	if at(0, 0, 0) != 0 || at(3, 1, 2) != 3 || at(7, 7, 7) != 7 {
		t.Errorf("Unexpected distances %d %d %d", at(0, 0, 0), at(3, 1, 2), at(7, 7, 7))
	}

	img, err := renderSlice(8, axisY, 0, "distance", at)
	if err != nil {
		t.Fatalf("renderSlice failed: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected white at the solid voxel, got %v", got)
	}
}

func TestUpscale(t *testing.T) {
	ch := world.NewChunk(8)
	ch.SetBlock(1, 0, 0, world.Sand.Code())
	img, err := renderSlice(8, axisY, 0, "blocks", func(x, y, z int) uint32 { return uint32(ch.GetBlock(x, y, z)) })
	if err != nil {
		t.Fatalf("renderSlice failed: %v", err)
	}
	big := upscale(img, 4)
	if big.Bounds().Dx() != 32 || big.Bounds().Dy() != 32 {
		t.Fatalf("Expected 32x32, got %v", big.Bounds())
	}
	if got := big.RGBAAt(5, 2); got != palette[world.Sand] {
		t.Errorf("Expected sand at (5,2), got %v", got)
	}
}

func TestParseAxis(t *testing.T) {
	if _, err := parseAxis("w"); err == nil {
		t.Errorf("Expected an error for axis w")
	}
	if a, err := parseAxis("z"); err != nil || a != axisZ {
		t.Errorf("parseAxis(z) = %v, %v", a, err)
	}
}

func TestWriteSlice(t *testing.T) {
	log := zaptest.NewLogger(t)
	store := world.NewChunkStore(8, nil)
	ch := world.NewChunk(8)
	ch.SetBlock(4, 4, 4, world.Grass.Code())
	store.AddChunk(world.ChunkCoord{X: 1}, ch)

	out := filepath.Join(t.TempDir(), "slice.png")
	if err := writeSlice(store, world.ChunkCoord{X: 1}, "y", 4, "distance", 2, out, log); err != nil {
		t.Fatalf("writeSlice failed: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("Expected 16 pixels wide, got %d", img.Bounds().Dx())
	}

	err = writeSlice(store, world.ChunkCoord{}, "y", 0, "blocks", 1, out, log)
	if !errors.Is(err, world.ErrChunkNotLoaded) {
		t.Errorf("Expected ErrChunkNotLoaded, got %v", err)
	}
}
