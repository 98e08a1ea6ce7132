// Command voxinspect lists the chunks of a saved world and writes PNG
// slices of their blocks or distance fields.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"github.com/xlab/closer"
	"go.uber.org/zap"

	"voxtrace/internal/persistence"
	"voxtrace/internal/world"
)

func main() {
	var (
		worldPath = flag.String("world", "world.vxw", "world file (.vxw, .vxw.zst or .db)")
		edge      = flag.Int("chunk-size", 32, "chunk edge length in blocks")
		list      = flag.Bool("list", false, "list stored chunks and exit")
		cx        = flag.Int("x", 0, "chunk x")
		cy        = flag.Int("y", 0, "chunk y")
		cz        = flag.Int("z", 0, "chunk z")
		axisName  = flag.String("axis", "y", "slice axis: x, y or z")
		layer     = flag.Int("layer", 0, "slice layer along axis")
		mode      = flag.String("mode", "blocks", "blocks or distance")
		scale     = flag.Int("scale", 8, "pixels per block")
		out       = flag.String("o", "slice.png", "output PNG")
		debug     = flag.Bool("debug", false, "development logging")
	)
	flag.Parse()

	log := newLogger(*debug)
	closer.Bind(func() { _ = log.Sync() })

	db, err := persistence.Open(*worldPath, log)
	if err != nil {
		closer.Fatalln(err)
	}
	closer.Bind(func() { _ = db.Close() })

	store, err := db.Load(*edge, nil)
	if err != nil {
		closer.Fatalln(err)
	}
	if *list {
		for _, c := range store.Coords() {
			fmt.Printf("%v\t%d blocks\n", c, store.Chunk(c).CountNonAir())
		}
		closer.Close()
		return
	}

	coord := world.ChunkCoord{X: int32(*cx), Y: int32(*cy), Z: int32(*cz)}
	if err := writeSlice(store, coord, *axisName, *layer, *mode, *scale, *out, log); err != nil {
		closer.Fatalln(err)
	}
	log.Info("slice written", zap.String("out", *out), zap.Stringer("chunk", coord), zap.String("mode", *mode))
	closer.Close()
}

func writeSlice(store *world.ChunkStore, coord world.ChunkCoord, axisName string, layer int, mode string, scale int, out string, log *zap.Logger) error {
	ch := store.Chunk(coord)
	if ch == nil {
		return fmt.Errorf("chunk %v: %w", coord, world.ErrChunkNotLoaded)
	}
	a, err := parseAxis(axisName)
	if err != nil {
		return err
	}

	var values func(x, y, z int) uint32
	switch mode {
	case "blocks":
		values = func(x, y, z int) uint32 { return uint32(ch.GetBlock(x, y, z)) }
	case "distance":
		dist, err := distanceField(ch, log)
		if err != nil {
			return err
		}
		values = func(x, y, z int) uint32 {
			return dist[world.BlockOffset(world.BlockPos{X: x, Y: y, Z: z}, ch.Edge())]
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	img, err := renderSlice(ch.Edge(), a, layer, mode, values)
	if err != nil {
		return err
	}
	img = upscale(img, scale)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}
