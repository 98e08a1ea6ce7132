package persistence

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"voxtrace/internal/world"
)

type zstdFile struct {
	path string
	log  *zap.Logger
}

func (z *zstdFile) Load(edge int, gen world.Generator) (*world.ChunkStore, error) {
	f, err := os.Open(z.path)
	if errors.Is(err, fs.ErrNotExist) {
		z.log.Info("starting new world")
		return world.NewChunkStore(edge, gen), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open zstd stream: %w", err)
	}
	defer dec.Close()

	cs := world.NewChunkStore(edge, gen)
	if _, err := cs.ReadFrom(bufio.NewReaderSize(dec, 256*1024)); err != nil {
		return nil, fmt.Errorf("load world %s: %w", z.path, err)
	}
	z.log.Info("world loaded", zap.Int("chunks", cs.Len()))
	return cs, nil
}

func (z *zstdFile) Save(store *world.ChunkStore) error {
	dir := filepath.Dir(z.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(z.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := writeZstd(tmp, store); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write world: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, z.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	z.log.Info("world saved", zap.Int("chunks", store.Len()))
	return nil
}

func writeZstd(f *os.File, store *world.ChunkStore) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := store.WriteTo(enc); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func (z *zstdFile) Close() error { return nil }
