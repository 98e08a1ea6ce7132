// Package persistence stores a world.ChunkStore on disk. The backend is
// chosen by file name: "*.vxw" is the flat record stream, "*.vxw.zst" the
// same stream compressed with zstd and "*.db" a SQLite database.
package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"voxtrace/internal/world"
)

// ErrUnknownBackend is returned by Open for an unrecognised file name.
var ErrUnknownBackend = errors.New("unknown world backend")

// Backend loads and saves whole worlds.
type Backend interface {
	// Load returns the stored world, or an empty store when nothing has
	// been saved yet. gen fills chunks the world does not contain.
	Load(edge int, gen world.Generator) (*world.ChunkStore, error)
	Save(store *world.ChunkStore) error
	Close() error
}

// Kind names a backend.
type Kind string

const (
	KindFlat   Kind = "flat"
	KindZstd   Kind = "zstd"
	KindSQLite Kind = "sqlite"
)

// KindOf picks the backend for path.
func KindOf(path string) (Kind, error) {
	switch {
	case strings.HasSuffix(path, ".vxw.zst"):
		return KindZstd, nil
	case strings.HasSuffix(path, ".vxw"):
		return KindFlat, nil
	case strings.HasSuffix(path, ".db"):
		return KindSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, path)
}

// Open returns the backend for path.
func Open(path string, log *zap.Logger) (Backend, error) {
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("world", path), zap.String("backend", string(kind)))
	switch kind {
	case KindZstd:
		return &zstdFile{path: path, log: log}, nil
	case KindSQLite:
		return openSQLite(path, log)
	default:
		return &flatFile{path: path, log: log}, nil
	}
}

type flatFile struct {
	path string
	log  *zap.Logger
}

func (f *flatFile) Load(edge int, gen world.Generator) (*world.ChunkStore, error) {
	cs, err := world.LoadChunkStore(f.path, edge, gen)
	if errors.Is(err, fs.ErrNotExist) {
		f.log.Info("starting new world")
		return world.NewChunkStore(edge, gen), nil
	}
	if err != nil {
		return nil, err
	}
	f.log.Info("world loaded", zap.Int("chunks", cs.Len()))
	return cs, nil
}

func (f *flatFile) Save(store *world.ChunkStore) error {
	if err := store.Save(f.path); err != nil {
		return err
	}
	f.log.Info("world saved", zap.Int("chunks", store.Len()))
	return nil
}

func (f *flatFile) Close() error { return nil }
