package world

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"voxtrace/internal/profiling"
)

// ErrChunkNotLoaded is returned when a block operation targets a chunk that
// has never been generated or loaded into the store.
var ErrChunkNotLoaded = errors.New("chunk not loaded")

// Generator produces the content of a chunk from its coordinate.
// Implementations must be deterministic.
type Generator interface {
	Generate(coord ChunkCoord) (*Chunk, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(coord ChunkCoord) (*Chunk, error)

func (f GeneratorFunc) Generate(coord ChunkCoord) (*Chunk, error) { return f(coord) }

// ChunkStore is the CPU-side cache of every chunk generated or loaded so far.
// Entries are created lazily and never evicted.
type ChunkStore struct {
	edge int
	gen  Generator

	// Map of chunks indexed by their coordinates
	chunks map[ChunkCoord]*Chunk
	mu     sync.RWMutex

	// genMu serialises the miss path so a coordinate is generated at most once.
	genMu sync.Mutex

	modCount uint64 // Increases on any chunk add or block write
}

// NewChunkStore creates an empty store. gen may be nil for stores that are
// only read back from disk; GetOrGenerate then fails on misses.
func NewChunkStore(edge int, gen Generator) *ChunkStore {
	return &ChunkStore{
		edge:   edge,
		gen:    gen,
		chunks: make(map[ChunkCoord]*Chunk),
	}
}

// Edge returns the chunk edge length of every stored chunk.
func (cs *ChunkStore) Edge() int { return cs.edge }

// GetOrGenerate returns the cached chunk at coord, generating and caching it
// on first request.
func (cs *ChunkStore) GetOrGenerate(coord ChunkCoord) (*Chunk, error) {
	if ch := cs.Chunk(coord); ch != nil {
		return ch, nil
	}

	cs.genMu.Lock()
	defer cs.genMu.Unlock()
	// Double-check: the chunk may have been added while we waited.
	if ch := cs.Chunk(coord); ch != nil {
		return ch, nil
	}
	if cs.gen == nil {
		return nil, fmt.Errorf("generate chunk %v: no generator", coord)
	}

	ch, err := cs.gen.Generate(coord)
	if err != nil {
		return nil, fmt.Errorf("generate chunk %v: %w", coord, err)
	}
	if ch.Edge() != cs.edge {
		return nil, fmt.Errorf("generate chunk %v: got edge %d, store uses %d", coord, ch.Edge(), cs.edge)
	}
	cs.AddChunk(coord, ch)
	return ch, nil
}

// Chunk returns the chunk at coord or nil when it is not loaded.
func (cs *ChunkStore) Chunk(coord ChunkCoord) *Chunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.chunks[coord]
}

// HasChunk checks if a chunk exists without generating it.
func (cs *ChunkStore) HasChunk(coord ChunkCoord) bool {
	cs.mu.RLock()
	_, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	return exists
}

// AddChunk installs a chunk. An existing entry is kept.
func (cs *ChunkStore) AddChunk(coord ChunkCoord, chunk *Chunk) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[coord]; ok {
		return false
	}
	cs.chunks[coord] = chunk
	cs.modCount++
	return true
}

// Block reads the block at a world position.
func (cs *ChunkStore) Block(p BlockPos) (BlockID, error) {
	coord := ChunkOf(p, cs.edge)
	ch := cs.Chunk(coord)
	if ch == nil {
		return 0, fmt.Errorf("read block %v: %w: %v", p, ErrChunkNotLoaded, coord)
	}
	return ch.At(BlockOffset(p, cs.edge)), nil
}

// IsAir reports whether the block at p is air. Unloaded chunks read as air.
func (cs *ChunkStore) IsAir(p BlockPos) bool {
	id, err := cs.Block(p)
	return err != nil || id.IsAir()
}

// MutateBlock overwrites the single block at world position p.
// Codes that name no block are rejected with ErrUnknownBlock.
func (cs *ChunkStore) MutateBlock(p BlockPos, id BlockID) error {
	if _, err := BlockFromCode(id); err != nil {
		return fmt.Errorf("mutate block %v: %w", p, err)
	}
	coord := ChunkOf(p, cs.edge)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	ch, ok := cs.chunks[coord]
	if !ok {
		return fmt.Errorf("mutate block %v: %w: %v", p, ErrChunkNotLoaded, coord)
	}
	ch.SetAt(BlockOffset(p, cs.edge), id)
	cs.modCount++
	return nil
}

// Len returns the number of stored chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// GetModCount returns the current modification count of the store.
// Savers compare it against the count at their last save.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// Coords returns every stored coordinate in x, y, z order.
func (cs *ChunkStore) Coords() []ChunkCoord {
	cs.mu.RLock()
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for c := range cs.chunks {
		out = append(out, c)
	}
	cs.mu.RUnlock()
	slices.SortFunc(out, compareCoords)
	return out
}

func compareCoords(a, b ChunkCoord) int {
	switch {
	case a.X != b.X:
		return int(a.X) - int(b.X)
	case a.Y != b.Y:
		return int(a.Y) - int(b.Y)
	default:
		return int(a.Z) - int(b.Z)
	}
}

// WriteTo encodes every chunk as a flat record stream.
func (cs *ChunkStore) WriteTo(w io.Writer) (int64, error) {
	defer profiling.Track("world.WriteTo")()
	cw := &countingWriter{w: w}
	enc := NewEncoder(cw, cs.edge)
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	coords := make([]ChunkCoord, 0, len(cs.chunks))
	for c := range cs.chunks {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, compareCoords)
	for _, c := range coords {
		if err := enc.Encode(c, cs.chunks[c]); err != nil {
			return cw.n, err
		}
	}
	err := enc.Flush()
	return cw.n, err
}

// ReadFrom decodes a flat record stream into the store.
// A coordinate appearing twice is malformed.
func (cs *ChunkStore) ReadFrom(r io.Reader) (int64, error) {
	defer profiling.Track("world.ReadFrom")()
	dec := NewDecoder(r, cs.edge)
	var n int64
	for {
		c, ch, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if !cs.AddChunk(c, ch) {
			return n, fmt.Errorf("%w: duplicate chunk %v", ErrCodec, c)
		}
		n += int64(RecordSize(cs.edge))
	}
}

// Save writes the store to path, replacing any previous file atomically.
func (cs *ChunkStore) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create world directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp world file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := cs.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write world: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close world: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename world: %w", err)
	}
	return nil
}

// LoadChunkStore reads a world saved with Save. gen is used for chunks that
// are not in the file.
func LoadChunkStore(path string, edge int, gen Generator) (*ChunkStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}
	defer f.Close()

	cs := NewChunkStore(edge, gen)
	if _, err := cs.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("load world %s: %w", path, err)
	}
	return cs, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
