package world

import (
	"bytes"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

func countingGenerator(edge int, calls *atomic.Int32) Generator {
	return GeneratorFunc(func(c ChunkCoord) (*Chunk, error) {
		calls.Add(1)
		ch := NewChunk(edge)
		if c.Y < 0 {
			for i := range ch.Volume() {
				ch.SetAt(i, Stone.Code())
			}
		}
		return ch, nil
	})
}

func TestGetOrGenerateCaches(t *testing.T) {
	var calls atomic.Int32
	cs := NewChunkStore(4, countingGenerator(4, &calls))

	a, err := cs.GetOrGenerate(ChunkCoord{0, -1, 0})
	if err != nil {
		t.Fatalf("GetOrGenerate: %v", err)
	}
	b, err := cs.GetOrGenerate(ChunkCoord{0, -1, 0})
	if err != nil {
		t.Fatalf("GetOrGenerate: %v", err)
	}
	if a != b {
		t.Errorf("Expected the cached chunk to be returned")
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 generator call, got %d", calls.Load())
	}
}

func TestGetOrGenerateConcurrent(t *testing.T) {
	var calls atomic.Int32
	cs := NewChunkStore(4, countingGenerator(4, &calls))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cs.GetOrGenerate(ChunkCoord{3, 3, 3}); err != nil {
				t.Errorf("GetOrGenerate: %v", err)
			}
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Errorf("Expected exactly one generation, got %d", calls.Load())
	}
}

func TestMutateBlock(t *testing.T) {
	var calls atomic.Int32
	cs := NewChunkStore(4, countingGenerator(4, &calls))
	if _, err := cs.GetOrGenerate(ChunkCoord{-1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	p := BlockPos{-3, 2, 1}
	before := cs.GetModCount()
	if err := cs.MutateBlock(p, Glass.Code()); err != nil {
		t.Fatalf("MutateBlock: %v", err)
	}
	got, err := cs.Block(p)
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if got != Glass.Code() {
		t.Errorf("Expected glass, got %d", got)
	}
	if cs.GetModCount() <= before {
		t.Errorf("Expected mod count to increase")
	}
}

func TestMutateBlockUnknownCode(t *testing.T) {
	var calls atomic.Int32
	cs := NewChunkStore(4, countingGenerator(4, &calls))
	if _, err := cs.GetOrGenerate(ChunkCoord{}); err != nil {
		t.Fatal(err)
	}

	p := BlockPos{1, 1, 1}
	before := cs.GetModCount()
	if err := cs.MutateBlock(p, 500); !errors.Is(err, ErrUnknownBlock) {
		t.Fatalf("Expected ErrUnknownBlock, got %v", err)
	}
	if got, _ := cs.Block(p); got != Air.Code() {
		t.Errorf("Expected block to stay air, got %d", got)
	}
	if cs.GetModCount() != before {
		t.Errorf("Expected mod count to stay %d, got %d", before, cs.GetModCount())
	}

	// Whatever the store holds must read back.
	var buf bytes.Buffer
	if _, err := cs.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := NewChunkStore(4, nil).ReadFrom(&buf); err != nil {
		t.Fatalf("ReadFrom after rejected mutation: %v", err)
	}
}

func TestMutateBlockNotLoaded(t *testing.T) {
	cs := NewChunkStore(4, nil)
	err := cs.MutateBlock(BlockPos{100, 0, 0}, Stone.Code())
	if !errors.Is(err, ErrChunkNotLoaded) {
		t.Fatalf("Expected ErrChunkNotLoaded, got %v", err)
	}
	if _, err := cs.Block(BlockPos{100, 0, 0}); !errors.Is(err, ErrChunkNotLoaded) {
		t.Fatalf("Expected ErrChunkNotLoaded on read, got %v", err)
	}
	if !cs.IsAir(BlockPos{100, 0, 0}) {
		t.Errorf("Expected unloaded chunk to read as air")
	}
}

func TestGetOrGenerateWithoutGenerator(t *testing.T) {
	cs := NewChunkStore(4, nil)
	if _, err := cs.GetOrGenerate(ChunkCoord{}); err == nil {
		t.Fatal("Expected an error without a generator")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	var calls atomic.Int32
	cs := NewChunkStore(4, countingGenerator(4, &calls))
	coords := []ChunkCoord{{0, 0, 0}, {0, -1, 0}, {-2, -3, 9}}
	for _, c := range coords {
		if _, err := cs.GetOrGenerate(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := cs.MutateBlock(BlockPos{1, 1, 1}, Leaves.Code()); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "nested", "world.vxw")
	if err := cs.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadChunkStore(path, 4, nil)
	if err != nil {
		t.Fatalf("LoadChunkStore: %v", err)
	}
	if loaded.Len() != len(coords) {
		t.Fatalf("Expected %d chunks, got %d", len(coords), loaded.Len())
	}
	for _, c := range coords {
		if !cs.Chunk(c).Equal(loaded.Chunk(c)) {
			t.Errorf("Chunk %v differs after reload", c)
		}
	}
}

func TestWriteToSortedAndSized(t *testing.T) {
	cs := NewChunkStore(2, nil)
	cs.AddChunk(ChunkCoord{5, 0, 0}, NewChunk(2))
	cs.AddChunk(ChunkCoord{-5, 0, 0}, NewChunk(2))

	var buf bytes.Buffer
	n, err := cs.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(2*RecordSize(2)) || buf.Len() != int(n) {
		t.Fatalf("Expected %d bytes, wrote %d (buffer %d)", 2*RecordSize(2), n, buf.Len())
	}
	c, err := DecodeCoord(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if c != (ChunkCoord{-5, 0, 0}) {
		t.Errorf("Expected first record (-5,0,0), got %v", c)
	}
}

func TestReadFromDuplicate(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, 2)
	_ = enc.Encode(ChunkCoord{1, 2, 3}, NewChunk(2))
	_ = enc.Encode(ChunkCoord{1, 2, 3}, NewChunk(2))
	_ = enc.Flush()

	cs := NewChunkStore(2, nil)
	if _, err := cs.ReadFrom(&buf); !errors.Is(err, ErrCodec) {
		t.Fatalf("Expected ErrCodec for duplicate coordinate, got %v", err)
	}
}
