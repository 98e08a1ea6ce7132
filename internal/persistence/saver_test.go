package persistence

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"voxtrace/internal/world"
)

type countingBackend struct {
	saves int
	err   error
}

func (b *countingBackend) Load(edge int, gen world.Generator) (*world.ChunkStore, error) {
	return world.NewChunkStore(edge, gen), nil
}

func (b *countingBackend) Save(*world.ChunkStore) error {
	if b.err != nil {
		return b.err
	}
	b.saves++
	return nil
}

func (b *countingBackend) Close() error { return nil }

func TestSaverSkipsUnchanged(t *testing.T) {
	b := &countingBackend{}
	cs := sampleStore(t)
	s := NewSaver(b, cs, zaptest.NewLogger(t))

	if wrote, err := s.Save(); err != nil || wrote {
		t.Fatalf("Save on fresh store = %v, %v; want false, nil", wrote, err)
	}

	if err := cs.MutateBlock(world.BlockPos{X: 1, Y: 1, Z: 1}, world.Sand.Code()); err != nil {
		t.Fatal(err)
	}
	if wrote, err := s.Save(); err != nil || !wrote {
		t.Fatalf("Save after edit = %v, %v; want true, nil", wrote, err)
	}
	if wrote, _ := s.Save(); wrote {
		t.Errorf("Expected second save without edits to be skipped")
	}

	cs.AddChunk(world.ChunkCoord{X: 9}, world.NewChunk(testEdge))
	if wrote, _ := s.Save(); !wrote {
		t.Errorf("Expected save after a new chunk")
	}
	if b.saves != 2 {
		t.Errorf("Expected 2 backend saves, got %d", b.saves)
	}
}

func TestSaverRetriesAfterFailure(t *testing.T) {
	b := &countingBackend{err: errors.New("disk full")}
	cs := sampleStore(t)
	s := NewSaver(b, cs, zaptest.NewLogger(t))

	if err := cs.MutateBlock(world.BlockPos{}, world.Stone.Code()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(); err == nil {
		t.Fatal("Expected backend error")
	}
	b.err = nil
	if wrote, err := s.Save(); err != nil || !wrote {
		t.Fatalf("Save after failure = %v, %v; want true, nil", wrote, err)
	}
}
