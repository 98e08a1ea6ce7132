package world

import (
	"math/rand"
	"testing"
)

func TestSlotIndexRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, r := range []int{0, 1, 3, 5} {
		side := 2*r + 1
		slots := side * side * side
		for range 2000 {
			c := ChunkCoord{rng.Int31n(2001) - 1000, rng.Int31n(2001) - 1000, rng.Int31n(2001) - 1000}
			got := SlotIndex(c, r)
			if got < 0 || got >= slots {
				t.Fatalf("SlotIndex(%v, %d) = %d out of [0,%d)", c, r, got, slots)
			}
		}
	}
}

func TestSlotIndexPeriodic(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, r := range []int{1, 2, 3} {
		side := 2*r + 1
		for range 500 {
			c := ChunkCoord{rng.Int31n(201) - 100, rng.Int31n(201) - 100, rng.Int31n(201) - 100}
			k := rng.Intn(11) - 5
			base := SlotIndex(c, r)
			shifted := []ChunkCoord{
				c.Add(k*side, 0, 0),
				c.Add(0, k*side, 0),
				c.Add(0, 0, k*side),
			}
			for _, s := range shifted {
				if got := SlotIndex(s, r); got != base {
					t.Fatalf("SlotIndex(%v)=%d differs from SlotIndex(%v)=%d", s, got, c, base)
				}
			}
		}
	}
}

func TestSlotIndexFormula(t *testing.T) {
	// render distance 3: side 7
	if got := SlotIndex(ChunkCoord{-1, 0, 0}, 3); got != 6 {
		t.Errorf("Expected slot 6, got %d", got)
	}
	if got := SlotIndex(ChunkCoord{1, 2, 3}, 3); got != 1+2*7+3*49 {
		t.Errorf("Expected slot %d, got %d", 1+2*7+3*49, got)
	}
}

func TestWindowCoversEverySlotOnce(t *testing.T) {
	ring := Ring{RenderDistance: 2}
	center := ChunkCoord{-7, 3, 11}
	seen := make([]bool, ring.Slots())
	count := 0
	ring.Window(center, func(c ChunkCoord) bool {
		if !ring.Contains(center, c) {
			t.Fatalf("Window yielded %v outside the window", c)
		}
		slot := ring.Slot(c)
		if seen[slot] {
			t.Fatalf("Slot %d visited twice", slot)
		}
		seen[slot] = true
		count++
		return true
	})
	if count != ring.Slots() {
		t.Errorf("Expected %d chunks, got %d", ring.Slots(), count)
	}
}

func TestBlockOffsetBijection(t *testing.T) {
	const edge = 8
	origin := ChunkCoord{-3, 2, -1}.Origin(edge)
	seen := make([]bool, edge*edge*edge)
	for z := range edge {
		for y := range edge {
			for x := range edge {
				p := BlockPos{origin.X + x, origin.Y + y, origin.Z + z}
				off := BlockOffset(p, edge)
				if off < 0 || off >= len(seen) {
					t.Fatalf("Offset %d out of range for %v", off, p)
				}
				if seen[off] {
					t.Fatalf("Offset %d produced twice", off)
				}
				seen[off] = true
				if want := x + y*edge + z*edge*edge; off != want {
					t.Fatalf("Offset for local (%d,%d,%d) = %d, want %d", x, y, z, off, want)
				}
			}
		}
	}
}
