package gpu

import (
	"encoding/binary"
	"testing"

	"go.uber.org/zap/zaptest"

	"voxtrace/internal/world"
)

func TestSoftDeviceCopy(t *testing.T) {
	dev := newTestDevice(t)
	src, _ := dev.CreateBuffer(8, true)
	dst, _ := dev.CreateBuffer(8, false)

	if err := dev.Write(src, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}
	fence, err := dev.Submit([]Command{Copy{Src: src, Dst: dst, SrcOffset: 2, DstOffset: 4, Size: 4}})
	if err != nil {
		t.Fatal(err)
	}
	if err := fence.Wait(); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 8)
	if err := dev.Read(dst, 0, got); err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 0, 0, 0, 3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected % x, got % x", want, got)
		}
	}
	st := dev.Stats()
	if st.Copies != 1 || st.CopyBytes != 4 {
		t.Errorf("Unexpected stats %+v", st)
	}
}

func TestSoftDeviceWriteRequiresHostVisible(t *testing.T) {
	dev := newTestDevice(t)
	buf, _ := dev.CreateBuffer(4, false)
	if err := dev.Write(buf, 0, []byte{1}); err == nil {
		t.Fatal("Expected write to a device-local buffer to fail")
	}
}

func TestSoftDeviceBounds(t *testing.T) {
	dev := newTestDevice(t)
	buf, _ := dev.CreateBuffer(4, true)
	if err := dev.Read(buf, 2, make([]byte, 4)); err == nil {
		t.Fatal("Expected out of range read to fail")
	}
	if _, err := dev.Submit([]Command{Copy{Src: buf, Dst: buf, SrcOffset: 0, DstOffset: 2, Size: 4}}); err == nil {
		t.Fatal("Expected out of range copy to be rejected")
	}
}

func TestSoftDeviceDispatchCounts(t *testing.T) {
	dev := newTestDevice(t)
	buf, _ := dev.CreateBuffer(8, true)
	s := NewScheduler(dev, zaptest.NewLogger(t))
	for range 3 {
		s.Submit(Dispatch{Kernel: KernelDistanceSweep, Buffers: []BufferID{buf}})
	}
	if err := s.WaitAndReset(); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 8)
	_ = dev.Read(buf, 0, got)
	if v := binary.LittleEndian.Uint32(got[4:]); v != 3 {
		t.Errorf("Expected 3 increments, got %d", v)
	}
	if n := dev.Stats().Dispatches[KernelDistanceSweep]; n != 3 {
		t.Errorf("Expected 3 sweep dispatches, got %d", n)
	}
}

func TestSlotPoolAllocation(t *testing.T) {
	dev := newTestDevice(t)
	ring := world.Ring{RenderDistance: 1}
	pool, err := NewSlotPool(dev, ring, 8)
	if err != nil {
		t.Fatalf("NewSlotPool: %v", err)
	}
	if pool.Len() != 27 {
		t.Fatalf("Expected 27 slots, got %d", pool.Len())
	}
	seen := map[BufferID]bool{pool.Staging(): true}
	for i := range pool.Len() {
		s := pool.Slot(i)
		if seen[s.Blocks] || seen[s.Distance] {
			t.Fatalf("Slot %d shares a buffer", i)
		}
		seen[s.Blocks], seen[s.Distance] = true, true
	}
	if err := dev.Write(pool.Staging(), 0, make([]byte, BlockBufferSize(8))); err != nil {
		t.Errorf("Expected staging to be host visible: %v", err)
	}
	if err := dev.Write(pool.Slot(0).Blocks, 0, []byte{1}); err == nil {
		t.Errorf("Expected slot buffers to be device local")
	}
}

func TestSlotPoolRejectsEdge(t *testing.T) {
	dev := newTestDevice(t)
	if _, err := NewSlotPool(dev, world.Ring{RenderDistance: 1}, 12); err == nil {
		t.Fatal("Expected edge 12 to be rejected")
	}
}
