package gpu

import (
	"bytes"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestSchedulerStateMachine(t *testing.T) {
	dev := newTestDevice(t)
	s := NewScheduler(dev, zaptest.NewLogger(t))

	if s.State() != Idle {
		t.Fatalf("Expected new scheduler to be idle, got %v", s.State())
	}
	// Waiting on a no-op future is immediate.
	if err := s.WaitAndReset(); err != nil {
		t.Fatalf("WaitAndReset on idle: %v", err)
	}

	buf, err := dev.CreateBuffer(16, true)
	if err != nil {
		t.Fatal(err)
	}
	f := s.Submit(Dispatch{Kernel: KernelTerrain, Params: [8]int32{7}, Buffers: []BufferID{buf}})
	if f.Done() {
		t.Errorf("Expected submitted future to carry work")
	}
	if s.State() != InFlight {
		t.Fatalf("Expected InFlight after submit, got %v", s.State())
	}
	s.Submit(Dispatch{Kernel: KernelTerrain, Params: [8]int32{9}, Buffers: []BufferID{buf}})
	if s.State() != InFlight {
		t.Fatalf("Expected InFlight after second submit, got %v", s.State())
	}

	if err := s.WaitAndReset(); err != nil {
		t.Fatalf("WaitAndReset: %v", err)
	}
	if s.State() != Idle {
		t.Fatalf("Expected Idle after WaitAndReset, got %v", s.State())
	}

	got := make([]byte, 16)
	if err := dev.Read(buf, 0, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{9}, 16)) {
		t.Errorf("Expected both batches to have run in order, got % x", got)
	}
}

func TestSchedulerExecutionFailure(t *testing.T) {
	dev := newTestDevice(t)
	s := NewScheduler(dev, zaptest.NewLogger(t))
	buf, _ := dev.CreateBuffer(8, true)

	s.Submit(Dispatch{Kernel: KernelDistanceSetup, Buffers: []BufferID{buf}})
	s.Submit(Dispatch{Kernel: KernelTerrain, Buffers: []BufferID{buf}})

	err := s.WaitAndReset()
	if !errors.Is(err, ErrDeviceFailure) {
		t.Fatalf("Expected ErrDeviceFailure, got %v", err)
	}
	if s.State() != Idle {
		t.Errorf("Expected Idle after failed wait, got %v", s.State())
	}
}

func TestSchedulerSubmitErrorSurfacesAtWait(t *testing.T) {
	dev := newTestDevice(t)
	s := NewScheduler(dev, zaptest.NewLogger(t))

	// Unknown buffer: rejected at submission, reported only at the wait.
	s.Submit(Copy{Src: 40, Dst: 41, Size: 4})
	if s.State() != InFlight {
		t.Fatalf("Expected recorded error to keep the scheduler in flight")
	}
	if err := s.WaitAndReset(); !errors.Is(err, ErrDeviceFailure) {
		t.Fatalf("Expected ErrDeviceFailure, got %v", err)
	}
	if err := s.WaitAndReset(); err != nil {
		t.Fatalf("Expected the error to be consumed, got %v", err)
	}
}

func TestSchedulerInjectedFault(t *testing.T) {
	dev := newTestDevice(t)
	s := NewScheduler(dev, zaptest.NewLogger(t))
	buf, _ := dev.CreateBuffer(8, true)

	dev.InjectFault()
	s.Submit(Dispatch{Kernel: KernelTerrain, Buffers: []BufferID{buf}})
	if err := s.WaitAndReset(); !errors.Is(err, ErrDeviceFailure) {
		t.Fatalf("Expected ErrDeviceFailure, got %v", err)
	}

	// A lost device keeps failing.
	s.Submit(Dispatch{Kernel: KernelTerrain, Buffers: []BufferID{buf}})
	if err := s.WaitAndReset(); !errors.Is(err, ErrDeviceFailure) {
		t.Fatalf("Expected lost device to keep failing, got %v", err)
	}
}
