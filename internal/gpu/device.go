// Package gpu models the device timeline that holds the chunk slot arena.
//
// A Device executes batches of commands asynchronously and in submission
// order. Callers never wait on individual batches; they go through a
// Scheduler, which tracks the most recent submission and is the only place
// device completion and failure are observed.
package gpu

import (
	"errors"
	"fmt"
)

// ErrDeviceFailure reports that the device rejected or failed to execute
// submitted work. It is not recoverable.
var ErrDeviceFailure = errors.New("device failure")

// BufferID names a device buffer. IDs are assigned by CreateBuffer and are
// never reused.
type BufferID int

// Kernel identifies one of the compute kernels a device can run.
type Kernel uint8

const (
	// KernelTerrain fills Buffers[0] with the generated chunk at coordinate
	// Params[0:3]. Params[3] is the edge, Params[4:6] the world seed.
	KernelTerrain Kernel = iota
	// KernelDistanceSetup seeds the distance field Buffers[1] from the block
	// buffer Buffers[0]: occupied cells 0, air cells Params[3] (the edge).
	KernelDistanceSetup
	// KernelDistanceSweep propagates the field in Buffers[0] along the
	// diagonal direction Params[0:3].
	KernelDistanceSweep

	kernelCount
)

var kernelNames = [kernelCount]string{
	KernelTerrain:       "terrain",
	KernelDistanceSetup: "distance_setup",
	KernelDistanceSweep: "distance_sweep",
}

func (k Kernel) String() string {
	if k < kernelCount {
		return kernelNames[k]
	}
	return fmt.Sprintf("kernel(%d)", uint8(k))
}

// Kernels returns every kernel a complete device must provide.
func Kernels() []Kernel {
	return []Kernel{KernelTerrain, KernelDistanceSetup, KernelDistanceSweep}
}

// Command is one unit of device work inside a batch.
type Command interface {
	command()
}

// Dispatch runs a kernel over Groups work groups.
type Dispatch struct {
	Kernel  Kernel
	Groups  [3]uint32
	Params  [8]int32
	Buffers []BufferID
}

// Copy transfers Size bytes between two device buffers.
type Copy struct {
	Src, Dst             BufferID
	SrcOffset, DstOffset int
	Size                 int
}

func (Dispatch) command() {}
func (Copy) command()     {}

// Fence is signalled once a submitted batch, and every batch before it,
// has finished executing.
type Fence interface {
	Wait() error
}

// Device is the asynchronous compute timeline.
//
// Write and Read access buffer memory from the host immediately; they do not
// wait for queued work. Write is only permitted on host-visible buffers.
type Device interface {
	CreateBuffer(size int, hostVisible bool) (BufferID, error)
	Write(id BufferID, offset int, data []byte) error
	Read(id BufferID, offset int, dst []byte) error
	Submit(cmds []Command) (Fence, error)
	Close() error
}
