package gpu

import (
	"encoding/binary"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

// fill writes Params[0] as a byte into every element of Buffers[0].
func fill(params [8]int32, _ [3]uint32, bufs [][]byte) error {
	for i := range bufs[0] {
		bufs[0][i] = byte(params[0])
	}
	return nil
}

// increment adds one to every little-endian uint32 of Buffers[0].
func increment(_ [8]int32, _ [3]uint32, bufs [][]byte) error {
	b := bufs[0]
	for i := 0; i+4 <= len(b); i += 4 {
		binary.LittleEndian.PutUint32(b[i:], binary.LittleEndian.Uint32(b[i:])+1)
	}
	return nil
}

func failing([8]int32, [3]uint32, [][]byte) error {
	return errors.New("boom")
}

func newTestDevice(t *testing.T) *SoftDevice {
	t.Helper()
	dev := NewSoftDevice(zaptest.NewLogger(t), map[Kernel]SoftKernel{
		KernelTerrain:       fill,
		KernelDistanceSetup: failing,
		KernelDistanceSweep: increment,
	})
	t.Cleanup(func() { _ = dev.Close() })
	return dev
}
