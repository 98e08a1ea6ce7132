package glcompute

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"

	"voxtrace/internal/gpu"
)

type fence struct {
	dev  *Device
	seq  uint64
	sync uintptr
	done bool
	err  error
}

// Wait blocks until the GPU has passed this fence. Earlier fences are
// retired with it since the command stream is ordered.
func (f *fence) Wait() error {
	if f.done {
		return f.err
	}
	if f.dev.lost != nil {
		f.dev.retire(f.seq, f.dev.lost)
		return f.err
	}
	waits := 0
	for {
		status := gl.ClientWaitSync(f.sync, gl.SYNC_FLUSH_COMMANDS_BIT, fenceSpin)
		switch status {
		case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
			if waits > 0 {
				f.dev.log.Debug("slow GPU fence", zap.Uint64("seq", f.seq), zap.Int("spins", waits))
			}
			f.dev.retire(f.seq, nil)
			return nil
		case gl.TIMEOUT_EXPIRED:
			waits++
		default:
			f.dev.lost = fmt.Errorf("%w: glClientWaitSync returned 0x%x", gpu.ErrDeviceFailure, status)
			f.dev.log.Error("GPU fence wait failed", zap.Error(f.dev.lost))
			f.dev.retire(f.seq, f.dev.lost)
			return f.err
		}
	}
}

func (f *fence) finish(err error) {
	if f.done {
		return
	}
	gl.DeleteSync(f.sync)
	f.done = true
	f.err = err
}
