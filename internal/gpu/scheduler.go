package gpu

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// State is the scheduler's view of outstanding device work.
type State int

const (
	Idle State = iota
	InFlight
)

func (s State) String() string {
	if s == Idle {
		return "idle"
	}
	return "in-flight"
}

// Future stands for all device work submitted since the last reset.
// The zero Future is already complete.
type Future struct {
	fence Fence
	err   error
}

// Done reports whether the future carries no device work.
func (f Future) Done() bool {
	return f.fence == nil && f.err == nil
}

// Scheduler serialises host access to device resources behind a single
// tracked future. It is owned by one goroutine and is not safe for
// concurrent use.
type Scheduler struct {
	dev  Device
	last Future
	log  *zap.Logger
}

// NewScheduler creates an idle scheduler for dev.
func NewScheduler(dev Device, log *zap.Logger) *Scheduler {
	return &Scheduler{dev: dev, log: log}
}

// Device returns the device the scheduler submits to.
func (s *Scheduler) Device() Device { return s.dev }

// State reports whether device work is outstanding.
func (s *Scheduler) State() State {
	if s.last.Done() {
		return Idle
	}
	return InFlight
}

// Submit queues cmds after all previously submitted work and returns the
// combined future. Submission errors do not surface here; they are kept in
// the chain and returned by the next WaitAndReset.
func (s *Scheduler) Submit(cmds ...Command) Future {
	next := s.last
	fence, err := s.dev.Submit(cmds)
	switch {
	case err != nil:
		if next.err == nil {
			next.err = err
		}
		s.log.Debug("device submit failed", zap.Int("commands", len(cmds)), zap.Error(err))
	default:
		// Batches complete in order, so the newest fence covers the rest.
		next.fence = fence
	}
	s.last = next
	return next
}

// WaitAndReset blocks until every submitted batch has completed and returns
// the scheduler to Idle. It never times out.
func (s *Scheduler) WaitAndReset() error {
	f := s.last
	s.last = Future{}
	if f.Done() {
		return nil
	}

	err := f.err
	if f.fence != nil {
		if werr := f.fence.Wait(); werr != nil && err == nil {
			err = werr
		}
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDeviceFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDeviceFailure, err)
}
