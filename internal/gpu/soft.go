package gpu

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// SoftKernel executes a kernel on the CPU. bufs are the dispatch's buffers
// in order; groups is informational since kernels cover whole chunks.
type SoftKernel func(params [8]int32, groups [3]uint32, bufs [][]byte) error

// SoftStats counts the work a SoftDevice has executed.
type SoftStats struct {
	Batches    int
	Dispatches map[Kernel]int
	Copies     int
	CopyBytes  int
}

type softFence struct {
	done chan struct{}
	err  error
}

func (f *softFence) Wait() error {
	<-f.done
	return f.err
}

type softBatch struct {
	cmds  []Command
	fence *softFence
}

// SoftDevice is a Device whose timeline is a single worker goroutine running
// Go kernels. Batches execute strictly in submission order. After a failed
// batch the device is lost and every later batch fails with the same error.
type SoftDevice struct {
	log     *zap.Logger
	kernels map[Kernel]SoftKernel

	mu          sync.Mutex
	buffers     [][]byte
	hostVisible []bool
	lost        error
	faultArmed  bool
	stats       SoftStats
	closed      bool

	// sendMu orders Submit's queue sends before Close closes the queue.
	sendMu sync.RWMutex
	queue  chan softBatch
	wg     sync.WaitGroup
}

// NewSoftDevice starts a software device running the given kernels.
func NewSoftDevice(log *zap.Logger, kernels map[Kernel]SoftKernel) *SoftDevice {
	d := &SoftDevice{
		log:     log,
		kernels: kernels,
		queue:   make(chan softBatch, 256),
		stats:   SoftStats{Dispatches: make(map[Kernel]int)},
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *SoftDevice) CreateBuffer(size int, hostVisible bool) (BufferID, error) {
	if size <= 0 {
		return 0, fmt.Errorf("create buffer: invalid size %d", size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, errors.New("create buffer: device closed")
	}
	d.buffers = append(d.buffers, make([]byte, size))
	d.hostVisible = append(d.hostVisible, hostVisible)
	return BufferID(len(d.buffers) - 1), nil
}

func (d *SoftDevice) Write(id BufferID, offset int, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, err := d.span(id, offset, len(data))
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if !d.hostVisible[id] {
		return fmt.Errorf("write: buffer %d is not host visible", id)
	}
	copy(buf, data)
	return nil
}

func (d *SoftDevice) Read(id BufferID, offset int, dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, err := d.span(id, offset, len(dst))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	copy(dst, buf)
	return nil
}

// span returns buffer id restricted to [offset, offset+n). Caller holds mu.
func (d *SoftDevice) span(id BufferID, offset, n int) ([]byte, error) {
	if id < 0 || int(id) >= len(d.buffers) {
		return nil, fmt.Errorf("unknown buffer %d", id)
	}
	buf := d.buffers[id]
	if offset < 0 || n < 0 || offset+n > len(buf) {
		return nil, fmt.Errorf("range [%d,%d) outside buffer %d of %d bytes", offset, offset+n, id, len(buf))
	}
	return buf[offset : offset+n], nil
}

func (d *SoftDevice) Submit(cmds []Command) (Fence, error) {
	d.sendMu.RLock()
	defer d.sendMu.RUnlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, errors.New("submit: device closed")
	}
	if err := d.validate(cmds); err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("submit: %w", err)
	}
	d.mu.Unlock()

	f := &softFence{done: make(chan struct{})}
	d.queue <- softBatch{cmds: cmds, fence: f}
	return f, nil
}

// validate checks buffer references and kernel availability. Caller holds mu.
func (d *SoftDevice) validate(cmds []Command) error {
	for i, cmd := range cmds {
		switch c := cmd.(type) {
		case Dispatch:
			if _, ok := d.kernels[c.Kernel]; !ok {
				return fmt.Errorf("command %d: kernel %v not available", i, c.Kernel)
			}
			for _, id := range c.Buffers {
				if _, err := d.span(id, 0, 0); err != nil {
					return fmt.Errorf("command %d: %w", i, err)
				}
			}
		case Copy:
			if _, err := d.span(c.Src, c.SrcOffset, c.Size); err != nil {
				return fmt.Errorf("command %d: copy source: %w", i, err)
			}
			if _, err := d.span(c.Dst, c.DstOffset, c.Size); err != nil {
				return fmt.Errorf("command %d: copy destination: %w", i, err)
			}
		default:
			return fmt.Errorf("command %d: unsupported command %T", i, cmd)
		}
	}
	return nil
}

// InjectFault makes the next executed batch fail and the device lost.
func (d *SoftDevice) InjectFault() {
	d.mu.Lock()
	d.faultArmed = true
	d.mu.Unlock()
}

// Stats returns a snapshot of the executed work counters.
func (d *SoftDevice) Stats() SoftStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Dispatches = make(map[Kernel]int, len(d.stats.Dispatches))
	for k, n := range d.stats.Dispatches {
		s.Dispatches[k] = n
	}
	return s
}

// Close drains the queue and stops the worker.
func (d *SoftDevice) Close() error {
	d.sendMu.Lock()
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.sendMu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()
	close(d.queue)
	d.sendMu.Unlock()
	d.wg.Wait()
	return nil
}

func (d *SoftDevice) worker() {
	defer d.wg.Done()
	for b := range d.queue {
		b.fence.err = d.execute(b.cmds)
		close(b.fence.done)
	}
}

func (d *SoftDevice) execute(cmds []Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost != nil {
		return d.lost
	}
	d.stats.Batches++
	if d.faultArmed {
		d.faultArmed = false
		d.lost = fmt.Errorf("%w: injected fault", ErrDeviceFailure)
		d.log.Warn("software device lost", zap.Error(d.lost))
		return d.lost
	}
	for i, cmd := range cmds {
		if err := d.run(cmd); err != nil {
			d.lost = fmt.Errorf("%w: command %d: %w", ErrDeviceFailure, i, err)
			d.log.Warn("software device lost", zap.Error(d.lost))
			return d.lost
		}
	}
	return nil
}

// run executes one command. Caller holds mu.
func (d *SoftDevice) run(cmd Command) error {
	switch c := cmd.(type) {
	case Dispatch:
		bufs := make([][]byte, len(c.Buffers))
		for i, id := range c.Buffers {
			bufs[i] = d.buffers[id]
		}
		d.stats.Dispatches[c.Kernel]++
		if err := d.kernels[c.Kernel](c.Params, c.Groups, bufs); err != nil {
			return fmt.Errorf("%v: %w", c.Kernel, err)
		}
	case Copy:
		src := d.buffers[c.Src][c.SrcOffset : c.SrcOffset+c.Size]
		dst := d.buffers[c.Dst][c.DstOffset : c.DstOffset+c.Size]
		copy(dst, src)
		d.stats.Copies++
		d.stats.CopyBytes += c.Size
	}
	return nil
}
