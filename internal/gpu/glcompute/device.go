// Package glcompute implements gpu.Device on OpenGL 4.3 compute shaders.
//
// Every method must be called on the goroutine that owns the current GL
// context, normally the locked main thread.
package glcompute

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"

	"voxtrace/internal/gpu"
)

// fenceSpin is how long a single ClientWaitSync call may block before the
// wait loop checks again. Waits never give up.
const fenceSpin = uint64(time.Second)

type buffer struct {
	id          uint32
	size        int
	hostVisible bool
}

// Device is an OpenGL compute device. Batches are ordered by the GL command
// stream; each submission ends with a fence sync.
type Device struct {
	log      *zap.Logger
	programs map[gpu.Kernel]*program
	buffers  []buffer

	// Unsignalled fences in submission order.
	pending []*fence
	seq     uint64
	lost    error
	closed  bool
}

// New compiles one program per kernel. The caller must have made a 4.3 core
// context current and called gl.Init.
func New(log *zap.Logger, shaders map[gpu.Kernel]string) (*Device, error) {
	d := &Device{
		log:      log,
		programs: make(map[gpu.Kernel]*program, len(shaders)),
	}
	for _, k := range gpu.Kernels() {
		src, ok := shaders[k]
		if !ok {
			d.release()
			return nil, fmt.Errorf("no shader source for kernel %v", k)
		}
		p, err := newProgram(src)
		if err != nil {
			d.release()
			return nil, fmt.Errorf("kernel %v: %w", k, err)
		}
		d.programs[k] = p
	}
	log.Info("GL compute device ready",
		zap.String("vendor", gl.GoStr(gl.GetString(gl.VENDOR))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))
	return d, nil
}

func (d *Device) CreateBuffer(size int, hostVisible bool) (gpu.BufferID, error) {
	if size <= 0 {
		return 0, fmt.Errorf("create buffer: invalid size %d", size)
	}
	usage := uint32(gl.DYNAMIC_COPY)
	if hostVisible {
		usage = gl.DYNAMIC_READ
	}
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, id)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, usage)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	if err := glError("create buffer"); err != nil {
		gl.DeleteBuffers(1, &id)
		return 0, err
	}
	d.buffers = append(d.buffers, buffer{id: id, size: size, hostVisible: hostVisible})
	return gpu.BufferID(len(d.buffers) - 1), nil
}

func (d *Device) lookup(id gpu.BufferID, offset, n int) (buffer, error) {
	if id < 0 || int(id) >= len(d.buffers) {
		return buffer{}, fmt.Errorf("unknown buffer %d", id)
	}
	b := d.buffers[id]
	if offset < 0 || n < 0 || offset+n > b.size {
		return buffer{}, fmt.Errorf("range [%d,%d) outside buffer %d of %d bytes", offset, offset+n, id, b.size)
	}
	return b, nil
}

func (d *Device) Write(id gpu.BufferID, offset int, data []byte) error {
	b, err := d.lookup(id, offset, len(data))
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if !b.hostVisible {
		return fmt.Errorf("write: buffer %d is not host visible", id)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, offset, len(data), gl.Ptr(&data[0]))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	return glError("write")
}

func (d *Device) Read(id gpu.BufferID, offset int, dst []byte) error {
	b, err := d.lookup(id, offset, len(dst))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if len(dst) == 0 {
		return nil
	}
	gl.MemoryBarrier(gl.BUFFER_UPDATE_BARRIER_BIT)
	gl.BindBuffer(gl.COPY_READ_BUFFER, b.id)
	gl.GetBufferSubData(gl.COPY_READ_BUFFER, offset, len(dst), gl.Ptr(&dst[0]))
	gl.BindBuffer(gl.COPY_READ_BUFFER, 0)
	return glError("read")
}

func (d *Device) Submit(cmds []gpu.Command) (gpu.Fence, error) {
	if d.closed {
		return nil, errors.New("submit: device closed")
	}
	for i, cmd := range cmds {
		if err := d.record(cmd); err != nil {
			return nil, fmt.Errorf("submit: command %d: %w", i, err)
		}
	}
	if err := glError("submit"); err != nil {
		return nil, err
	}
	d.seq++
	f := &fence{dev: d, seq: d.seq, sync: gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)}
	d.pending = append(d.pending, f)
	return f, nil
}

func (d *Device) record(cmd gpu.Command) error {
	switch c := cmd.(type) {
	case gpu.Dispatch:
		p, ok := d.programs[c.Kernel]
		if !ok {
			return fmt.Errorf("kernel %v not available", c.Kernel)
		}
		for i, id := range c.Buffers {
			b, err := d.lookup(id, 0, 0)
			if err != nil {
				return err
			}
			gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(i), b.id)
		}
		p.use(&c.Params)
		gl.DispatchCompute(c.Groups[0], c.Groups[1], c.Groups[2])
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
	case gpu.Copy:
		src, err := d.lookup(c.Src, c.SrcOffset, c.Size)
		if err != nil {
			return fmt.Errorf("copy source: %w", err)
		}
		dst, err := d.lookup(c.Dst, c.DstOffset, c.Size)
		if err != nil {
			return fmt.Errorf("copy destination: %w", err)
		}
		gl.BindBuffer(gl.COPY_READ_BUFFER, src.id)
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, dst.id)
		gl.CopyBufferSubData(gl.COPY_READ_BUFFER, gl.COPY_WRITE_BUFFER, c.SrcOffset, c.DstOffset, c.Size)
		gl.BindBuffer(gl.COPY_READ_BUFFER, 0)
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
		gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return nil
}

// retire marks every fence up to and including seq as signalled.
func (d *Device) retire(seq uint64, err error) {
	n := 0
	for _, f := range d.pending {
		if f.seq > seq {
			break
		}
		f.finish(err)
		n++
	}
	d.pending = d.pending[n:]
}

func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	for len(d.pending) > 0 {
		_ = d.pending[len(d.pending)-1].Wait()
	}
	d.release()
	d.closed = true
	return nil
}

func (d *Device) release() {
	for _, b := range d.buffers {
		gl.DeleteBuffers(1, &b.id)
	}
	d.buffers = nil
	for _, p := range d.programs {
		p.delete()
	}
	d.programs = nil
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: GL error 0x%x", op, code)
	}
	return nil
}
