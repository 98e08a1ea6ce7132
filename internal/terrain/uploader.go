package terrain

import (
	"encoding/binary"
	"fmt"

	"voxtrace/internal/gpu"
	"voxtrace/internal/profiling"
	"voxtrace/internal/world"
)

// Uploader copies chunk content from the host into slot block buffers via
// the staging buffer. Every staging write is preceded by a drain, so the
// staging buffer is never overwritten while a copy still reads it.
type Uploader struct {
	sched *gpu.Scheduler
	pool  *gpu.SlotPool
	buf   []byte
}

func NewUploader(sched *gpu.Scheduler, pool *gpu.SlotPool) *Uploader {
	return &Uploader{
		sched: sched,
		pool:  pool,
		buf:   make([]byte, gpu.BlockBufferSize(pool.Edge())),
	}
}

// Upload replaces the whole block buffer of slot with ch.
func (u *Uploader) Upload(slot int, ch *world.Chunk) error {
	defer profiling.Track("terrain.Upload")()
	if ch.Edge() != u.pool.Edge() {
		return fmt.Errorf("upload: chunk edge %d, slots use %d", ch.Edge(), u.pool.Edge())
	}
	if err := u.sched.WaitAndReset(); err != nil {
		return err
	}
	for i, id := range ch.Blocks() {
		binary.LittleEndian.PutUint16(u.buf[2*i:], uint16(id))
	}
	if err := u.pool.Device().Write(u.pool.Staging(), 0, u.buf); err != nil {
		return fmt.Errorf("upload slot %d: %w", slot, err)
	}
	u.sched.Submit(gpu.Copy{
		Src:  u.pool.Staging(),
		Dst:  u.pool.Slot(slot).Blocks,
		Size: len(u.buf),
	})
	return nil
}

// UploadBlock overwrites the single element at offset in slot's block buffer.
func (u *Uploader) UploadBlock(slot, offset int, id world.BlockID) error {
	edge := u.pool.Edge()
	if offset < 0 || offset >= edge*edge*edge {
		return fmt.Errorf("upload block: offset %d outside chunk", offset)
	}
	if err := u.sched.WaitAndReset(); err != nil {
		return err
	}
	var elem [2]byte
	binary.LittleEndian.PutUint16(elem[:], uint16(id))
	if err := u.pool.Device().Write(u.pool.Staging(), offset*2, elem[:]); err != nil {
		return fmt.Errorf("upload block to slot %d: %w", slot, err)
	}
	u.sched.Submit(gpu.Copy{
		Src:       u.pool.Staging(),
		Dst:       u.pool.Slot(slot).Blocks,
		SrcOffset: offset * 2,
		DstOffset: offset * 2,
		Size:      2,
	})
	return nil
}
