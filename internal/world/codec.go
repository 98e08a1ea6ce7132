package world

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Persisted worlds are a flat stream of records:
//
//	[x,y,z int32 little-endian][edge^3 block codes, uint16 big-endian, x fastest]
//
// There is no header and no record count; end of stream terminates.

// ErrCodec reports malformed persisted chunk data.
var ErrCodec = errors.New("malformed chunk data")

const coordBytes = 12

// RecordSize is the encoded size of one chunk record.
func RecordSize(edge int) int {
	return coordBytes + 2*edge*edge*edge
}

// AppendCoord appends the little-endian encoding of c.
func AppendCoord(dst []byte, c ChunkCoord) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(c.X))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(c.Y))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(c.Z))
	return dst
}

// DecodeCoord reads a coordinate from the first 12 bytes of src.
func DecodeCoord(src []byte) (ChunkCoord, error) {
	if len(src) < coordBytes {
		return ChunkCoord{}, fmt.Errorf("%w: coordinate needs %d bytes, got %d", ErrCodec, coordBytes, len(src))
	}
	return ChunkCoord{
		X: int32(binary.LittleEndian.Uint32(src[0:])),
		Y: int32(binary.LittleEndian.Uint32(src[4:])),
		Z: int32(binary.LittleEndian.Uint32(src[8:])),
	}, nil
}

// AppendBlocks appends the big-endian block codes of ch.
func AppendBlocks(dst []byte, ch *Chunk) []byte {
	for _, b := range ch.blocks {
		dst = binary.BigEndian.AppendUint16(dst, uint16(b))
	}
	return dst
}

// DecodeBlocks parses big-endian block codes into a new chunk.
func DecodeBlocks(edge int, src []byte) (*Chunk, error) {
	n := edge * edge * edge
	if len(src) != 2*n {
		return nil, fmt.Errorf("%w: block array needs %d bytes, got %d", ErrCodec, 2*n, len(src))
	}
	ch := NewChunk(edge)
	for i := range n {
		id := BlockID(binary.BigEndian.Uint16(src[2*i:]))
		if !id.Valid() {
			return nil, fmt.Errorf("%w: block %d has unknown code %d", ErrCodec, i, id)
		}
		ch.blocks[i] = id
	}
	return ch, nil
}

// Encoder writes chunk records to a stream.
type Encoder struct {
	w    *bufio.Writer
	edge int
	buf  []byte
}

// NewEncoder creates an encoder for chunks of the given edge length.
func NewEncoder(w io.Writer, edge int) *Encoder {
	return &Encoder{
		w:    bufio.NewWriterSize(w, 64*1024),
		edge: edge,
		buf:  make([]byte, 0, RecordSize(edge)),
	}
}

// Encode writes one record.
func (e *Encoder) Encode(c ChunkCoord, ch *Chunk) error {
	if ch.edge != e.edge {
		return fmt.Errorf("chunk %v has edge %d, encoder expects %d", c, ch.edge, e.edge)
	}
	e.buf = AppendCoord(e.buf[:0], c)
	e.buf = AppendBlocks(e.buf, ch)
	_, err := e.w.Write(e.buf)
	return err
}

// Flush writes any buffered records to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// Decoder reads chunk records from a stream.
type Decoder struct {
	r    io.Reader
	edge int
	buf  []byte
}

// NewDecoder creates a decoder for chunks of the given edge length.
func NewDecoder(r io.Reader, edge int) *Decoder {
	return &Decoder{
		r:    bufio.NewReaderSize(r, 64*1024),
		edge: edge,
		buf:  make([]byte, RecordSize(edge)),
	}
}

// Decode reads the next record. It returns io.EOF at a clean end of stream
// and ErrCodec when the stream ends inside a record.
func (d *Decoder) Decode() (ChunkCoord, *Chunk, error) {
	n, err := io.ReadFull(d.r, d.buf)
	switch {
	case errors.Is(err, io.EOF):
		return ChunkCoord{}, nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return ChunkCoord{}, nil, fmt.Errorf("%w: truncated record (%d of %d bytes)", ErrCodec, n, len(d.buf))
	case err != nil:
		return ChunkCoord{}, nil, err
	}
	c, err := DecodeCoord(d.buf)
	if err != nil {
		return ChunkCoord{}, nil, err
	}
	ch, err := DecodeBlocks(d.edge, d.buf[coordBytes:])
	if err != nil {
		return ChunkCoord{}, nil, fmt.Errorf("chunk %v: %w", c, err)
	}
	return c, ch, nil
}
