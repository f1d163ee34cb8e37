package loader

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
)

// binaryReader reads the primitives of the Spine binary format. The first failure is kept
// in err; later reads return zero values, so callers check err once per section.
type binaryReader struct {
	data []byte
	pos  int
	err  error
}

func newBinaryReader(data []byte) *binaryReader {
	return &binaryReader{data: data}
}

func (r *binaryReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *binaryReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || len(r.data)-r.pos < n {
		r.fail(fmt.Errorf("skeleton data ends at byte %d: %w", r.pos, io.ErrUnexpectedEOF))
		return false
	}
	return true
}

func (r *binaryReader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

func (r *binaryReader) byte() byte {
	if !r.need(1) {
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *binaryReader) bool() bool {
	return r.byte() != 0
}

func (r *binaryReader) short() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *binaryReader) int32() int32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return int32(v)
}

func (r *binaryReader) int64() int64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return int64(v)
}

func (r *binaryReader) float() float32 {
	return math.Float32frombits(uint32(r.int32()))
}

// varint reads a 1 to 5 byte little-endian base 128 integer. Signed values are zigzag
// encoded; unsigned ones keep the raw bit pattern, so negative offsets survive.
func (r *binaryReader) varint(signed bool) int32 {
	var v uint32
	for shift := 0; shift < 35; shift += 7 {
		b := r.byte()
		if r.err != nil {
			return 0
		}
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
	}
	if signed {
		return int32(v>>1) ^ -int32(v&1)
	}
	return int32(v)
}

// count reads a collection length. Every element takes at least one byte, so a length
// beyond the remaining data means the file is corrupt.
func (r *binaryReader) count() int {
	n := r.varint(false)
	if r.err != nil {
		return 0
	}
	if n < 0 || int(n) > len(r.data)-r.pos {
		r.fail(fmt.Errorf("count %d at byte %d runs past the data: %w", n, r.pos, io.ErrUnexpectedEOF))
		return 0
	}
	return int(n)
}

// index reads a varint that must address one of n items.
func (r *binaryReader) index(n int, what string) int {
	i := r.varint(false)
	if r.err != nil {
		return 0
	}
	if i < 0 || int(i) >= n {
		r.fail(fmt.Errorf("%s index %d out of range at byte %d", what, i, r.pos))
		return 0
	}
	return int(i)
}

// str reads a length-prefixed UTF-8 string. ok is false for the null string.
func (r *binaryReader) str() (string, bool) {
	n := r.varint(false)
	switch {
	case r.err != nil || n == 0:
		return "", false
	case n == 1:
		return "", true
	}
	size := int(n) - 1
	if !r.need(size) {
		return "", false
	}
	s := string(r.data[r.pos : r.pos+size])
	r.pos += size
	return s, true
}

func (r *binaryReader) floats(n int) []float32 {
	if !r.need(n * 4) {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.float()
	}
	return out
}

// color reads a packed rgba8888 color.
func (r *binaryReader) color() skeleton.Color {
	v := uint32(r.int32())
	return skeleton.Color{
		R: float32(v>>24) / 255,
		G: float32((v>>16)&0xff) / 255,
		B: float32((v>>8)&0xff) / 255,
		A: float32(v&0xff) / 255,
	}
}
