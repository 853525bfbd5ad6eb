// Package wire implements the big-endian, length-prefixed primitive codec
// shared by the command catalog, the secure channel, and the simulator.
// Every multi-byte integer on the wire is big-endian; fixed-width fields
// encode without a length prefix, and variable-length payloads consume
// the rest of the enclosing buffer.
package wire

import (
	"bytes"
	"encoding/binary"
)

// Writer accumulates a command or response payload field by field, in
// declaration order, matching the struct's wire layout exactly.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Uint8 appends a single byte.
func (w *Writer) Uint8(v uint8) {
	w.buf.WriteByte(v)
}

// Uint16 appends a big-endian u16.
func (w *Writer) Uint16(v uint16) {
	binary.Write(&w.buf, binary.BigEndian, v)
}

// Uint32 appends a big-endian u32.
func (w *Writer) Uint32(v uint32) {
	binary.Write(&w.buf, binary.BigEndian, v)
}

// Uint64 appends a big-endian u64.
func (w *Writer) Uint64(v uint64) {
	binary.Write(&w.buf, binary.BigEndian, v)
}

// Bytes appends a raw byte slice without any length prefix.
func (w *Writer) Bytes(b []byte) {
	w.buf.Write(b)
}

// FixedField appends b, padding with zero bytes up to width or returning
// ErrFieldTooLong if b already exceeds width. Used for the 40-byte object
// label and similar fixed-width tags.
func (w *Writer) FixedField(b []byte, width int) error {
	if len(b) > width {
		return ErrFieldTooLong
	}
	w.buf.Write(b)
	if pad := width - len(b); pad > 0 {
		w.buf.Write(make([]byte, pad))
	}
	return nil
}

// Out returns the accumulated buffer. Named distinctly from the Bytes
// method above, which appends; Go does not allow overloading by arity.
func (w *Writer) Out() []byte {
	return w.buf.Bytes()
}

// Reader consumes a payload field by field in declaration order.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Uint8 decodes a single byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 decodes a big-endian u16.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint32 decodes a big-endian u32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint64 decodes a big-endian u64.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Fixed decodes exactly n raw bytes.
func (r *Reader) Fixed(n int) ([]byte, error) {
	return r.take(n)
}

// Rest returns and consumes every byte remaining in the buffer. Used for
// variable-length payloads that extend to the end of the enclosing frame.
func (r *Reader) Rest() []byte {
	b := r.data[r.pos:]
	r.pos = len(r.data)
	return b
}

// Remaining reports how many bytes are left to consume.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Done returns ErrTrailingBytes if any bytes remain unconsumed. Callers
// that expect to fully exhaust a fixed-layout payload should call this
// after their last field read.
func (r *Reader) Done() error {
	if r.Remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}
