// Kunhua Huang 2026

package transport

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

const lengthPrefixSize = 4

var ErrFrameTooLarge = errors.New("frame exceeds max size")

// Framer finds message boundaries on a byte stream.
//
// A Framer holds per-connection state and must not be shared between
// connections.
type Framer interface {
	// Feed takes the bytes of one read and returns every complete payload.
	Feed(chunk []byte) ([][]byte, error)
	// Frame prepares one encoded payload for writing.
	Frame(payload []byte) []byte
}

// NewFramer returns a fresh framer for one connection.
func NewFramer(typ protocol.FramingType, maxFrameSize int) Framer {
	if typ == protocol.FramingLengthPrefixed {
		return NewLengthPrefixFramer(maxFrameSize)
	}
	return &RawFramer{}
}

// RawFramer has no boundaries of its own: the bytes of one read are one
// message. A message split across reads or two messages coalesced into one
// read will not decode correctly.
type RawFramer struct{}

var _ Framer = (*RawFramer)(nil)

func (f *RawFramer) Feed(chunk []byte) ([][]byte, error) {
	if len(chunk) == 0 {
		return nil, nil
	}
	payload := make([]byte, len(chunk))
	copy(payload, chunk)
	return [][]byte{payload}, nil
}

func (f *RawFramer) Frame(payload []byte) []byte {
	return payload
}

// LengthPrefixFramer prefixes each payload with its length as a 4-byte
// big-endian integer and reassembles payloads across reads.
type LengthPrefixFramer struct {
	maxFrameSize int
	buf          []byte
}

var _ Framer = (*LengthPrefixFramer)(nil)

func NewLengthPrefixFramer(maxFrameSize int) *LengthPrefixFramer {
	return &LengthPrefixFramer{maxFrameSize: maxFrameSize}
}

func (f *LengthPrefixFramer) Feed(chunk []byte) ([][]byte, error) {
	f.buf = append(f.buf, chunk...)

	var payloads [][]byte
	for len(f.buf) >= lengthPrefixSize {
		length := binary.BigEndian.Uint32(f.buf[:lengthPrefixSize])
		if f.maxFrameSize > 0 && uint64(length) > uint64(f.maxFrameSize) {
			f.buf = nil
			return payloads, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, f.maxFrameSize)
		}

		end := lengthPrefixSize + int(length)
		if len(f.buf) < end {
			break
		}

		payload := make([]byte, length)
		copy(payload, f.buf[lengthPrefixSize:end])
		payloads = append(payloads, payload)
		f.buf = f.buf[end:]
	}

	if len(f.buf) == 0 {
		f.buf = nil
	}

	return payloads, nil
}

func (f *LengthPrefixFramer) Frame(payload []byte) []byte {
	out := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(payload)))
	copy(out[lengthPrefixSize:], payload)
	return out
}

// Buffered reports how many bytes of an incomplete frame are held.
func (f *LengthPrefixFramer) Buffered() int {
	return len(f.buf)
}
