// Kunhua Huang 2025

package protocol

import (
	"fmt"
	"strings"
)

type CodecType byte

const (
	CodecTypeProtobuf CodecType = 0x00
	CodecTypeJSON     CodecType = 0x01
)

func (t CodecType) String() string {
	switch t {
	case CodecTypeProtobuf:
		return "protobuf"
	case CodecTypeJSON:
		return "json"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

func ParseCodecType(s string) (CodecType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "protobuf", "proto":
		return CodecTypeProtobuf, nil
	case "json":
		return CodecTypeJSON, nil
	default:
		return 0, fmt.Errorf("unknown codec %q", s)
	}
}

type CompressType byte

const (
	CompressTypeNone CompressType = 0x00
	CompressTypeGzip CompressType = 0x01
)

func (t CompressType) String() string {
	switch t {
	case CompressTypeNone:
		return "none"
	case CompressTypeGzip:
		return "gzip"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

func ParseCompressType(s string) (CompressType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressTypeNone, nil
	case "gzip":
		return CompressTypeGzip, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// FramingType selects how message boundaries are found on the stream.
type FramingType byte

const (
	// FramingRaw treats the bytes of one read as exactly one message.
	FramingRaw FramingType = 0x00
	// FramingLengthPrefixed prepends a 4-byte big-endian payload length.
	FramingLengthPrefixed FramingType = 0x01
)

func (t FramingType) String() string {
	switch t {
	case FramingRaw:
		return "raw"
	case FramingLengthPrefixed:
		return "length-prefixed"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

func ParseFramingType(s string) (FramingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return FramingRaw, nil
	case "length-prefixed", "length_prefixed", "lp":
		return FramingLengthPrefixed, nil
	default:
		return 0, fmt.Errorf("unknown framing %q", s)
	}
}
