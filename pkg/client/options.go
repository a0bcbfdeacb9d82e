package client

import (
	"time"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

type clientOptions struct {
	codecType    protocol.CodecType
	compressType protocol.CompressType
	framing      protocol.FramingType
	maxFrameSize int
	dialTimeout  time.Duration
	callTimeout  time.Duration
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		codecType:    protocol.CodecTypeProtobuf,
		compressType: protocol.CompressTypeNone,
		framing:      protocol.FramingRaw,
		maxFrameSize: 1024 * 1024,
		dialTimeout:  5 * time.Second,
		callTimeout:  5 * time.Second,
	}
}

type Option func(*clientOptions)

func WithCodec(codec protocol.CodecType, compress protocol.CompressType) Option {
	return func(o *clientOptions) {
		o.codecType = codec
		o.compressType = compress
	}
}

func WithFraming(framing protocol.FramingType, maxFrameSize int) Option {
	return func(o *clientOptions) {
		o.framing = framing
		o.maxFrameSize = maxFrameSize
	}
}

func WithDialTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.dialTimeout = timeout
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.callTimeout = timeout
	}
}
