// Kunhua Huang 2026

package server

import (
	"time"

	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/registry"
)

type serverOptions struct {
	address        string
	codecType      protocol.CodecType
	compressType   protocol.CompressType
	framing        protocol.FramingType
	maxFrameSize   int
	readBufferSize int
	pollInterval   time.Duration
	writeTimeout   time.Duration
	maxConnections int
	table          *Table
	registry       registry.Registry
}

func defaultServerOptions() *serverOptions {
	return &serverOptions{
		address:        ":8080",
		codecType:      protocol.CodecTypeProtobuf,
		compressType:   protocol.CompressTypeNone,
		framing:        protocol.FramingRaw,
		maxFrameSize:   1024 * 1024,
		readBufferSize: 1024,
		pollInterval:   10 * time.Millisecond,
		writeTimeout:   0,
		maxConnections: 0,
	}
}

type Option func(*serverOptions)

func WithAddress(addr string) Option {
	return func(o *serverOptions) {
		o.address = addr
	}
}

func WithCodec(codec protocol.CodecType, compress protocol.CompressType) Option {
	return func(o *serverOptions) {
		o.codecType = codec
		o.compressType = compress
	}
}

func WithFraming(framing protocol.FramingType, maxFrameSize int) Option {
	return func(o *serverOptions) {
		o.framing = framing
		o.maxFrameSize = maxFrameSize
	}
}

func WithReadBufferSize(size int) Option {
	return func(o *serverOptions) {
		o.readBufferSize = size
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(o *serverOptions) {
		o.pollInterval = interval
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(o *serverOptions) {
		o.writeTimeout = timeout
	}
}

func WithMaxConnections(n int) Option {
	return func(o *serverOptions) {
		o.maxConnections = n
	}
}

// WithTable replaces the default echo/add dispatch table.
func WithTable(t *Table) Option {
	return func(o *serverOptions) {
		o.table = t
	}
}

func WithRegistry(r registry.Registry) Option {
	return func(o *serverOptions) {
		o.registry = r
	}
}
