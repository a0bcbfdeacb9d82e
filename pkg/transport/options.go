package transport

import (
	"time"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

// ------------------- Server Options -------------------

type ServerOptions struct {
	// ReadBufferSize is the most a worker reads in one cycle.
	ReadBufferSize  int
	WriteBufferSize int
	// PollInterval bounds how long accept and read wait before the
	// stop signal is checked again.
	PollInterval time.Duration
	// WriteTimeout of zero disables the write deadline.
	WriteTimeout   time.Duration
	MaxConnections int
	Framing        protocol.FramingType
	MaxFrameSize   int
}

func DefaultServerOptions() *ServerOptions {
	return &ServerOptions{
		ReadBufferSize:  1024,
		WriteBufferSize: 4 * 1024,
		PollInterval:    10 * time.Millisecond,
		WriteTimeout:    0,
		MaxConnections:  0,
		Framing:         protocol.FramingRaw,
		MaxFrameSize:    1024 * 1024,
	}
}

type ServerOption func(*ServerOptions)

// WithServerBufferSize overrides the buffer sizes. Non-positive sizes keep the default.
func WithServerBufferSize(readSize, writeSize int) ServerOption {
	return func(opts *ServerOptions) {
		if readSize > 0 {
			opts.ReadBufferSize = readSize
		}
		if writeSize > 0 {
			opts.WriteBufferSize = writeSize
		}
	}
}

func WithPollInterval(interval time.Duration) ServerOption {
	return func(opts *ServerOptions) {
		opts.PollInterval = interval
	}
}

func WithWriteTimeout(timeout time.Duration) ServerOption {
	return func(opts *ServerOptions) {
		opts.WriteTimeout = timeout
	}
}

func WithMaxConnections(maxConnections int) ServerOption {
	return func(opts *ServerOptions) {
		opts.MaxConnections = maxConnections
	}
}

func WithFraming(framing protocol.FramingType, maxFrameSize int) ServerOption {
	return func(opts *ServerOptions) {
		opts.Framing = framing
		opts.MaxFrameSize = maxFrameSize
	}
}

// ------------------- Client Options -------------------

type ClientOptions struct {
	DialTimeout    time.Duration
	CallTimeout    time.Duration
	ReadBufferSize int
	Framing        protocol.FramingType
	MaxFrameSize   int
}

func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		DialTimeout:    5 * time.Second,
		CallTimeout:    5 * time.Second,
		ReadBufferSize: 1024,
		Framing:        protocol.FramingRaw,
		MaxFrameSize:   1024 * 1024,
	}
}

type ClientOption func(*ClientOptions)

func WithDialTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.DialTimeout = timeout
	}
}

func WithCallTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.CallTimeout = timeout
	}
}

func WithClientFraming(framing protocol.FramingType, maxFrameSize int) ClientOption {
	return func(opts *ClientOptions) {
		opts.Framing = framing
		opts.MaxFrameSize = maxFrameSize
	}
}

func WithClientReadBufferSize(size int) ClientOption {
	return func(opts *ClientOptions) {
		opts.ReadBufferSize = size
	}
}
