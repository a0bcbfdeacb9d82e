// Kunhua Huang 2026

package server

import (
	"context"
	"fmt"

	"github.com/ecstasoy/echoadd/pkg/interceptor"
	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/registry"
	"github.com/ecstasoy/echoadd/pkg/transport"
	"github.com/ecstasoy/echoadd/pkg/transport/tcp"
)

type Server struct {
	opts         *serverOptions
	table        *Table
	transport    *tcp.Server
	interceptors []interceptor.Interceptor
}

func NewServer(opts ...Option) *Server {
	options := defaultServerOptions()
	for _, o := range opts {
		o(options)
	}

	table := options.table
	if table == nil {
		table = DefaultTable()
	}

	t := tcp.NewServer(
		options.codecType,
		options.compressType,
		transport.WithServerBufferSize(options.readBufferSize, 0),
		transport.WithPollInterval(options.pollInterval),
		transport.WithWriteTimeout(options.writeTimeout),
		transport.WithMaxConnections(options.maxConnections),
		transport.WithFraming(options.framing, options.maxFrameSize),
	)
	if options.registry != nil {
		t.SetRegistry(options.registry)
	}

	return &Server{
		opts:      options,
		table:     table,
		transport: t,
	}
}

// Use adds interceptors to the server's interceptor chain.
// usage:
// srv.Use(
//
//		interceptor.Recovery(),
//		interceptor.Logging(nil),
//		interceptor.Metrics(),
//	)
//
// The interceptors will be executed in the order they are added.
func (s *Server) Use(interceptors ...interceptor.Interceptor) {
	s.interceptors = append(s.interceptors, interceptors...)
}

// Start binds the configured address and serves until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve()
}

func (s *Server) Listen(ctx context.Context) error {
	if err := s.transport.Listen(ctx, s.opts.address); err != nil {
		return fmt.Errorf("failed to listen tcp transport: %w", err)
	}
	return nil
}

func (s *Server) Serve() error {
	return s.transport.Run(s.handler())
}

func (s *Server) handler() transport.Handler {
	invoker := interceptor.NewChain(s.interceptors...).Then(s.table.Dispatch)

	return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		return invoker(ctx, req)
	}
}

// HandleRequest dispatches one request through the interceptor chain
// without touching the network.
func (s *Server) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return s.handler()(ctx, req)
}

func (s *Server) Stop() {
	s.transport.Stop()
}

func (s *Server) Addr() string {
	if s.transport.Addr() != nil {
		return s.transport.Addr().String()
	}
	return ""
}

func (s *Server) Stats() tcp.ServerStats {
	return s.transport.Stats()
}

func (s *Server) State() tcp.State {
	return s.transport.State()
}

func (s *Server) Registry() registry.Registry {
	return s.transport.Registry()
}
