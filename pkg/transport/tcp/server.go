// Kunhua Huang 2026

package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecstasoy/echoadd/pkg/log"
	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/registry"
	"github.com/ecstasoy/echoadd/pkg/registry/memory"
	"github.com/ecstasoy/echoadd/pkg/transport"
)

var (
	ErrNotListening   = errors.New("server is not listening")
	ErrAlreadyRunning = errors.New("server is already running")
	ErrServerStopped  = errors.New("server has been stopped")
)

// State is the one-way lifecycle of a Server: idle, running, stopped.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

type deadlineListener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

type Server struct {
	address  string
	opts     *transport.ServerOptions
	codec    *ProtocolCodec
	registry registry.Registry
	logger   *slog.Logger

	mu       sync.Mutex
	listener deadlineListener

	// ctx is the shutdown signal handed to the acceptor and every worker.
	ctx    context.Context
	cancel context.CancelFunc
	state  atomic.Int32

	activeConnections atomic.Int64
	totalConnections  atomic.Int64
	decodeErrors      atomic.Int64
	messagesHandled   atomic.Int64
}

var _ transport.ServerTransport = (*Server)(nil)

func NewServer(
	codecType protocol.CodecType,
	compressType protocol.CompressType,
	options ...transport.ServerOption,
) *Server {
	opts := transport.DefaultServerOptions()

	for _, o := range options {
		o(opts)
	}

	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = transport.DefaultServerOptions().ReadBufferSize
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = transport.DefaultServerOptions().PollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		opts:     opts,
		codec:    NewProtocolCodec(codecType, compressType, opts.Framing, opts.MaxFrameSize),
		registry: memory.NewRegistry(),
		logger:   log.WithComponent("acceptor"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetRegistry replaces the connection registry. It must be called before Run.
func (s *Server) SetRegistry(r registry.Registry) {
	s.registry = r
}

// Listen binds addr. A bind failure leaves the server idle and is returned.
func (s *Server) Listen(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if State(s.state.Load()) == StateStopped {
		return ErrServerStopped
	}

	if s.listener != nil {
		return fmt.Errorf("already listening on %s", s.address)
	}

	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	dl, ok := listener.(deadlineListener)
	if !ok {
		_ = listener.Close()
		return fmt.Errorf("listener on %s does not support deadlines", addr)
	}

	s.listener = dl
	s.address = listener.Addr().String()

	return nil
}

// Run accepts connections on the calling goroutine until Stop is called.
// In-flight connections are not closed on return; their workers observe
// the stop signal themselves.
func (s *Server) Run(handler transport.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if listener == nil {
		return ErrNotListening
	}

	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if State(s.state.Load()) == StateStopped {
			return ErrServerStopped
		}
		return ErrAlreadyRunning
	}

	defer func() {
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("close listener failed", "error", err)
		}
	}()

	s.logger.Info("server is running", "addr", listener.Addr().String(), "codec", s.codec.Name())

	for s.ctx.Err() == nil {
		if err := listener.SetDeadline(time.Now().Add(s.opts.PollInterval)); err != nil {
			return fmt.Errorf("set accept deadline failed: %w", err)
		}

		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}

			if errors.Is(err, net.ErrClosed) {
				if s.ctx.Err() != nil {
					break
				}
				return fmt.Errorf("accept connection failed: %w", err)
			}

			s.logger.Error("accept connection failed", "error", err)
			s.backoff()
			continue
		}

		s.accept(conn, handler)
	}

	s.logger.Info("server stopped", "addr", listener.Addr().String())
	return nil
}

func (s *Server) accept(conn net.Conn, handler transport.Handler) {
	if s.opts.MaxConnections > 0 && s.activeConnections.Load() >= int64(s.opts.MaxConnections) {
		s.logger.Warn("max connections reached, closing new connection",
			"remote", conn.RemoteAddr().String(), "max", s.opts.MaxConnections)
		connectionsRejected.Inc()
		_ = conn.Close()
		return
	}

	handle := registry.NewHandle(conn)
	if err := s.registry.Insert(handle); err != nil {
		s.logger.Error("register connection failed", "remote", handle.RemoteAddr, "error", err)
		_ = conn.Close()
		return
	}

	s.activeConnections.Add(1)
	s.totalConnections.Add(1)
	connectionsActive.Inc()
	connectionsTotal.Inc()

	s.logger.Info("new client connected", "conn_id", handle.ID, "remote", handle.RemoteAddr)

	w := newWorker(s, conn, handle, handler)
	go w.serve(s.ctx)
}

func (s *Server) backoff() {
	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
	case <-timer.C:
	}
}

// Stop signals the acceptor and every worker to finish and returns at once.
// It is safe to call more than once and from any goroutine.
func (s *Server) Stop() {
	prev := State(s.state.Swap(int32(StateStopped)))
	s.cancel()

	// Run never started, so nothing else will release the listener.
	if prev == StateIdle {
		s.mu.Lock()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.mu.Unlock()
	}
}

func (s *Server) State() State {
	return State(s.state.Load())
}

func (s *Server) Registry() registry.Registry {
	return s.registry
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

func (s *Server) Stats() ServerStats {
	s.mu.Lock()
	address := s.address
	s.mu.Unlock()

	return ServerStats{
		ActiveConnections: s.activeConnections.Load(),
		TotalConnections:  s.totalConnections.Load(),
		DecodeErrors:      s.decodeErrors.Load(),
		MessagesHandled:   s.messagesHandled.Load(),
		Address:           address,
	}
}

type ServerStats struct {
	ActiveConnections int64
	TotalConnections  int64
	DecodeErrors      int64
	MessagesHandled   int64
	Address           string
}
