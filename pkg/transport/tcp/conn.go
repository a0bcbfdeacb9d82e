// Kunhua Huang 2026

package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/ecstasoy/echoadd/pkg/log"
	"github.com/ecstasoy/echoadd/pkg/registry"
	"github.com/ecstasoy/echoadd/pkg/transport"
)

// worker serves one accepted connection until the peer leaves, an I/O error
// occurs, or the server is stopped. It handles one message at a time.
type worker struct {
	server  *Server
	conn    net.Conn
	handle  registry.Handle
	handler transport.Handler
	framer  transport.Framer
	writer  *bufio.Writer
	logger  *slog.Logger
}

func newWorker(s *Server, conn net.Conn, handle registry.Handle, handler transport.Handler) *worker {
	return &worker{
		server:  s,
		conn:    conn,
		handle:  handle,
		handler: handler,
		framer:  s.codec.NewFramer(),
		writer:  bufio.NewWriterSize(conn, s.opts.WriteBufferSize),
		logger:  log.WithConn(handle.ID, handle.RemoteAddr),
	}
}

func (w *worker) serve(ctx context.Context) {
	defer w.finish()

	ctx = transport.ContextWithPeer(ctx, transport.Peer{
		ConnID:     w.handle.ID,
		RemoteAddr: w.handle.RemoteAddr,
	})

	err := w.loop(ctx)

	switch {
	case err == nil && ctx.Err() != nil:
		workerExits.WithLabelValues("shutdown").Inc()
		w.logger.Info("worker stopping on shutdown")
	case err == nil:
		workerExits.WithLabelValues("eof").Inc()
		w.logger.Info("client disconnected")
	default:
		workerExits.WithLabelValues("error").Inc()
		w.logger.Error("error handling client", "error", err)
	}
}

// loop returns nil on peer EOF or shutdown.
func (w *worker) loop(ctx context.Context) error {
	buf := make([]byte, w.server.opts.ReadBufferSize)

	for ctx.Err() == nil {
		if err := w.conn.SetReadDeadline(time.Now().Add(w.server.opts.PollInterval)); err != nil {
			return fmt.Errorf("set read deadline failed: %w", err)
		}

		n, err := w.conn.Read(buf)
		if n > 0 {
			if perr := w.process(ctx, buf[:n]); perr != nil {
				return perr
			}
		}

		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read from connection failed: %w", err)
		}
	}

	return nil
}

func (w *worker) process(ctx context.Context, chunk []byte) error {
	payloads, ferr := w.framer.Feed(chunk)

	for _, payload := range payloads {
		if err := w.handleMessage(ctx, payload); err != nil {
			return err
		}
	}

	if ferr != nil {
		return fmt.Errorf("framing failed: %w", ferr)
	}

	return nil
}

// handleMessage only returns an error when the connection must be dropped.
func (w *worker) handleMessage(ctx context.Context, payload []byte) error {
	req, err := w.server.codec.DecodeRequest(payload)
	if err != nil {
		w.server.decodeErrors.Add(1)
		decodeErrors.Inc()
		w.logger.Warn("failed to decode client message, dropping", "bytes", len(payload), "error", err)
		return nil
	}

	w.logger.Debug("received message", "request", req.String())

	resp, err := w.handler(ctx, req)
	if err != nil {
		w.logger.Warn("no response for message", "kind", req.Kind().String(), "error", err)
		return nil
	}

	if resp == nil {
		return nil
	}

	data, err := w.server.codec.EncodeResponse(w.framer, resp)
	if err != nil {
		w.logger.Error("failed to encode response", "kind", resp.Kind().String(), "error", err)
		return nil
	}

	if err := w.write(data); err != nil {
		return err
	}

	w.server.messagesHandled.Add(1)
	return nil
}

func (w *worker) write(data []byte) error {
	if timeout := w.server.opts.WriteTimeout; timeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("set write deadline failed: %w", err)
		}
	}

	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("write response failed: %w", err)
	}

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush response failed: %w", err)
	}

	return nil
}

func (w *worker) finish() {
	if err := w.server.registry.Remove(w.handle.Key()); err != nil {
		w.logger.Warn("deregister connection failed", "error", err)
	}

	w.server.activeConnections.Add(-1)
	connectionsActive.Dec()

	if err := w.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		w.logger.Warn("close connection failed", "error", err)
	}
}
