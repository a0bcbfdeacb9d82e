// Kunhua Huang 2026

package interceptor

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecstasoy/echoadd/pkg/log"
	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/transport"
)

func Logging(logger *slog.Logger) Interceptor {
	if logger == nil {
		logger = log.WithComponent("dispatch")
	}

	return func(ctx context.Context, req *protocol.Request, invoker Invoker) (*protocol.Response, error) {
		start := time.Now()

		attrs := []any{slog.String("kind", req.Kind().String())}
		if peer, ok := transport.PeerFromContext(ctx); ok {
			attrs = append(attrs, slog.String("conn_id", peer.ConnID), slog.String("remote", peer.RemoteAddr))
		}

		resp, err := invoker(ctx, req)

		attrs = append(attrs, slog.Duration("duration", time.Since(start)))

		if err != nil {
			logger.Warn("dispatch failed", append(attrs, slog.String("error", err.Error()))...)
		} else {
			logger.Debug("dispatch succeeded", append(attrs, slog.String("response", resp.Kind().String()))...)
		}

		return resp, err
	}
}
