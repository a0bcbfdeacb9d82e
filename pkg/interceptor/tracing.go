package interceptor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/transport"
)

const tracerName = "github.com/ecstasoy/echoadd/pkg/interceptor"

// Tracing opens one span per dispatched message on the global tracer
// provider. Without a configured provider the spans are no-ops.
func Tracing() Interceptor {
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, req *protocol.Request, invoker Invoker) (*protocol.Response, error) {
		ctx, span := tracer.Start(ctx, "echoadd.dispatch/"+req.Kind().String(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("echoadd.kind", req.Kind().String())),
		)
		defer span.End()

		if peer, ok := transport.PeerFromContext(ctx); ok {
			span.SetAttributes(
				attribute.String("echoadd.conn_id", peer.ConnID),
				attribute.String("net.peer.addr", peer.RemoteAddr),
			)
		}

		resp, err := invoker(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return resp, err
	}
}
