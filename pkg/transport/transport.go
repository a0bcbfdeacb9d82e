// Kunhua Huang 2025

package transport

import (
	"context"
	"net"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

// Handler turns one decoded request into a response. A nil response means
// nothing is written back.
type Handler func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

type ServerTransport interface {
	Run(handler Handler) error
	Stop()
	Addr() net.Addr
}

type peerKey struct{}

// Peer identifies the connection a request arrived on.
type Peer struct {
	ConnID     string
	RemoteAddr string
}

func ContextWithPeer(ctx context.Context, peer Peer) context.Context {
	return context.WithValue(ctx, peerKey{}, peer)
}

func PeerFromContext(ctx context.Context) (Peer, bool) {
	peer, ok := ctx.Value(peerKey{}).(Peer)
	return peer, ok
}
