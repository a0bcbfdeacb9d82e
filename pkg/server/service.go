// Kunhua Huang 2026

package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

var ErrUnsupportedMessage = errors.New("unsupported message type")

// HandlerFunc answers one request variant. Handlers do no I/O and share no
// state.
type HandlerFunc func(ctx context.Context, msg protocol.RequestMessage) (protocol.ResponseMessage, error)

// Table maps a request kind to the handler that answers it.
type Table struct {
	handlers map[protocol.Kind]HandlerFunc
	mu       sync.RWMutex
}

func NewTable() *Table {
	return &Table{
		handlers: make(map[protocol.Kind]HandlerFunc),
	}
}

// DefaultTable answers Echo and Add.
func DefaultTable() *Table {
	t := NewTable()
	_ = t.Register(protocol.KindEcho, Echo)
	_ = t.Register(protocol.KindAdd, Add)
	return t
}

func (t *Table) Register(kind protocol.Kind, handler HandlerFunc) error {
	if kind == protocol.KindUnset {
		return fmt.Errorf("cannot register a handler for the %s kind", kind)
	}
	if handler == nil {
		return fmt.Errorf("handler for %s is nil", kind)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.handlers[kind]; exists {
		return fmt.Errorf("handler for %s already registered", kind)
	}

	t.handlers[kind] = handler
	return nil
}

func (t *Table) Kinds() []protocol.Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()

	kinds := make([]protocol.Kind, 0, len(t.handlers))
	for k := range t.handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Dispatch returns ErrUnsupportedMessage for an unset or unregistered variant.
func (t *Table) Dispatch(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	kind := req.Kind()

	t.mu.RLock()
	handler, ok := t.handlers[kind]
	t.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMessage, kind)
	}

	msg, err := handler(ctx, req.Message)
	if err != nil {
		return nil, fmt.Errorf("handle %s: %w", kind, err)
	}

	return &protocol.Response{Message: msg}, nil
}

// Echo returns the content unchanged.
func Echo(_ context.Context, msg protocol.RequestMessage) (protocol.ResponseMessage, error) {
	echo, ok := msg.(*protocol.EchoMessage)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMessage, msg)
	}
	return &protocol.EchoMessage{Content: echo.Content}, nil
}

// Add sums with int32 two's-complement wraparound: MaxInt32 + 1 is MinInt32.
func Add(_ context.Context, msg protocol.RequestMessage) (protocol.ResponseMessage, error) {
	add, ok := msg.(*protocol.AddRequest)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMessage, msg)
	}
	return &protocol.AddResponse{Result: add.A + add.B}, nil
}
