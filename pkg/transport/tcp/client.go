//Kunhua Huang 2026

package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/transport"
)

var ErrNotConnected = errors.New("client is not connected")

// Client sends one envelope at a time and waits for its reply.
type Client struct {
	address string
	opts    *transport.ClientOptions
	Codec   *ProtocolCodec

	mu      sync.Mutex // serializes calls and protects conn
	conn    net.Conn
	framer  transport.Framer
	pending [][]byte
}

func NewClient(
	address string,
	codecType protocol.CodecType,
	compressType protocol.CompressType,
	options ...transport.ClientOption,
) *Client {
	opts := transport.DefaultClientOptions()

	for _, o := range options {
		o(opts)
	}

	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = transport.DefaultClientOptions().ReadBufferSize
	}

	return &Client{
		address: address,
		opts:    opts,
		Codec:   NewProtocolCodec(codecType, compressType, opts.Framing, opts.MaxFrameSize),
	}
}

func (c *Client) Dial(ctx context.Context, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("already connected to: %s", c.conn.RemoteAddr().String())
	}

	addr := address
	if addr == "" {
		addr = c.address
	}

	dialer := &net.Dialer{Timeout: c.opts.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial tcp %s failed: %w", addr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return fmt.Errorf("set no-delay failed: %w", err)
		}
	}

	c.address = addr
	c.conn = conn
	c.framer = c.Codec.NewFramer()
	c.pending = nil

	return nil
}

// Send writes req and reads the next response from the connection.
func (c *Client) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	data, err := c.Codec.EncodeRequest(c.framer, req)
	if err != nil {
		return nil, err
	}

	if err := c.conn.SetDeadline(c.deadline(ctx)); err != nil {
		return nil, fmt.Errorf("set deadline failed: %w", err)
	}

	if _, err := c.conn.Write(data); err != nil {
		return nil, fmt.Errorf("write request failed: %w", err)
	}

	payload, err := c.readPayload()
	if err != nil {
		return nil, err
	}

	return c.Codec.DecodeResponse(payload)
}

// WriteRaw writes bytes to the connection without encoding or framing.
func (c *Client) WriteRaw(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return fmt.Errorf("set write deadline failed: %w", err)
	}

	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func (c *Client) readPayload() ([]byte, error) {
	buf := make([]byte, c.opts.ReadBufferSize)

	for len(c.pending) == 0 {
		n, err := c.conn.Read(buf)
		if n > 0 {
			payloads, ferr := c.framer.Feed(buf[:n])
			c.pending = append(c.pending, payloads...)
			if ferr != nil {
				return nil, fmt.Errorf("read response failed: %w", ferr)
			}
		}
		if err != nil && len(c.pending) == 0 {
			return nil, fmt.Errorf("read response failed: %w", err)
		}
	}

	payload := c.pending[0]
	c.pending = c.pending[1:]
	return payload, nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	if c.opts.CallTimeout > 0 {
		return time.Now().Add(c.opts.CallTimeout)
	}
	return time.Time{}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return fmt.Errorf("close connection failed: %w", err)
	}
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}

func (c *Client) RemoteAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	return c.conn.RemoteAddr()
}
