package client

import (
	"context"
	"fmt"

	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/transport"
	"github.com/ecstasoy/echoadd/pkg/transport/tcp"
)

// Client calls an echoadd server over one connection. Calls are serialized.
type Client struct {
	opts *clientOptions
	conn *tcp.Client
}

func Dial(ctx context.Context, address string, opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}

	conn := tcp.NewClient(
		address,
		options.codecType,
		options.compressType,
		transport.WithDialTimeout(options.dialTimeout),
		transport.WithCallTimeout(options.callTimeout),
		transport.WithClientFraming(options.framing, options.maxFrameSize),
	)

	if err := conn.Dial(ctx, address); err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{opts: options, conn: conn}, nil
}

// Send issues one request and returns whatever response arrives next.
func (c *Client) Send(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	resp, err := c.conn.Send(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (c *Client) Echo(ctx context.Context, content string) (string, error) {
	resp, err := c.Send(ctx, protocol.NewEchoRequest(content))
	if err != nil {
		return "", err
	}

	echo, ok := resp.Message.(*protocol.EchoMessage)
	if !ok {
		return "", unexpected(protocol.KindEcho, resp)
	}
	return echo.Content, nil
}

func (c *Client) Add(ctx context.Context, a, b int32) (int32, error) {
	resp, err := c.Send(ctx, protocol.NewAddRequest(a, b))
	if err != nil {
		return 0, err
	}

	sum, ok := resp.Message.(*protocol.AddResponse)
	if !ok {
		return 0, unexpected(protocol.KindAddResult, resp)
	}
	return sum.Result, nil
}

// WriteRaw sends bytes as-is, bypassing the codec.
func (c *Client) WriteRaw(ctx context.Context, data []byte) error {
	return mapError(c.conn.WriteRaw(ctx, data))
}

func (c *Client) LocalAddr() string {
	if addr := c.conn.LocalAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (c *Client) Close() error {
	return c.conn.Close()
}
