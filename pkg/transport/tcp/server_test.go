package tcp

import (
	"context"
	"errors"
	"math"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecstasoy/echoadd/pkg/protocol"
	"github.com/ecstasoy/echoadd/pkg/transport"
)

const (
	testPoll    = 5 * time.Millisecond
	waitFor     = 2 * time.Second
	checkEvery  = 5 * time.Millisecond
	quietPeriod = 100 * time.Millisecond
)

var errUnsupported = errors.New("unsupported message")

func testHandler(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch m := req.Message.(type) {
	case *protocol.EchoMessage:
		return protocol.NewEchoResponse(m.Content), nil
	case *protocol.AddRequest:
		return protocol.NewAddResponse(m.A + m.B), nil
	default:
		return nil, errUnsupported
	}
}

type runningServer struct {
	*Server
	addr string
	done chan error
}

func startServer(t *testing.T, options ...transport.ServerOption) *runningServer {
	t.Helper()

	options = append([]transport.ServerOption{transport.WithPollInterval(testPoll)}, options...)
	s := NewServer(protocol.CodecTypeProtobuf, protocol.CompressTypeNone, options...)
	require.NoError(t, s.Listen(context.Background(), "127.0.0.1:0"))

	rs := &runningServer{Server: s, addr: s.Addr().String(), done: make(chan error, 1)}
	go func() { rs.done <- s.Run(testHandler) }()

	require.Eventually(t, func() bool { return s.State() == StateRunning }, waitFor, checkEvery)

	t.Cleanup(func() {
		s.Stop()
		select {
		case <-rs.done:
		case <-time.After(waitFor):
			t.Error("server did not stop")
		}
	})

	return rs
}

func dial(t *testing.T, addr string, options ...transport.ClientOption) *Client {
	t.Helper()

	options = append([]transport.ClientOption{transport.WithCallTimeout(waitFor)}, options...)
	c := NewClient(addr, protocol.CodecTypeProtobuf, protocol.CompressTypeNone, options...)
	require.NoError(t, c.Dial(context.Background(), ""))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestEchoAndAdd(t *testing.T) {
	s := startServer(t)
	c := dial(t, s.addr)
	ctx := context.Background()

	resp, err := c.Send(ctx, protocol.NewEchoRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewEchoResponse("hi"), resp)

	resp, err = c.Send(ctx, protocol.NewAddRequest(2, 3))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewAddResponse(5), resp)

	resp, err = c.Send(ctx, protocol.NewAddRequest(math.MaxInt32, 1))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewAddResponse(math.MinInt32), resp)

	assert.Eventually(t, func() bool { return s.Stats().MessagesHandled == 3 }, waitFor, checkEvery)
}

func TestDecodeFailureKeepsConnectionOpen(t *testing.T) {
	s := startServer(t)
	c := dial(t, s.addr)

	require.NoError(t, c.WriteRaw(context.Background(), []byte{0xff, 0xff, 0xff, 0xff}))
	require.Eventually(t, func() bool { return s.Stats().DecodeErrors == 1 }, waitFor, checkEvery)

	// nothing comes back for the malformed payload
	quiet, cancel := context.WithTimeout(context.Background(), quietPeriod)
	defer cancel()
	_, err := c.readWithContext(quiet)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)

	resp, err := c.Send(context.Background(), protocol.NewEchoRequest("still here"))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewEchoResponse("still here"), resp)
	assert.Equal(t, 1, s.Registry().Len())
}

func TestUnsetVariantGetsNoResponse(t *testing.T) {
	s := startServer(t)
	c := dial(t, s.addr)

	// a lone unknown field decodes to an envelope with no variant
	require.NoError(t, c.WriteRaw(context.Background(), []byte{0x18, 0x01}))

	quiet, cancel := context.WithTimeout(context.Background(), quietPeriod)
	defer cancel()
	_, err := c.readWithContext(quiet)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	assert.Zero(t, s.Stats().DecodeErrors)

	resp, err := c.Send(context.Background(), protocol.NewAddRequest(-4, 4))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewAddResponse(0), resp)
}

func TestWrongWireTypeCountsAsDecodeError(t *testing.T) {
	s := startServer(t)
	c := dial(t, s.addr)

	// field 1 carried as a varint instead of an embedded message
	require.NoError(t, c.WriteRaw(context.Background(), []byte{0x08, 0x01}))
	require.Eventually(t, func() bool { return s.Stats().DecodeErrors == 1 }, waitFor, checkEvery)

	resp, err := c.Send(context.Background(), protocol.NewEchoRequest("ok"))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewEchoResponse("ok"), resp)
}

func TestListenAfterStop(t *testing.T) {
	s := NewServer(protocol.CodecTypeProtobuf, protocol.CompressTypeNone)
	require.NoError(t, s.Listen(context.Background(), "127.0.0.1:0"))
	assert.Equal(t, s.Addr().String(), s.Stats().Address)

	s.Stop()

	assert.ErrorIs(t, s.Listen(context.Background(), "127.0.0.1:0"), ErrServerStopped)
	assert.Equal(t, StateStopped, s.State())
}

func TestPeerCloseDeregisters(t *testing.T) {
	s := startServer(t)
	c := dial(t, s.addr)

	require.Eventually(t, func() bool { return s.Registry().Len() == 1 }, waitFor, checkEvery)

	snap := s.Registry().Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, c.LocalAddr().String(), snap[0].Key())
	assert.NotEmpty(t, snap[0].ID)

	require.NoError(t, c.Close())

	require.Eventually(t, func() bool { return s.Registry().Len() == 0 }, waitFor, checkEvery)
	assert.Equal(t, int64(0), s.Stats().ActiveConnections)
	assert.Equal(t, int64(1), s.Stats().TotalConnections)
}

func TestRegistryTracksLiveConnections(t *testing.T) {
	s := startServer(t)

	const n, m = 6, 4
	clients := make([]*Client, 0, n)
	for i := 0; i < n; i++ {
		clients = append(clients, dial(t, s.addr))
	}
	require.Eventually(t, func() bool { return s.Registry().Len() == n }, waitFor, checkEvery)

	for _, c := range clients[:m] {
		require.NoError(t, c.Close())
	}

	require.Eventually(t, func() bool { return s.Registry().Len() == n-m }, waitFor, checkEvery)
	assert.Equal(t, int64(n-m), s.Stats().ActiveConnections)

	for _, c := range clients[m:] {
		resp, err := c.Send(context.Background(), protocol.NewEchoRequest("alive"))
		require.NoError(t, err)
		assert.Equal(t, protocol.NewEchoResponse("alive"), resp)
	}
}

func TestStopEndsAcceptorAndWorkers(t *testing.T) {
	s := startServer(t)
	c := dial(t, s.addr)
	require.Eventually(t, func() bool { return s.Registry().Len() == 1 }, waitFor, checkEvery)

	s.Stop()
	s.Stop()

	select {
	case err := <-s.done:
		require.NoError(t, err)
		s.done <- err
	case <-time.After(waitFor):
		t.Fatal("Run did not return after Stop")
	}

	assert.Equal(t, StateStopped, s.State())
	require.Eventually(t, func() bool { return s.Registry().Len() == 0 }, waitFor, checkEvery)

	// the worker closed its side of the connection
	_, err := c.Send(context.Background(), protocol.NewEchoRequest("late"))
	assert.Error(t, err)

	_, err = net.DialTimeout("tcp", s.addr, quietPeriod)
	assert.Error(t, err)
}

func TestStopBeforeRun(t *testing.T) {
	s := NewServer(protocol.CodecTypeProtobuf, protocol.CompressTypeNone)
	require.NoError(t, s.Listen(context.Background(), "127.0.0.1:0"))

	s.Stop()

	assert.ErrorIs(t, s.Run(testHandler), ErrServerStopped)
	assert.ErrorIs(t, s.Listen(context.Background(), "127.0.0.1:0"), ErrServerStopped)
}

func TestRunRequiresListen(t *testing.T) {
	s := NewServer(protocol.CodecTypeProtobuf, protocol.CompressTypeNone)
	assert.ErrorIs(t, s.Run(testHandler), ErrNotListening)
	assert.Equal(t, StateIdle, s.State())
}

func TestRunTwice(t *testing.T) {
	s := startServer(t)
	assert.ErrorIs(t, s.Run(testHandler), ErrAlreadyRunning)
}

func TestBindFailure(t *testing.T) {
	s := startServer(t)

	other := NewServer(protocol.CodecTypeProtobuf, protocol.CompressTypeNone)
	err := other.Listen(context.Background(), s.addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
	assert.Equal(t, StateIdle, other.State())
	assert.Nil(t, other.Addr())
}

func TestLengthPrefixedCoalescedMessages(t *testing.T) {
	s := startServer(t, transport.WithFraming(protocol.FramingLengthPrefixed, 1024))
	c := dial(t, s.addr, transport.WithClientFraming(protocol.FramingLengthPrefixed, 1024))
	ctx := context.Background()

	first, err := c.Codec.EncodeRequest(c.framer, protocol.NewEchoRequest("one"))
	require.NoError(t, err)
	second, err := c.Codec.EncodeRequest(c.framer, protocol.NewAddRequest(40, 2))
	require.NoError(t, err)

	require.NoError(t, c.WriteRaw(ctx, append(first, second...)))

	got, err := c.readWithContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.NewEchoResponse("one"), got)

	got, err = c.readWithContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.NewAddResponse(42), got)
}

func TestLengthPrefixedSplitMessage(t *testing.T) {
	s := startServer(t, transport.WithFraming(protocol.FramingLengthPrefixed, 1024))
	c := dial(t, s.addr, transport.WithClientFraming(protocol.FramingLengthPrefixed, 1024))
	ctx := context.Background()

	data, err := c.Codec.EncodeRequest(c.framer, protocol.NewEchoRequest("split"))
	require.NoError(t, err)

	require.NoError(t, c.WriteRaw(ctx, data[:3]))
	time.Sleep(3 * testPoll)
	require.NoError(t, c.WriteRaw(ctx, data[3:]))

	got, err := c.readWithContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.NewEchoResponse("split"), got)
}

func TestOversizedFrameDropsConnection(t *testing.T) {
	s := startServer(t, transport.WithFraming(protocol.FramingLengthPrefixed, 8))
	c := dial(t, s.addr, transport.WithClientFraming(protocol.FramingLengthPrefixed, 8))
	require.Eventually(t, func() bool { return s.Registry().Len() == 1 }, waitFor, checkEvery)

	require.NoError(t, c.WriteRaw(context.Background(), []byte{0, 0, 1, 0}))
	require.Eventually(t, func() bool { return s.Registry().Len() == 0 }, waitFor, checkEvery)
}

func TestMaxConnections(t *testing.T) {
	s := startServer(t, transport.WithMaxConnections(1))

	first := dial(t, s.addr)
	require.Eventually(t, func() bool { return s.Registry().Len() == 1 }, waitFor, checkEvery)

	second := dial(t, s.addr)
	_, err := second.Send(context.Background(), protocol.NewEchoRequest("rejected"))
	assert.Error(t, err)
	assert.Equal(t, 1, s.Registry().Len())

	resp, err := first.Send(context.Background(), protocol.NewEchoRequest("kept"))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewEchoResponse("kept"), resp)
}

// readWithContext reads one response without sending anything first.
func (c *Client) readWithContext(ctx context.Context) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetReadDeadline(c.deadline(ctx)); err != nil {
		return nil, err
	}

	payload, err := c.readPayload()
	if err != nil {
		return nil, err
	}
	return c.Codec.DecodeResponse(payload)
}
