package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecstasoy/echoadd/pkg/client"
)

func TestRunServesUntilCancelled(t *testing.T) {
	t.Setenv("ECHOADD_SERVER_POLL_INTERVAL", "5ms")
	t.Setenv("ECHOADD_LOG_LEVEL", "error")

	ctx, cancel := context.WithCancel(context.Background())
	addrs := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"-addr", "127.0.0.1:0"}, func(addr string) { addrs <- addr })
	}()

	var addr string
	select {
	case addr = <-addrs:
	case err := <-done:
		t.Fatalf("run exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server never became ready")
	}

	c, err := client.Dial(context.Background(), addr, client.WithTimeout(time.Second))
	require.NoError(t, err)
	defer c.Close()

	sum, err := c.Add(context.Background(), 40, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(42), sum)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Setenv("ECHOADD_SERVER_CODEC", "xml")
	err := run(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "server.codec")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	err := run(context.Background(), []string{"-nope"}, nil)
	assert.Error(t, err)
}
