package ec2

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPPortOpen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := int32(ln.Addr().(*net.TCPAddr).Port)

	assert.True(t, tcpPortOpen(t.Context(), "127.0.0.1", port))

	require.NoError(t, ln.Close())
	assert.False(t, tcpPortOpen(t.Context(), "127.0.0.1", port))
}

func TestWaitTCPStopsAtDeadline(t *testing.T) {
	// Grab a port that nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := int32(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	err = waitTCP(ctx, "127.0.0.1", port)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitHTTPStopsAtDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	err := waitHTTP(ctx, "http://127.0.0.1:1/")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
