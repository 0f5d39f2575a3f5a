package relay

import (
	"bufio"
	"context"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

func testLog() slog.Logger {
	bknd := slog.NewBackend(noopWriter{})
	l := bknd.Logger("TEST")
	l.SetLevel(slog.LevelOff)
	return l
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestDialInProcessAssignsSequentialAddresses(t *testing.T) {
	r := New(":0", testLog())
	ctx := context.Background()

	_, err := r.DialInProcess(ctx)
	require.NoError(t, err)
	_, err = r.DialInProcess(ctx)
	require.NoError(t, err)

	require.ElementsMatch(t, []types.Address{0, 1}, r.Addresses())
}

func TestRouteSingleForwardsToNamedAddressOnly(t *testing.T) {
	r := New(":0", testLog())
	ctx := context.Background()

	_, err := r.DialInProcess(ctx) // address 0, unused here
	require.NoError(t, err)
	c1, err := r.DialInProcess(ctx) // address 1
	require.NoError(t, err)
	c2, err := r.DialInProcess(ctx) // address 2
	require.NoError(t, err)

	s2 := bufio.NewScanner(c2)

	_, err = c1.Write([]byte(wire.SingleEnvelope(2, wire.OK().String()).String() + "\n"))
	require.NoError(t, err)

	require.True(t, s2.Scan())
	require.Equal(t, wire.SingleEnvelope(1, wire.OK().String()).String(), s2.Text())
}

func TestRemoveConnSynthesizesDisconnectToReferee(t *testing.T) {
	r := New(":0", testLog())
	ctx := context.Background()

	refConn, err := r.DialInProcess(ctx) // address 0
	require.NoError(t, err)
	p1Conn, err := r.DialInProcess(ctx) // address 1
	require.NoError(t, err)

	refScanner := bufio.NewScanner(refConn)

	require.NoError(t, p1Conn.Close())

	require.True(t, refScanner.Scan())
	require.Equal(t, wire.SingleEnvelope(1, wire.Disconnect).String(), refScanner.Text())

	require.NotContains(t, r.Addresses(), types.Address(1))
}

func TestRemoveConnOnRefereeDoesNotSelfNotify(t *testing.T) {
	r := New(":0", testLog())
	ctx := context.Background()

	refConn, err := r.DialInProcess(ctx) // address 0
	require.NoError(t, err)

	require.NoError(t, refConn.Close())
	require.Eventually(t, func() bool {
		return len(r.Addresses()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestLobbyRejectsBeyondMaxConnections(t *testing.T) {
	r := New(":0", testLog())
	ctx := context.Background()
	for i := 0; i < MaxConnections; i++ {
		_, err := r.DialInProcess(ctx)
		require.NoError(t, err)
	}
	_, err := r.DialInProcess(ctx)
	require.Error(t, err)
}

func TestBroadcastRoutesAllAndExcept(t *testing.T) {
	r := New(":0", testLog())
	ctx := context.Background()

	ref, err := r.DialInProcess(ctx) // address 0
	require.NoError(t, err)
	c1, err := r.DialInProcess(ctx) // address 1
	require.NoError(t, err)
	c2, err := r.DialInProcess(ctx) // address 2
	require.NoError(t, err)

	s1 := bufio.NewScanner(c1)
	s2 := bufio.NewScanner(c2)

	// referee broadcasts START to everyone but itself.
	_, err = ref.Write([]byte(wire.AllEnvelope(wire.START().String()).String() + "\n"))
	require.NoError(t, err)

	require.True(t, s1.Scan())
	require.Equal(t, wire.SingleEnvelope(0, wire.START().String()).String(), s1.Text())
	require.True(t, s2.Scan())
	require.Equal(t, wire.SingleEnvelope(0, wire.START().String()).String(), s2.Text())

	// referee sends EXCEPT naming address 1: only address 2 sees the next one.
	done := make(chan struct{})
	go func() {
		defer close(done)
		require.True(t, s2.Scan())
		require.Equal(t, wire.SingleEnvelope(0, wire.OK().String()).String(), s2.Text())
	}()

	_, err = ref.Write([]byte(wire.ExceptEnvelope(1, wire.OK().String()).String() + "\n"))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for except-routed broadcast")
	}
}
