package syncserver_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kurble/mirror/syncserver"
	"github.com/Kurble/mirror/transport"
)

// S5 from spec.md §8: a Private server gives each client its own value —
// a command from one client never affects another's.
func TestPrivateClientsAreIsolated(t *testing.T) {
	private := syncserver.NewPrivate(func() any { return &doc{} })

	clientA, serverSideA := transport.NewInProcessPair()
	clientB, serverSideB := transport.NewInProcessPair()
	defer clientA.Close()
	defer clientB.Close()

	private.Join(serverSideA)
	private.Join(serverSideB)
	require.NoError(t, private.Update())
	drainWithRetry(t, clientA)
	drainWithRetry(t, clientB)

	require.NoError(t, clientA.Send("counter/set:9"))
	require.Eventually(t, func() bool {
		require.NoError(t, private.Update())
		got := transport.Drain(clientA)
		return len(got) == 1 && got[0] == "counter/set:9"
	}, time.Second, time.Millisecond)

	// clientB must see nothing from clientA's command.
	_, ok := clientB.Recv()
	assert.False(t, ok)
}

func TestPrivateReapsDeadClients(t *testing.T) {
	private := syncserver.NewPrivate(func() any { return &doc{} })
	client, serverSide := transport.NewInProcessPair()

	private.Join(serverSide)
	require.NoError(t, private.Update())
	assert.Equal(t, 1, private.Clients())

	client.Close()
	serverSide.Close()
	require.NoError(t, private.Update())
	assert.Equal(t, 0, private.Clients())
}
