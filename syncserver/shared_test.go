package syncserver_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kurble/mirror/mirror"
	"github.com/Kurble/mirror/syncserver"
	"github.com/Kurble/mirror/transport"
)

type doc struct {
	Counter int `json:"counter"`
}

func init() {
	mirror.RegisterStruct[doc](&mirror.StructDescriptor{
		Fields: []mirror.FieldRoute{
			{Name: "counter", Get: func(self any) any { return &self.(*doc).Counter }},
		},
	})
}

func drainWithRetry(t *testing.T, r transport.Remote) []string {
	t.Helper()
	var out []string
	require.Eventually(t, func() bool {
		out = transport.Drain(r)
		return len(out) > 0
	}, time.Second, time.Millisecond)
	return out
}

// S3 from spec.md §8: one inbound command on a Shared server replicates
// exactly once to every connected client, the originator included.
func TestSharedReplicatesToOtherClients(t *testing.T) {
	shared := syncserver.NewShared(&doc{})

	clientA, serverSideA := transport.NewInProcessPair()
	clientB, serverSideB := transport.NewInProcessPair()
	defer clientA.Close()
	defer clientB.Close()

	shared.Join(serverSideA)
	shared.Join(serverSideB)
	require.NoError(t, shared.Update())

	// Both clients receive the initial snapshot.
	initA := drainWithRetry(t, clientA)
	require.Len(t, initA, 1)
	initB := drainWithRetry(t, clientB)
	require.Len(t, initB, 1)

	require.NoError(t, clientA.Send("counter/set:7"))
	require.Eventually(t, func() bool {
		require.NoError(t, shared.Update())
		return shared.Value.(*doc).Counter == 7
	}, time.Second, time.Millisecond)

	gotB := drainWithRetry(t, clientB)
	require.Len(t, gotB, 1)
	assert.Equal(t, "counter/set:7", gotB[0])

	// S3 requires the originator to receive its own command echoed back
	// too: a top-level inbound command logs a broadcast-eligible entry,
	// not a local-only one.
	gotA := drainWithRetry(t, clientA)
	require.Len(t, gotA, 1)
	assert.Equal(t, "counter/set:7", gotA[0])
}

func TestSharedCommandForwardsRawText(t *testing.T) {
	shared := syncserver.NewShared(&doc{})
	client, serverSide := transport.NewInProcessPair()
	defer client.Close()

	shared.Join(serverSide)
	require.NoError(t, shared.Update())
	drainWithRetry(t, client) // discard snapshot

	require.NoError(t, shared.Command("counter/set:3"))
	assert.Equal(t, 3, shared.Value.(*doc).Counter)

	got := drainWithRetry(t, client)
	require.Len(t, got, 1)
	assert.Equal(t, "counter/set:3", got[0])
}

func TestSharedReapsDeadClients(t *testing.T) {
	shared := syncserver.NewShared(&doc{})
	client, serverSide := transport.NewInProcessPair()

	shared.Join(serverSide)
	require.NoError(t, shared.Update())
	assert.Equal(t, 1, shared.Clients())

	client.Close()
	serverSide.Close()
	require.NoError(t, shared.Update())
	assert.Equal(t, 0, shared.Clients())
}

func TestSharedAcceptSendsSnapshot(t *testing.T) {
	shared := syncserver.NewShared(&doc{Counter: 42})
	client, serverSide := transport.NewInProcessPair()
	defer client.Close()

	shared.Join(serverSide)
	require.NoError(t, shared.Update())

	got := drainWithRetry(t, client)
	require.Len(t, got, 1)

	var snapshot doc
	require.NoError(t, json.Unmarshal([]byte(got[0]), &snapshot))
	assert.Equal(t, 42, snapshot.Counter)
}
