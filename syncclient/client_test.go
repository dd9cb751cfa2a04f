package syncclient_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kurble/mirror/mirror"
	"github.com/Kurble/mirror/syncclient"
	"github.com/Kurble/mirror/transport"
)

type replica struct {
	Counter int `json:"counter"`
}

func TestClientHandshakeThenApply(t *testing.T) {
	serverSide, ourSide := transport.NewInProcessPair()
	defer ourSide.Close()
	defer serverSide.Close()

	c := syncclient.New[replica](ourSide)
	assert.False(t, c.Ready())

	require.NoError(t, c.Poll())
	assert.False(t, c.Ready(), "not ready until the first inbound value arrives")

	require.NoError(t, serverSide.Send(`{"counter":3}`))
	require.Eventually(t, func() bool {
		require.NoError(t, c.Poll())
		return c.Ready()
	}, time.Second, time.Millisecond)
	assert.Equal(t, 3, c.Value().Counter)

	require.NoError(t, serverSide.Send("counter/set:9"))
	require.Eventually(t, func() bool {
		require.NoError(t, c.Update())
		return c.Value().Counter == 9
	}, time.Second, time.Millisecond)
}

func TestClientUpdateAppliesWholeBatchDespiteEarlierFailure(t *testing.T) {
	serverSide, ourSide := transport.NewInProcessPair()
	defer ourSide.Close()
	defer serverSide.Close()

	c := syncclient.New[replica](ourSide)
	require.NoError(t, serverSide.Send(`{"counter":0}`))
	require.Eventually(t, func() bool {
		require.NoError(t, c.Poll())
		return c.Ready()
	}, time.Second, time.Millisecond)

	// The second message addresses a field that doesn't exist and
	// fails to apply; the third must still be attempted rather than
	// left undrained and lost forever.
	require.NoError(t, serverSide.Send("counter/set:1"))
	require.NoError(t, serverSide.Send("missing/set:5"))
	require.NoError(t, serverSide.Send("counter/set:9"))

	var err error
	require.Eventually(t, func() bool {
		err = c.Update()
		return c.Value().Counter == 9
	}, time.Second, time.Millisecond)
	assert.Error(t, err, "the failing message in the batch must still surface an error")
}

func TestClientConnectionDroppedBeforeHandshake(t *testing.T) {
	serverSide, ourSide := transport.NewInProcessPair()
	defer serverSide.Close()

	c := syncclient.New[replica](ourSide)
	ourSide.Close()

	err := c.Poll()
	require.Error(t, err)
	assert.ErrorIs(t, err, mirror.ErrConnectionDropped)

	// Once dropped, it stays dropped.
	err = c.Poll()
	assert.ErrorIs(t, err, mirror.ErrConnectionDropped)
}

func TestClientCommandForwardsWithoutLocalMutation(t *testing.T) {
	serverSide, ourSide := transport.NewInProcessPair()
	defer ourSide.Close()
	defer serverSide.Close()

	c := syncclient.New[replica](ourSide)
	require.NoError(t, serverSide.Send(`{"counter":0}`))
	require.Eventually(t, func() bool {
		require.NoError(t, c.Poll())
		return c.Ready()
	}, time.Second, time.Millisecond)

	require.NoError(t, c.Command("counter/set:1"))
	assert.Equal(t, 0, c.Value().Counter, "Command must not mutate the local replica directly")

	got, ok := serverSide.Recv()
	require.True(t, ok)
	assert.Equal(t, "counter/set:1", got)
}
