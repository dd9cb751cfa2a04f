package transport_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kurble/mirror/transport"
)

func TestResilientDialsEagerlyOnConstruction(t *testing.T) {
	a, b := transport.NewInProcessPair()
	defer b.Close()

	var dialed atomic.Int32
	r := transport.NewResilient(func() (transport.Remote, error) {
		dialed.Add(1)
		return a, nil
	})
	defer r.Close()

	assert.Equal(t, int32(1), dialed.Load())
	assert.True(t, r.Alive())
}

func TestResilientSurfacesDialFailure(t *testing.T) {
	r := transport.NewResilient(func() (transport.Remote, error) {
		return nil, errors.New("connection refused")
	})
	defer r.Close()

	assert.False(t, r.Alive())
	err := r.Send("x")
	require.Error(t, err)
}

func TestResilientReconnectsOnNextCall(t *testing.T) {
	a, b := transport.NewInProcessPair()
	defer b.Close()

	attempt := 0
	r := transport.NewResilient(func() (transport.Remote, error) {
		attempt++
		if attempt == 1 {
			return nil, errors.New("first dial fails")
		}
		return a, nil
	})
	defer r.Close()

	assert.False(t, r.Alive(), "first dial failed, nothing connected yet")

	// The backoff computed after the failed dial delays the next attempt;
	// poll until it elapses and a retry succeeds.
	require.Eventually(t, func() bool {
		return r.Alive()
	}, 2*time.Second, 10*time.Millisecond, "Alive() must retry the dial once backoff elapses")
}
