// Package syncclient implements the Client topology from spec.md §4.J: a
// local replica seeded from the server's initial value, kept in sync by
// applying inbound commands with an inert context.
package syncclient

import (
	"encoding/json"
	"errors"

	"github.com/Kurble/mirror/internal/mirrorerr"
	"github.com/Kurble/mirror/mirror"
	"github.com/Kurble/mirror/transport"
)

// Client holds a local replica of type T, seeded by the first message a
// server sends after accept and kept current by applying every
// subsequent inbound message as a command (spec.md §4.J).
type Client[T any] struct {
	transport transport.Remote
	value     T
	ready     bool
	dropped   bool
}

// New constructs a Client bound to t. The replica is not populated until
// Poll reports ready.
func New[T any](t transport.Remote) *Client[T] {
	return &Client[T]{transport: t}
}

// Ready reports whether the initial handshake value has arrived.
func (c *Client[T]) Ready() bool {
	return c.ready
}

// Value returns the current replica. Its contents are meaningless until
// Ready reports true.
func (c *Client[T]) Value() *T {
	return &c.value
}

// Poll is the non-blocking handshake step: while not yet ready, it
// checks for the first inbound message and, if the transport has died
// before one arrived, returns ConnectionDropped. Once ready, Poll is a
// no-op — callers should call Update instead.
func (c *Client[T]) Poll() error {
	if c.ready {
		return nil
	}
	if c.dropped {
		return mirrorerr.ConnectionDropped()
	}

	text, ok := c.transport.Recv()
	if !ok {
		if !c.transport.Alive() {
			c.dropped = true
			return mirrorerr.ConnectionDropped()
		}
		return nil
	}

	if err := json.Unmarshal([]byte(text), &c.value); err != nil {
		return mirrorerr.JSONDecodeError(err)
	}
	c.ready = true
	return nil
}

// Update drains available inbound messages and applies each as a
// command against the local replica with an inert context (spec.md
// §4.J). Every drained message is attempted even if an earlier one
// fails — Drain already removed them from the transport, so skipping
// the rest would desync the replica with no way to retry them. Errors
// from individual messages are joined and returned after the whole
// batch has been applied. It is a no-op until the handshake has
// completed.
func (c *Client[T]) Update() error {
	if !c.ready {
		return nil
	}
	var errs []error
	for _, message := range transport.Drain(c.transport) {
		if err := mirror.ApplyText(&c.value, mirror.Inert, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Command forwards text verbatim over the transport. It does not mutate
// the local replica directly — the authoritative echo over the wire will
// eventually do that, once Update observes it (spec.md §4.J).
func (c *Client[T]) Command(text string) error {
	return c.transport.Send(text)
}

// Close releases the underlying transport.
func (c *Client[T]) Close() {
	c.transport.Close()
}
