// Package transport implements the Remote boundary (spec.md §4.G, §6): a
// minimal non-blocking duplex text channel that is the sole place sockets
// are touched. Nothing in mirror, syncserver, or syncclient imports a
// networking package directly — they depend only on this interface.
package transport

// Remote is a non-blocking duplex text channel with a liveness flag, a
// send op, and a one-shot receive op (spec.md §3, §4.G).
type Remote interface {
	// Close releases the underlying connection. Idempotent.
	Close()

	// Alive reports whether the transport is still usable. For InProcess
	// and WebSocket, once false it stays false; Resilient can report true
	// again after it reconnects.
	Alive() bool

	// Send writes one command/value string. It never blocks for longer
	// than the underlying implementation's own buffering allows; a full
	// outbound buffer is reported as an error, not a block.
	Send(text string) error

	// Recv returns the next buffered inbound message, if any. It never
	// blocks: ("", false) means nothing is currently available, not that
	// the transport is closed.
	Recv() (string, bool)
}

// Drain returns every message currently buffered on r, in arrival order,
// without blocking. This is the "convenience iterator" spec.md §4.G asks
// for, expressed as a plain slice rather than an iterator type — Go's
// range-over-func iterators would be idiomatic here too, but callers in
// this module only ever want the whole batch at once.
func Drain(r Remote) []string {
	var out []string
	for {
		text, ok := r.Recv()
		if !ok {
			return out
		}
		out = append(out, text)
	}
}
