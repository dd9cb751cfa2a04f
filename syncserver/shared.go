// Package syncserver implements the two replicating server topologies
// from spec.md §4.H/§4.I: Shared, mirroring one authoritative value to
// every connected transport, and Private, giving each transport its own
// independently-mutated value.
package syncserver

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Kurble/mirror/internal/sessionid"
	"github.com/Kurble/mirror/mirror"
	"github.com/Kurble/mirror/telemetry"
	"github.com/Kurble/mirror/transport"
)

// sharedSlot pairs a live transport with the session id it was assigned
// on accept, so reaps and failures can be correlated in logs.
type sharedSlot struct {
	id     string
	remote transport.Remote
}

// Shared holds one reflective value mirrored to a dynamic set of live
// transports (spec.md §3, §4.H). Value must be a pointer to the root
// reflective data — either a type with a registered mirror.StructDescriptor
// or a plain container Dispatch already knows how to handle.
type Shared struct {
	Value        any
	listener     <-chan transport.Remote
	newTransport chan<- transport.Remote
	clients      []sharedSlot
}

// NewShared constructs a Shared server around value. Transports are
// handed to the server by calling Join, which feeds the listener channel
// spec.md §3 describes; the channel is buffered to keep the handoff
// ordered without blocking the acceptor (spec.md §9, "ordering under the
// listener channel").
func NewShared(value any) *Shared {
	ch := make(chan transport.Remote, 64)
	return &Shared{
		Value:        value,
		listener:     ch,
		newTransport: ch,
	}
}

// Join delivers a newly-accepted transport to the server's listener
// channel. It is the external acceptor's only interaction with Shared.
func (s *Shared) Join(t transport.Remote) {
	s.newTransport <- t
}

// Clients reports the number of currently-retained transports.
func (s *Shared) Clients() int {
	return len(s.clients)
}

// Command applies text locally with an inert context and forwards the
// raw text to every transport verbatim (spec.md §4.H).
func (s *Shared) Command(text string) error {
	if err := mirror.ApplyText(s.Value, mirror.Inert, text); err != nil {
		return err
	}
	for _, c := range s.clients {
		if err := c.remote.Send(text); err != nil {
			c.remote.Close()
		}
	}
	return nil
}

// LocalCommand applies text through a reply accumulator and forwards the
// resulting log entries (spec.md §4.H). Reply.Command logs text itself
// under the root's empty prefix, so the one forwarded entry is text
// unchanged.
func (s *Shared) LocalCommand(text string) error {
	reply := mirror.NewReply()
	if err := reply.Command(s.Value, text); err != nil {
		return err
	}
	for _, entry := range reply.Drain() {
		for _, c := range s.clients {
			if err := c.remote.Send(entry.Text); err != nil {
				c.remote.Close()
			}
		}
	}
	return nil
}

// Update runs one server tick: accept new transports, process inbound
// messages, fan out resulting replication, and reap dead transports
// (spec.md §4.H).
func (s *Shared) Update() error {
	s.accept()
	s.process()
	s.reap()
	return nil
}

func (s *Shared) accept() {
	for {
		select {
		case t := <-s.listener:
			id := sessionid.New()
			payload, err := json.Marshal(s.Value)
			if err != nil {
				telemetry.L().Warn("shared: snapshot encode failed, dropping client", zap.String("session", id), zap.Error(err))
				t.Close()
				continue
			}
			if err := t.Send(string(payload)); err != nil {
				telemetry.L().Warn("shared: initial snapshot send failed, dropping client", zap.String("session", id), zap.Error(err))
				t.Close()
				continue
			}
			telemetry.L().Debug("shared: client joined", zap.String("session", id))
			s.clients = append(s.clients, sharedSlot{id: id, remote: t})
		default:
			return
		}
	}
}

func (s *Shared) process() {
	for i, c := range s.clients {
		if !c.remote.Alive() {
			continue
		}
		for _, message := range transport.Drain(c.remote) {
			reply := mirror.NewReply()
			if err := reply.Command(s.Value, message); err != nil {
				telemetry.L().Warn("shared: dispatch failed, closing client", zap.String("session", c.id), zap.Error(err))
				c.remote.Close()
				break
			}
			s.fanOut(i, reply.Drain())
		}
	}
}

// fanOut sends every entry to every transport except the originator when
// the entry is marked non-broadcast (spec.md §4.H step 3).
func (s *Shared) fanOut(originator int, entries []mirror.LogEntry) {
	for _, entry := range entries {
		for i, c := range s.clients {
			if i == originator && !entry.Broadcast {
				continue
			}
			if err := c.remote.Send(entry.Text); err != nil {
				telemetry.L().Warn("shared: fan-out send failed, closing client", zap.String("session", c.id), zap.Error(err))
				c.remote.Close()
			}
		}
	}
}

func (s *Shared) reap() {
	alive := s.clients[:0]
	for _, c := range s.clients {
		if c.remote.Alive() {
			alive = append(alive, c)
		} else {
			telemetry.L().Debug("shared: client reaped", zap.String("session", c.id))
		}
	}
	s.clients = alive
}
