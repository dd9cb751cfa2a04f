package syncserver

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Kurble/mirror/internal/sessionid"
	"github.com/Kurble/mirror/mirror"
	"github.com/Kurble/mirror/telemetry"
	"github.com/Kurble/mirror/transport"
)

// Factory constructs a fresh reflective value for a newly-joined client
// (spec.md §3, Private server state: "(factory, listener, clients[])").
type Factory func() any

// Private holds one independent value per transport, produced by a
// factory on join; there is no cross-client fan-out (spec.md §4.I).
type Private struct {
	factory      Factory
	listener     <-chan transport.Remote
	newTransport chan<- transport.Remote
	clients      []privateClient
}

type privateClient struct {
	id        string
	value     any
	transport transport.Remote
}

// NewPrivate constructs a Private server using factory to produce each
// joining client's initial value.
func NewPrivate(factory Factory) *Private {
	ch := make(chan transport.Remote, 64)
	return &Private{
		factory:      factory,
		listener:     ch,
		newTransport: ch,
	}
}

// Join delivers a newly-accepted transport to the server's listener
// channel.
func (p *Private) Join(t transport.Remote) {
	p.newTransport <- t
}

// Clients reports the number of currently-retained client connections.
func (p *Private) Clients() int {
	return len(p.clients)
}

// Update runs one server tick: accept new clients (each seeded from a
// freshly-constructed value), process inbound messages against each
// client's own value, and reap dead transports (spec.md §4.I).
func (p *Private) Update() error {
	p.accept()
	p.process()
	p.reap()
	return nil
}

func (p *Private) accept() {
	for {
		select {
		case t := <-p.listener:
			id := sessionid.New()
			value := p.factory()
			payload, err := json.Marshal(value)
			if err != nil {
				telemetry.L().Warn("private: snapshot encode failed, dropping client", zap.String("session", id), zap.Error(err))
				t.Close()
				continue
			}
			if err := t.Send(string(payload)); err != nil {
				telemetry.L().Warn("private: initial snapshot send failed, dropping client", zap.String("session", id), zap.Error(err))
				t.Close()
				continue
			}
			telemetry.L().Debug("private: client joined", zap.String("session", id))
			p.clients = append(p.clients, privateClient{id: id, value: value, transport: t})
		default:
			return
		}
	}
}

// process handles each client independently: a reply accumulator per
// client, log entries sent back only to that client, and any failure —
// command or send — closing that client's transport. spec.md §9 flags
// the original crate's private-server failure flag as a likely `&=` vs
// `|=` bug; here any error at all marks the client for closure.
func (p *Private) process() {
	for i := range p.clients {
		client := &p.clients[i]
		if !client.transport.Alive() {
			continue
		}
		for _, message := range transport.Drain(client.transport) {
			reply := mirror.NewReply()
			if err := reply.Command(client.value, message); err != nil {
				telemetry.L().Warn("private: dispatch failed, closing client", zap.String("session", client.id), zap.Error(err))
				client.transport.Close()
				break
			}
			failed := false
			for _, entry := range reply.Drain() {
				if err := client.transport.Send(entry.Text); err != nil {
					failed = true
				}
			}
			if failed {
				telemetry.L().Warn("private: reply send failed, closing client", zap.String("session", client.id))
				client.transport.Close()
				break
			}
		}
	}
}

func (p *Private) reap() {
	alive := p.clients[:0]
	for _, c := range p.clients {
		if c.transport.Alive() {
			alive = append(alive, c)
		} else {
			telemetry.L().Debug("private: client reaped", zap.String("session", c.id))
		}
	}
	p.clients = alive
}
