package transport

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// InProcess is a Remote for same-process client/server pairs, backed by
// a watermill gochannel topic (after the teacher's events.eventBus). It
// is deliberately used synchronously: Recv only ever drains whatever is
// already buffered on its subscription via a non-blocking select. It
// never starts watermill's goroutine-driven message.Router, since
// spec.md §5 forbids background tasks at this layer — update() is the
// only thing allowed to move data.
type InProcess struct {
	pubsub    *gochannel.GoChannel
	sendTopic string
	messages  <-chan *message.Message
	cancel    context.CancelFunc
	alive     atomic.Bool
}

// NewInProcessPair wires two InProcess ends together over one shared
// gochannel instance: text sent on one arrives on the other.
func NewInProcessPair() (a, b *InProcess) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, watermill.NopLogger{})

	// Each end gets its own cancelable context for its own inbox
	// subscription, so closing one end never tears down the other's.
	ctxA, cancelA := context.WithCancel(context.Background())
	ctxB, cancelB := context.WithCancel(context.Background())

	bToA, err := pubsub.Subscribe(ctxA, "b-to-a")
	if err != nil {
		panic(fmt.Sprintf("transport: subscribe b-to-a: %v", err))
	}
	aToB, err := pubsub.Subscribe(ctxB, "a-to-b")
	if err != nil {
		panic(fmt.Sprintf("transport: subscribe a-to-b: %v", err))
	}

	a = &InProcess{pubsub: pubsub, sendTopic: "a-to-b", messages: bToA, cancel: cancelA}
	b = &InProcess{pubsub: pubsub, sendTopic: "b-to-a", messages: aToB, cancel: cancelB}
	a.alive.Store(true)
	b.alive.Store(true)
	return a, b
}

// Close marks this end dead and cancels this end's own inbox
// subscription, at most once (CompareAndSwap on alive). The peer end and
// the shared gochannel are left open.
func (p *InProcess) Close() {
	if p.alive.CompareAndSwap(true, false) {
		p.cancel()
	}
}

// Alive reports whether Close has been called on this end.
func (p *InProcess) Alive() bool {
	return p.alive.Load()
}

// Send publishes text to the peer end's subscription topic.
func (p *InProcess) Send(text string) error {
	if !p.Alive() {
		return fmt.Errorf("transport: connection closed")
	}
	msg := message.NewMessage(watermill.NewUUID(), []byte(text))
	return p.pubsub.Publish(p.sendTopic, msg)
}

// Recv returns the next buffered inbound message without blocking.
func (p *InProcess) Recv() (string, bool) {
	select {
	case msg, ok := <-p.messages:
		if !ok {
			return "", false
		}
		msg.Ack()
		return string(msg.Payload), true
	default:
		return "", false
	}
}
