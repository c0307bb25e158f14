// Package fanout delivers events to every live connection joined to a set of rooms.
package fanout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thuan734655/DACS3-Server/internal/realtime/registry"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

// Relay forwards envelopes to other server nodes.
type Relay interface {
	Publish(ctx context.Context, env Envelope) error
}

// dropCounter is implemented by sinks that discard frames under backpressure.
type dropCounter interface {
	Dropped() uint64
}

// Engine never blocks on a connection: frames go to each connection's Outbox.
type Engine struct {
	reg   *registry.Registry
	relay Relay
	log   *slog.Logger
}

type Option func(*Engine)

// WithRelay publishes every dispatch to r after local delivery.
func WithRelay(r Relay) Option {
	return func(e *Engine) { e.relay = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{reg: reg, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRelay attaches a relay after construction, for when the relay itself needs the engine.
func (e *Engine) SetRelay(r Relay) { e.relay = r }

// Dispatch pushes event to every connection joined to any of rooms and returns how many
// connections it was queued for. The only error is a payload that cannot be encoded.
func (e *Engine) Dispatch(ctx context.Context, event string, rooms []string, payload any) (int, error) {
	return e.DispatchExcept(ctx, event, rooms, "", payload)
}

// DispatchExcept is Dispatch with one connection excluded, typically the sender.
func (e *Engine) DispatchExcept(ctx context.Context, event string, rooms []string, except string, payload any) (int, error) {
	data, err := marshalPayload(payload)
	if err != nil {
		return 0, fmt.Errorf("encode %s payload: %w", event, err)
	}
	env := Envelope{Event: event, Rooms: rooms, Except: except, Payload: data}
	n := e.DispatchLocal(env)

	if e.relay != nil {
		if err := e.relay.Publish(ctx, env); err != nil {
			e.log.Warn("fanout: relay publish failed", "event", event, "rooms", rooms, "err", err)
		}
	}
	return n, nil
}

// Broadcast addresses a single room by kind and id.
func (e *Engine) Broadcast(ctx context.Context, event string, kind room.Kind, id string, payload any) (int, error) {
	return e.Dispatch(ctx, event, []string{room.For(kind, id)}, payload)
}

// DispatchLocal delivers env to connections on this node only.
func (e *Engine) DispatchLocal(env Envelope) int {
	targets := e.reg.Targets(env.Rooms, env.Except)
	if len(targets) == 0 {
		return 0
	}

	frames := make(map[string][]byte, len(env.Rooms))
	delivered := 0
	for _, t := range targets {
		frame, ok := frames[t.Room]
		if !ok {
			b, err := Encode(env.Event, t.Room, env.Payload)
			if err != nil {
				e.log.Error("fanout: encode frame", "event", env.Event, "room", t.Room, "err", err)
				continue
			}
			frame = b
			frames[t.Room] = frame
		}
		if !t.Sink.Push(frame) {
			continue
		}
		delivered++
		// first drop only; a congested client would otherwise log on every frame
		if dc, ok := t.Sink.(dropCounter); ok && dc.Dropped() == 1 {
			e.log.Warn("fanout: outbox overflow, dropping oldest frames", "conn_id", t.ConnID, "user_id", t.UserID, "event", env.Event)
		}
	}
	return delivered
}
