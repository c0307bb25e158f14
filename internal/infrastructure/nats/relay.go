// Package nats relays fan-out envelopes between server nodes so a dispatch on one node
// reaches connections held by every other node.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/thuan734655/DACS3-Server/internal/realtime/fanout"
)

// Local delivers an envelope to this node's connections only.
type Local interface {
	DispatchLocal(env fanout.Envelope) int
}

type Relay struct {
	nc      *nats.Conn
	subject string
	node    string
	sub     *nats.Subscription
	log     *slog.Logger
}

// Connect dials url and returns a relay publishing on subject under a fresh node id.
func Connect(url, subject string, log *slog.Logger) (*Relay, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Relay{subject: subject, node: uuid.NewString(), log: log}
	nc, err := nats.Connect(url,
		nats.Name("realtime-"+r.node),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats: disconnected", "node", r.node, "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats: reconnected", "node", r.node, "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	r.nc = nc
	return r, nil
}

func (r *Relay) NodeID() string { return r.node }

// Publish sends env to every other node. Delivery is best effort.
func (r *Relay) Publish(ctx context.Context, env fanout.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env.Origin = r.node
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := r.nc.Publish(r.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", r.subject, err)
	}
	return nil
}

// Subscribe starts delivering envelopes from other nodes to local.
func (r *Relay) Subscribe(local Local) error {
	sub, err := r.nc.Subscribe(r.subject, func(msg *nats.Msg) {
		r.deliver(local, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.subject, err)
	}
	r.sub = sub
	return nil
}

func (r *Relay) deliver(local Local, data []byte) {
	var env fanout.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.log.Warn("nats: malformed envelope", "subject", r.subject, "err", err)
		return
	}
	if env.Origin == r.node {
		return
	}
	local.DispatchLocal(env)
}

// Close stops the subscription and drains pending publishes.
func (r *Relay) Close() error {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	return r.nc.Drain()
}
