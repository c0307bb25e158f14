package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/thuan734655/DACS3-Server/internal/config"
	"github.com/thuan734655/DACS3-Server/internal/realtime/fanout"
	"github.com/thuan734655/DACS3-Server/internal/realtime/lifecycle"
	"golang.org/x/time/rate"
)

type client struct {
	conn    *websocket.Conn
	session *lifecycle.Session
	outbox  *fanout.Outbox
	limiter *rate.Limiter
	log     *slog.Logger

	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64

	done     chan struct{}
	stopOnce sync.Once
}

func newClient(conn *websocket.Conn, s *lifecycle.Session, outbox *fanout.Outbox, cfg config.WebSocket, log *slog.Logger) *client {
	return &client{
		conn:           conn,
		session:        s,
		outbox:         outbox,
		limiter:        rate.NewLimiter(rate.Limit(cfg.EventsPerSecond), cfg.EventBurst),
		log:            log,
		writeWait:      cfg.WriteWait,
		pongWait:       cfg.PongWait,
		pingPeriod:     cfg.PongWait * 9 / 10,
		maxMessageSize: cfg.MaxMessageSize,
		done:           make(chan struct{}),
	}
}

// stop tears the connection down once: deregister first so no new frames are queued,
// then release the socket.
func (c *client) stop() {
	c.stopOnce.Do(func() {
		c.session.Close()
		c.outbox.Close()
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.stop()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("ws: read error", "conn_id", c.session.ID(), "err", err)
			}
			return
		}
		if !c.limiter.Allow() {
			c.session.RateLimited()
			continue
		}
		c.session.Handle(ctx, message)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.stop()
	}()

	for {
		select {
		case <-c.done:
			return

		case <-c.outbox.Ready():
			for _, frame := range c.outbox.Drain() {
				_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
				if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					c.log.Warn("ws: write failed", "conn_id", c.session.ID(), "err", err)
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
