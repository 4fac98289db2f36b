package ws

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Options bound the per-connection pumps. Zero values fall back to defaults
// so tests can construct clients without a config layer.
type Options struct {
	SendBuffer      int
	MaxMessageBytes int64
	WriteWait       time.Duration
	PongWait        time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 512 * 1024
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	return o
}

type Client struct {
	ID      string
	Message chan *Event

	conn   *connWrapper
	opts   Options
	logger *zap.SugaredLogger
}

func NewClient(conn *websocket.Conn, id string, opts Options, logger *zap.SugaredLogger) *Client {
	opts = opts.withDefaults()

	var wrapped *connWrapper
	if conn != nil {
		wrapped = newConnWrapper(conn, opts.WriteWait)
	}

	return &Client{
		ID:      id,
		Message: make(chan *Event, opts.SendBuffer), // buffered so slow readers never block routing
		conn:    wrapped,
		opts:    opts,
		logger:  logger,
	}
}

// ReadMessage pumps inbound frames into the hub until the connection drops.
// Any read error, clean or abrupt, funnels into the same unregister path.
func (c *Client) ReadMessage(core *Core) {
	defer func() {
		core.Unregister() <- c
		_ = c.conn.Close()
	}()

	c.conn.conn.SetReadLimit(c.opts.MaxMessageBytes)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warnw("socket read error", "client", c.ID, "error", err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warnw("dropping unparsable frame", "client", c.ID, "error", err)
			continue
		}

		core.inbound <- inboundEvent{from: c, envelope: env}
	}
}

// WriteMessage drains the outbound buffer onto the socket, interleaving
// keepalive pings. The hub closes Message when the client is removed.
func (c *Client) WriteMessage() {
	ticker := time.NewTicker(c.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Message:
			if !ok {
				_ = c.conn.WriteClose()
				return
			}

			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Warnw("socket write error", "client", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WritePing(); err != nil {
				return
			}
		}
	}
}
