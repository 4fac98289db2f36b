package ws

import (
	"github.com/meetgrid/presence/internal/domain"
	"go.uber.org/zap"
)

type inboundEvent struct {
	from     *Client
	envelope Envelope
}

// Core is the coordinator task: one goroutine owns every registry mutation
// and every dispatch, so connect, join, event routing and teardown are
// serialized without the per-connection pumps ever contending on state.
type Core struct {
	registry   *Registry
	dispatcher *Dispatcher
	presence   *Broadcaster
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent
	done       chan struct{}
	logger     *zap.SugaredLogger
}

func NewCore(registry *Registry, dispatcher *Dispatcher, presence *Broadcaster, logger *zap.SugaredLogger) *Core {
	return &Core{
		registry:   registry,
		dispatcher: dispatcher,
		presence:   presence,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (c *Core) Run() {
	for {
		select {
		case cl := <-c.register:
			c.registry.AddConnection(cl)
			c.logger.Infow("client connected", "client", cl.ID)

		case cl := <-c.unregister:
			// Abrupt loss and clean close land here alike; the offline
			// announcements fire only for users left with zero connections.
			for _, userID := range c.registry.RemoveConnection(cl) {
				c.presence.Announce(userID, domain.StatusOffline)
			}
			c.logger.Infow("client disconnected", "client", cl.ID)

		case in := <-c.inbound:
			c.dispatcher.Dispatch(in.from, &in.envelope)

		case <-c.done:
			return
		}
	}
}

// Stop terminates the coordinator loop. Connections still open keep their
// pumps but no further state changes or deliveries happen.
func (c *Core) Stop() {
	close(c.done)
}

func (c *Core) Register() chan<- *Client {
	return c.register
}

func (c *Core) Unregister() chan<- *Client {
	return c.unregister
}
