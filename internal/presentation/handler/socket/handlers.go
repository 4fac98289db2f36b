package socket

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/meetgrid/presence/internal/infrastructure/configs"
	"github.com/meetgrid/presence/internal/infrastructure/ws"
	"go.uber.org/zap"
)

type Handler struct {
	core     *ws.Core
	upgrader websocket.Upgrader
	opts     ws.Options
	logger   *zap.SugaredLogger
}

func NewHandler(core *ws.Core, cfg configs.Config, logger *zap.SugaredLogger) *Handler {
	origins := newOriginPolicy(cfg.HTTP.AllowedOrigins, logger)

	return &Handler{
		core: core,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		opts: ws.Options{
			SendBuffer:      cfg.Socket.SendBuffer,
			MaxMessageBytes: cfg.Socket.MaxMessageBytes,
			WriteWait:       cfg.Socket.WriteWait,
			PongWait:        cfg.Socket.PongWait,
		},
		logger: logger,
	}
}

// ServeSocket upgrades the request and hands the connection to the hub. The
// client identifies itself afterwards with a join event; an anonymous
// connection still receives global presence broadcasts.
func (h *Handler) ServeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("socket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := ws.NewClient(conn, uuid.NewString(), h.opts, h.logger)
	h.core.Register() <- client

	go client.WriteMessage()
	go client.ReadMessage(h.core)
}
