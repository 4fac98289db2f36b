package presence

import (
	"net/http"

	"github.com/meetgrid/presence/internal/domain"
	"github.com/meetgrid/presence/internal/infrastructure/json"
	"github.com/meetgrid/presence/internal/infrastructure/ws"
)

type Handler struct {
	registry *ws.Registry
}

func NewHandler(registry *ws.Registry) *Handler {
	return &Handler{registry: registry}
}

type onlineUsersResponse struct {
	Count int               `json:"count"`
	Users []domain.Presence `json:"users"`
}

// GetOnlineUsers reports every user identifier with at least one live
// connection. Purely a read on the in-memory registry; nothing is persisted.
func (h *Handler) GetOnlineUsers(w http.ResponseWriter, r *http.Request) {
	users := h.registry.Snapshot()
	json.Write(w, http.StatusOK, onlineUsersResponse{
		Count: len(users),
		Users: users,
	})
}
