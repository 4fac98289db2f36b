package ws

import (
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/meetgrid/presence/internal/domain"
	"github.com/meetgrid/presence/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// Registry owns the process-wide presence state: which connections are open,
// which user rooms each connection joined, and the derived set of online
// users. A user is online iff its room has at least one live connection, so
// a second device never flips the status and closing one of two devices never
// marks the user offline.
//
// All mutations go through the hub goroutine; the lock additionally covers
// read paths such as the presence snapshot endpoint.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]map[*Client]struct{}
	memberships map[*Client]mapset.Set[string]
	online      mapset.Set[string]
	onlineSince map[string]time.Time
	logger      *zap.SugaredLogger
	metrics     *metrics.Metrics
}

func NewRegistry(logger *zap.SugaredLogger, m *metrics.Metrics) *Registry {
	return &Registry{
		rooms:       make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]mapset.Set[string]),
		online:      mapset.NewSet[string](),
		onlineSince: make(map[string]time.Time),
		logger:      logger,
		metrics:     m,
	}
}

// AddConnection starts tracking an open connection that has not joined any
// room yet. Adding the same connection twice is a no-op.
func (r *Registry) AddConnection(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, tracked := r.memberships[c]; tracked {
		return
	}

	r.memberships[c] = mapset.NewSet[string]()
	r.metrics.OpenConnections.Inc()
}

// Join adds the connection to the room named by userID and reports whether
// the user just transitioned to online. Empty identifiers and untracked
// connections are rejected locally.
func (r *Registry) Join(c *Client, userID string) bool {
	if userID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	joined, tracked := r.memberships[c]
	if !tracked {
		r.logger.Warnw("join from untracked connection", "client", c.ID, "user", userID)
		return false
	}

	room, ok := r.rooms[userID]
	if !ok {
		room = make(map[*Client]struct{})
		r.rooms[userID] = room
	}
	room[c] = struct{}{}
	joined.Add(userID)

	if r.online.Contains(userID) {
		return false
	}

	r.online.Add(userID)
	r.onlineSince[userID] = time.Now()
	r.metrics.OnlineUsers.Set(float64(r.online.Cardinality()))

	return true
}

// RemoveConnection drops the connection from every room it joined and closes
// its outbound channel. It returns the user identifiers whose live-connection
// count reached zero; each owes exactly one offline announcement. Removing an
// unknown connection is a safe no-op.
func (r *Registry) RemoveConnection(c *Client) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined, tracked := r.memberships[c]
	if !tracked {
		return nil
	}

	var wentOffline []string
	for userID := range joined.Iter() {
		room, ok := r.rooms[userID]
		if !ok {
			continue
		}

		delete(room, c)
		if len(room) == 0 {
			delete(r.rooms, userID)
			r.online.Remove(userID)
			delete(r.onlineSince, userID)
			wentOffline = append(wentOffline, userID)
		}
	}

	delete(r.memberships, c)
	close(c.Message)

	r.metrics.OpenConnections.Dec()
	r.metrics.OnlineUsers.Set(float64(r.online.Cardinality()))

	return wentOffline
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.online.Contains(userID)
}

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.memberships)
}

// Snapshot reports every online user with its live-connection count.
func (r *Registry) Snapshot() []domain.Presence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]domain.Presence, 0, r.online.Cardinality())
	for userID := range r.online.Iter() {
		snapshot = append(snapshot, domain.Presence{
			UserID:      userID,
			Status:      domain.StatusOnline,
			Connections: len(r.rooms[userID]),
			Since:       r.onlineSince[userID],
		})
	}

	return snapshot
}
