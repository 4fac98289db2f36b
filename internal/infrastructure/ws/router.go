package ws

// Routing is fire-and-forget: a buffered channel send per member, dropped when
// the member's outbound buffer is full. A room with no members delivers to
// nobody and is not an error.

// Route delivers the event to every connection joined to the room named by
// userID. It returns the number of connections that accepted the event.
func (r *Registry) Route(userID string, ev *Event) int {
	return r.RouteExcluding(userID, nil, ev)
}

// RouteExcluding delivers to every member of the room except the originating
// connection, mirroring what a client expects when relaying its own signal.
func (r *Registry) RouteExcluding(userID string, origin *Client, ev *Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for member := range r.rooms[userID] {
		if member == origin {
			continue
		}
		if r.deliver(member, ev) {
			delivered++
		}
	}

	return delivered
}

// RouteExcludingMany delivers to the union of the named rooms, at most once
// per connection, skipping the originating connection.
func (r *Registry) RouteExcludingMany(userIDs []string, origin *Client, ev *Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[*Client]struct{})
	delivered := 0
	for _, userID := range userIDs {
		for member := range r.rooms[userID] {
			if member == origin {
				continue
			}
			if _, dup := seen[member]; dup {
				continue
			}
			seen[member] = struct{}{}
			if r.deliver(member, ev) {
				delivered++
			}
		}
	}

	return delivered
}

// BroadcastAll delivers to every open connection, joined to a room or not.
func (r *Registry) BroadcastAll(ev *Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for member := range r.memberships {
		if r.deliver(member, ev) {
			delivered++
		}
	}

	return delivered
}

func (r *Registry) deliver(c *Client, ev *Event) bool {
	select {
	case c.Message <- ev:
		return true
	default:
		// Client is too slow – drop the event
		r.metrics.DroppedSends.Inc()
		r.logger.Warnw("client buffer full, dropping event", "client", c.ID, "type", ev.Type)
		return false
	}
}
