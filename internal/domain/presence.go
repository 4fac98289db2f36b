package domain

import "time"

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// Presence is the derived online state of a user identifier: a user is online
// iff at least one live connection is joined to its room.
type Presence struct {
	UserID      string         `json:"userId"`
	Status      PresenceStatus `json:"status"`
	Connections int            `json:"connections"`
	Since       time.Time      `json:"since"`
}
