package ws

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/meetgrid/presence/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// TestJoinMarksUserOnline verifies that the first connection joining a user's
// room flips the user to online and that Join reports the transition.
func TestJoinMarksUserOnline(t *testing.T) {
	registry, _ := newTestDispatcher(t)

	c := newTestClient(t)
	registry.AddConnection(c)

	if registry.IsOnline("u1") {
		t.Fatal("user reported online before joining")
	}

	if !registry.Join(c, "u1") {
		t.Error("first join should report an online transition")
	}
	if !registry.IsOnline("u1") {
		t.Error("user should be online after joining")
	}
}

// TestJoinEmptyUserID verifies that joining with a missing identifier is
// rejected locally as a no-op.
func TestJoinEmptyUserID(t *testing.T) {
	registry, _ := newTestDispatcher(t)

	c := newTestClient(t)
	registry.AddConnection(c)

	if registry.Join(c, "") {
		t.Error("empty user id must not report a transition")
	}
	if registry.ConnectionCount() != 1 {
		t.Errorf("connection count = %d, want 1", registry.ConnectionCount())
	}
}

// TestMultiDevicePresence verifies the corrected multi-device behavior: two
// connections for one identifier, disconnecting one leaves the user online,
// disconnecting both marks it offline exactly once.
func TestMultiDevicePresence(t *testing.T) {
	registry, _ := newTestDispatcher(t)

	phone := connect(t, registry, "u1")
	laptop := newTestClient(t)
	registry.AddConnection(laptop)

	if registry.Join(laptop, "u1") {
		t.Error("second device must not report another online transition")
	}

	if offline := registry.RemoveConnection(phone); len(offline) != 0 {
		t.Errorf("removing one of two devices reported offline for %v", offline)
	}
	if !registry.IsOnline("u1") {
		t.Error("user should stay online while a device remains connected")
	}

	offline := registry.RemoveConnection(laptop)
	if len(offline) != 1 || offline[0] != "u1" {
		t.Errorf("offline transitions = %v, want [u1]", offline)
	}
	if registry.IsOnline("u1") {
		t.Error("user should be offline after the last device disconnects")
	}
}

// TestRemoveConnectionIdempotent verifies that removing a connection that
// never joined a room, or was already removed, is a safe no-op.
func TestRemoveConnectionIdempotent(t *testing.T) {
	registry, _ := newTestDispatcher(t)

	stranger := newTestClient(t)
	if offline := registry.RemoveConnection(stranger); offline != nil {
		t.Errorf("removing an unknown connection reported %v", offline)
	}

	c := connect(t, registry, "u1")
	registry.RemoveConnection(c)
	if offline := registry.RemoveConnection(c); offline != nil {
		t.Errorf("double removal reported %v", offline)
	}
}

// TestConnectionJoinsMultipleRooms verifies that one connection may join
// several identifier rooms and that teardown settles each independently.
func TestConnectionJoinsMultipleRooms(t *testing.T) {
	registry, _ := newTestDispatcher(t)

	c := newTestClient(t)
	registry.AddConnection(c)
	registry.Join(c, "u1")
	registry.Join(c, "u2")

	other := connect(t, registry, "u2")

	offline := registry.RemoveConnection(c)
	if len(offline) != 1 || offline[0] != "u1" {
		t.Errorf("offline transitions = %v, want [u1]", offline)
	}
	if !registry.IsOnline("u2") {
		t.Error("u2 should stay online through the other connection")
	}

	registry.RemoveConnection(other)
	if registry.IsOnline("u2") {
		t.Error("u2 should be offline after its last connection left")
	}
}

// TestSnapshotCountsConnections verifies the presence snapshot reflects live
// connection counts per online user.
func TestSnapshotCountsConnections(t *testing.T) {
	registry, _ := newTestDispatcher(t)

	connect(t, registry, "u1")
	connect(t, registry, "u1")
	connect(t, registry, "u2")

	snapshot := registry.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("snapshot has %d users, want 2", len(snapshot))
	}

	counts := make(map[string]int)
	for _, p := range snapshot {
		counts[p.UserID] = p.Connections
	}
	if counts["u1"] != 2 || counts["u2"] != 1 {
		t.Errorf("connection counts = %v, want u1:2 u2:1", counts)
	}
}

// TestPresenceMatchesConnectionCount drives the registry through random
// join/remove interleavings and checks the invariant after every step: a user
// is online iff its live-connection count is greater than zero.
func TestPresenceMatchesConnectionCount(t *testing.T) {
	registry, _ := newTestDispatcher(t)
	rng := rand.New(rand.NewSource(1))

	users := []string{"u1", "u2", "u3"}
	model := make(map[string]map[*Client]struct{})
	var open []*Client

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(open) == 0:
			c := newTestClient(t)
			registry.AddConnection(c)
			open = append(open, c)

		case op == 1:
			c := open[rng.Intn(len(open))]
			userID := users[rng.Intn(len(users))]
			registry.Join(c, userID)
			if model[userID] == nil {
				model[userID] = make(map[*Client]struct{})
			}
			model[userID][c] = struct{}{}

		default:
			i := rng.Intn(len(open))
			c := open[i]
			open = append(open[:i], open[i+1:]...)
			registry.RemoveConnection(c)
			for _, room := range model {
				delete(room, c)
			}
			drain(c)
		}

		for _, userID := range users {
			want := len(model[userID]) > 0
			if got := registry.IsOnline(userID); got != want {
				t.Fatalf("step %d: IsOnline(%s) = %v, want %v", step, userID, got, want)
			}
		}
	}
}

// TestOfflineAnnouncedExactlyOnce runs many connections for one user and
// checks a single offline transition is reported across the whole teardown.
func TestOfflineAnnouncedExactlyOnce(t *testing.T) {
	registry, _ := newTestDispatcher(t)

	var clients []*Client
	for i := 0; i < 5; i++ {
		clients = append(clients, connect(t, registry, "u1"))
	}

	transitions := 0
	for _, c := range clients {
		transitions += len(registry.RemoveConnection(c))
	}

	if transitions != 1 {
		t.Errorf("offline transitions = %d, want exactly 1", transitions)
	}
}

func BenchmarkJoinLeave(b *testing.B) {
	logger := zap.NewNop().Sugar()
	registry := NewRegistry(logger, metrics.New())

	for i := 0; i < b.N; i++ {
		c := NewClient(nil, fmt.Sprintf("c%d", i), Options{SendBuffer: 1}, logger)
		registry.AddConnection(c)
		registry.Join(c, "u1")
		registry.RemoveConnection(c)
	}
}
