package match

import (
	"fmt"
	"time"

	"royale.gg/internal/protocol"
)

// Session is the in-memory record of one connected player. It exists
// in the registry iff the player is currently connected.
type Session struct {
	PlayerID string
	Username string
	RoomID   string
	EventID  string

	Endpoint Endpoint

	Position protocol.Vec3
	Flip     protocol.Vec3
	Rotation float64

	Health  int
	IsAlive bool
	// IsWinner is sticky: once set, no later elimination, timeout, or
	// disconnect path may clear it or demote the persisted status.
	IsWinner bool

	CashCollected int

	LastActivity time.Time
}

func (s *Session) inScope(roomID, eventID string) bool {
	if roomID != "" && s.RoomID != roomID {
		return false
	}
	if eventID != "" && s.EventID != eventID {
		return false
	}
	return true
}

func (s *Session) snapshot() protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{
		PlayerID: s.PlayerID,
		Username: s.Username,
		Position: s.Position,
		Flip:     s.Flip,
		Rotation: s.Rotation,
		IsAlive:  s.IsAlive,
		Health:   s.Health,
	}
}

// CashPickup is an ephemeral collectible spawned when a player dies or
// disconnects with uncommitted winnings.
type CashPickup struct {
	ID       string
	OwnerID  string
	Position protocol.Vec3
	RoomID   string
	EventID  string
	Amount   int
}

// liveSession returns the session only if it exists and is alive.
func (a *Arena) liveSession(playerID string) *Session {
	s, ok := a.sessions[playerID]
	if !ok || !s.IsAlive {
		return nil
	}
	return s
}

func (a *Arena) aliveInScope(roomID, eventID string) int {
	n := 0
	for _, s := range a.sessions {
		if s.IsAlive && s.inScope(roomID, eventID) {
			n++
		}
	}
	return n
}

// spawnPickup drops the session's uncommitted cash at its last
// position and clears the running total.
func (a *Arena) spawnPickup(s *Session) *CashPickup {
	p := &CashPickup{
		ID:       fmt.Sprintf("cash_%s_%s_%d", s.PlayerID, s.EventID, a.now().UnixNano()),
		OwnerID:  s.PlayerID,
		Position: s.Position,
		RoomID:   s.RoomID,
		EventID:  s.EventID,
		Amount:   s.CashCollected,
	}
	a.pickups[p.ID] = p
	s.CashCollected = 0
	a.livePickups.Store(int64(len(a.pickups)))
	return p
}

func (a *Arena) removePickup(id string) {
	delete(a.pickups, id)
	a.livePickups.Store(int64(len(a.pickups)))
}
