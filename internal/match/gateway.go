package match

import "time"

// Gateway is the narrow interface to the durable player record. The
// write operations are asynchronous and best-effort: implementations
// log failures and never surface them to the caller. The winner and
// rank overwrite guards live behind this interface.
type Gateway interface {
	MarkActive(playerID, eventID, roomID string)
	RecordElimination(playerID, eventID string, rank int)
	RecordWin(playerID, eventID string, cashWon int)

	// StartingCash returns the per-event initial cash amount, if the
	// event is known. Called at most once per event per process.
	StartingCash(eventID string) (int, bool)
}

// AuditLogger receives match lifecycle events for offline inspection.
type AuditLogger interface {
	WriteEvent(e AuditEvent) error
}

type AuditEvent struct {
	At       time.Time `json:"at"`
	Kind     string    `json:"kind"`
	PlayerID string    `json:"playerId"`
	RoomID   string    `json:"roomId,omitempty"`
	EventID  string    `json:"eventId,omitempty"`
	Rank     int       `json:"rank,omitempty"`
	Cash     int       `json:"cash,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}
