package match

import "royale.gg/internal/protocol"

// The persistence intents below validate identifiers before touching
// the gateway: a malformed id is logged and the write skipped, while
// in-memory state and broadcasts proceed untouched.

func (a *Arena) markActive(s *Session) {
	if a.gateway == nil {
		return
	}
	if !protocol.IsRecordID(s.PlayerID) || !protocol.IsRecordID(s.EventID) {
		a.log.Printf("skip mark-active for malformed ids player=%q event=%q", s.PlayerID, s.EventID)
		return
	}
	a.gateway.MarkActive(s.PlayerID, s.EventID, s.RoomID)
}

func (a *Arena) recordElimination(s *Session, rank int) {
	if a.gateway == nil || s.EventID == "" {
		return
	}
	if !protocol.IsRecordID(s.PlayerID) || !protocol.IsRecordID(s.EventID) {
		a.log.Printf("skip elimination write for malformed ids player=%q event=%q rank=%d", s.PlayerID, s.EventID, rank)
		return
	}
	a.gateway.RecordElimination(s.PlayerID, s.EventID, rank)
}

func (a *Arena) recordWin(s *Session, cashWon int) {
	if a.gateway == nil || s.EventID == "" {
		return
	}
	if !protocol.IsRecordID(s.PlayerID) || !protocol.IsRecordID(s.EventID) {
		a.log.Printf("skip win write for malformed ids player=%q event=%q", s.PlayerID, s.EventID)
		return
	}
	a.gateway.RecordWin(s.PlayerID, s.EventID, cashWon)
}
