package match

import "encoding/json"

// broadcastExcept sends msg to every session matching the room/event
// filters, skipping exceptID. An empty filter matches any value (used
// at connect time, before a scope is assigned). Delivery is
// best-effort per recipient: one failed send never blocks the rest.
func (a *Arena) broadcastExcept(exceptID, roomID, eventID string, msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		a.log.Printf("broadcast marshal: %v", err)
		return
	}
	for id, s := range a.sessions {
		if id == exceptID {
			continue
		}
		if !s.inScope(roomID, eventID) {
			continue
		}
		if err := s.Endpoint.Send(b); err != nil {
			a.log.Printf("send to %s via %s: %v", id, s.Endpoint, err)
		}
	}
}

func (a *Arena) send(s *Session, msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		a.log.Printf("send marshal: %v", err)
		return
	}
	if err := s.Endpoint.Send(b); err != nil {
		a.log.Printf("send to %s via %s: %v", s.PlayerID, s.Endpoint, err)
	}
}
