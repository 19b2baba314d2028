package match

import (
	"encoding/json"

	"royale.gg/internal/protocol"
)

// dispatch decodes one raw frame and routes it to its handler.
// Malformed frames and unknown kinds are logged and discarded; nothing
// here may take the server down.
func (a *Arena) dispatch(f Frame) {
	base, err := protocol.DecodeBase(f.Payload)
	if err != nil {
		a.droppedFrames.Add(1)
		a.log.Printf("discard malformed frame from %s: %v", f.From, err)
		return
	}
	if base.PlayerID == "" {
		a.droppedFrames.Add(1)
		a.log.Printf("discard frame without playerId (type=%q) from %s", base.Type, f.From)
		return
	}

	if s, ok := a.sessions[base.PlayerID]; ok {
		s.LastActivity = a.now()
		// A frame from a new address or socket rebinds the reply path.
		s.Endpoint = f.From
	}

	if base.Type == protocol.TypePing {
		return
	}

	switch base.Type {
	case protocol.TypeConnect:
		var m protocol.ConnectMsg
		if a.decode(f, base.Type, &m) {
			a.handleConnect(m, f.From)
		}
	case protocol.TypeMove:
		var m protocol.MoveMsg
		if a.decode(f, base.Type, &m) {
			a.handleMove(m)
		}
	case protocol.TypeFlip:
		var m protocol.FlipMsg
		if a.decode(f, base.Type, &m) {
			a.handleFlip(m)
		}
	case protocol.TypeRotate:
		var m protocol.RotateMsg
		if a.decode(f, base.Type, &m) {
			a.handleRotate(m)
		}
	case protocol.TypeAttack:
		var m protocol.AttackMsg
		if a.decode(f, base.Type, &m) {
			a.handleAttack(m)
		}
	case protocol.TypeDamage:
		var m protocol.DamageMsg
		if a.decode(f, base.Type, &m) {
			a.handleDamage(m)
		}
	case protocol.TypeDeath:
		var m protocol.DeathMsg
		if a.decode(f, base.Type, &m) {
			a.handleDeath(m)
		}
	case protocol.TypeGameEnd:
		a.handleGameEnd(base.PlayerID)
	case protocol.TypeDisconnect:
		a.forceDisconnect(base.PlayerID, "client_disconnect")
	case protocol.TypeCashCollected:
		var m protocol.CashCollectedMsg
		if a.decode(f, base.Type, &m) {
			a.handleCashCollected(m)
		}
	default:
		a.droppedFrames.Add(1)
		a.log.Printf("unknown message type %q from %s", base.Type, f.From)
	}
}

func (a *Arena) decode(f Frame, kind string, v any) bool {
	if err := json.Unmarshal(f.Payload, v); err != nil {
		a.droppedFrames.Add(1)
		a.log.Printf("discard %s frame from %s: %v", kind, f.From, err)
		return false
	}
	return true
}
