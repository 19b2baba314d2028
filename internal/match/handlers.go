package match

import (
	"royale.gg/internal/protocol"
)

func (a *Arena) handleConnect(m protocol.ConnectMsg, from Endpoint) {
	s, known := a.sessions[m.PlayerID]
	if !known {
		s = &Session{
			PlayerID:      m.PlayerID,
			Username:      m.Username,
			RoomID:        m.RoomID,
			EventID:       m.EventID,
			Endpoint:      from,
			Flip:          protocol.Vec3{X: 1, Y: 1, Z: 1},
			Health:        a.cfg.MaxHealth,
			IsAlive:       true,
			CashCollected: a.startingCashFor(m.EventID),
			LastActivity:  a.now(),
		}
		a.sessions[m.PlayerID] = s
		a.liveSessions.Store(int64(len(a.sessions)))
		a.log.Printf("player connected: %s room=%s event=%s via %s", m.PlayerID, m.RoomID, m.EventID, from)

		if m.EventID != "" && m.RoomID != "" {
			a.markActive(s)
		}
		a.auditEvent("connect", s, 0, s.CashCollected, "")
	}

	existing := make([]protocol.PlayerSnapshot, 0, len(a.sessions))
	for id, other := range a.sessions {
		if id == m.PlayerID || !other.inScope(s.RoomID, s.EventID) {
			continue
		}
		existing = append(existing, other.snapshot())
	}
	cash := make([]protocol.CashSnapshot, 0, len(a.pickups))
	for _, p := range a.pickups {
		if p.RoomID == s.RoomID && p.EventID == s.EventID {
			cash = append(cash, protocol.CashSnapshot{CashID: p.ID, Position: p.Position, CashAmount: p.Amount})
		}
	}

	a.send(s, protocol.ConnectAckMsg{
		Type:            protocol.TypeConnectAck,
		Message:         "Welcome!",
		ExistingPlayers: existing,
		ExistingCash:    cash,
		PingInterval:    a.cfg.PingInterval.Milliseconds(),
		NextPingTime:    a.now().Add(a.cfg.PingInterval).UnixMilli(),
	})

	a.broadcastExcept(m.PlayerID, s.RoomID, s.EventID, protocol.SpawnMsg{
		Type:           protocol.TypeSpawn,
		PlayerSnapshot: s.snapshot(),
	})
}

func (a *Arena) handleMove(m protocol.MoveMsg) {
	s := a.liveSession(m.PlayerID)
	if s == nil {
		return
	}
	s.Position = m.Position
	a.broadcastExcept(m.PlayerID, s.RoomID, s.EventID, protocol.MoveBcast{
		Type:     protocol.TypeMove,
		PlayerID: m.PlayerID,
		Position: m.Position,
		Username: s.Username,
		Health:   s.Health,
	})
}

func (a *Arena) handleFlip(m protocol.FlipMsg) {
	s := a.liveSession(m.PlayerID)
	if s == nil {
		return
	}
	s.Flip = m.LocalScale
	a.broadcastExcept(m.PlayerID, s.RoomID, s.EventID, protocol.FlipBcast{
		Type:     protocol.TypeFlip,
		PlayerID: m.PlayerID,
		Flip:     m.LocalScale,
		Username: s.Username,
		Health:   s.Health,
	})
}

func (a *Arena) handleRotate(m protocol.RotateMsg) {
	s := a.liveSession(m.PlayerID)
	if s == nil {
		return
	}
	s.Rotation = m.Rotation
	a.broadcastExcept(m.PlayerID, s.RoomID, s.EventID, protocol.RotateBcast{
		Type:     protocol.TypeRotate,
		PlayerID: m.PlayerID,
		Rotation: m.Rotation,
		Username: s.Username,
		Health:   s.Health,
	})
}

func (a *Arena) handleAttack(m protocol.AttackMsg) {
	s := a.liveSession(m.PlayerID)
	if s == nil {
		return
	}
	a.broadcastExcept(m.PlayerID, s.RoomID, s.EventID, protocol.AttackBcast{
		Type:           protocol.TypeAttack,
		PlayerID:       m.PlayerID,
		ShootPoint:     m.ShootPoint,
		ShootDirection: m.ShootDirection,
		Username:       s.Username,
		Health:         s.Health,
	})
}

// handleDamage subtracts the reported damage from the sender's own
// health. Reaching zero does not eliminate: a desynced client keeps a
// downed player at zero health until its death frame arrives.
func (a *Arena) handleDamage(m protocol.DamageMsg) {
	s := a.liveSession(m.PlayerID)
	if s == nil {
		return
	}
	s.Health -= m.Damage
	if s.Health < 0 {
		s.Health = 0
	}
	a.broadcastExcept(m.PlayerID, s.RoomID, s.EventID, protocol.DamageBcast{
		Type:          protocol.TypeDamage,
		PlayerID:      m.PlayerID,
		Username:      s.Username,
		Damage:        m.Damage,
		ShooterID:     m.ShooterID,
		Health:        s.Health,
		CurrentHealth: s.Health,
	})
}

func (a *Arena) handleDeath(m protocol.DeathMsg) {
	s, ok := a.sessions[m.PlayerID]
	if !ok {
		return
	}
	s.IsAlive = false

	rank := a.aliveInScope(s.RoomID, s.EventID) + 1
	if !s.IsWinner {
		a.recordElimination(s, rank)
	}

	cash := s.CashCollected
	a.send(s, protocol.DeathStatsMsg{
		Type:          protocol.TypeDeathStats,
		PlayerID:      s.PlayerID,
		Rank:          rank,
		CashCollected: cash,
	})

	if cash > 0 {
		p := a.spawnPickup(s)
		// Every session in scope gets the pickup notice, the dying
		// player included, so its client can render the drop.
		a.broadcastExcept("", s.RoomID, s.EventID, cashSpawnNotice(p))
	}

	a.broadcastExcept(s.PlayerID, s.RoomID, s.EventID, protocol.DeathBcast{
		Type:          protocol.TypeDeath,
		PlayerID:      s.PlayerID,
		CashCollected: cash,
	})
	a.auditEvent("death", s, rank, cash, "")
}

func (a *Arena) handleGameEnd(playerID string) {
	s, ok := a.sessions[playerID]
	if !ok {
		return
	}
	s.IsWinner = true

	cash := s.CashCollected
	a.recordWin(s, cash)

	a.send(s, protocol.GameEndStatsMsg{
		Type:          protocol.TypeGameEndStats,
		PlayerID:      s.PlayerID,
		Rank:          1,
		CashCollected: cash,
	})
	a.broadcastExcept(s.PlayerID, s.RoomID, s.EventID, protocol.GameEndBcast{
		Type:     protocol.TypeGameEnd,
		PlayerID: s.PlayerID,
	})
	a.auditEvent("win", s, 1, cash, "")
}

// forceDisconnect is shared by the explicit disconnect message, the
// transport leave path, and the idle reaper.
func (a *Arena) forceDisconnect(playerID, reason string) {
	s, ok := a.sessions[playerID]
	if !ok {
		return
	}

	if !s.IsWinner {
		if s.CashCollected > 0 {
			p := a.spawnPickup(s)
			a.broadcastExcept("", s.RoomID, s.EventID, cashSpawnNotice(p))
		}
		// Rank unresolved: the gateway keeps any previously recorded
		// real rank in preference to this zero.
		a.recordElimination(s, 0)
	}

	note := protocol.DisconnectMsg{
		Type:     protocol.TypeDisconnect,
		PlayerID: playerID,
		Reason:   reason,
	}
	a.send(s, note)
	a.broadcastExcept(playerID, s.RoomID, s.EventID, note)

	delete(a.sessions, playerID)
	a.liveSessions.Store(int64(len(a.sessions)))
	a.log.Printf("player disconnected: %s reason=%s", playerID, reason)
	a.auditEvent("disconnect", s, 0, 0, reason)
}

func (a *Arena) handleCashCollected(m protocol.CashCollectedMsg) {
	if m.CashID == "" {
		return
	}
	collector := a.sessions[m.PlayerID]

	roomID, eventID := "", m.EventID
	if collector != nil {
		roomID, eventID = collector.RoomID, collector.EventID
	}

	amount := m.CashAmount
	if amount <= 0 {
		amount = a.cfg.DefaultCash
	}

	// Duplicate or late collections are tolerated: only a known pickup
	// credits the collector, so a replayed cashId cannot double-pay.
	if p, known := a.pickups[m.CashID]; known {
		amount = p.Amount
		roomID, eventID = p.RoomID, p.EventID
		a.removePickup(p.ID)
		if collector != nil {
			collector.CashCollected += amount
		}
	}

	a.broadcastExcept(m.PlayerID, roomID, eventID, protocol.CashCollectedBcast{
		Type:       protocol.TypeCashCollected,
		CashID:     m.CashID,
		PlayerID:   m.PlayerID,
		EventID:    eventID,
		CashAmount: amount,
	})
}

func cashSpawnNotice(p *CashPickup) protocol.CashSpawnMsg {
	return protocol.CashSpawnMsg{
		Type:       protocol.TypeCashSpawn,
		CashID:     p.ID,
		Position:   p.Position,
		CashAmount: p.Amount,
		PlayerID:   p.OwnerID,
		EventID:    p.EventID,
	}
}
