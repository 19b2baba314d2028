package match

// reapIdle force-disconnects every session with no inbound traffic
// inside the timeout window. Eviction removes the session, so a later
// sweep cannot reap the same player twice.
func (a *Arena) reapIdle() {
	cutoff := a.now().Add(-a.cfg.PlayerTimeout)

	var idle []string
	for id, s := range a.sessions {
		if s.LastActivity.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	for _, id := range idle {
		a.log.Printf("reaping idle player %s", id)
		a.reapedTotal.Add(1)
		a.forceDisconnect(id, "inactivity_timeout")
	}
}
