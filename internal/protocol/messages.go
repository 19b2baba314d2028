package protocol

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// connect (client -> server)
type ConnectMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId,omitempty"`
	EventID  string `json:"eventId,omitempty"`
	Username string `json:"username,omitempty"`
}

type MoveMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Position Vec3   `json:"position"`
}

type FlipMsg struct {
	Type       string `json:"type"`
	PlayerID   string `json:"playerId"`
	LocalScale Vec3   `json:"localScale"`
}

type RotateMsg struct {
	Type     string  `json:"type"`
	PlayerID string  `json:"playerId"`
	Rotation float64 `json:"rotation"`
}

type AttackMsg struct {
	Type           string `json:"type"`
	PlayerID       string `json:"playerId"`
	ShootPoint     Vec3   `json:"shootPoint"`
	ShootDirection Vec3   `json:"shootDirection"`
}

// damage reports damage taken by the sender, not by the shooter.
type DamageMsg struct {
	Type      string `json:"type"`
	PlayerID  string `json:"playerId"`
	Damage    int    `json:"damage"`
	ShooterID string `json:"shooterId,omitempty"`
}

type DeathMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Position Vec3   `json:"position"`
}

type CashCollectedMsg struct {
	Type       string `json:"type"`
	PlayerID   string `json:"playerId"`
	CashID     string `json:"cashId"`
	EventID    string `json:"eventId,omitempty"`
	CashAmount int    `json:"cashAmount,omitempty"`
}

// PlayerSnapshot is the per-player view sent in connect_ack and spawn.
type PlayerSnapshot struct {
	PlayerID string  `json:"playerId"`
	Username string  `json:"username,omitempty"`
	Position Vec3    `json:"position"`
	Flip     Vec3    `json:"flip"`
	Rotation float64 `json:"rotation"`
	IsAlive  bool    `json:"isAlive"`
	Health   int     `json:"health"`
	Bot      bool    `json:"bot"`
}

type CashSnapshot struct {
	CashID     string `json:"cashId"`
	Position   Vec3   `json:"position"`
	CashAmount int    `json:"cashAmount"`
}

// connect_ack (server -> connecting client)
type ConnectAckMsg struct {
	Type            string           `json:"type"`
	Message         string           `json:"message"`
	ExistingPlayers []PlayerSnapshot `json:"existingPlayers"`
	ExistingCash    []CashSnapshot   `json:"existingCash"`
	PingInterval    int64            `json:"pingInterval"`
	NextPingTime    int64            `json:"nextPingTime"`
}

// spawn (server -> rest of scope)
type SpawnMsg struct {
	Type string `json:"type"`
	PlayerSnapshot
}

type MoveBcast struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Position Vec3   `json:"position"`
	Username string `json:"username,omitempty"`
	Health   int    `json:"health"`
}

type FlipBcast struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Flip     Vec3   `json:"flip"`
	Username string `json:"username,omitempty"`
	Health   int    `json:"health"`
}

type RotateBcast struct {
	Type     string  `json:"type"`
	PlayerID string  `json:"playerId"`
	Rotation float64 `json:"rotation"`
	Username string  `json:"username,omitempty"`
	Health   int     `json:"health"`
}

type AttackBcast struct {
	Type           string `json:"type"`
	PlayerID       string `json:"playerId"`
	ShootPoint     Vec3   `json:"shootPoint"`
	ShootDirection Vec3   `json:"shootDirection"`
	Username       string `json:"username,omitempty"`
	Health         int    `json:"health"`
}

type DamageBcast struct {
	Type          string `json:"type"`
	PlayerID      string `json:"playerId"`
	Username      string `json:"username,omitempty"`
	Damage        int    `json:"damage"`
	ShooterID     string `json:"shooterId,omitempty"`
	Health        int    `json:"health"`
	CurrentHealth int    `json:"currentHealth"`
}

// death_stats (server -> dying client, private)
type DeathStatsMsg struct {
	Type          string `json:"type"`
	PlayerID      string `json:"playerId"`
	Rank          int    `json:"rank"`
	CashCollected int    `json:"cashCollected"`
}

// game_end_stats (server -> winning client, private)
type GameEndStatsMsg struct {
	Type          string `json:"type"`
	PlayerID      string `json:"playerId"`
	Rank          int    `json:"rank"`
	CashCollected int    `json:"cashCollected"`
}

// death (server -> rest of scope, public)
type DeathBcast struct {
	Type          string `json:"type"`
	PlayerID      string `json:"playerId"`
	CashCollected int    `json:"cashCollected"`
}

type GameEndBcast struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type DisconnectMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
}

type CashSpawnMsg struct {
	Type       string `json:"type"`
	CashID     string `json:"cashId"`
	Position   Vec3   `json:"position"`
	CashAmount int    `json:"cashAmount"`
	PlayerID   string `json:"playerId"`
	EventID    string `json:"eventId,omitempty"`
}

type CashCollectedBcast struct {
	Type       string `json:"type"`
	CashID     string `json:"cashId"`
	PlayerID   string `json:"playerId"`
	EventID    string `json:"eventId,omitempty"`
	CashAmount int    `json:"cashAmount"`
}
