package protocol

import "encoding/json"

// Inbound message kinds.
const (
	TypePing          = "ping"
	TypeConnect       = "connect"
	TypeMove          = "move"
	TypeFlip          = "flip"
	TypeRotate        = "rotate"
	TypeAttack        = "attack"
	TypeDamage        = "damage"
	TypeDeath         = "death"
	TypeGameEnd       = "game_end"
	TypeDisconnect    = "disconnect"
	TypeCashCollected = "cash_collected"
)

// Outbound-only message kinds.
const (
	TypeConnectAck   = "connect_ack"
	TypeSpawn        = "spawn"
	TypeDeathStats   = "death_stats"
	TypeGameEndStats = "game_end_stats"
	TypeCashSpawn    = "cash_spawn"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
