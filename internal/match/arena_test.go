package match

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"royale.gg/internal/protocol"
)

type fakeEndpoint struct {
	id   string
	sent [][]byte
	fail bool
}

func (e *fakeEndpoint) Send(b []byte) error {
	if e.fail {
		return errors.New("endpoint down")
	}
	e.sent = append(e.sent, b)
	return nil
}

func (e *fakeEndpoint) String() string { return "fake:" + e.id }

// received decodes every frame sent to the endpoint of the given type.
func (e *fakeEndpoint) received(t *testing.T, kind string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, b := range e.sent {
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("unmarshal sent frame: %v", err)
		}
		if m["type"] == kind {
			out = append(out, m)
		}
	}
	return out
}

type elimCall struct {
	playerID string
	eventID  string
	rank     int
}

type winCall struct {
	playerID string
	eventID  string
	cashWon  int
}

type fakeGateway struct {
	active       []string
	elims        []elimCall
	wins         []winCall
	starting     map[string]int
	startingHits int
}

func (g *fakeGateway) MarkActive(playerID, eventID, roomID string) {
	g.active = append(g.active, playerID)
}

func (g *fakeGateway) RecordElimination(playerID, eventID string, rank int) {
	g.elims = append(g.elims, elimCall{playerID, eventID, rank})
}

func (g *fakeGateway) RecordWin(playerID, eventID string, cashWon int) {
	g.wins = append(g.wins, winCall{playerID, eventID, cashWon})
}

func (g *fakeGateway) StartingCash(eventID string) (int, bool) {
	g.startingHits++
	v, ok := g.starting[eventID]
	return v, ok
}

type testArena struct {
	*Arena
	gw    *fakeGateway
	clock time.Time
}

func newTestArena(t *testing.T) *testArena {
	t.Helper()
	ta := &testArena{
		gw:    &fakeGateway{starting: map[string]int{}},
		clock: time.Unix(1_700_000_000, 0),
	}
	ta.Arena = New(Config{
		MaxHealth:     20,
		PingInterval:  5 * time.Second,
		PlayerTimeout: 50 * time.Second,
		ReapInterval:  time.Minute,
		DefaultCash:   300,
	}, ta.gw, nil, log.New(io.Discard, "", 0))
	ta.Arena.now = func() time.Time { return ta.clock }
	return ta
}

func (ta *testArena) advance(d time.Duration) { ta.clock = ta.clock.Add(d) }

func (ta *testArena) frame(t *testing.T, from Endpoint, msg any) {
	t.Helper()
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	ta.dispatch(Frame{Payload: b, From: from})
}

// Valid 24-hex record ids for persistence-bound tests.
func recordID(n int) string { return fmt.Sprintf("%024x", n) }

func (ta *testArena) connect(t *testing.T, id, room, event, name string) *fakeEndpoint {
	t.Helper()
	ep := &fakeEndpoint{id: id}
	ta.frame(t, ep, protocol.ConnectMsg{
		Type: protocol.TypeConnect, PlayerID: id, RoomID: room, EventID: event, Username: name,
	})
	return ep
}

func TestConnectAckListsScopeOnly(t *testing.T) {
	ta := newTestArena(t)

	epA := ta.connect(t, "A", "R1", "E1", "alice")
	epC := ta.connect(t, "C", "R2", "E1", "carol")
	epB := ta.connect(t, "B", "R1", "E1", "bob")

	acks := epB.received(t, protocol.TypeConnectAck)
	if len(acks) != 1 {
		t.Fatalf("B got %d connect_acks, want 1", len(acks))
	}
	players := acks[0]["existingPlayers"].([]any)
	if len(players) != 1 {
		t.Fatalf("B's ack lists %d players, want 1 (just A)", len(players))
	}
	if got := players[0].(map[string]any)["playerId"]; got != "A" {
		t.Fatalf("B's ack lists %v, want A", got)
	}
	if acks[0]["pingInterval"].(float64) != 5000 {
		t.Fatalf("pingInterval = %v, want 5000", acks[0]["pingInterval"])
	}

	if n := len(epA.received(t, protocol.TypeSpawn)); n != 1 {
		t.Fatalf("A got %d spawns for B, want 1", n)
	}
	// C shares the event but not the room.
	if n := len(epC.received(t, protocol.TypeSpawn)); n != 0 {
		t.Fatalf("C got %d spawns, want 0", n)
	}
}

func TestMovementBroadcastRecipients(t *testing.T) {
	ta := newTestArena(t)

	epA := ta.connect(t, "A", "R1", "E1", "alice")
	epB := ta.connect(t, "B", "R1", "E1", "bob")
	epC := ta.connect(t, "C", "R2", "E1", "carol")

	ta.frame(t, epA, protocol.MoveMsg{Type: protocol.TypeMove, PlayerID: "A", Position: protocol.Vec3{X: 3, Y: 4}})
	ta.frame(t, epA, protocol.FlipMsg{Type: protocol.TypeFlip, PlayerID: "A", LocalScale: protocol.Vec3{X: -1, Y: 1, Z: 1}})
	ta.frame(t, epA, protocol.RotateMsg{Type: protocol.TypeRotate, PlayerID: "A", Rotation: 90})

	for _, kind := range []string{protocol.TypeMove, protocol.TypeFlip, protocol.TypeRotate} {
		if n := len(epB.received(t, kind)); n != 1 {
			t.Fatalf("B got %d %s broadcasts, want 1", n, kind)
		}
		if n := len(epC.received(t, kind)); n != 0 {
			t.Fatalf("C got %d %s broadcasts, want 0", n, kind)
		}
		if n := len(epA.received(t, kind)); n != 0 {
			t.Fatalf("sender A got %d %s broadcasts, want 0", n, kind)
		}
	}

	moves := epB.received(t, protocol.TypeMove)
	if moves[0]["username"] != "alice" || moves[0]["health"].(float64) != 20 {
		t.Fatalf("move broadcast missing username/health echo: %v", moves[0])
	}
}

func TestDamageTargetsSenderAndClampsAtZero(t *testing.T) {
	ta := newTestArena(t)

	epA := ta.connect(t, "A", "R1", "E1", "alice")
	epB := ta.connect(t, "B", "R1", "E1", "bob")

	ta.frame(t, epA, protocol.DamageMsg{Type: protocol.TypeDamage, PlayerID: "A", Damage: 25, ShooterID: "B"})

	a := ta.sessions["A"]
	if a.Health != 0 {
		t.Fatalf("A health = %d, want 0 (clamped)", a.Health)
	}
	if ta.sessions["B"].Health != 20 {
		t.Fatalf("B health = %d, want untouched 20", ta.sessions["B"].Health)
	}
	// Zero health does not eliminate: only an explicit death frame does.
	if !a.IsAlive {
		t.Fatal("A marked dead by damage alone")
	}
	if len(ta.gw.elims) != 0 {
		t.Fatalf("damage enqueued %d elimination writes, want 0", len(ta.gw.elims))
	}

	dmg := epB.received(t, protocol.TypeDamage)
	if len(dmg) != 1 {
		t.Fatalf("B got %d damage broadcasts, want 1", len(dmg))
	}
	if dmg[0]["currentHealth"].(float64) != 0 || dmg[0]["shooterId"] != "B" || dmg[0]["damage"].(float64) != 25 {
		t.Fatalf("damage broadcast payload wrong: %v", dmg[0])
	}
	if n := len(epA.received(t, protocol.TypeDamage)); n != 0 {
		t.Fatalf("sender A got %d damage broadcasts, want 0", n)
	}
}

func TestDeadPlayerMessagesIgnored(t *testing.T) {
	ta := newTestArena(t)

	epA := ta.connect(t, "A", "R1", "E1", "alice")
	epB := ta.connect(t, "B", "R1", "E1", "bob")
	ta.frame(t, epA, protocol.DeathMsg{Type: protocol.TypeDeath, PlayerID: "A"})

	before := len(epB.sent)
	ta.frame(t, epA, protocol.MoveMsg{Type: protocol.TypeMove, PlayerID: "A", Position: protocol.Vec3{X: 9}})
	ta.frame(t, epA, protocol.AttackMsg{Type: protocol.TypeAttack, PlayerID: "A"})
	ta.frame(t, epA, protocol.DamageMsg{Type: protocol.TypeDamage, PlayerID: "A", Damage: 5})
	if len(epB.sent) != before {
		t.Fatalf("dead player's messages still broadcast (%d new frames)", len(epB.sent)-before)
	}
}

func TestDeathRankPickupAndReset(t *testing.T) {
	ta := newTestArena(t)
	event := recordID(7)

	ids := []string{recordID(1), recordID(2), recordID(3), recordID(4)}
	eps := make([]*fakeEndpoint, len(ids))
	for i, id := range ids {
		eps[i] = ta.connect(t, id, "R1", event, fmt.Sprintf("p%d", i))
	}

	// Give the dying player some winnings and a position.
	dying := ta.sessions[ids[0]]
	dying.CashCollected = 900
	dying.Position = protocol.Vec3{X: 10, Y: 0, Z: 2}

	ta.frame(t, eps[0], protocol.DeathMsg{Type: protocol.TypeDeath, PlayerID: ids[0]})

	// First death of four -> rank 4.
	if len(ta.gw.elims) != 1 || ta.gw.elims[0].rank != 4 {
		t.Fatalf("elimination calls = %+v, want one with rank 4", ta.gw.elims)
	}

	stats := eps[0].received(t, protocol.TypeDeathStats)
	if len(stats) != 1 || stats[0]["rank"].(float64) != 4 || stats[0]["cashCollected"].(float64) != 900 {
		t.Fatalf("death_stats = %v, want rank 4 cash 900", stats)
	}

	if dying.CashCollected != 0 {
		t.Fatalf("cashCollected = %d after death, want 0", dying.CashCollected)
	}
	if len(ta.pickups) != 1 {
		t.Fatalf("pickups = %d, want 1", len(ta.pickups))
	}
	for _, p := range ta.pickups {
		if p.Amount != 900 || p.Position != dying.Position || p.OwnerID != ids[0] {
			t.Fatalf("pickup = %+v, want amount 900 at death position", p)
		}
	}

	// Pickup notice reaches everyone in scope, the dying player included.
	for i, ep := range eps {
		if n := len(ep.received(t, protocol.TypeCashSpawn)); n != 1 {
			t.Fatalf("player %d got %d cash_spawn notices, want 1", i, n)
		}
	}
	// Public death notice carries the pre-reset amount and skips the sender.
	for _, ep := range eps[1:] {
		d := ep.received(t, protocol.TypeDeath)
		if len(d) != 1 || d[0]["cashCollected"].(float64) != 900 {
			t.Fatalf("death broadcast = %v, want cashCollected 900", d)
		}
	}
	if n := len(eps[0].received(t, protocol.TypeDeath)); n != 0 {
		t.Fatalf("dying player got %d public death notices, want 0", n)
	}

	// Last alive player dying -> rank climbs down to 1... but via death
	// of the remaining three: second death sees 2 alive others.
	ta.frame(t, eps[1], protocol.DeathMsg{Type: protocol.TypeDeath, PlayerID: ids[1]})
	if got := ta.gw.elims[len(ta.gw.elims)-1].rank; got != 3 {
		t.Fatalf("second death rank = %d, want 3", got)
	}
}

func TestWinnerStickyAcrossDeathAndDisconnect(t *testing.T) {
	ta := newTestArena(t)
	event := recordID(9)
	winner := recordID(1)

	ep := ta.connect(t, winner, "R1", event, "champ")
	other := ta.connect(t, recordID(2), "R1", event, "second")

	ta.sessions[winner].CashCollected = 1500
	ta.frame(t, ep, map[string]any{"type": "game_end", "playerId": winner})

	if len(ta.gw.wins) != 1 || ta.gw.wins[0].cashWon != 1500 {
		t.Fatalf("win calls = %+v, want one with cashWon 1500", ta.gw.wins)
	}
	stats := ep.received(t, protocol.TypeGameEndStats)
	if len(stats) != 1 || stats[0]["rank"].(float64) != 1 {
		t.Fatalf("game_end_stats = %v, want rank 1", stats)
	}
	if n := len(other.received(t, protocol.TypeGameEnd)); n != 1 {
		t.Fatalf("public game_end broadcasts = %d, want 1", n)
	}

	// A late death frame must not demote the winner. The cash drop on
	// death still happens, only the elimination write is skipped.
	ta.frame(t, ep, protocol.DeathMsg{Type: protocol.TypeDeath, PlayerID: winner})
	if len(ta.gw.elims) != 0 {
		t.Fatalf("death after win enqueued eliminations: %+v", ta.gw.elims)
	}
	if len(ta.pickups) != 1 {
		t.Fatalf("pickups after winner death = %d, want 1", len(ta.pickups))
	}

	// Neither may the disconnect.
	ta.frame(t, ep, map[string]any{"type": "disconnect", "playerId": winner})
	if len(ta.gw.elims) != 0 {
		t.Fatalf("disconnect after win enqueued eliminations: %+v", ta.gw.elims)
	}
	if len(ta.pickups) != 1 {
		t.Fatalf("winner disconnect spawned extra pickups: %d", len(ta.pickups))
	}
	if _, still := ta.sessions[winner]; still {
		t.Fatal("winner session not removed on disconnect")
	}
	if n := len(other.received(t, protocol.TypeDisconnect)); n != 1 {
		t.Fatalf("disconnect broadcasts = %d, want 1", n)
	}
}

func TestDisconnectSpawnsPickupWithUnresolvedRank(t *testing.T) {
	ta := newTestArena(t)
	event := recordID(5)
	leaver := recordID(1)

	ep := ta.connect(t, leaver, "R1", event, "larry")
	other := ta.connect(t, recordID(2), "R1", event, "olive")

	ta.sessions[leaver].CashCollected = 600
	ta.frame(t, ep, map[string]any{"type": "disconnect", "playerId": leaver})

	if len(ta.gw.elims) != 1 || ta.gw.elims[0].rank != 0 {
		t.Fatalf("elimination calls = %+v, want one with rank 0", ta.gw.elims)
	}
	if len(ta.pickups) != 1 {
		t.Fatalf("pickups = %d, want 1", len(ta.pickups))
	}
	if n := len(other.received(t, protocol.TypeCashSpawn)); n != 1 {
		t.Fatalf("cash_spawn notices = %d, want 1", n)
	}
	if _, still := ta.sessions[leaver]; still {
		t.Fatal("session not removed on disconnect")
	}
}

func TestDuplicateCashCollectionCreditsOnce(t *testing.T) {
	ta := newTestArena(t)

	epA := ta.connect(t, "A", "R1", "E1", "alice")
	epB := ta.connect(t, "B", "R1", "E1", "bob")

	ta.sessions["A"].CashCollected = 450
	ta.frame(t, epA, protocol.DeathMsg{Type: protocol.TypeDeath, PlayerID: "A"})

	var cashID string
	for id := range ta.pickups {
		cashID = id
	}

	collect := protocol.CashCollectedMsg{Type: protocol.TypeCashCollected, PlayerID: "B", CashID: cashID}
	ta.frame(t, epB, collect)
	if got := ta.sessions["B"].CashCollected; got != 450 {
		t.Fatalf("B credited %d, want 450", got)
	}
	if len(ta.pickups) != 0 {
		t.Fatal("pickup not removed on collection")
	}

	// Duplicate delivery: no double credit, broadcast still goes out.
	ta.frame(t, epB, collect)
	if got := ta.sessions["B"].CashCollected; got != 450 {
		t.Fatalf("B credited %d after duplicate, want 450", got)
	}
	if n := len(epA.received(t, protocol.TypeCashCollected)); n != 2 {
		t.Fatalf("A saw %d collection notices, want 2", n)
	}
	if n := len(epB.received(t, protocol.TypeCashCollected)); n != 0 {
		t.Fatalf("collector B saw %d collection notices, want 0", n)
	}
}

func TestUnknownPickupCollectionIsBroadcastOnly(t *testing.T) {
	ta := newTestArena(t)

	epA := ta.connect(t, "A", "R1", "E1", "alice")
	epB := ta.connect(t, "B", "R1", "E1", "bob")

	ta.frame(t, epB, protocol.CashCollectedMsg{Type: protocol.TypeCashCollected, PlayerID: "B", CashID: "cash_never_seen"})

	if got := ta.sessions["B"].CashCollected; got != 0 {
		t.Fatalf("B credited %d for unknown pickup, want 0", got)
	}
	notices := epA.received(t, protocol.TypeCashCollected)
	if len(notices) != 1 {
		t.Fatalf("A saw %d collection notices, want 1", len(notices))
	}
	if notices[0]["cashAmount"].(float64) != 300 {
		t.Fatalf("fallback amount = %v, want configured default 300", notices[0]["cashAmount"])
	}
}

func TestEndpointRebindOnNewAddress(t *testing.T) {
	ta := newTestArena(t)

	old := ta.connect(t, "A", "R1", "E1", "alice")
	ta.connect(t, "B", "R1", "E1", "bob")

	fresh := &fakeEndpoint{id: "A2"}
	ta.frame(t, fresh, protocol.MoveMsg{Type: protocol.TypeMove, PlayerID: "A", Position: protocol.Vec3{X: 1}})

	oldCount := len(old.sent)
	ta.frame(t, fresh, protocol.DeathMsg{Type: protocol.TypeDeath, PlayerID: "A"})
	if n := len(fresh.received(t, protocol.TypeDeathStats)); n != 1 {
		t.Fatalf("rebound endpoint got %d death_stats, want 1", n)
	}
	if len(old.sent) != oldCount {
		t.Fatal("stale endpoint still receiving private replies")
	}
}

func TestMalformedAndUnknownFramesDiscarded(t *testing.T) {
	ta := newTestArena(t)
	ep := ta.connect(t, "A", "R1", "E1", "alice")

	ta.dispatch(Frame{Payload: []byte("{not json"), From: ep})
	ta.dispatch(Frame{Payload: []byte(`{"type":"warp","playerId":"A"}`), From: ep})
	ta.dispatch(Frame{Payload: []byte(`{"type":"move"}`), From: ep})

	if got := ta.Metrics().DroppedFrames; got != 3 {
		t.Fatalf("dropped frames = %d, want 3", got)
	}
	if _, ok := ta.sessions["A"]; !ok {
		t.Fatal("session lost while discarding garbage")
	}
}

func TestMalformedIDsSkipPersistence(t *testing.T) {
	ta := newTestArena(t)

	ep := ta.connect(t, "not-a-record-id", "R1", "also-bad", "mallory")
	if len(ta.gw.active) != 0 {
		t.Fatalf("mark-active calls = %v, want none for malformed ids", ta.gw.active)
	}

	ta.frame(t, ep, protocol.DeathMsg{Type: protocol.TypeDeath, PlayerID: "not-a-record-id"})
	if len(ta.gw.elims) != 0 {
		t.Fatalf("elimination calls = %+v, want none for malformed ids", ta.gw.elims)
	}
	// In-memory processing continued regardless.
	if ta.sessions["not-a-record-id"].IsAlive {
		t.Fatal("death not applied in memory")
	}
}

func TestStartingCashLookedUpOncePerEvent(t *testing.T) {
	ta := newTestArena(t)
	event := recordID(3)
	ta.gw.starting[event] = 750

	ta.connect(t, recordID(1), "R1", event, "alice")
	ta.connect(t, recordID(2), "R1", event, "bob")

	if got := ta.sessions[recordID(1)].CashCollected; got != 750 {
		t.Fatalf("starting cash = %d, want 750", got)
	}
	if ta.gw.startingHits != 1 {
		t.Fatalf("starting-cash lookups = %d, want 1 (cached)", ta.gw.startingHits)
	}
}

func TestFailingEndpointDoesNotBlockOthers(t *testing.T) {
	ta := newTestArena(t)

	epA := ta.connect(t, "A", "R1", "E1", "alice")
	epB := ta.connect(t, "B", "R1", "E1", "bob")
	epC := ta.connect(t, "C", "R1", "E1", "carol")
	epB.fail = true

	ta.frame(t, epA, protocol.MoveMsg{Type: protocol.TypeMove, PlayerID: "A", Position: protocol.Vec3{X: 1}})

	if n := len(epC.received(t, protocol.TypeMove)); n != 1 {
		t.Fatalf("C got %d move broadcasts despite B failing, want 1", n)
	}
}
