package playerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the durable player-record gateway. Writes go through a
// buffered channel drained by a single goroutine: the match loop never
// blocks on the database, and a saturated queue drops the write (the
// in-memory state stays authoritative either way).
type Store struct {
	db  *sql.DB
	log *log.Logger

	ch   chan op
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type opKind int

const (
	opActive opKind = iota + 1
	opEliminate
	opWin
)

type op struct {
	kind     opKind
	playerID string
	eventID  string
	roomID   string
	rank     int
	cashWon  int
}

func Open(path string, logger *log.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:  db,
		log: logger,
		ch:  make(chan op, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			user_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			room_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'registered',
			is_alive INTEGER NOT NULL DEFAULT 1,
			position INTEGER NOT NULL DEFAULT 0,
			cash_won INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (user_id, event_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_players_event_position ON players(event_id, position);`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			starting_cash INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'upcoming'
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// QueueDepth is exposed for metrics only.
func (s *Store) QueueDepth() int {
	if s == nil {
		return 0
	}
	return len(s.ch)
}

func (s *Store) MarkActive(playerID, eventID, roomID string) {
	s.enqueue(op{kind: opActive, playerID: playerID, eventID: eventID, roomID: roomID})
}

func (s *Store) RecordElimination(playerID, eventID string, rank int) {
	s.enqueue(op{kind: opEliminate, playerID: playerID, eventID: eventID, rank: rank})
}

func (s *Store) RecordWin(playerID, eventID string, cashWon int) {
	s.enqueue(op{kind: opWin, playerID: playerID, eventID: eventID, cashWon: cashWon})
}

func (s *Store) enqueue(o op) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- o:
	default:
		// Drop if the writer falls behind; in-memory state stays the
		// source of truth until the next successful write.
		s.log.Printf("queue full, dropped %s write player=%s event=%s", o.kind, o.playerID, o.eventID)
	}
}

// StartingCash reads the per-event initial cash amount. Unlike the
// write path this is synchronous; callers cache the result per event.
func (s *Store) StartingCash(eventID string) (int, bool) {
	if s == nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var cash int
	err := s.db.QueryRowContext(ctx, `SELECT starting_cash FROM events WHERE event_id = ?`, eventID).Scan(&cash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Printf("starting-cash lookup event=%s: %v", eventID, err)
		}
		return 0, false
	}
	return cash, true
}

func (s *Store) loop() {
	for o := range s.ch {
		if err := s.apply(o); err != nil {
			s.log.Printf("%s write player=%s event=%s rank=%d: %v", o.kind, o.playerID, o.eventID, o.rank, err)
		}
	}
}

func (s *Store) apply(o op) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	switch o.kind {
	case opActive:
		_, err := s.db.Exec(`
			INSERT INTO players (user_id, event_id, room_id, status, is_alive, position, updated_at)
			VALUES (?, ?, ?, 'active', 1, 0, ?)
			ON CONFLICT(user_id, event_id) DO UPDATE SET
				room_id = excluded.room_id,
				status = 'active',
				is_alive = 1,
				position = 0,
				updated_at = excluded.updated_at`,
			o.playerID, o.eventID, o.roomID, now)
		return err
	case opEliminate:
		// Two guards: a winner row is never demoted, and a rank-0
		// write (timeout/disconnect, rank unresolved) never clobbers a
		// previously recorded real rank.
		_, err := s.db.Exec(`
			INSERT INTO players (user_id, event_id, status, is_alive, position, cash_won, updated_at)
			VALUES (?, ?, 'eliminated', 0, ?, 0, ?)
			ON CONFLICT(user_id, event_id) DO UPDATE SET
				status = 'eliminated',
				is_alive = 0,
				position = CASE WHEN ? = 0 AND players.position > 0 THEN players.position ELSE ? END,
				cash_won = 0,
				updated_at = excluded.updated_at
			WHERE players.status <> 'winner'`,
			o.playerID, o.eventID, o.rank, now, o.rank, o.rank)
		return err
	case opWin:
		_, err := s.db.Exec(`
			INSERT INTO players (user_id, event_id, status, is_alive, position, cash_won, updated_at)
			VALUES (?, ?, 'winner', 1, 1, ?, ?)
			ON CONFLICT(user_id, event_id) DO UPDATE SET
				status = 'winner',
				is_alive = 1,
				position = 1,
				cash_won = excluded.cash_won,
				updated_at = excluded.updated_at`,
			o.playerID, o.eventID, o.cashWon, now)
		return err
	}
	return fmt.Errorf("unknown op kind %d", o.kind)
}

func (k opKind) String() string {
	switch k {
	case opActive:
		return "mark-active"
	case opEliminate:
		return "elimination"
	case opWin:
		return "win"
	}
	return "unknown"
}
