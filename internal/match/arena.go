package match

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	MaxHealth     int
	PingInterval  time.Duration
	PlayerTimeout time.Duration
	ReapInterval  time.Duration
	DefaultCash   int
	StartingCash  int
}

// Arena is the single-process authority for one match server instance.
// All session and pickup state must be accessed only from the arena
// loop goroutine; transports talk to it through Inbox and Leave.
type Arena struct {
	cfg Config
	log *log.Logger

	gateway Gateway
	audit   AuditLogger

	now func() time.Time

	sessions map[string]*Session
	pickups  map[string]*CashPickup

	// Per-event starting cash, looked up once and cached.
	startingCash map[string]int

	inbox chan Frame
	leave chan Leave
	stop  chan struct{}
	once  sync.Once

	liveSessions  atomic.Int64
	livePickups   atomic.Int64
	reapedTotal   atomic.Uint64
	droppedFrames atomic.Uint64
}

func New(cfg Config, gw Gateway, audit AuditLogger, logger *log.Logger) *Arena {
	if cfg.MaxHealth <= 0 {
		cfg.MaxHealth = 20
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 5 * time.Second
	}
	if cfg.PlayerTimeout <= 0 {
		cfg.PlayerTimeout = 50 * time.Second
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = time.Minute
	}
	if cfg.DefaultCash <= 0 {
		cfg.DefaultCash = 300
	}
	return &Arena{
		cfg:          cfg,
		log:          logger,
		gateway:      gw,
		audit:        audit,
		now:          time.Now,
		sessions:     make(map[string]*Session),
		pickups:      make(map[string]*CashPickup),
		startingCash: make(map[string]int),
		inbox:        make(chan Frame, 1024),
		leave:        make(chan Leave, 64),
		stop:         make(chan struct{}),
	}
}

func (a *Arena) Inbox() chan<- Frame { return a.inbox }
func (a *Arena) Leave() chan<- Leave { return a.leave }

func (a *Arena) Stop() {
	a.once.Do(func() { close(a.stop) })
}

func (a *Arena) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stop:
			return nil
		case f := <-a.inbox:
			a.dispatch(f)
		case l := <-a.leave:
			a.forceDisconnect(l.PlayerID, l.Reason)
		case <-ticker.C:
			a.reapIdle()
		}
	}
}

type Metrics struct {
	Sessions      int64
	Pickups       int64
	InboxDepth    int
	ReapedTotal   uint64
	DroppedFrames uint64
}

func (a *Arena) Metrics() Metrics {
	return Metrics{
		Sessions:      a.liveSessions.Load(),
		Pickups:       a.livePickups.Load(),
		InboxDepth:    len(a.inbox),
		ReapedTotal:   a.reapedTotal.Load(),
		DroppedFrames: a.droppedFrames.Load(),
	}
}

func (a *Arena) startingCashFor(eventID string) int {
	if eventID == "" {
		return a.cfg.StartingCash
	}
	if v, ok := a.startingCash[eventID]; ok {
		return v
	}
	v := a.cfg.StartingCash
	if a.gateway != nil {
		if got, ok := a.gateway.StartingCash(eventID); ok {
			v = got
		}
	}
	a.startingCash[eventID] = v
	return v
}

func (a *Arena) auditEvent(kind string, s *Session, rank, cash int, reason string) {
	if a.audit == nil {
		return
	}
	_ = a.audit.WriteEvent(AuditEvent{
		At:       a.now().UTC(),
		Kind:     kind,
		PlayerID: s.PlayerID,
		RoomID:   s.RoomID,
		EventID:  s.EventID,
		Rank:     rank,
		Cash:     cash,
		Reason:   reason,
	})
}
