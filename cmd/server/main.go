package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"royale.gg/internal/config"
	"royale.gg/internal/match"
	persistlog "royale.gg/internal/persistence/log"
	"royale.gg/internal/persistence/playerdb"
	"royale.gg/internal/transport/udp"
	"royale.gg/internal/transport/ws"
)

func main() {
	var (
		configPath   = flag.String("config", "./configs/match.yaml", "match tuning path")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		disableDB    = flag.Bool("disable_db", false, "disable the durable player store")
		disableAudit = flag.Bool("disable_audit", false, "disable the match event log")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("config not found (%s); using defaults", *configPath)
		} else {
			logger.Fatalf("load config: %v", err)
		}
	}

	var gw match.Gateway
	var store *playerdb.Store
	if !*disableDB {
		store, err = playerdb.Open(
			filepath.Join(*dataDir, "players.db"),
			log.New(os.Stdout, "[playerdb] ", log.LstdFlags|log.Lmicroseconds),
		)
		if err != nil {
			logger.Fatalf("open player store: %v", err)
		}
		defer store.Close()
		gw = store
	}

	var audit match.AuditLogger
	if !*disableAudit {
		eventLog := persistlog.NewEventLogger(filepath.Join(*dataDir, "matches"))
		defer eventLog.Close()
		audit = eventLog
	}

	arena := match.New(match.Config{
		MaxHealth:     cfg.MaxHealth,
		PingInterval:  cfg.PingInterval(),
		PlayerTimeout: cfg.PlayerTimeout(),
		ReapInterval:  cfg.ReapInterval(),
		DefaultCash:   cfg.DefaultCash,
		StartingCash:  cfg.StartingCash,
	}, gw, audit, log.New(os.Stdout, "[arena] ", log.LstdFlags|log.Lmicroseconds))

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := arena.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("arena stopped: %v", err)
		}
	}()

	udpSrv, err := udp.Listen(cfg.UDPPort, arena, log.New(os.Stdout, "[udp] ", log.LstdFlags|log.Lmicroseconds))
	if err != nil {
		logger.Fatalf("udp: %v", err)
	}
	go func() {
		if err := udpSrv.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("udp listener stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := arena.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP royale_sessions Currently connected players.\n")
		fmt.Fprintf(rw, "# TYPE royale_sessions gauge\n")
		fmt.Fprintf(rw, "royale_sessions %d\n", m.Sessions)

		fmt.Fprintf(rw, "# HELP royale_pickups Live cash pickups.\n")
		fmt.Fprintf(rw, "# TYPE royale_pickups gauge\n")
		fmt.Fprintf(rw, "royale_pickups %d\n", m.Pickups)

		fmt.Fprintf(rw, "# HELP royale_inbox_depth Arena inbox backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE royale_inbox_depth gauge\n")
		fmt.Fprintf(rw, "royale_inbox_depth %d\n", m.InboxDepth)

		fmt.Fprintf(rw, "# HELP royale_reaped_total Sessions evicted by the idle reaper.\n")
		fmt.Fprintf(rw, "# TYPE royale_reaped_total counter\n")
		fmt.Fprintf(rw, "royale_reaped_total %d\n", m.ReapedTotal)

		fmt.Fprintf(rw, "# HELP royale_dropped_frames_total Inbound frames discarded as malformed or unknown.\n")
		fmt.Fprintf(rw, "# TYPE royale_dropped_frames_total counter\n")
		fmt.Fprintf(rw, "royale_dropped_frames_total %d\n", m.DroppedFrames)

		fmt.Fprintf(rw, "# HELP royale_gateway_queue_depth Pending durable writes.\n")
		fmt.Fprintf(rw, "# TYPE royale_gateway_queue_depth gauge\n")
		fmt.Fprintf(rw, "royale_gateway_queue_depth %d\n", store.QueueDepth())
	})
	mux.HandleFunc(cfg.WSPath, ws.NewServer(arena, cfg.PlayerTimeout(), log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds)).Handler())

	srv := &http.Server{
		Addr:              cfg.WSAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (ws path %s)", cfg.WSAddr, cfg.WSPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
