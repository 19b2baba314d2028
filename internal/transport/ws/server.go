package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"royale.gg/internal/match"
	"royale.gg/internal/protocol"
)

// Server exposes the match protocol over a persistent connection. Each
// socket binds to the first playerId it carries; frames are forwarded
// raw to the arena, which owns all decoding and validation.
type Server struct {
	arena       *match.Arena
	log         *log.Logger
	readTimeout time.Duration

	upgrader websocket.Upgrader
}

func NewServer(a *match.Arena, readTimeout time.Duration, logger *log.Logger) *Server {
	if readTimeout <= 0 {
		readTimeout = 60 * time.Second
	}
	return &Server{
		arena:       a,
		log:         logger,
		readTimeout: readTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // game clients, no browser origin
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ep := &endpoint{addr: r.RemoteAddr, out: make(chan []byte, 64)}

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-ep.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. The socket binds to the first playerId seen so
		// a close can be reported as that player leaving.
		boundID := ""
		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			if boundID == "" {
				if base, err := protocol.DecodeBase(msg); err == nil {
					boundID = base.PlayerID
				}
			}
			s.arena.Inbox() <- match.Frame{Payload: msg, From: ep}
		}

		if boundID != "" {
			s.arena.Leave() <- match.Leave{PlayerID: boundID, Reason: "socket_closed"}
		}
	}
}

var errSlowClient = errors.New("client send queue full")

type endpoint struct {
	addr string
	out  chan []byte
}

// Send queues the frame for the writer goroutine. A saturated queue
// drops the frame rather than stalling the arena loop.
func (e *endpoint) Send(b []byte) error {
	select {
	case e.out <- b:
		return nil
	default:
		return errSlowClient
	}
}

func (e *endpoint) String() string { return "ws:" + e.addr }
