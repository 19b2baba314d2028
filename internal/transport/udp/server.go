package udp

import (
	"context"
	"fmt"
	"log"
	"net"

	"royale.gg/internal/match"
)

// Server exposes the match protocol over a connectionless socket. One
// datagram is one frame; the sender's address is the reply handle.
type Server struct {
	conn  *net.UDPConn
	arena *match.Arena
	log   *log.Logger
}

func Listen(port int, a *match.Arena, logger *log.Logger) (*Server, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("listen udp :%d: %w", port, err)
	}
	logger.Printf("listening on udp %s", conn.LocalAddr())
	return &Server{conn: conn, arena: a, log: logger}, nil
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()

	buf := make([]byte, 64*1024)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("udp read: %w", err)
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		s.arena.Inbox() <- match.Frame{Payload: payload, From: endpoint{conn: s.conn, addr: addr}}
	}
}

type endpoint struct {
	conn *net.UDPConn
	addr *net.UDPAddr
}

func (e endpoint) Send(b []byte) error {
	_, err := e.conn.WriteToUDP(b, e.addr)
	return err
}

func (e endpoint) String() string { return "udp:" + e.addr.String() }
