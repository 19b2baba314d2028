package match

// Endpoint is the transport-level reply handle for one client. Send is
// fire-and-forget: implementations must not block the arena loop.
type Endpoint interface {
	Send(b []byte) error
	String() string
}

// Frame is one raw inbound datagram or socket message.
type Frame struct {
	Payload []byte
	From    Endpoint
}

// Leave reports a transport-level connection loss for a bound player.
type Leave struct {
	PlayerID string
	Reason   string
}
