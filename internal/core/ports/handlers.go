package ports

// Stream is a WebSocket-framed bidirectional connection as produced by an
// Acceptor. ReadMessage blocks; the pool never calls it on its own goroutine.
type Stream interface {
	ReadMessage() (messageType int, p []byte, err error)
	RemoteAddr() string
	// Close attempts a graceful close handshake before releasing the socket.
	Close() error
}

// Acceptor hands completed connections to the pool.
type Acceptor interface {
	// TryAccept returns one pending stream, or false when none is waiting.
	// It never blocks.
	TryAccept() (Stream, bool)
	// Ready is signalled whenever a stream becomes pending.
	Ready() <-chan struct{}
}
