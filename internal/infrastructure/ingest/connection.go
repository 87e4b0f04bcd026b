package ingest

import (
	"sync"
	"time"

	"rillstats/internal/core/ports"

	"github.com/google/uuid"
)

type readStatus int

const (
	readNone readStatus = iota
	readMessage
	readClosed
)

type readResult struct {
	payload []byte
	err     error
}

// connection is owned by the pool goroutine. Only the reader goroutine
// touches the stream's read side, and it hands over at most one message at a
// time through inbox.
type connection struct {
	id           string
	stream       ports.Stream
	lastActivity time.Time

	inbox     chan readResult
	quit      chan struct{}
	closeOnce sync.Once
}

func newConnection(stream ports.Stream, now time.Time) *connection {
	return &connection{
		id:           uuid.NewString(),
		stream:       stream,
		lastActivity: now,
		inbox:        make(chan readResult, 1),
		quit:         make(chan struct{}),
	}
}

// start switches the connection to non-blocking reads from the pool's point
// of view. It must be called exactly once, after the handshake completed.
func (c *connection) start(wake chan<- struct{}) {
	go c.readLoop(wake)
}

func (c *connection) readLoop(wake chan<- struct{}) {
	for {
		_, payload, err := c.stream.ReadMessage()
		select {
		case c.inbox <- readResult{payload: payload, err: err}:
		case <-c.quit:
			return
		}

		select {
		case wake <- struct{}{}:
		default:
		}

		if err != nil {
			return
		}
	}
}

// tryRead never blocks. readNone means nothing arrived since the last call.
func (c *connection) tryRead() ([]byte, readStatus, error) {
	select {
	case r := <-c.inbox:
		if r.err != nil {
			return nil, readClosed, r.err
		}
		return r.payload, readMessage, nil
	default:
		return nil, readNone, nil
	}
}

func (c *connection) close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.quit)
		err = c.stream.Close()
	})
	return err
}
