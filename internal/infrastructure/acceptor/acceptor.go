package acceptor

import (
	"net/http"
	"sync"
	"time"

	"rillstats/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const closeTimeout = time.Second

// Acceptor upgrades incoming HTTP requests to WebSocket connections and
// queues them for the pool. The HTTP server's own goroutines perform the TLS
// and WebSocket handshakes, so TryAccept never waits on a client.
type Acceptor struct {
	upgrader  websocket.Upgrader
	readLimit int64

	pending chan ports.Stream
	ready   chan struct{}
	done    chan struct{}
	once    sync.Once

	logger *zap.SugaredLogger
}

func New(backlog int, readLimit int64, logger *zap.SugaredLogger) *Acceptor {
	if backlog <= 0 {
		backlog = 1
	}
	return &Acceptor{
		upgrader: websocket.Upgrader{
			// clients are not authenticated; any origin may report
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
		},
		readLimit: readLimit,
		pending:   make(chan ports.Stream, backlog),
		ready:     make(chan struct{}, 1),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

func (a *Acceptor) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		a.logger.Debugw("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	if a.readLimit > 0 {
		conn.SetReadLimit(a.readLimit)
	}

	stream := &wsStream{conn: conn}
	select {
	case a.pending <- stream:
		select {
		case a.ready <- struct{}{}:
		default:
		}
	case <-a.done:
		conn.Close()
	}
}

func (a *Acceptor) TryAccept() (ports.Stream, bool) {
	select {
	case s := <-a.pending:
		return s, true
	default:
		return nil, false
	}
}

func (a *Acceptor) Ready() <-chan struct{} {
	return a.ready
}

// Close stops handing out connections. Handshakes waiting for a free backlog
// slot are dropped; streams already handed out are not touched.
func (a *Acceptor) Close() {
	a.once.Do(func() { close(a.done) })
}

type wsStream struct {
	conn *websocket.Conn
}

func (s *wsStream) ReadMessage() (int, []byte, error) {
	return s.conn.ReadMessage()
}

func (s *wsStream) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// Close sends a normal-closure frame and then releases the socket. Control
// frames may be written while another goroutine is reading.
func (s *wsStream) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	werr := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
	cerr := s.conn.Close()
	if werr != nil && werr != websocket.ErrCloseSent {
		return werr
	}
	return cerr
}
