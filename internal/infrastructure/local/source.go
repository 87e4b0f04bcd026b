package local

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"rillstats/internal/core/domain"
	"rillstats/internal/infrastructure/codec"
	"rillstats/internal/infrastructure/monitoring"
	apperrors "rillstats/pkg/errors"

	"go.uber.org/zap"
)

// Source reads fixed-size frame headers pushed by the media server over a
// local stream socket. Headers are logged and counted; they do not reach the
// sink.
type Source struct {
	conn    net.Conn
	decoder *codec.FrameDecoder
	chunk   []byte
	metrics *monitoring.PrometheusCollector
	logger  *zap.SugaredLogger

	closeOnce sync.Once
}

// Connect dials the unix socket at path.
func Connect(path string, metrics *monitoring.PrometheusCollector, logger *zap.SugaredLogger) (*Source, error) {
	logger.Infow("connecting to local socket", "path", path)

	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, apperrors.NewTransportError(err, "failed to connect to local socket "+path)
	}
	return NewSource(conn, metrics, logger), nil
}

func NewSource(conn net.Conn, metrics *monitoring.PrometheusCollector, logger *zap.SugaredLogger) *Source {
	if metrics == nil {
		metrics = monitoring.NewPrometheusCollector(nil)
	}
	return &Source{
		conn:    conn,
		decoder: codec.NewFrameDecoder(),
		chunk:   make([]byte, domain.FrameSize),
		metrics: metrics,
		logger:  logger,
	}
}

// ProcessOne performs a single read of at most one frame's worth of bytes and
// returns the headers it completed. Partial frames stay buffered for the next
// call.
func (s *Source) ProcessOne() ([]domain.FrameHeader, error) {
	n, err := s.conn.Read(s.chunk)
	var headers []domain.FrameHeader
	if n > 0 {
		headers = s.decoder.Feed(s.chunk[:n])
		for _, h := range headers {
			s.metrics.RecordFrameDecoded()
			s.logger.Infow("metrics from SFU",
				"type", h.Type,
				"room", uint64(h.RoomID),
				"participant", uint64(h.ParticipantID),
				"seq", h.Sequence,
				"timestamp", h.Timestamp,
				"size", h.PayloadLength,
			)
		}
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return headers, domain.ErrStreamClosed
		}
		return headers, apperrors.NewTransportError(err, "local socket read failed")
	}
	return headers, nil
}

// Buffered reports how many bytes of an incomplete frame are held.
func (s *Source) Buffered() int {
	return s.decoder.Buffered()
}

// Run reads until the peer closes the socket or ctx is done. A closed peer is
// not an error.
func (s *Source) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.Shutdown() })
	defer stop()

	for {
		if _, err := s.ProcessOne(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, domain.ErrStreamClosed) {
				if n := s.decoder.Buffered(); n > 0 {
					s.logger.Warnw("local socket closed mid-frame", "buffered", n)
				}
				s.logger.Infow("local socket closed by peer")
				return nil
			}
			return err
		}
	}
}

// Shutdown closes the socket in both directions.
func (s *Source) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}
