package storage

import (
	"context"
	"fmt"
	"time"

	"rillstats/internal/core/domain"
	"rillstats/internal/core/ports"
	apperrors "rillstats/pkg/errors"

	client "github.com/influxdata/influxdb1-client/v2"
	"go.uber.org/zap"
)

// pointWriter is the part of client.Client the sink needs.
type pointWriter interface {
	Write(bp client.BatchPoints) error
	Close() error
}

// InfluxSink sends the four points of every digest as line protocol over UDP.
// UDP gives no delivery feedback beyond local send errors, and failed writes
// are not retried.
type InfluxSink struct {
	writer      pointWriter
	transformer ports.PointTransformer
	logger      *zap.SugaredLogger
}

func NewInfluxSink(addr string, payloadSize int, transformer ports.PointTransformer, logger *zap.SugaredLogger) (*InfluxSink, error) {
	c, err := client.NewUDPClient(client.UDPConfig{
		Addr:        addr,
		PayloadSize: payloadSize,
	})
	if err != nil {
		return nil, apperrors.NewConfigError(err, fmt.Sprintf("failed to create UDP client for %s", addr))
	}
	return newInfluxSink(c, transformer, logger), nil
}

func newInfluxSink(w pointWriter, transformer ports.PointTransformer, logger *zap.SugaredLogger) *InfluxSink {
	return &InfluxSink{
		writer:      w,
		transformer: transformer,
		logger:      logger,
	}
}

func (s *InfluxSink) Store(ctx context.Context, digest *domain.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Precision: "ns"})
	if err != nil {
		return apperrors.NewSinkError(err, "failed to create batch")
	}

	for _, p := range s.transformer.Transform(digest) {
		// line protocol has no representation for a point without fields
		if len(p.Fields) == 0 {
			s.logger.Debugw("skipping point without fields",
				"measurement", p.Measurement,
				"room", p.Tags[domain.TagRoom],
				"member", p.Tags[domain.TagMember],
			)
			continue
		}
		pt, err := client.NewPoint(p.Measurement, p.Tags, p.Fields, time.Unix(0, p.Timestamp))
		if err != nil {
			return apperrors.NewSinkError(err, fmt.Sprintf("invalid point %s", p.Measurement))
		}
		bp.AddPoint(pt)
	}

	if len(bp.Points()) == 0 {
		return nil
	}
	if err := s.writer.Write(bp); err != nil {
		return apperrors.NewSinkError(err, "failed to write points")
	}
	return nil
}

func (s *InfluxSink) Close() error {
	return s.writer.Close()
}
