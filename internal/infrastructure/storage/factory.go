package storage

import (
	"os"

	"rillstats/internal/core/ports"
	"rillstats/pkg/config"

	"go.uber.org/zap"
)

// NewSink selects the sink for the lifetime of the process: the UDP store
// when storage.url is set, the console otherwise.
func NewSink(cfg *config.Config, transformer ports.PointTransformer, logger *zap.SugaredLogger) (ports.Sink, error) {
	if cfg.Storage.URL == "" {
		logger.Info("no store configured, printing digests to console")
		return NewConsoleSink(os.Stdout), nil
	}

	addr, err := cfg.StoreAddress()
	if err != nil {
		return nil, err
	}
	sink, err := NewInfluxSink(addr, cfg.Storage.PayloadSize, transformer, logger)
	if err != nil {
		return nil, err
	}
	logger.Infow("writing points to store", "address", addr)
	return sink, nil
}
