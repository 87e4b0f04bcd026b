package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rillstats/internal/core/services"
	"rillstats/internal/infrastructure/acceptor"
	"rillstats/internal/infrastructure/ingest"
	"rillstats/internal/infrastructure/local"
	"rillstats/internal/infrastructure/monitoring"
	"rillstats/internal/infrastructure/storage"
	"rillstats/pkg/config"
	"rillstats/pkg/logger"
	"rillstats/pkg/retry"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	startTime := time.Now()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	opts.apply(cfg)

	zapLogger := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	if err != nil {
		log.Warnw("failed to load config file, using defaults", "path", opts.configPath, "error", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	metrics := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)

	sink, err := storage.NewSink(cfg, services.NewPointService(), log)
	if err != nil {
		log.Fatalw("failed to create sink", "error", err)
	}

	tlsConfig, err := loadTLS(cfg, log)
	if err != nil {
		log.Fatalw("failed to load TLS keystore", "error", err)
	}

	ln, err := acceptor.Listen(cfg.ListenAddress(), tlsConfig)
	if err != nil {
		log.Fatalw("failed to bind listener", "error", err)
	}

	acc := acceptor.New(cfg.Pool.AcceptBacklog, cfg.Server.MaxMessageSizeBytes, log)
	pool := ingest.NewPool(acc, sink, ingest.Options{
		PrunePeriod:   cfg.PrunePeriod(),
		Countdown:     cfg.Countdown(),
		SweepInterval: cfg.Pool.SweepInterval,
	}, metrics, log)

	checker := monitoring.NewHealthChecker()
	checker.AddPoolCheck(pool, time.Second)
	checker.AddSinkCheck(pool.LastSinkError, time.Second)

	router, err := newRouter(cfg, routerDeps{
		startTime: startTime,
		pool:      pool,
		checker:   checker,
		gatherer:  prometheus.DefaultGatherer,
		upgrade:   acc.HandleWebSocket,
	}, log)
	if err != nil {
		log.Fatalw("failed to configure router", "error", err)
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(zapLogger),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("listening for telemetry", "address", ln.Addr().String(), "tls", tlsConfig != nil)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LocalSource.Path != "" {
		go runLocalSource(ctx, cfg, metrics, log)
	}

	poolErr := make(chan error, 1)
	go func() { poolErr <- pool.Run(ctx) }()

	select {
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
		stop()
		<-poolErr
	case err := <-poolErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("pool stopped", "error", err)
		}
	}

	log.Infow("shutting down", "connections", pool.Active())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// pooled connections are hijacked and are not closed by Shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		_ = srv.Close()
	}
	acc.Close()

	if err := sink.Close(); err != nil {
		log.Errorw("error closing sink", "error", err)
	}

	log.Info("collector stopped")
}

func loadTLS(cfg *config.Config, log *zap.SugaredLogger) (*tls.Config, error) {
	if cfg.TLS.Keystore == "" {
		return nil, nil
	}
	log.Infow("loading TLS keystore", "path", cfg.TLS.Keystore)
	return acceptor.LoadTLSConfig(cfg.TLS.Keystore, cfg.TLS.Password)
}

// runLocalSource dials the media server's socket, which may come up after the
// collector, and logs the frame headers it sends until ctx ends.
func runLocalSource(ctx context.Context, cfg *config.Config, metrics *monitoring.PrometheusCollector, log *zap.SugaredLogger) {
	path := cfg.LocalSource.Path
	backoff := retry.DefaultConfig()
	backoff.MaxAttempts = cfg.LocalSource.ConnectAttempts

	src, err := retry.DoWithResult(ctx, backoff, func() (*local.Source, error) {
		return local.Connect(path, metrics, log)
	})
	if err != nil {
		log.Errorw("local source unavailable", "path", path, "error", err)
		return
	}
	if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("local source stopped", "error", err)
	}
}
