package main

import (
	"context"
	"net/http"
	"time"

	"rillstats/internal/infrastructure/middleware"
	"rillstats/internal/infrastructure/monitoring"
	"rillstats/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type routerDeps struct {
	startTime time.Time
	pool      monitoring.PoolState
	checker   *monitoring.HealthChecker
	gatherer  prometheus.Gatherer
	upgrade   http.HandlerFunc
}

// newRouter serves the health and metrics endpoints. Any other path is
// treated as a telemetry connection and upgraded to WebSocket.
func newRouter(cfg *config.Config, deps routerDeps, log *zap.SugaredLogger) (*gin.Engine, error) {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	// gin trusts every peer by default; forwarded addresses only count from
	// configured proxies
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, err
	}
	router.Use(middleware.RecoveryMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"uptime":      time.Since(deps.startTime).String(),
			"connections": deps.pool.Active(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := deps.checker.CheckAll(ctx)
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.gatherer, promhttp.HandlerOpts{})))
	}

	router.NoRoute(
		middleware.NewWebSocketRateLimitMiddleware(cfg, log),
		gin.WrapF(deps.upgrade),
	)
	return router, nil
}
