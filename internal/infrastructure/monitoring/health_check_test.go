package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubPool struct {
	running bool
	active  int
}

func (s stubPool) Running() bool { return s.running }
func (s stubPool) Active() int   { return s.active }

func TestHealthChecker_AllHealthy(t *testing.T) {
	h := NewHealthChecker()
	h.AddPoolCheck(stubPool{running: true}, time.Second)
	h.AddSinkCheck(func() error { return nil }, time.Second)

	status := h.CheckAll(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["pool"])
	assert.Equal(t, "healthy", status.Checks["sink"])
	assert.True(t, h.IsReady(context.Background()))
}

func TestHealthChecker_PoolStopped(t *testing.T) {
	h := NewHealthChecker()
	h.AddPoolCheck(stubPool{running: false, active: 3}, time.Second)

	status := h.CheckAll(context.Background())
	assert.Equal(t, "unhealthy", status.Status)
	assert.Contains(t, status.Checks["pool"], "3 connections")
	assert.False(t, h.IsReady(context.Background()))
}

func TestHealthChecker_SinkFailing(t *testing.T) {
	h := NewHealthChecker()
	h.AddSinkCheck(func() error { return errors.New("udp: connection refused") }, time.Second)

	status := h.CheckAll(context.Background())
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "udp: connection refused", status.Checks["sink"])
}

func TestHealthChecker_FalseWithoutError(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("custom", func(ctx context.Context) (bool, error) { return false, nil }, time.Second)

	assert.Equal(t, "check failed", h.CheckAll(context.Background()).Checks["custom"])
}
