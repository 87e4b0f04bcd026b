package monitoring

import (
	"context"
	"fmt"
	"time"
)

// PoolState is the view of the connection pool the health checks need.
type PoolState interface {
	Running() bool
	Active() int
}

// AddPoolCheck fails while the polling loop is not running.
func (h *HealthChecker) AddPoolCheck(pool PoolState, timeout time.Duration) {
	h.AddCheck("pool", func(ctx context.Context) (bool, error) {
		if !pool.Running() {
			return false, fmt.Errorf("pool stopped with %d connections registered", pool.Active())
		}
		return true, nil
	}, timeout)
}

// AddSinkCheck reports the outcome of the latest sink write. A nil error from
// lastErr means the last write succeeded or nothing was written yet.
func (h *HealthChecker) AddSinkCheck(lastErr func() error, timeout time.Duration) {
	h.AddCheck("sink", func(ctx context.Context) (bool, error) {
		if err := lastErr(); err != nil {
			return false, err
		}
		return true, nil
	}, timeout)
}
