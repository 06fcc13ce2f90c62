// internal/app/system/workers/loginpruner.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LoginRecordPruner deletes login records created before a cutoff.
// *logins.Store implements it.
type LoginRecordPruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LoginPruner is a background worker that deletes expired login records.
type LoginPruner struct {
	logins    LoginRecordPruner
	log       *zap.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewLoginPruner creates a new login record pruner.
//
// Parameters:
//   - logins: the login records store
//   - logger: zap logger for logging
//   - interval: how often to prune (e.g., 1 hour)
//   - retention: how long a login record is kept (e.g., 90 days)
func NewLoginPruner(logins LoginRecordPruner, logger *zap.Logger, interval, retention time.Duration) *LoginPruner {
	return &LoginPruner{
		logins:    logins,
		log:       logger,
		interval:  interval,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background pruning loop.
func (w *LoginPruner) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("login pruner started",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))
}

// Stop signals the worker to stop and waits for it to finish.
// Calling Stop more than once is safe.
func (w *LoginPruner) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("login pruner stopped")
	})
}

func (w *LoginPruner) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.prune()
		}
	}
}

func (w *LoginPruner) prune() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := w.now().Add(-w.retention)
	count, err := w.logins.PruneOlderThan(ctx, cutoff)
	if err != nil {
		w.log.Error("failed to prune login records", zap.Error(err))
		return 0
	}

	if count > 0 {
		w.log.Info("pruned login records", zap.Int64("count", count), zap.Time("cutoff", cutoff))
	}
	return count
}
