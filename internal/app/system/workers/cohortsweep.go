// internal/app/system/workers/cohortsweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/lifecycle"
)

// CohortSweep is a background worker that advances cohorts whose date
// boundaries have passed. The cron endpoint runs the same sweep; the
// compare-and-set in the lifecycle service makes overlapping runs safe.
type CohortSweep struct {
	lifecycle *lifecycle.Service
	log       *zap.Logger
	interval  time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewCohortSweep creates a new cohort sweep worker.
//
// Parameters:
//   - svc: the lifecycle service
//   - logger: zap logger for logging
//   - interval: how often to run the sweep (e.g., 15 minutes)
func NewCohortSweep(svc *lifecycle.Service, logger *zap.Logger, interval time.Duration) *CohortSweep {
	return &CohortSweep{
		lifecycle: svc,
		log:       logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *CohortSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("cohort sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CohortSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("cohort sweep worker stopped")
}

func (w *CohortSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *CohortSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	advanced, err := w.lifecycle.Sweep(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error("cohort sweep failed", zap.Error(err))
		return
	}

	if advanced > 0 {
		w.log.Info("cohort sweep advanced cohorts", zap.Int("count", advanced))
	}
}
