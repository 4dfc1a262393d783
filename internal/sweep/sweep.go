// Package sweep runs periodic maintenance for the serving binary: overdue
// reconciliation and due-alert delivery. The engine itself stays pull-based
// (every read path reconciles first); the sweep only keeps alert delivery
// and metrics fresh between reads.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dosetrack/dosetrack/internal/clock"
	"github.com/dosetrack/dosetrack/internal/notify"
	"github.com/dosetrack/dosetrack/internal/reminder"
)

// Runner schedules the maintenance tick with a cron spec.
type Runner struct {
	cron       *cron.Cron
	service    *reminder.Service
	dispatcher *notify.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

// New creates a runner ticking on spec (e.g. "@every 1m").
func New(spec string, service *reminder.Service, dispatcher *notify.Dispatcher, clk clock.Clock, logger *zap.Logger) (*Runner, error) {
	r := &Runner{
		cron:       cron.New(),
		service:    service,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger,
	}

	if _, err := r.cron.AddFunc(spec, r.Tick); err != nil {
		return nil, fmt.Errorf("invalid sweep spec %q: %w", spec, err)
	}
	return r, nil
}

// Start begins ticking in the background.
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("Maintenance sweep started")
}

// Stop stops the cron schedule and waits for a running tick to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("Maintenance sweep stopped")
}

// Tick runs one maintenance pass. Exposed so tests and the CLI can invoke
// it directly.
func (r *Runner) Tick() {
	now := r.clock.Now()

	missed, err := r.service.ReconcileAll()
	if err != nil {
		r.logger.Warn("Sweep reconciliation failed", zap.Error(err))
	}

	delivered := 0
	if r.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		delivered, err = r.dispatcher.DeliverDue(ctx, now)
		if err != nil {
			r.logger.Warn("Sweep alert delivery failed", zap.Error(err))
		}
	}

	if missed > 0 || delivered > 0 {
		r.logger.Info("Sweep pass complete",
			zap.Int("missed", missed),
			zap.Int("alerts_delivered", delivered),
		)
	}
}
