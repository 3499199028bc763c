package reconcile

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// SweepTimeout bounds a single scheduled sweep
const SweepTimeout = 5 * time.Minute

// ValidateSchedule reports whether spec is a cron expression or descriptor
// NewScheduler accepts.
func ValidateSchedule(spec string) error {
	_, err := cronParser.Parse(spec)
	return err
}

// NewScheduler returns a stopped cron that runs Sweep on spec. Overlapping
// runs are skipped.
func NewScheduler(r *Reconciler, spec string) (*cron.Cron, error) {
	sched := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := sched.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), SweepTimeout)
		defer cancel()
		report, err := r.Sweep(ctx)
		if err != nil {
			zap.L().Error("scheduled sweep failed", zap.Error(err))
			return
		}
		zap.L().Info("scheduled sweep finished",
			zap.Int("scanned", report.Scanned),
			zap.Strings("orphans", report.Orphans),
			zap.Int64("cart_lines_removed", report.CartLinesRemoved),
			zap.Int64("favorites_removed", report.FavoritesRemoved))
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}
