package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const runTimeout = 5 * time.Minute

// PromptPruner deletes prompts older than a cutoff.
type PromptPruner interface {
	DeletePromptsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention periodically removes prompts older than the retention window.
type Retention struct {
	pruner PromptPruner
	window time.Duration
	cron   *cron.Cron
	now    func() time.Time
}

// NewRetention schedules the retention job with a standard cron expression or
// descriptor such as "@daily". A zero days value disables the job.
func NewRetention(pruner PromptPruner, days int, schedule string) (*Retention, error) {
	if days < 0 {
		return nil, fmt.Errorf("retention days must not be negative, got %d", days)
	}
	r := &Retention{
		pruner: pruner,
		window: time.Duration(days) * 24 * time.Hour,
		now:    time.Now,
	}
	if days == 0 {
		return r, nil
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Enabled reports whether the job has a schedule.
func (r *Retention) Enabled() bool {
	return r.cron != nil
}

// Start begins running the job in the background.
func (r *Retention) Start() {
	if !r.Enabled() {
		log.Info().Msg("Prompt retention disabled")
		return
	}
	log.Info().Dur("window", r.window).Msg("Starting prompt retention job")
	r.cron.Start()
}

// Stop halts the schedule and waits for a running job to finish.
func (r *Retention) Stop() {
	if !r.Enabled() {
		return
	}
	<-r.cron.Stop().Done()
	log.Info().Msg("Stopped prompt retention job")
}

// RunOnce deletes every prompt older than the window and returns the count.
func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	if r.window == 0 {
		return 0, nil
	}
	cutoff := r.now().Add(-r.window)
	n, err := r.pruner.DeletePromptsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune prompts before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}

func (r *Retention) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	n, err := r.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Prompt retention run failed")
		return
	}
	log.Info().Int64("deleted", n).Msg("Prompt retention run complete")
}
