package store

import (
	"context"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// cronParser parses standard 5-field cron expressions.
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

const midnightSpec = "0 0 * * *"

// RolloverScheduler re-assigns the collection through the store's write
// path on a cron schedule, so the daily reset of recurring tasks also
// happens in a client that sits idle across midnight instead of only on
// the next user mutation.
type RolloverScheduler struct {
	store  *Store
	logger zerolog.Logger
	sched  cronlib.Schedule

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRolloverScheduler(store *Store, logger zerolog.Logger) (*RolloverScheduler, error) {
	sched, err := cronParser.Parse(midnightSpec)
	if err != nil {
		return nil, err
	}
	return &RolloverScheduler{
		store:  store,
		logger: logger,
		sched:  sched,
	}, nil
}

// Start begins the scheduler loop in a background goroutine. It respects
// the provided context for shutdown.
func (r *RolloverScheduler) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
	r.logger.Info().Str("schedule", midnightSpec).Msg("rollover scheduler started")
}

// Stop cancels the scheduler loop and waits for it to exit.
func (r *RolloverScheduler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info().Msg("rollover scheduler stopped")
}

func (r *RolloverScheduler) loop(ctx context.Context) {
	defer r.wg.Done()

	for {
		next := r.sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			r.logger.Debug().Time("fired_at", next).Msg("midnight rollover tick")
			r.store.SetTasks(r.store.Tasks())
		}
	}
}
