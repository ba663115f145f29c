// Package worker runs periodic background jobs: the status sweep and the
// retention cleanup. Each job runs once at start, then on its own ticker,
// until the context is canceled. A job never overlaps with itself; a tick
// that fires while the previous run is still going is dropped.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner owns a set of jobs.
type Runner struct {
	Jobs []Job
	Log  zerolog.Logger

	wg sync.WaitGroup
}

// NewRunner returns a Runner for jobs. Jobs with a non-positive interval or
// nil Run are ignored.
func NewRunner(log zerolog.Logger, jobs ...Job) *Runner {
	r := &Runner{Log: log}
	for _, j := range jobs {
		if j.Interval > 0 && j.Run != nil {
			r.Jobs = append(r.Jobs, j)
		}
	}
	return r
}

// Start launches one goroutine per job and returns immediately.
func (r *Runner) Start(ctx context.Context) {
	for _, j := range r.Jobs {
		r.wg.Add(1)
		go func(j Job) {
			defer r.wg.Done()
			r.loop(ctx, j)
		}(j)
	}
}

// Wait blocks until every job goroutine has returned.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) loop(ctx context.Context, j Job) {
	log := r.Log.With().Str("job", j.Name).Logger()
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	log.Info().Dur("interval", j.Interval).Msg("job scheduled")
	r.runOnce(ctx, log, j)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("job stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx, log, j)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, log zerolog.Logger, j Job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("job panicked")
		}
	}()
	if err := j.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("job failed")
		return
	}
	log.Debug().Dur("took", time.Since(start)).Msg("job finished")
}
