package dashboard

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"
)

// Scheduler runs a callback on a fixed period until stopped.
type Scheduler interface {
	Every(period time.Duration, fn func()) Stopper
}

// Stopper cancels a repeating callback. Stop blocks until the scheduler will
// launch no further callbacks and is safe to call more than once.
type Stopper interface {
	Stop()
}

// CronScheduler backs every repeating timer with its own cron runner. Each
// tick comes no earlier than one full period after the previous one (or after
// Every for the first). Periods below one second are rounded up. Panics raised
// by a callback are recovered and logged.
type CronScheduler struct {
	logger zerolog.Logger
}

// NewCronScheduler builds a scheduler that routes cron errors to logger.
func NewCronScheduler(logger zerolog.Logger) *CronScheduler {
	return &CronScheduler{logger: logger}
}

// Every starts a cron runner invoking fn once per period.
func (s *CronScheduler) Every(period time.Duration, fn func()) Stopper {
	runner := cron.New()
	runner.ErrorLog = log.New(s.logger.With().Str("component", "scheduler").Logger(), "", 0)
	runner.Schedule(newFixedDelay(period), cron.FuncJob(fn))
	runner.Start()
	return &cronStopper{runner: runner}
}

// fixedDelay is a cron.Schedule that fires exactly period after t.
// cron.Every truncates t to the second first, which can fire up to a second early.
type fixedDelay struct {
	period time.Duration
}

func newFixedDelay(period time.Duration) fixedDelay {
	if period < time.Second {
		period = time.Second
	}
	return fixedDelay{period: period}
}

func (d fixedDelay) Next(t time.Time) time.Time {
	return t.Add(d.period)
}

type cronStopper struct {
	once   sync.Once
	runner *cron.Cron
}

func (s *cronStopper) Stop() {
	s.once.Do(s.runner.Stop)
}
