package dashboard

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestFixedDelayKeepsSubSecondOffset(t *testing.T) {
	var _ cron.Schedule = fixedDelay{}
	at := time.Date(2024, 1, 1, 12, 0, 0, 700_000_000, time.UTC)

	assert.Equal(t, at.Add(2*time.Second), newFixedDelay(2*time.Second).Next(at))
	assert.Equal(t, at.Add(1500*time.Millisecond), newFixedDelay(1500*time.Millisecond).Next(at))
	assert.Equal(t, at.Add(time.Second), newFixedDelay(200*time.Millisecond).Next(at))
}

// The first tick never arrives before a full period has elapsed, whatever
// the sub-second offset Every was called at.
func TestCronSchedulerRunsAndStops(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on the cron clock")
	}
	sched := NewCronScheduler(zerolog.Nop())
	var runs atomic.Int32
	fired := make(chan time.Time, 4)

	// start off the second boundary so truncation would show
	time.Sleep(time.Duration(1_000_000_000-time.Now().Nanosecond()) + 700*time.Millisecond)
	started := time.Now()
	stopper := sched.Every(time.Second, func() {
		runs.Add(1)
		fired <- time.Now()
	})

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(started), time.Second)
	case <-time.After(3 * time.Second):
		stopper.Stop()
		t.Fatal("expected the job to run within the period")
	}

	stopper.Stop()
	stopper.Stop()
	// let a job launched just before Stop finish
	time.Sleep(100 * time.Millisecond)
	after := runs.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}
