package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// fakeScheduler fires timers synchronously when Advance moves its clock.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	sched   *fakeScheduler
	period  time.Duration
	next    time.Duration
	fn      func()
	stopped bool
}

func (s *fakeScheduler) Every(period time.Duration, fn func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &fakeTimer{sched: s, period: period, next: s.now + period, fn: fn}
	s.timers = append(s.timers, timer)
	return timer
}

func (t *fakeTimer) Stop() {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	t.stopped = true
}

// Advance moves the clock forward, firing every due timer in time order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		var due []*fakeTimer
		for _, timer := range s.timers {
			if !timer.stopped && timer.next <= target {
				due = append(due, timer)
			}
		}
		if len(due) == 0 {
			s.now = target
			s.mu.Unlock()
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].next < due[j].next })
		timer := due[0]
		s.now = timer.next
		timer.next += timer.period
		s.mu.Unlock()
		timer.fn()
	}
}

// Active counts timers that have not been stopped.
func (s *fakeScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, timer := range s.timers {
		if !timer.stopped {
			count++
		}
	}
	return count
}

// leakyScheduler keeps every callback it hands out. Stop only counts, so a
// test can fire a tick that a real runner had already launched when Stop returned.
type leakyScheduler struct {
	mu    sync.Mutex
	fns   []func()
	stops int
}

type leakyStopper struct {
	sched *leakyScheduler
}

func (s *leakyScheduler) Every(_ time.Duration, fn func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
	return leakyStopper{sched: s}
}

func (s leakyStopper) Stop() {
	s.sched.mu.Lock()
	defer s.sched.mu.Unlock()
	s.sched.stops++
}

// Fire runs the i-th callback regardless of Stop.
func (s *leakyScheduler) Fire(i int) {
	s.mu.Lock()
	fn := s.fns[i]
	s.mu.Unlock()
	fn()
}

func (s *leakyScheduler) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// gatedCaller numbers calls from 1 and returns results[n]. A call with a gate
// blocks until the gate is closed. Every call reports its number on started.
type gatedCaller struct {
	mu      sync.Mutex
	n       int
	results map[int]WidgetData
	gates   map[int]chan struct{}
	started chan int
}

func newGatedCaller(results map[int]WidgetData) *gatedCaller {
	return &gatedCaller{
		results: results,
		gates:   map[int]chan struct{}{},
		started: make(chan int, len(results)+1),
	}
}

// Hold makes call n block until the returned func is called.
func (c *gatedCaller) Hold(n int) func() {
	gate := make(chan struct{})
	c.mu.Lock()
	c.gates[n] = gate
	c.mu.Unlock()
	return func() { close(gate) }
}

func (c *gatedCaller) Call(ctx context.Context, _, _ string, _ []any) (WidgetData, error) {
	c.mu.Lock()
	c.n++
	n := c.n
	data := c.results[n]
	gate := c.gates[n]
	c.mu.Unlock()
	c.started <- n
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return data, nil
}

type recordedCall struct {
	Target string
	Method string
	Args   []any
}

type callResult struct {
	data WidgetData
	err  error
}

// recordingCaller replays queued results and records every call. When the queue
// is empty the fallback result is returned.
type recordingCaller struct {
	mu       sync.Mutex
	calls    []recordedCall
	queue    []callResult
	fallback callResult
	hook     func(ctx context.Context)
}

func newRecordingCaller(data WidgetData) *recordingCaller {
	return &recordingCaller{fallback: callResult{data: data}}
}

func (c *recordingCaller) Enqueue(data WidgetData, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, callResult{data: data, err: err})
}

func (c *recordingCaller) Call(ctx context.Context, target, method string, args []any) (WidgetData, error) {
	c.mu.Lock()
	c.calls = append(c.calls, recordedCall{Target: target, Method: method, Args: args})
	result := c.fallback
	if len(c.queue) > 0 {
		result = c.queue[0]
		c.queue = c.queue[1:]
	}
	hook := c.hook
	c.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return result.data, result.err
}

func (c *recordingCaller) Calls() []recordedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]recordedCall(nil), c.calls...)
}

func (c *recordingCaller) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

var errBackendDown = errors.New("backend down")

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (t *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *recordingTelemetry) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

type recordingHook struct {
	mu     sync.Mutex
	events []WidgetEvent
	err    error
}

func (h *recordingHook) WidgetUpdated(_ context.Context, event WidgetEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHook) Reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, event := range h.events {
		out[i] = event.Reason
	}
	return out
}
