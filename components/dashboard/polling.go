package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRefreshPeriod is the interval between periodic fetches when none is configured.
const DefaultRefreshPeriod = time.Minute

var (
	// ErrAlreadyRendered is returned when OnRendered runs a second time.
	ErrAlreadyRendered = errors.New("dashboard: widget already rendered")
	// ErrWidgetInactive is returned by lifecycle calls made outside the active phase.
	ErrWidgetInactive = errors.New("dashboard: widget is not active")

	errMissingCaller       = errors.New("dashboard: remote caller not configured")
	errMissingRemoteTarget = errors.New("dashboard: remote target and method are required")
)

type widgetPhase int

const (
	phaseCreated widgetPhase = iota
	phaseActive
	phaseDestroyed
)

// PollingConfig configures a PollingWidget.
type PollingConfig struct {
	ID        string
	Target    string
	Method    string
	Period    time.Duration
	Caller    RemoteCaller
	Scheduler Scheduler
	Telemetry Telemetry
	Logger    zerolog.Logger
}

// PollingWidget keeps a remote summary fresh for as long as it is mounted: one
// fetch before the first render, one fetch per period after it, none once it
// has been deactivated.
//
// Fetches are not serialized. When a fetch outlives the period, several may be
// in flight and the last one to complete wins.
type PollingWidget struct {
	id        string
	target    string
	method    string
	period    time.Duration
	caller    RemoteCaller
	scheduler Scheduler
	telemetry Telemetry
	logger    zerolog.Logger
	state     *WidgetState

	mu         sync.Mutex
	phase      widgetPhase
	rendered   bool
	stopper    Stopper
	generation uint64
}

// NewPollingWidget validates the configuration and builds an inactive widget.
func NewPollingWidget(cfg PollingConfig) (*PollingWidget, error) {
	if cfg.Caller == nil {
		return nil, errMissingCaller
	}
	if cfg.Target == "" || cfg.Method == "" {
		return nil, errMissingRemoteTarget
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultRefreshPeriod
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewCronScheduler(cfg.Logger)
	}
	return &PollingWidget{
		id:        cfg.ID,
		target:    cfg.Target,
		method:    cfg.Method,
		period:    cfg.Period,
		caller:    cfg.Caller,
		scheduler: cfg.Scheduler,
		telemetry: normalizeTelemetry(cfg.Telemetry),
		logger:    cfg.Logger.With().Str("widget_id", cfg.ID).Str("target", cfg.Target).Str("method", cfg.Method).Logger(),
		state:     NewWidgetState(),
	}, nil
}

// Activate performs the initial fetch so the first render sees data. The fetch
// error, if any, is returned unchanged.
func (w *PollingWidget) Activate(ctx context.Context) error {
	w.mu.Lock()
	if w.phase != phaseCreated {
		w.mu.Unlock()
		return ErrWidgetInactive
	}
	w.phase = phaseActive
	w.mu.Unlock()

	return w.FetchAndStore(ctx)
}

// OnRendered starts the repeating timer. It must run once, after the widget is visible.
func (w *PollingWidget) OnRendered(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != phaseActive {
		return ErrWidgetInactive
	}
	if w.rendered {
		return ErrAlreadyRendered
	}
	w.rendered = true
	w.generation++
	gen := w.generation
	// ticks outlive the request that rendered the widget
	tickCtx := context.WithoutCancel(ctx)
	w.stopper = w.scheduler.Every(w.period, func() {
		w.tick(tickCtx, gen)
	})
	w.logger.Debug().Dur("period", w.period).Msg("widget refresh timer started")
	return nil
}

// Deactivate cancels the repeating timer. Once it returns no further periodic
// fetch starts. Fetches already in flight are left to finish.
func (w *PollingWidget) Deactivate() {
	w.mu.Lock()
	stopper := w.stopper
	w.stopper = nil
	wasActive := w.phase == phaseActive
	w.phase = phaseDestroyed
	w.generation++
	w.mu.Unlock()

	if stopper != nil {
		stopper.Stop()
	}
	if wasActive {
		w.logger.Debug().Msg("widget deactivated")
	}
}

// FetchAndStore calls the remote method with no arguments and stores the result.
// On failure the stored summary is left untouched and a *RemoteCallError is returned.
func (w *PollingWidget) FetchAndStore(ctx context.Context) error {
	data, err := w.caller.Call(ctx, w.target, w.method, []any{})
	if err != nil {
		return &RemoteCallError{Target: w.target, Method: w.method, Err: err}
	}
	w.state.Set(data)
	return nil
}

func (w *PollingWidget) tick(ctx context.Context, gen uint64) {
	if !w.ticking(gen) {
		return
	}
	if err := w.FetchAndStore(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("periodic refresh failed")
		w.telemetry.Record(ctx, "dashboard.widget.refresh_error", map[string]any{
			"widget_id": w.id,
			"error":     err.Error(),
		})
	}
}

func (w *PollingWidget) ticking(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase == phaseActive && w.generation == gen
}

// ID returns the instance identifier.
func (w *PollingWidget) ID() string { return w.id }

// Target returns the remote target the widget polls.
func (w *PollingWidget) Target() string { return w.target }

// Method returns the remote method the widget polls.
func (w *PollingWidget) Method() string { return w.method }

// Period returns the refresh interval.
func (w *PollingWidget) Period() time.Duration { return w.period }

// State exposes the observable state container.
func (w *PollingWidget) State() *WidgetState { return w.state }

// Data returns a copy of the latest summary.
func (w *PollingWidget) Data() WidgetData { return w.state.Data() }

// Active reports whether the widget was activated and not yet deactivated.
func (w *PollingWidget) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase == phaseActive
}

// Polling reports whether the repeating timer is running.
func (w *PollingWidget) Polling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopper != nil
}
