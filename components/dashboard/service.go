package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrWidgetNotMounted is returned for unknown widget instance ids.
	ErrWidgetNotMounted = errors.New("dashboard: widget not mounted")
	// ErrActionNotFound is returned when mounting an unregistered action key.
	ErrActionNotFound = errors.New("dashboard: action not registered")
	// ErrMountForbidden is returned when the authorizer rejects a mount.
	ErrMountForbidden = errors.New("dashboard: viewer cannot mount action")

	errInvalidAction = errors.New("dashboard: action key is required")
	errInvalidWidget = errors.New("dashboard: widget id is required")
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Registry        ActionRegistry
	Caller          RemoteCaller
	Scheduler       Scheduler
	Authorizer      Authorizer
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Logger          zerolog.Logger
	HistorySize     int
	IDGenerator     func() string
}

// Service hosts mounted widgets. It runs each widget's lifecycle in order:
// Activate before the widget is visible, OnRendered once it is, Deactivate
// before it is torn down.
type Service struct {
	opts Options

	mu      sync.RWMutex
	mounted map[string]*mountedWidget
}

type mountedWidget struct {
	action    ActionDefinition
	viewer    ViewerContext
	widget    *PollingWidget
	history   *SummaryHistory
	mountedAt time.Time
	cancel    func()
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Registry == nil {
		reg := NewRegistry()
		_ = RegisterDefaultActions(reg)
		opts.Registry = reg
	}
	if opts.Authorizer == nil {
		opts.Authorizer = allowAllAuthorizer{}
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewCronScheduler(opts.Logger)
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{
		opts:    opts,
		mounted: map[string]*mountedWidget{},
	}
}

// Mount instantiates an action for a viewer. The initial fetch completes before
// the widget is listed as mounted; if it fails the mount is abandoned and the
// fetch error returned.
func (s *Service) Mount(ctx context.Context, req MountRequest) (WidgetSnapshot, error) {
	if s.opts.Caller == nil {
		return WidgetSnapshot{}, errMissingCaller
	}
	if req.ActionKey == "" {
		return WidgetSnapshot{}, errInvalidAction
	}
	if req.Viewer.UserID == "" {
		if viewer, ok := ViewerFromContext(ctx); ok {
			req.Viewer = viewer
		}
	}
	action, ok := s.opts.Registry.Action(req.ActionKey)
	if !ok {
		return WidgetSnapshot{}, fmt.Errorf("%w: %s", ErrActionNotFound, req.ActionKey)
	}
	if !s.opts.Authorizer.CanMountAction(ctx, req.Viewer, action) {
		return WidgetSnapshot{}, fmt.Errorf("%w: %s", ErrMountForbidden, req.ActionKey)
	}
	if err := s.opts.ConfigValidator.Validate(action, req.Configuration); err != nil {
		return WidgetSnapshot{}, err
	}
	factory, ok := s.opts.Registry.Factory(req.ActionKey)
	if !ok {
		return WidgetSnapshot{}, fmt.Errorf("%w: %s", ErrActionNotFound, req.ActionKey)
	}

	id := s.opts.IDGenerator()
	logger := s.opts.Logger.With().Str("action", action.Key).Str("widget_id", id).Logger()
	widget, err := factory(WidgetDeps{
		ID:            id,
		Action:        action,
		Configuration: req.Configuration,
		Caller:        s.opts.Caller,
		Scheduler:     s.opts.Scheduler,
		Telemetry:     s.opts.Telemetry,
		Logger:        logger,
	})
	if err != nil {
		return WidgetSnapshot{}, fmt.Errorf("dashboard: build widget %s: %w", action.Key, err)
	}

	if err := widget.Activate(ctx); err != nil {
		widget.Deactivate()
		s.recordTelemetry(ctx, "dashboard.widget.mount_error", map[string]any{
			"action": action.Key,
			"error":  err.Error(),
		})
		return WidgetSnapshot{}, err
	}

	entry := &mountedWidget{
		action:    action,
		viewer:    req.Viewer,
		widget:    widget,
		history:   NewSummaryHistory(s.opts.HistorySize),
		mountedAt: time.Now().UTC(),
	}
	entry.history.Record(widget.Data(), widget.State().UpdatedAt())
	notifyCtx := context.WithoutCancel(ctx)
	entry.cancel = widget.State().Subscribe(func(data WidgetData) {
		s.stateChanged(notifyCtx, id, entry, data)
	})

	s.mu.Lock()
	s.mounted[id] = entry
	s.mu.Unlock()

	if err := s.notify(ctx, WidgetEvent{WidgetID: id, ActionKey: action.Key, Reason: ReasonMount, Data: widget.Data()}); err != nil {
		s.teardown(id, entry)
		return WidgetSnapshot{}, err
	}
	if err := widget.OnRendered(ctx); err != nil {
		s.teardown(id, entry)
		return WidgetSnapshot{}, err
	}

	logger.Info().Dur("period", widget.Period()).Msg("widget mounted")
	s.recordTelemetry(ctx, "dashboard.widget.mount", map[string]any{
		"action":    action.Key,
		"widget_id": id,
		"viewer":    req.Viewer.UserID,
	})
	return entry.snapshot(id), nil
}

// Unmount deactivates the widget and forgets it.
func (s *Service) Unmount(ctx context.Context, widgetID string) error {
	if widgetID == "" {
		return errInvalidWidget
	}
	s.mu.Lock()
	entry, ok := s.mounted[widgetID]
	delete(s.mounted, widgetID)
	s.mu.Unlock()
	if !ok {
		return ErrWidgetNotMounted
	}
	s.teardown(widgetID, entry)
	s.opts.Logger.Info().Str("action", entry.action.Key).Str("widget_id", widgetID).Msg("widget unmounted")
	if err := s.notify(ctx, WidgetEvent{WidgetID: widgetID, ActionKey: entry.action.Key, Reason: ReasonUnmount}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.unmount", map[string]any{
		"action":    entry.action.Key,
		"widget_id": widgetID,
	})
	return nil
}

// Refresh fetches a mounted widget's summary immediately. Errors are returned to the caller.
func (s *Service) Refresh(ctx context.Context, widgetID string) error {
	entry, err := s.lookup(widgetID)
	if err != nil {
		return err
	}
	if err := entry.widget.FetchAndStore(ctx); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.refresh", map[string]any{
		"action":    entry.action.Key,
		"widget_id": widgetID,
	})
	return nil
}

// Snapshot returns the current view of a mounted widget.
func (s *Service) Snapshot(_ context.Context, widgetID string) (WidgetSnapshot, error) {
	entry, err := s.lookup(widgetID)
	if err != nil {
		return WidgetSnapshot{}, err
	}
	return entry.snapshot(widgetID), nil
}

// History returns the recent summaries of a mounted widget, oldest first.
func (s *Service) History(_ context.Context, widgetID string) ([]HistoryPoint, error) {
	entry, err := s.lookup(widgetID)
	if err != nil {
		return nil, err
	}
	return entry.history.Points(), nil
}

// Mounted lists mounted widgets ordered by mount time.
func (s *Service) Mounted(_ context.Context) []WidgetSnapshot {
	s.mu.RLock()
	snapshots := make([]WidgetSnapshot, 0, len(s.mounted))
	for id, entry := range s.mounted {
		snapshots = append(snapshots, entry.snapshot(id))
	}
	s.mu.RUnlock()
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].MountedAt.Equal(snapshots[j].MountedAt) {
			return snapshots[i].ID < snapshots[j].ID
		}
		return snapshots[i].MountedAt.Before(snapshots[j].MountedAt)
	})
	return snapshots
}

// Actions exposes the registered actions.
func (s *Service) Actions(_ context.Context) []ActionDefinition {
	return s.opts.Registry.Actions()
}

// Close unmounts every widget.
func (s *Service) Close(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.mounted))
	for id := range s.mounted {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	var closeErr error
	for _, id := range ids {
		if err := s.Unmount(ctx, id); err != nil && !errors.Is(err, ErrWidgetNotMounted) {
			closeErr = errors.Join(closeErr, err)
		}
	}
	return closeErr
}

func (s *Service) stateChanged(ctx context.Context, id string, entry *mountedWidget, data WidgetData) {
	entry.history.Record(data, entry.widget.State().UpdatedAt())
	if err := s.notify(ctx, WidgetEvent{WidgetID: id, ActionKey: entry.action.Key, Reason: ReasonRefresh, Data: data}); err != nil {
		s.opts.Logger.Warn().Err(err).Str("widget_id", id).Msg("refresh hook failed")
	}
}

func (s *Service) teardown(id string, entry *mountedWidget) {
	s.mu.Lock()
	delete(s.mounted, id)
	s.mu.Unlock()
	entry.widget.Deactivate()
	if entry.cancel != nil {
		entry.cancel()
	}
}

func (s *Service) notify(ctx context.Context, event WidgetEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	return s.opts.RefreshHook.WidgetUpdated(ctx, event)
}

func (s *Service) lookup(widgetID string) (*mountedWidget, error) {
	if widgetID == "" {
		return nil, errInvalidWidget
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.mounted[widgetID]
	if !ok {
		return nil, ErrWidgetNotMounted
	}
	return entry, nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (e *mountedWidget) snapshot(id string) WidgetSnapshot {
	return WidgetSnapshot{
		ID:        id,
		ActionKey: e.action.Key,
		Name:      e.action.Name,
		Template:  e.action.Template,
		Period:    e.widget.Period(),
		Data:      e.widget.Data(),
		UpdatedAt: e.widget.State().UpdatedAt(),
		MountedAt: e.mountedAt,
		Active:    e.widget.Active(),
		Viewer:    e.viewer,
	}
}

type allowAllAuthorizer struct{}

func (allowAllAuthorizer) CanMountAction(context.Context, ViewerContext, ActionDefinition) bool {
	return true
}

type noopRefreshHook struct{}

func (noopRefreshHook) WidgetUpdated(context.Context, WidgetEvent) error {
	return nil
}
