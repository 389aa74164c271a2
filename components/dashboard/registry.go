package dashboard

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// WidgetDeps carries everything a factory needs to build a widget for one mount.
type WidgetDeps struct {
	ID            string
	Action        ActionDefinition
	Configuration map[string]any
	Caller        RemoteCaller
	Scheduler     Scheduler
	Telemetry     Telemetry
	Logger        zerolog.Logger
}

// WidgetFactory builds a polling widget for a mounted action.
type WidgetFactory func(deps WidgetDeps) (*PollingWidget, error)

// ActionHook lets packages contribute actions to every new registry.
type ActionHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []ActionHook
)

// RegisterActionHook registers a hook executed against new registries.
func RegisterActionHook(h ActionHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Registry implements ActionRegistry with hook + manifest support.
type Registry struct {
	mu           sync.RWMutex
	actions      map[string]ActionDefinition
	factories    map[string]WidgetFactory
	manifestMeta map[string]ManifestMeta
}

// NewRegistry builds an empty registry and applies global hooks. Built-in
// actions are added explicitly with RegisterDefaultActions.
func NewRegistry() *Registry {
	reg := &Registry{
		actions:      map[string]ActionDefinition{},
		factories:    map[string]WidgetFactory{},
		manifestMeta: map[string]ManifestMeta{},
	}
	_ = reg.ApplyHooks()
	return reg
}

// ApplyHooks executes registered action hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	hooks := append([]ActionHook(nil), globalHooks...)
	globalHookMu.Unlock()
	for _, hook := range hooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAction stores action metadata, replacing any action with the same key.
func (r *Registry) RegisterAction(def ActionDefinition) error {
	if def.Key == "" {
		return fmt.Errorf("dashboard: action key is required")
	}
	if def.Target == "" || def.Method == "" {
		return fmt.Errorf("dashboard: action %s requires target and method", def.Key)
	}
	if def.Period < 0 {
		return fmt.Errorf("dashboard: action %s has negative period", def.Key)
	}
	if def.Period == 0 {
		def.Period = DefaultRefreshPeriod
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[def.Key] = def
	return nil
}

// RegisterFactory associates a custom widget factory with a registered action.
func (r *Registry) RegisterFactory(key string, factory WidgetFactory) error {
	if key == "" {
		return fmt.Errorf("dashboard: action key is required to register factory")
	}
	if factory == nil {
		return fmt.Errorf("dashboard: factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actions[key]; !ok {
		return fmt.Errorf("dashboard: action %s not found", key)
	}
	r.factories[key] = factory
	return nil
}

// Action fetches an action definition by key.
func (r *Registry) Action(key string) (ActionDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.actions[key]
	return def, ok
}

// Factory returns the custom factory for key, or DefaultWidgetFactory when the
// action exists without one.
func (r *Registry) Factory(key string) (WidgetFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.actions[key]; !ok {
		return nil, false
	}
	if factory, ok := r.factories[key]; ok {
		return factory, true
	}
	return DefaultWidgetFactory, true
}

// Actions returns all registered actions sorted by key.
func (r *Registry) Actions() []ActionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ActionDefinition, 0, len(r.actions))
	for _, def := range r.actions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs
}

// ManifestMetadata returns manifest metadata recorded for an action.
func (r *Registry) ManifestMetadata(key string) (ManifestMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.manifestMeta[key]
	return meta, ok
}

func (r *Registry) recordManifestMetadata(key string, meta ManifestMeta) {
	if meta.isZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifestMeta[key] = meta
}

// DefaultWidgetFactory builds a PollingWidget for the action's target/method.
// The "interval_seconds" configuration entry overrides the action period.
func DefaultWidgetFactory(deps WidgetDeps) (*PollingWidget, error) {
	period := deps.Action.Period
	override, ok, err := intervalOverride(deps.Configuration)
	if err != nil {
		return nil, err
	}
	if ok {
		period = override
	}
	return NewPollingWidget(PollingConfig{
		ID:        deps.ID,
		Target:    deps.Action.Target,
		Method:    deps.Action.Method,
		Period:    period,
		Caller:    deps.Caller,
		Scheduler: deps.Scheduler,
		Telemetry: deps.Telemetry,
		Logger:    deps.Logger,
	})
}

// maxIntervalSeconds is the longest period a time.Duration can hold.
const maxIntervalSeconds = math.MaxInt64 / int64(time.Second)

func intervalOverride(cfg map[string]any) (time.Duration, bool, error) {
	raw, ok := cfg["interval_seconds"]
	if !ok {
		return 0, false, nil
	}
	var seconds float64
	switch v := raw.(type) {
	case int:
		seconds = float64(v)
	case int64:
		seconds = float64(v)
	case float64:
		seconds = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, nil
		}
		seconds = f
	default:
		return 0, false, nil
	}
	if seconds <= 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return 0, false, nil
	}
	if seconds > float64(maxIntervalSeconds) {
		return 0, false, fmt.Errorf("%w: interval_seconds %.0f exceeds %d", ErrInvalidConfiguration, seconds, maxIntervalSeconds)
	}
	return time.Duration(seconds * float64(time.Second)), true, nil
}
