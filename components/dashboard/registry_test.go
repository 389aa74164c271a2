package dashboard

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestRegisterDefaultActions(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterDefaultActions(reg); err != nil {
		t.Fatalf("RegisterDefaultActions returned error: %v", err)
	}
	def, ok := reg.Action(TradesDashboardKey)
	if !ok {
		t.Fatalf("expected %s to be registered", TradesDashboardKey)
	}
	if def.Target != "dankbit.trade" || def.Method != "get_market_summary" {
		t.Fatalf("unexpected remote binding %s.%s", def.Target, def.Method)
	}
	if def.Period != 60*time.Second {
		t.Fatalf("expected 60s period, got %s", def.Period)
	}
	if _, ok := reg.Factory(TradesDashboardKey); !ok {
		t.Fatalf("expected default factory for registered action")
	}
}

func TestRegistryRejectsIncompleteActions(t *testing.T) {
	reg := NewRegistry()
	cases := []ActionDefinition{
		{Target: "a", Method: "b"},
		{Key: "k", Method: "b"},
		{Key: "k", Target: "a"},
		{Key: "k", Target: "a", Method: "b", Period: -time.Second},
	}
	for _, def := range cases {
		if err := reg.RegisterAction(def); err == nil {
			t.Fatalf("expected error registering %#v", def)
		}
	}
}

func TestRegistryFactoryRequiresAction(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterFactory("missing", DefaultWidgetFactory); err == nil {
		t.Fatalf("expected error registering factory for unknown action")
	}
	if _, ok := reg.Factory("missing"); ok {
		t.Fatalf("expected no factory for unknown action")
	}
}

func TestRegistryActionsSortedByKey(t *testing.T) {
	reg := NewRegistry()
	for _, key := range []string{"zeta.action", "alpha.action", "mid.action"} {
		if err := reg.RegisterAction(ActionDefinition{Key: key, Target: "m", Method: "f"}); err != nil {
			t.Fatalf("RegisterAction returned error: %v", err)
		}
	}
	actions := reg.Actions()
	if len(actions) != 3 || actions[0].Key != "alpha.action" || actions[2].Key != "zeta.action" {
		t.Fatalf("expected sorted actions, got %#v", actions)
	}
}

func TestRegistryAppliesActionHooks(t *testing.T) {
	globalHookMu.Lock()
	saved := globalHooks
	globalHookMu.Unlock()
	t.Cleanup(func() {
		globalHookMu.Lock()
		globalHooks = saved
		globalHookMu.Unlock()
	})

	RegisterActionHook(func(reg *Registry) error {
		return reg.RegisterAction(ActionDefinition{Key: "hooked.action", Target: "m", Method: "f"})
	})
	reg := NewRegistry()
	if _, ok := reg.Action("hooked.action"); !ok {
		t.Fatalf("expected hook to register action")
	}
}

func TestDefaultWidgetFactoryRejectsOverflowingInterval(t *testing.T) {
	for _, raw := range []any{maxIntervalSeconds + 1, math.MaxInt64, 1e300, json.Number("9300000000")} {
		widget, err := DefaultWidgetFactory(WidgetDeps{
			ID:            "w",
			Action:        TradesDashboardAction(),
			Configuration: map[string]any{"interval_seconds": raw},
			Caller:        newRecordingCaller(nil),
			Scheduler:     &fakeScheduler{},
		})
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("interval %v: expected ErrInvalidConfiguration, got %v", raw, err)
		}
		if widget != nil {
			t.Fatalf("interval %v: expected no widget", raw)
		}
	}
}

func TestDefaultWidgetFactoryIntervalOverride(t *testing.T) {
	action := TradesDashboardAction()
	cases := []struct {
		name   string
		config map[string]any
		want   time.Duration
	}{
		{"none", nil, time.Minute},
		{"int", map[string]any{"interval_seconds": 15}, 15 * time.Second},
		{"float", map[string]any{"interval_seconds": 30.0}, 30 * time.Second},
		{"number", map[string]any{"interval_seconds": json.Number("45")}, 45 * time.Second},
		{"zero ignored", map[string]any{"interval_seconds": 0}, time.Minute},
		{"string ignored", map[string]any{"interval_seconds": "10"}, time.Minute},
		{"longest duration", map[string]any{"interval_seconds": maxIntervalSeconds}, time.Duration(maxIntervalSeconds) * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			widget, err := DefaultWidgetFactory(WidgetDeps{
				ID:            "w",
				Action:        action,
				Configuration: tc.config,
				Caller:        newRecordingCaller(nil),
				Scheduler:     &fakeScheduler{},
			})
			if err != nil {
				t.Fatalf("DefaultWidgetFactory returned error: %v", err)
			}
			if widget.Period() != tc.want {
				t.Fatalf("expected period %s, got %s", tc.want, widget.Period())
			}
		})
	}
}
