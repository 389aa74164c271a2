package dashboard

import (
	"context"
	"time"
)

// RemoteCaller invokes a named method on a named backend target (an ORM model,
// an RPC service) and returns the decoded result.
type RemoteCaller interface {
	Call(ctx context.Context, target, method string, args []any) (WidgetData, error)
}

// Authorizer determines if a viewer can mount an action.
type Authorizer interface {
	CanMountAction(ctx context.Context, viewer ViewerContext, action ActionDefinition) bool
}

// ActionRegistry stores client actions and the factories that build their widgets.
type ActionRegistry interface {
	RegisterAction(def ActionDefinition) error
	RegisterFactory(key string, factory WidgetFactory) error
	Action(key string) (ActionDefinition, bool)
	Factory(key string) (WidgetFactory, bool)
	Actions() []ActionDefinition
}

// RefreshHook notifies transports (REST/WebSocket) about widget changes.
type RefreshHook interface {
	WidgetUpdated(ctx context.Context, event WidgetEvent) error
}

// ActionDefinition describes a client action the host can instantiate by key.
// Target/Method name the remote call the widget polls.
type ActionDefinition struct {
	Key         string         `json:"key" yaml:"key"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string         `json:"category,omitempty" yaml:"category,omitempty"`
	Target      string         `json:"target" yaml:"target"`
	Method      string         `json:"method" yaml:"method"`
	Period      time.Duration  `json:"period,omitempty" yaml:"period,omitempty"`
	Template    string         `json:"template,omitempty" yaml:"template,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// ViewerContext captures the active user/locale information needed to render dashboards.
type ViewerContext struct {
	UserID string   `json:"user_id,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	Locale string   `json:"locale,omitempty"`
}

// MountRequest asks the host to instantiate an action for a viewer.
type MountRequest struct {
	ActionKey     string         `json:"action_key"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Viewer        ViewerContext  `json:"-"`
}

// WidgetSnapshot is a read-only view of a mounted widget.
type WidgetSnapshot struct {
	ID        string        `json:"id"`
	ActionKey string        `json:"action_key"`
	Name      string        `json:"name"`
	Template  string        `json:"template,omitempty"`
	Period    time.Duration `json:"period"`
	Data      WidgetData    `json:"data"`
	UpdatedAt time.Time     `json:"updated_at"`
	MountedAt time.Time     `json:"mounted_at"`
	Active    bool          `json:"active"`
	Viewer    ViewerContext `json:"viewer"`
}

// WidgetEvent describes changes that transports might care about.
type WidgetEvent struct {
	WidgetID  string     `json:"widget_id"`
	ActionKey string     `json:"action_key"`
	Reason    string     `json:"reason"`
	Data      WidgetData `json:"data,omitempty"`
	At        time.Time  `json:"at"`
}

// Widget event reasons.
const (
	ReasonMount   = "mount"
	ReasonRefresh = "refresh"
	ReasonUnmount = "unmount"
)
