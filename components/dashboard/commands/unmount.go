package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// UnmountWidgetInput identifies the widget instance to tear down.
type UnmountWidgetInput struct {
	WidgetID string `json:"widget_id"`
	ActorID  string `json:"actor_id,omitempty"`
}

type unmountService interface {
	Unmount(ctx context.Context, widgetID string) error
}

// UnmountWidgetCommand wraps Service.Unmount and records telemetry for auditing.
type UnmountWidgetCommand struct {
	service   unmountService
	telemetry Telemetry
}

// NewUnmountWidgetCommand builds a command instance.
func NewUnmountWidgetCommand(service unmountService, telemetry Telemetry) *UnmountWidgetCommand {
	return &UnmountWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UnmountWidgetInput] = (*UnmountWidgetCommand)(nil)

// Execute unmounts the widget.
func (c *UnmountWidgetCommand) Execute(ctx context.Context, msg UnmountWidgetInput) error {
	if c.service == nil {
		return errors.New("unmount command requires service")
	}
	err := c.service.Unmount(ctx, msg.WidgetID)
	return recordOutcome(ctx, c.telemetry, "dashboard.command.unmount", map[string]any{
		"widget_id": msg.WidgetID,
		"actor_id":  msg.ActorID,
	}, err)
}
