package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

// MountWidgetInput asks the host to instantiate an action. Result, when set,
// receives the snapshot of the mounted widget.
type MountWidgetInput struct {
	ActionKey     string                    `json:"action_key"`
	Configuration map[string]any            `json:"configuration,omitempty"`
	Viewer        dashboard.ViewerContext   `json:"-"`
	Result        *dashboard.WidgetSnapshot `json:"-"`
}

type mountService interface {
	Mount(ctx context.Context, req dashboard.MountRequest) (dashboard.WidgetSnapshot, error)
}

// MountWidgetCommand wraps Service.Mount so transports can mount actions
// without linking directly against the service.
type MountWidgetCommand struct {
	service   mountService
	telemetry Telemetry
}

// NewMountWidgetCommand creates a command instance.
func NewMountWidgetCommand(service mountService, telemetry Telemetry) *MountWidgetCommand {
	return &MountWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[MountWidgetInput] = (*MountWidgetCommand)(nil)

// Execute delegates to the dashboard service.
func (c *MountWidgetCommand) Execute(ctx context.Context, msg MountWidgetInput) error {
	if c.service == nil {
		return errors.New("mount command requires service")
	}
	snapshot, err := c.service.Mount(ctx, dashboard.MountRequest{
		ActionKey:     msg.ActionKey,
		Configuration: msg.Configuration,
		Viewer:        msg.Viewer,
	})
	if err == nil && msg.Result != nil {
		*msg.Result = snapshot
	}
	return recordOutcome(ctx, c.telemetry, "dashboard.command.mount", map[string]any{
		"action":    msg.ActionKey,
		"widget_id": snapshot.ID,
	}, err)
}
