package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RefreshWidgetInput names the widget to refresh out of schedule.
type RefreshWidgetInput struct {
	WidgetID string `json:"widget_id"`
}

type refreshService interface {
	Refresh(ctx context.Context, widgetID string) error
}

// RefreshWidgetCommand fetches a widget's summary immediately. Unlike timer
// ticks, failures are returned to the caller.
type RefreshWidgetCommand struct {
	service   refreshService
	telemetry Telemetry
}

// NewRefreshWidgetCommand creates the command.
func NewRefreshWidgetCommand(service refreshService, telemetry Telemetry) *RefreshWidgetCommand {
	return &RefreshWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshWidgetInput] = (*RefreshWidgetCommand)(nil)

// Execute refreshes the widget.
func (c *RefreshWidgetCommand) Execute(ctx context.Context, msg RefreshWidgetInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	err := c.service.Refresh(ctx, msg.WidgetID)
	return recordOutcome(ctx, c.telemetry, "dashboard.command.refresh", map[string]any{"widget_id": msg.WidgetID}, err)
}
