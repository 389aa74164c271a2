package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// WidgetReader exposes the read side of the host to the controller.
type WidgetReader interface {
	Snapshot(ctx context.Context, widgetID string) (WidgetSnapshot, error)
	History(ctx context.Context, widgetID string) ([]HistoryPoint, error)
}

// ControllerOptions wires the controller. Charts is optional.
type ControllerOptions struct {
	Service  WidgetReader
	Renderer Renderer
	Charts   *HistoryChart
}

// Controller turns mounted widgets into HTML fragments and JSON payloads.
type Controller struct {
	service  WidgetReader
	renderer Renderer
	charts   *HistoryChart
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	return &Controller{
		service:  opts.Service,
		renderer: opts.Renderer,
		charts:   opts.Charts,
	}
}

// RenderWidget renders the widget's template with its latest summary into out.
func (c *Controller) RenderWidget(ctx context.Context, widgetID string, out io.Writer) error {
	if c.service == nil || c.renderer == nil {
		return fmt.Errorf("dashboard: controller requires service and renderer")
	}
	snapshot, err := c.service.Snapshot(ctx, widgetID)
	if err != nil {
		return err
	}
	payload, err := c.templatePayload(ctx, snapshot)
	if err != nil {
		return err
	}
	name := templateFor(snapshot)
	if _, err := c.renderer.Render(name, payload, out); err != nil {
		return fmt.Errorf("dashboard: render %s: %w", name, err)
	}
	return nil
}

// StatePayload returns the JSON view of a widget: its snapshot plus recent history.
func (c *Controller) StatePayload(ctx context.Context, widgetID string) (map[string]any, error) {
	if c.service == nil {
		return nil, fmt.Errorf("dashboard: controller requires service")
	}
	snapshot, err := c.service.Snapshot(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	history, err := c.service.History(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"widget":  snapshot,
		"history": history,
	}, nil
}

func (c *Controller) templatePayload(ctx context.Context, snapshot WidgetSnapshot) (map[string]any, error) {
	encoded, err := json.MarshalIndent(snapshot.Data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("dashboard: encode widget data: %w", err)
	}
	payload := map[string]any{
		"widget": map[string]any{
			"id":         snapshot.ID,
			"action_key": snapshot.ActionKey,
			"name":       snapshot.Name,
			"active":     snapshot.Active,
		},
		"data":           map[string]any(snapshot.Data),
		"json":           string(encoded),
		"period_seconds": int64(snapshot.Period / time.Second),
	}
	if !snapshot.UpdatedAt.IsZero() {
		payload["updated_at"] = snapshot.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if chart := c.chartFor(ctx, snapshot); chart != "" {
		payload["chart"] = chart
	}
	return payload, nil
}

// chartFor renders the history chart. A history without numeric fields renders nothing.
func (c *Controller) chartFor(ctx context.Context, snapshot WidgetSnapshot) string {
	if c.charts == nil {
		return ""
	}
	points, err := c.service.History(ctx, snapshot.ID)
	if err != nil || len(points) < 2 {
		return ""
	}
	html, err := c.charts.Render(snapshot.ID, snapshot.Name, points)
	if err != nil {
		return ""
	}
	return html
}
