package dashboard

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// NotificationsClient defines the minimal interface needed from an external notifier.
type NotificationsClient interface {
	PublishDashboardEvent(ctx context.Context, channel string, event WidgetEvent) error
}

// NotificationsHook forwards widget events to an external notifications client.
// Reasons limits forwarding to the listed reasons; empty forwards all.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
	Reasons []string
}

// WidgetUpdated publishes events to the configured notifications client.
func (h *NotificationsHook) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	if len(h.Reasons) > 0 && !containsString(h.Reasons, event.Reason) {
		return nil
	}
	return h.Client.PublishDashboardEvent(ctx, h.Channel, event)
}

// LoggingHook writes every widget event as a structured log line.
type LoggingHook struct {
	Logger zerolog.Logger
}

// WidgetUpdated satisfies RefreshHook.
func (h LoggingHook) WidgetUpdated(_ context.Context, event WidgetEvent) error {
	h.Logger.Info().
		Str("widget_id", event.WidgetID).
		Str("action", event.ActionKey).
		Str("reason", event.Reason).
		Int("fields", len(event.Data)).
		Msg("widget event")
	return nil
}

// MultiHook fans an event out to several hooks. Every hook runs; failures are joined.
type MultiHook []RefreshHook

// WidgetUpdated satisfies RefreshHook.
func (m MultiHook) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	var errs error
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.WidgetUpdated(ctx, event); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
