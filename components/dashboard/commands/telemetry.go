package commands

import (
	"context"

	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

// Telemetry allows commands to emit structured events. It is the dashboard
// Telemetry contract, so a ZerologTelemetry can be shared with the service.
type Telemetry = dashboard.Telemetry

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// recordOutcome records event on success and event+"_failed" with the error
// text otherwise. It returns err unchanged.
func recordOutcome(ctx context.Context, t Telemetry, event string, payload map[string]any, err error) error {
	if err != nil {
		payload["error"] = err.Error()
		t.Record(ctx, event+"_failed", payload)
		return err
	}
	t.Record(ctx, event, payload)
	return nil
}
