package dashboard

import (
	"context"

	"github.com/rs/zerolog"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ZerologTelemetry writes telemetry events as structured debug log lines.
type ZerologTelemetry struct {
	Logger zerolog.Logger
	Level  zerolog.Level
}

// NewZerologTelemetry logs events at debug level.
func NewZerologTelemetry(logger zerolog.Logger) *ZerologTelemetry {
	return &ZerologTelemetry{Logger: logger, Level: zerolog.DebugLevel}
}

// Record satisfies Telemetry.
func (t *ZerologTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	if t == nil {
		return
	}
	t.Logger.WithLevel(t.Level).Str("event", event).Fields(payload).Msg("dashboard telemetry")
}
