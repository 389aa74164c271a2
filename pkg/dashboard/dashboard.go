// Package dashboard is the application-facing entry point: it re-exports the
// host service types and assembles a ready-to-serve Runtime from config.
package dashboard

import (
	core "github.com/goliatone/go-tradeboard/components/dashboard"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Snapshot is the read-only view of a mounted widget.
type Snapshot = core.WidgetSnapshot

// Viewer identifies who a widget is mounted for.
type Viewer = core.ViewerContext

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}
