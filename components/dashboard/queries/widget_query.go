package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

// WidgetSnapshotInput identifies a mounted widget.
type WidgetSnapshotInput struct {
	WidgetID string `json:"widget_id"`
}

type snapshotService interface {
	Snapshot(ctx context.Context, widgetID string) (dashboard.WidgetSnapshot, error)
}

// WidgetSnapshotQuery fetches the current view of a mounted widget.
type WidgetSnapshotQuery struct {
	service snapshotService
}

// NewWidgetSnapshotQuery builds the query.
func NewWidgetSnapshotQuery(service snapshotService) *WidgetSnapshotQuery {
	return &WidgetSnapshotQuery{service: service}
}

var _ gocommand.Querier[WidgetSnapshotInput, dashboard.WidgetSnapshot] = (*WidgetSnapshotQuery)(nil)

// Query returns the widget snapshot.
func (q *WidgetSnapshotQuery) Query(ctx context.Context, input WidgetSnapshotInput) (dashboard.WidgetSnapshot, error) {
	return q.service.Snapshot(ctx, input.WidgetID)
}

// MountedWidgetsInput filters mounted widgets. An empty UserID lists every widget.
type MountedWidgetsInput struct {
	UserID string `json:"user_id,omitempty"`
}

type mountedService interface {
	Mounted(ctx context.Context) []dashboard.WidgetSnapshot
}

// MountedWidgetsQuery lists mounted widgets.
type MountedWidgetsQuery struct {
	service mountedService
}

// NewMountedWidgetsQuery builds the query.
func NewMountedWidgetsQuery(service mountedService) *MountedWidgetsQuery {
	return &MountedWidgetsQuery{service: service}
}

var _ gocommand.Querier[MountedWidgetsInput, []dashboard.WidgetSnapshot] = (*MountedWidgetsQuery)(nil)

// Query lists widgets, optionally only those mounted for one viewer.
func (q *MountedWidgetsQuery) Query(ctx context.Context, input MountedWidgetsInput) ([]dashboard.WidgetSnapshot, error) {
	all := q.service.Mounted(ctx)
	if input.UserID == "" {
		return all, nil
	}
	filtered := make([]dashboard.WidgetSnapshot, 0, len(all))
	for _, snapshot := range all {
		if snapshot.Viewer.UserID == input.UserID {
			filtered = append(filtered, snapshot)
		}
	}
	return filtered, nil
}
