package queries

import (
	"context"
	"testing"

	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

type stubService struct {
	snapshotCalls int
}

func (s *stubService) Snapshot(_ context.Context, id string) (dashboard.WidgetSnapshot, error) {
	s.snapshotCalls++
	return dashboard.WidgetSnapshot{ID: id}, nil
}

func (s *stubService) Mounted(context.Context) []dashboard.WidgetSnapshot {
	return []dashboard.WidgetSnapshot{
		{ID: "w1", Viewer: dashboard.ViewerContext{UserID: "alice"}},
		{ID: "w2", Viewer: dashboard.ViewerContext{UserID: "bob"}},
	}
}

func (s *stubService) Actions(context.Context) []dashboard.ActionDefinition {
	return []dashboard.ActionDefinition{
		{Key: "a", Category: "ops"},
		dashboard.TradesDashboardAction(),
	}
}

func TestWidgetSnapshotQuery(t *testing.T) {
	service := &stubService{}
	query := NewWidgetSnapshotQuery(service)
	snapshot, err := query.Query(context.Background(), WidgetSnapshotInput{WidgetID: "w1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if snapshot.ID != "w1" || service.snapshotCalls != 1 {
		t.Fatalf("unexpected snapshot %#v after %d calls", snapshot, service.snapshotCalls)
	}
}

func TestMountedWidgetsQueryFiltersByUser(t *testing.T) {
	query := NewMountedWidgetsQuery(&stubService{})
	all, err := query.Query(context.Background(), MountedWidgetsInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 widgets, got %d", len(all))
	}
	mine, _ := query.Query(context.Background(), MountedWidgetsInput{UserID: "bob"})
	if len(mine) != 1 || mine[0].ID != "w2" {
		t.Fatalf("expected bob's widget, got %#v", mine)
	}
}

func TestActionsQueryFiltersByCategory(t *testing.T) {
	query := NewActionsQuery(&stubService{})
	actions, err := query.Query(context.Background(), ActionsInput{Category: "trading"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(actions) != 1 || actions[0].Key != dashboard.TradesDashboardKey {
		t.Fatalf("expected trades dashboard action, got %#v", actions)
	}
}
