package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-tradeboard/components/dashboard"
	"github.com/goliatone/go-tradeboard/components/dashboard/commands"
	"github.com/goliatone/go-tradeboard/components/dashboard/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
	run   func(T)
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	if s.run != nil {
		s.run(msg)
	}
	return s.err
}

type stubQuerier[I, O any] struct {
	result O
	err    error
	last   I
}

func (s *stubQuerier[I, O]) Query(_ context.Context, input I) (O, error) {
	s.last = input
	return s.result, s.err
}

func TestHandleMountWidget(t *testing.T) {
	mount := &stubCommander[commands.MountWidgetInput]{
		run: func(msg commands.MountWidgetInput) {
			*msg.Result = dashboard.WidgetSnapshot{ID: "w1", ActionKey: msg.ActionKey}
		},
	}
	api := &Handlers{API: &CommandExecutor{MountCommand: mount}}
	buf, _ := json.Marshal(map[string]any{
		"action_key":    dashboard.TradesDashboardKey,
		"configuration": map[string]any{"interval_seconds": 30},
	})
	req := httptest.NewRequest(http.MethodPost, "/widgets", bytes.NewReader(buf))
	req = req.WithContext(dashboard.ContextWithViewer(req.Context(), dashboard.ViewerContext{UserID: "trader"}))
	rec := httptest.NewRecorder()

	api.HandleMountWidget(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if mount.last.Viewer.UserID != "trader" {
		t.Fatalf("expected viewer from context, got %#v", mount.last.Viewer)
	}
	var snapshot dashboard.WidgetSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snapshot.ID != "w1" || snapshot.ActionKey != dashboard.TradesDashboardKey {
		t.Fatalf("unexpected snapshot %#v", snapshot)
	}
}

func TestHandleMountWidgetBadPayload(t *testing.T) {
	api := &Handlers{API: &CommandExecutor{}}
	req := httptest.NewRequest(http.MethodPost, "/widgets", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	api.HandleMountWidget(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleUnmountWidget(t *testing.T) {
	unmount := &stubCommander[commands.UnmountWidgetInput]{}
	api := &Handlers{API: &CommandExecutor{UnmountCommand: unmount}}
	req := httptest.NewRequest(http.MethodDelete, "/widgets/w1", nil)
	rec := httptest.NewRecorder()
	api.HandleUnmountWidget(rec, req, "w1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if unmount.last.WidgetID != "w1" {
		t.Fatalf("expected widget id w1, got %s", unmount.last.WidgetID)
	}
}

func TestHandleUnmountUnknownWidget(t *testing.T) {
	unmount := &stubCommander[commands.UnmountWidgetInput]{err: dashboard.ErrWidgetNotMounted}
	api := &Handlers{API: &CommandExecutor{UnmountCommand: unmount}}
	rec := httptest.NewRecorder()
	api.HandleUnmountWidget(rec, httptest.NewRequest(http.MethodDelete, "/widgets/x", nil), "x")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleRefreshWidget(t *testing.T) {
	refresh := &stubCommander[commands.RefreshWidgetInput]{}
	api := &Handlers{API: &CommandExecutor{RefreshCommand: refresh}}
	rec := httptest.NewRecorder()
	api.HandleRefreshWidget(rec, httptest.NewRequest(http.MethodPost, "/widgets/w1/refresh", nil), "w1")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if refresh.calls != 1 || refresh.last.WidgetID != "w1" {
		t.Fatalf("expected refresh for w1")
	}
}

func TestHandleRefreshWidgetRemoteFailure(t *testing.T) {
	refresh := &stubCommander[commands.RefreshWidgetInput]{
		err: &dashboard.RemoteCallError{Target: "dankbit.trade", Method: "get_market_summary", Err: errors.New("timeout")},
	}
	api := &Handlers{API: &CommandExecutor{RefreshCommand: refresh}}
	rec := httptest.NewRecorder()
	api.HandleRefreshWidget(rec, httptest.NewRequest(http.MethodPost, "/widgets/w1/refresh", nil), "w1")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestHandleWidgetSnapshot(t *testing.T) {
	query := &stubQuerier[queries.WidgetSnapshotInput, dashboard.WidgetSnapshot]{
		result: dashboard.WidgetSnapshot{ID: "w1", Data: dashboard.WidgetData{"btc_price": 50000}},
	}
	api := &Handlers{Snapshot: query}
	rec := httptest.NewRecorder()
	api.HandleWidgetSnapshot(rec, httptest.NewRequest(http.MethodGet, "/widgets/w1", nil), "w1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if query.last.WidgetID != "w1" {
		t.Fatalf("expected query for w1")
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"btc_price":50000`)) {
		t.Fatalf("expected data in body, got %s", rec.Body.String())
	}
}

func TestHandleActions(t *testing.T) {
	query := &stubQuerier[queries.ActionsInput, []dashboard.ActionDefinition]{
		result: []dashboard.ActionDefinition{dashboard.TradesDashboardAction()},
	}
	api := &Handlers{Actions: query}
	rec := httptest.NewRecorder()
	api.HandleActions(rec, httptest.NewRequest(http.MethodGet, "/actions?category=trading", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if query.last.Category != "trading" {
		t.Fatalf("expected category filter, got %q", query.last.Category)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		dashboard.ErrWidgetNotMounted:                          http.StatusNotFound,
		fmt.Errorf("%w: x", dashboard.ErrActionNotFound):       http.StatusNotFound,
		fmt.Errorf("%w: x", dashboard.ErrMountForbidden):       http.StatusForbidden,
		fmt.Errorf("%w: x", dashboard.ErrInvalidConfiguration): http.StatusBadRequest,
		&dashboard.RemoteCallError{Err: errors.New("down")}:    http.StatusBadGateway,
		errors.New("other"):                                    http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := StatusFor(err); got != want {
			t.Fatalf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestCommandExecutorRequiresCommands(t *testing.T) {
	exec := &CommandExecutor{}
	if err := exec.Mount(context.Background(), commands.MountWidgetInput{}); !errors.Is(err, errCommandNotConfigured) {
		t.Fatalf("expected errCommandNotConfigured, got %v", err)
	}
}
