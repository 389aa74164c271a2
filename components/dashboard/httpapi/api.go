package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-tradeboard/components/dashboard"
	"github.com/goliatone/go-tradeboard/components/dashboard/commands"
	"github.com/goliatone/go-tradeboard/components/dashboard/queries"
)

// Executor is the transport-facing write surface. Router adapters depend on it
// instead of individual commands.
type Executor interface {
	Mount(ctx context.Context, input commands.MountWidgetInput) error
	Unmount(ctx context.Context, input commands.UnmountWidgetInput) error
	Refresh(ctx context.Context, input commands.RefreshWidgetInput) error
}

// CommandExecutor implements Executor on top of go-command commanders.
type CommandExecutor struct {
	MountCommand   gocommand.Commander[commands.MountWidgetInput]
	UnmountCommand gocommand.Commander[commands.UnmountWidgetInput]
	RefreshCommand gocommand.Commander[commands.RefreshWidgetInput]
}

var errCommandNotConfigured = errors.New("httpapi: command not configured")

// NewCommandExecutor builds the default command set against a service.
func NewCommandExecutor(service *dashboard.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		MountCommand:   commands.NewMountWidgetCommand(service, telemetry),
		UnmountCommand: commands.NewUnmountWidgetCommand(service, telemetry),
		RefreshCommand: commands.NewRefreshWidgetCommand(service, telemetry),
	}
}

func (e *CommandExecutor) Mount(ctx context.Context, input commands.MountWidgetInput) error {
	if e.MountCommand == nil {
		return errCommandNotConfigured
	}
	return e.MountCommand.Execute(ctx, input)
}

func (e *CommandExecutor) Unmount(ctx context.Context, input commands.UnmountWidgetInput) error {
	if e.UnmountCommand == nil {
		return errCommandNotConfigured
	}
	return e.UnmountCommand.Execute(ctx, input)
}

func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshWidgetInput) error {
	if e.RefreshCommand == nil {
		return errCommandNotConfigured
	}
	return e.RefreshCommand.Execute(ctx, input)
}

// Handlers exposes net/http endpoints backed by shared commands and queries.
type Handlers struct {
	API      Executor
	Snapshot gocommand.Querier[queries.WidgetSnapshotInput, dashboard.WidgetSnapshot]
	Actions  gocommand.Querier[queries.ActionsInput, []dashboard.ActionDefinition]
}

func (h *Handlers) HandleMountWidget(w http.ResponseWriter, r *http.Request) {
	var payload commands.MountWidgetInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if viewer, ok := dashboard.ViewerFromContext(r.Context()); ok {
		payload.Viewer = viewer
	}
	var snapshot dashboard.WidgetSnapshot
	payload.Result = &snapshot
	if err := h.API.Mount(r.Context(), payload); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

func (h *Handlers) HandleUnmountWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	input := commands.UnmountWidgetInput{WidgetID: widgetID}
	if viewer, ok := dashboard.ViewerFromContext(r.Context()); ok {
		input.ActorID = viewer.UserID
	}
	if err := h.API.Unmount(r.Context(), input); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleRefreshWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	if err := h.API.Refresh(r.Context(), commands.RefreshWidgetInput{WidgetID: widgetID}); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleWidgetSnapshot(w http.ResponseWriter, r *http.Request, widgetID string) {
	if h.Snapshot == nil {
		writeError(w, http.StatusNotImplemented, errCommandNotConfigured)
		return
	}
	snapshot, err := h.Snapshot.Query(r.Context(), queries.WidgetSnapshotInput{WidgetID: widgetID})
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handlers) HandleActions(w http.ResponseWriter, r *http.Request) {
	if h.Actions == nil {
		writeError(w, http.StatusNotImplemented, errCommandNotConfigured)
		return
	}
	actions, err := h.Actions.Query(r.Context(), queries.ActionsInput{Category: r.URL.Query().Get("category")})
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

// StatusFor maps dashboard errors onto HTTP status codes.
func StatusFor(err error) int {
	var callErr *dashboard.RemoteCallError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dashboard.ErrWidgetNotMounted), errors.Is(err, dashboard.ErrActionNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrMountForbidden):
		return http.StatusForbidden
	case errors.Is(err, dashboard.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.As(err, &callErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
