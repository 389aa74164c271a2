package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-tradeboard/components/dashboard"
	"github.com/goliatone/go-tradeboard/components/dashboard/commands"
	"github.com/goliatone/go-tradeboard/components/dashboard/httpapi"
	"github.com/goliatone/go-tradeboard/components/dashboard/queries"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the dashboard controller, commands, and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            httpapi.Executor
	Actions        gocommand.Querier[queries.ActionsInput, []dashboard.ActionDefinition]
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Actions   string
	Widgets   string
	WidgetID  string
	State     string
	Refresh   string
	WebSocket string
}

// Register mounts widget routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/dashboard"
	}
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}
	group := cfg.Router.Group(base)
	registerRoutes(group, routeHandlers{
		controller: cfg.Controller,
		api:        cfg.API,
		actions:    cfg.Actions,
	}, resolver, defaultRouteConfig(cfg.Routes))

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, defaultRouteConfig(cfg.Routes).WebSocket)
	}
	return nil
}

// routeRegistrar is the part of router.Router the HTTP routes need.
type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

func registerRoutes(r routeRegistrar, h routeHandlers, resolver ViewerResolver, routes RouteConfig) {
	wrap := func(fn func(routeContext, dashboard.ViewerContext) error) router.HandlerFunc {
		return router.WrapHandler(func(ctx router.Context) error {
			return fn(routerContext{rc: ctx}, resolver(ctx))
		})
	}

	r.Get(routes.WidgetID, wrap(h.widgetHTML))
	r.Get(routes.State, wrap(h.widgetState))

	if h.actions != nil {
		r.Get(routes.Actions, wrap(h.listActions))
	}
	if h.api != nil {
		r.Post(routes.Widgets, wrap(h.mountWidget))
		r.Delete(routes.WidgetID, wrap(h.unmountWidget))
		r.Post(routes.Refresh, wrap(h.refreshWidget))
	}
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		err := hook.Stream(ws.Context(), nil, func(event dashboard.WidgetEvent) error {
			return ws.WriteJSON(event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return ws.Close()
	})
}

type routeHandlers struct {
	controller *dashboard.Controller
	api        httpapi.Executor
	actions    gocommand.Querier[queries.ActionsInput, []dashboard.ActionDefinition]
}

func (h routeHandlers) widgetHTML(ctx routeContext, viewer dashboard.ViewerContext) error {
	var buf bytes.Buffer
	reqCtx := dashboard.ContextWithViewer(ctx.Context(), viewer)
	if err := h.controller.RenderWidget(reqCtx, ctx.Param("id"), &buf); err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.HTML(buf.Bytes())
}

func (h routeHandlers) widgetState(ctx routeContext, _ dashboard.ViewerContext) error {
	payload, err := h.controller.StatePayload(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(http.StatusOK, payload)
}

func (h routeHandlers) listActions(ctx routeContext, _ dashboard.ViewerContext) error {
	actions, err := h.actions.Query(ctx.Context(), queries.ActionsInput{Category: ctx.Query("category")})
	if err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(http.StatusOK, actions)
}

func (h routeHandlers) mountWidget(ctx routeContext, viewer dashboard.ViewerContext) error {
	var payload commands.MountWidgetInput
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return respondError(ctx, http.StatusBadRequest, err)
	}
	var snapshot dashboard.WidgetSnapshot
	payload.Viewer = viewer
	payload.Result = &snapshot
	if err := h.api.Mount(dashboard.ContextWithViewer(ctx.Context(), viewer), payload); err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(http.StatusCreated, snapshot)
}

func (h routeHandlers) unmountWidget(ctx routeContext, viewer dashboard.ViewerContext) error {
	id := ctx.Param("id")
	if id == "" {
		return respondError(ctx, http.StatusBadRequest, errors.New("widget id is required"))
	}
	input := commands.UnmountWidgetInput{WidgetID: id, ActorID: viewer.UserID}
	if err := h.api.Unmount(ctx.Context(), input); err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "unmounted"})
}

func (h routeHandlers) refreshWidget(ctx routeContext, _ dashboard.ViewerContext) error {
	id := ctx.Param("id")
	if err := h.api.Refresh(ctx.Context(), commands.RefreshWidgetInput{WidgetID: id}); err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(http.StatusAccepted, map[string]string{"status": "refreshed"})
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	return viewerFrom(routerContext{rc: ctx})
}

func viewerFrom(ctx routeContext) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Local("user_id").(string); ok {
		viewer.UserID = v
	}
	if roles, ok := ctx.Local("roles").([]string); ok {
		viewer.Roles = roles
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx routeContext) string {
	if locale, ok := ctx.Local("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return parseAcceptLanguage(ctx.Header("Accept-Language"))
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx routeContext, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Actions == "" {
		routes.Actions = "/actions"
	}
	if routes.Widgets == "" {
		routes.Widgets = "/widgets"
	}
	if routes.WidgetID == "" {
		routes.WidgetID = "/widgets/:id"
	}
	if routes.State == "" {
		routes.State = "/widgets/:id/state"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/widgets/:id/refresh"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
