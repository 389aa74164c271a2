package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	core "github.com/goliatone/go-tradeboard/components/dashboard"
	"github.com/goliatone/go-tradeboard/pkg/config"
	"github.com/goliatone/go-tradeboard/pkg/rpc"
)

// RuntimeOptions assembles a Runtime from loaded configuration.
type RuntimeOptions struct {
	Config config.Config
	// Caller overrides the JSON-RPC client built from Config.RPC.
	Caller    core.RemoteCaller
	Scheduler core.Scheduler
	Renderer  core.Renderer
	Hooks     []core.RefreshHook
	Logger    zerolog.Logger
}

// Runtime bundles the registry, host service, broadcast hook and controller a
// process needs to serve widgets.
type Runtime struct {
	Registry   *core.Registry
	Service    *core.Service
	Broadcast  *core.BroadcastHook
	Controller *core.Controller
	Caller     core.RemoteCaller
	Logger     zerolog.Logger
}

// NewRuntime loads actions (built-ins plus the configured manifest) and wires
// the service with broadcast and logging hooks.
func NewRuntime(opts RuntimeOptions) (*Runtime, error) {
	logger := opts.Logger
	caller := opts.Caller
	if caller == nil {
		client, err := rpc.NewHTTPClient(rpc.HTTPConfig{
			BaseURL:   opts.Config.RPC.BaseURL,
			APIKey:    opts.Config.RPC.APIKey,
			SessionID: opts.Config.RPC.SessionID,
			Timeout:   opts.Config.RPC.Timeout,
			Logger:    logger.With().Str("component", "rpc").Logger(),
		})
		if err != nil {
			return nil, err
		}
		caller = client
	}

	registry := core.NewRegistry()
	bootstrap := core.BootstrapOptions{RefreshInterval: opts.Config.Dashboard.RefreshInterval}
	if opts.Config.Dashboard.Manifest != "" {
		bootstrap.ManifestPaths = []string{opts.Config.Dashboard.Manifest}
	}
	if err := core.Bootstrap(registry, bootstrap); err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}

	renderer := opts.Renderer
	if renderer == nil {
		r, err := core.NewTemplateRenderer()
		if err != nil {
			return nil, fmt.Errorf("runtime: templates: %w", err)
		}
		renderer = r
	}

	broadcast := core.NewBroadcastHook()
	broadcast.Logger = logger
	hooks := core.MultiHook{broadcast, core.LoggingHook{Logger: logger}}
	hooks = append(hooks, opts.Hooks...)

	service := core.NewService(core.Options{
		Registry:    registry,
		Caller:      caller,
		Scheduler:   opts.Scheduler,
		RefreshHook: hooks,
		Telemetry:   core.NewZerologTelemetry(logger),
		Logger:      logger,
	})

	return &Runtime{
		Registry:  registry,
		Service:   service,
		Broadcast: broadcast,
		Controller: core.NewController(core.ControllerOptions{
			Service:  service,
			Renderer: renderer,
			Charts:   core.NewHistoryChart(),
		}),
		Caller: caller,
		Logger: logger,
	}, nil
}

// MountDefaults mounts every built-in action for viewer.
func (r *Runtime) MountDefaults(ctx context.Context, viewer Viewer) ([]Snapshot, error) {
	defs := core.DefaultActions()
	keys := make([]string, 0, len(defs))
	for _, def := range defs {
		keys = append(keys, def.Key)
	}
	return core.MountActions(ctx, r.Service, viewer, keys...)
}

// Close unmounts every widget and disconnects broadcast subscribers.
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil {
		return errors.New("runtime: nil runtime")
	}
	err := r.Service.Close(ctx)
	r.Broadcast.Close()
	return err
}
