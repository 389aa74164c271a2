package commands

import (
	"context"
	"errors"
	"time"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

// BootstrapInput controls startup behavior: which manifests to load and which
// actions to mount for the viewer afterwards.
type BootstrapInput struct {
	SkipDefaults    bool
	RefreshInterval time.Duration
	ManifestPaths   []string
	MountActions    []string
	Viewer          dashboard.ViewerContext
}

// BootstrapCommand registers actions and optionally mounts a starter set.
type BootstrapCommand struct {
	registry  *dashboard.Registry
	service   *dashboard.Service
	telemetry Telemetry
}

// NewBootstrapCommand wires dependencies.
func NewBootstrapCommand(registry *dashboard.Registry, service *dashboard.Service, telemetry Telemetry) *BootstrapCommand {
	return &BootstrapCommand{
		registry:  registry,
		service:   service,
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[BootstrapInput] = (*BootstrapCommand)(nil)

// Execute runs the bootstrap pipeline.
func (c *BootstrapCommand) Execute(ctx context.Context, msg BootstrapInput) error {
	if c.registry == nil {
		return errors.New("bootstrap command requires registry")
	}
	if err := dashboard.Bootstrap(c.registry, dashboard.BootstrapOptions{
		SkipDefaults:    msg.SkipDefaults,
		RefreshInterval: msg.RefreshInterval,
		ManifestPaths:   msg.ManifestPaths,
	}); err != nil {
		return err
	}
	mounted := 0
	if len(msg.MountActions) > 0 && c.service != nil {
		snapshots, err := dashboard.MountActions(ctx, c.service, msg.Viewer, msg.MountActions...)
		mounted = len(snapshots)
		if err != nil {
			return err
		}
	}
	c.telemetry.Record(ctx, "dashboard.bootstrap", map[string]any{
		"manifests": len(msg.ManifestPaths),
		"mounted":   mounted,
	})
	return nil
}
