package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BootstrapOptions lists the action sources loaded at startup.
type BootstrapOptions struct {
	// SkipDefaults leaves out the built-in trades dashboard action.
	SkipDefaults bool
	// RefreshInterval replaces the period of the built-in actions when positive.
	RefreshInterval time.Duration
	ManifestPaths   []string
}

// Bootstrap populates reg with the built-in actions and every manifest listed in opts.
func Bootstrap(reg *Registry, opts BootstrapOptions) error {
	if reg == nil {
		return errors.New("dashboard: registry is required to bootstrap actions")
	}
	if !opts.SkipDefaults {
		for _, def := range DefaultActions() {
			if opts.RefreshInterval > 0 {
				def.Period = opts.RefreshInterval
			}
			if err := reg.RegisterAction(def); err != nil {
				return fmt.Errorf("dashboard: register default actions: %w", err)
			}
		}
	}
	for _, path := range opts.ManifestPaths {
		if path == "" {
			continue
		}
		if _, err := reg.LoadManifestFile(path); err != nil {
			return err
		}
	}
	return nil
}

// MountActions mounts one widget per action key for viewer. Every key is
// attempted; failures are joined.
func MountActions(ctx context.Context, service *Service, viewer ViewerContext, keys ...string) ([]WidgetSnapshot, error) {
	if service == nil {
		return nil, errors.New("dashboard: service is required to mount actions")
	}
	var (
		mounted  []WidgetSnapshot
		mountErr error
	)
	for _, key := range keys {
		snapshot, err := service.Mount(ctx, MountRequest{ActionKey: key, Viewer: viewer})
		if err != nil {
			mountErr = errors.Join(mountErr, fmt.Errorf("mount %s: %w", key, err))
			continue
		}
		mounted = append(mounted, snapshot)
	}
	return mounted, mountErr
}
