package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tradeboard/components/dashboard"
	"github.com/goliatone/go-tradeboard/pkg/config"
	pkgdashboard "github.com/goliatone/go-tradeboard/pkg/dashboard"
	"github.com/goliatone/go-tradeboard/pkg/logging"
	"github.com/goliatone/go-tradeboard/pkg/rpc"
)

type Globals struct {
	Config string `type:"path" help:"Path to a YAML config file (defaults to $TRADEBOARD_CONFIG)."`
}

type cli struct {
	Globals

	Poll     pollCmd     `cmd:"" help:"Mount an action headlessly and print every refresh."`
	Scaffold scaffoldCmd `cmd:"" help:"Add an action entry to a manifest."`
}

type pollCmd struct {
	Action   string        `arg:"" optional:"" default:"dankbit.trades_dashboard" help:"Action key to mount."`
	Interval time.Duration `help:"Override the action refresh period (whole seconds, at least 1s)."`
	For      time.Duration `name:"for" help:"Stop after this long; runs until interrupted when zero."`
	Mock     bool          `help:"Serve summaries from an in-memory drifting market instead of the backend."`
}

type scaffoldCmd struct {
	Key          string        `required:"" help:"Fully-qualified action key (e.g. dankbit.open_interest)."`
	Name         string        `required:"" help:"Display name for the widget."`
	Description  string        `help:"One-line description used in manifests."`
	Category     string        `default:"trading" help:"Action category."`
	Target       string        `required:"" help:"Remote model or service the widget polls."`
	Method       string        `required:"" help:"Remote method returning the summary."`
	Period       time.Duration `default:"60s" help:"Refresh period."`
	Template     string        `help:"Template name (defaults to the snake-cased last key segment)."`
	ManifestPath string        `required:"" type:"path" help:"Path to the manifest YAML file to update."`
	SchemaPath   string        `type:"path" help:"Optional JSON schema for the mount configuration."`
	Tag          []string      `help:"Tags to record in the manifest (repeatable)."`
	Maintainer   []string      `help:"Maintainers to record in the manifest (repeatable)."`
	DocsURL      string        `help:"Link to the action documentation."`
	Channel      string        `help:"Distribution channel label (stable, beta, internal)."`
	Overwrite    bool          `help:"Replace an existing entry with the same key."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli{}
	parser := kong.Parse(app,
		kong.Description("Widget utility for go-tradeboard actions."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := parser.Run(&app.Globals)
	parser.FatalIfErrorf(err)
}

func (cmd *pollCmd) Run(ctx context.Context, g *Globals) error {
	if err := cmd.validate(); err != nil {
		return err
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	opts := pkgdashboard.RuntimeOptions{Config: cfg, Logger: logger}
	if cmd.Mock {
		mock := rpc.NewMockClient()
		mock.Handle(dashboard.TradeModel, dashboard.MarketSummaryMethod, rpc.MarketDrift(50000, 250))
		opts.Caller = mock
	}
	rt, err := pkgdashboard.NewRuntime(opts)
	if err != nil {
		return err
	}

	if cmd.For > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.For)
		defer cancel()
	}
	return cmd.poll(ctx, rt, os.Stdout)
}

func (cmd *pollCmd) validate() error {
	if cmd.Interval != 0 && cmd.Interval < time.Second {
		return fmt.Errorf("widgetctl: interval must be at least one second, got %s", cmd.Interval)
	}
	if cmd.Interval%time.Second != 0 {
		return fmt.Errorf("widgetctl: interval must be whole seconds, got %s", cmd.Interval)
	}
	return nil
}

func (cmd *pollCmd) poll(ctx context.Context, rt *pkgdashboard.Runtime, out io.Writer) error {
	if err := cmd.validate(); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = rt.Close(closeCtx)
	}()

	events, unsubscribe := rt.Broadcast.Subscribe(nil)
	defer unsubscribe()

	req := dashboard.MountRequest{
		ActionKey: cmd.Action,
		Viewer:    dashboard.ViewerContext{UserID: "widgetctl"},
	}
	if cmd.Interval > 0 {
		req.Configuration = map[string]any{"interval_seconds": int(cmd.Interval / time.Second)}
	}
	if _, err := rt.Service.Mount(ctx, req); err != nil {
		return fmt.Errorf("widgetctl: mount %s: %w", cmd.Action, err)
	}

	encoder := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := encoder.Encode(event); err != nil {
				return fmt.Errorf("widgetctl: write event: %w", err)
			}
		}
	}
}

func (cmd *scaffoldCmd) Run() error {
	if err := cmd.validate(); err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("widgetctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	schema, err := cmd.loadSchema()
	if err != nil {
		return err
	}

	entry := dashboard.ManifestAction{
		Action: dashboard.ActionDefinition{
			Key:         cmd.Key,
			Name:        cmd.Name,
			Description: cmd.Description,
			Category:    cmd.Category,
			Target:      cmd.Target,
			Method:      cmd.Method,
			Period:      cmd.Period,
			Template:    cmd.template(),
			Schema:      schema,
		},
		Meta: dashboard.ManifestMeta{
			Maintainers: cmd.Maintainer,
			Tags:        cmd.Tag,
			DocsURL:     cmd.DocsURL,
			Channel:     cmd.Channel,
		},
	}
	if err := upsertAction(doc, entry, cmd.Overwrite); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Added %s to %s (template %s)\n", cmd.Key, manifestPath, entry.Action.Template)
	return nil
}

func (cmd *scaffoldCmd) validate() error {
	if !strings.Contains(cmd.Key, ".") {
		return fmt.Errorf("widgetctl: action key %s must contain at least one '.' segment", cmd.Key)
	}
	if cmd.Period < time.Second {
		return fmt.Errorf("widgetctl: period must be at least one second")
	}
	return nil
}

func (cmd *scaffoldCmd) template() string {
	if cmd.Template != "" {
		return cmd.Template
	}
	return deriveTemplateName(cmd.Key)
}

func (cmd *scaffoldCmd) loadSchema() (map[string]any, error) {
	if cmd.SchemaPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(cmd.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("widgetctl: read schema file: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("widgetctl: parse schema JSON: %w", err)
	}
	return schema, nil
}

func upsertAction(doc *dashboard.ActionManifestDocument, entry dashboard.ManifestAction, overwrite bool) error {
	replaced := false
	for idx := range doc.Actions {
		if doc.Actions[idx].Action.Key != entry.Action.Key {
			continue
		}
		if !overwrite {
			return fmt.Errorf("widgetctl: manifest already defines action %s (use --overwrite to replace)", entry.Action.Key)
		}
		doc.Actions[idx] = entry
		replaced = true
		break
	}
	if !replaced {
		doc.Actions = append(doc.Actions, entry)
	}
	sort.Slice(doc.Actions, func(i, j int) bool {
		return doc.Actions[i].Action.Key < doc.Actions[j].Action.Key
	})
	return nil
}

func loadOrInitManifest(path string) (*dashboard.ActionManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.ActionManifestDocument{
				Version: dashboard.ManifestVersion,
				Actions: []dashboard.ManifestAction{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("widgetctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.ActionManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("widgetctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("widgetctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("widgetctl: write manifest: %w", err)
	}
	return nil
}

func deriveTemplateName(key string) string {
	parts := strings.Split(key, ".")
	slug := strings.TrimSpace(parts[len(parts)-1])
	if slug == "" {
		slug = key
	}
	return strcase.ToSnake(slug)
}
