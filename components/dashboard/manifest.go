package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// ActionManifestDocument models a YAML manifest describing client actions.
type ActionManifestDocument struct {
	Version  string           `json:"version" yaml:"version"`
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Package  string           `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage string           `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Actions  []ManifestAction `json:"actions" yaml:"actions"`
	Source   string           `json:"-" yaml:"-"`
}

// ManifestAction describes a single action entry within a manifest.
type ManifestAction struct {
	Action ActionDefinition `json:"action" yaml:"action"`
	Meta   ManifestMeta     `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// ManifestMeta captures discovery metadata about an action.
type ManifestMeta struct {
	Maintainers []string `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	DocsURL     string   `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
	Channel     string   `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// LoadManifest registers a batch of actions.
func (r *Registry) LoadManifest(items []ManifestAction) error {
	for _, item := range items {
		if err := r.RegisterAction(item.Action); err != nil {
			return err
		}
		r.recordManifestMetadata(item.Action.Key, item.Meta)
	}
	return nil
}

// LoadManifestFile reads a manifest from disk, registers it against the registry, and returns the document.
func (r *Registry) LoadManifestFile(path string) (*ActionManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers actions from a decoded manifest.
func (r *Registry) LoadManifestDocument(doc *ActionManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("dashboard: manifest document is nil")
	}
	if err := r.LoadManifest(doc.Actions); err != nil {
		return fmt.Errorf("dashboard: register actions from %s: %w", doc.Source, err)
	}
	return nil
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*ActionManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*ActionManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc ActionManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *ActionManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Actions))
	for idx, item := range doc.Actions {
		action := item.Action
		if action.Key == "" {
			return fmt.Errorf("dashboard: manifest action at index %d is missing action.key", idx)
		}
		if action.Target == "" || action.Method == "" {
			return fmt.Errorf("dashboard: manifest action %s requires target and method", action.Key)
		}
		if action.Period < 0 {
			return fmt.Errorf("dashboard: manifest action %s has negative period", action.Key)
		}
		if _, exists := seen[action.Key]; exists {
			return fmt.Errorf("dashboard: manifest duplicates action key %s", action.Key)
		}
		seen[action.Key] = struct{}{}
	}
	return nil
}

type actionYAML struct {
	Key         string         `yaml:"key"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Category    string         `yaml:"category,omitempty"`
	Target      string         `yaml:"target"`
	Method      string         `yaml:"method"`
	Period      string         `yaml:"period,omitempty"`
	Template    string         `yaml:"template,omitempty"`
	Schema      map[string]any `yaml:"schema,omitempty"`
}

// MarshalYAML writes the period as a duration string, the only form the
// decoder accepts.
func (d ActionDefinition) MarshalYAML() (any, error) {
	out := actionYAML{
		Key:         d.Key,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Target:      d.Target,
		Method:      d.Method,
		Template:    d.Template,
		Schema:      d.Schema,
	}
	if d.Period > 0 {
		out.Period = d.Period.String()
	}
	return out, nil
}

func (m ManifestMeta) isZero() bool {
	return len(m.Maintainers) == 0 &&
		len(m.Tags) == 0 &&
		m.DocsURL == "" &&
		m.Channel == ""
}
