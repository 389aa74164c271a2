package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidConfiguration marks mount configuration rejected by the action schema.
var ErrInvalidConfiguration = errors.New("dashboard: invalid configuration")

// ConfigValidator validates mount configuration payloads against the action schema.
type ConfigValidator interface {
	Validate(def ActionDefinition, config map[string]any) error
}

// JSONSchemaValidator compiles action schemas once and validates configuration maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures the provided configuration satisfies the action schema.
func (v *JSONSchemaValidator) Validate(def ActionDefinition, config map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	payload := map[string]any{}
	if config != nil {
		// round-trip so Go ints become JSON numbers the validator understands
		data, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("dashboard: marshal config for %s: %w", def.Key, err)
		}
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil {
			return fmt.Errorf("dashboard: normalize config for %s: %w", def.Key, err)
		}
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w for %s: %w", ErrInvalidConfiguration, def.Key, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(def ActionDefinition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Key]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Key, err)
	}
	compiler := jsonschema.NewCompiler()
	name := def.Key + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Key, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", def.Key, err)
	}
	v.mu.Lock()
	v.compiled[def.Key] = compiled
	v.mu.Unlock()
	return compiled, nil
}
