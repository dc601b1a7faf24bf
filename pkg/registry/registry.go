// Package registry holds the node-kind catalog: the step types the engine
// accepts and the JSON schema each type's config payload must satisfy. The
// engine never interprets a config beyond schema validation; the payload is
// consumed by whichever external system runs the step.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var ErrUnknownKind = errors.New("unknown node kind")

// KindSpec declares one node kind and the schema its config must satisfy.
type KindSpec struct {
	Type         models.NodeType
	Description  string
	ConfigSchema string // JSON schema document
}

type kindEntry struct {
	spec   KindSpec
	schema *gojsonschema.Schema
}

// Registry is the set of registered node kinds.
type Registry struct {
	kinds map[models.NodeType]*kindEntry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{kinds: make(map[models.NodeType]*kindEntry)}
}

// Register compiles the kind's config schema and adds it to the registry.
func (r *Registry) Register(spec KindSpec) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(spec.ConfigSchema))
	if err != nil {
		return fmt.Errorf("failed to compile config schema for kind %s: %w", spec.Type, err)
	}

	r.kinds[spec.Type] = &kindEntry{spec: spec, schema: schema}

	return nil
}

// ValidateConfig checks a node's config payload against its kind's schema.
func (r *Registry) ValidateConfig(nodeType models.NodeType, config map[string]any) error {
	entry, ok := r.kinds[nodeType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, nodeType)
	}

	if config == nil {
		config = map[string]any{}
	}

	payload, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal node config: %w", err)
	}

	result, err := entry.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("failed to validate node config: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return errors.New(strings.Join(details, "; "))
	}

	return nil
}

// Kinds returns the registered kinds sorted by type name.
func (r *Registry) Kinds() []KindSpec {
	specs := make([]KindSpec, 0, len(r.kinds))
	for _, entry := range r.kinds {
		specs = append(specs, entry.spec)
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Type < specs[j].Type })

	return specs
}

// HealthCheck reports whether the registry is usable.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.kinds) == 0 {
		return "No node kinds registered", false
	}

	return fmt.Sprintf("%d node kinds registered", len(r.kinds)), true
}
