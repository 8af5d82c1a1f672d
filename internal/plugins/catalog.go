package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
)

// Factory builds a Plugin from its options. options is the raw
// map[string]any block read from the pipeline's YAML definition; each
// factory decodes and validates it itself (typically via DecodeOptions).
type Factory func(options map[string]any) (Plugin, error)

var (
	catalogMu sync.Mutex
	catalog   = make(map[string]Factory)
)

// Register adds a plugin factory to the catalog under name. It panics on a
// duplicate name, the same way the teacher's ServiceRegistry.Register does
// for duplicate service names — a collision here is a programming error,
// not a runtime condition to recover from.
func Register(name string, factory Factory) {
	catalogMu.Lock()
	defer catalogMu.Unlock()

	if _, exists := catalog[name]; exists {
		panic(fmt.Sprintf("plugins: factory already registered for %q", name))
	}
	catalog[name] = factory
}

// Names returns every registered plugin name, sorted, mainly for
// diagnostics and tests.
func Names() []string {
	catalogMu.Lock()
	defer catalogMu.Unlock()

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StageConfig is one entry of a pipeline definition: which registered
// plugin to instantiate, and the options block to decode into its config
// struct.
type StageConfig struct {
	Plugin  string         `yaml:"plugin"`
	Options map[string]any `yaml:"options"`
}

var validate = validator.New()

// Build instantiates a full pipeline (ordered []Plugin) from a list of
// stage configs, in order. An unknown plugin name or a factory error stops
// the build immediately: a pipeline either builds completely or not at all.
func Build(stages []StageConfig) ([]Plugin, error) {
	catalogMu.Lock()
	snapshot := make(map[string]Factory, len(catalog))
	for name, factory := range catalog {
		snapshot[name] = factory
	}
	catalogMu.Unlock()

	built := make([]Plugin, 0, len(stages))
	for _, stage := range stages {
		factory, ok := snapshot[stage.Plugin]
		if !ok {
			return nil, cerrors.New(cerrors.KindInvalidPluginConfig,
				fmt.Sprintf("unknown plugin %q", stage.Plugin))
		}

		p, err := factory(stage.Options)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.KindInvalidPluginConfig, stage.Plugin, err)
		}
		built = append(built, p)
	}

	return built, nil
}

// DecodeOptions decodes a raw options block into dst (a pointer to a typed
// config struct) and then runs struct-tag validation over it, the Go
// analogue of the original's toml::Value::try_into followed by manual field
// checks.
func DecodeOptions(options map[string]any, dst any) error {
	if err := mapstructure.Decode(options, dst); err != nil {
		return fmt.Errorf("decoding plugin options: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validating plugin options: %w", err)
	}
	return nil
}
