package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cincinnati-graph/cincinnati/internal/plugins"
)

type echoConfig struct {
	Name string `mapstructure:"name" validate:"required"`
}

func TestBuildUnknownPluginFails(t *testing.T) {
	_, err := plugins.Build([]plugins.StageConfig{{Plugin: "does-not-exist"}})
	require.Error(t, err)
}

func TestDecodeOptionsValidatesRequiredFields(t *testing.T) {
	var cfg echoConfig
	err := plugins.DecodeOptions(map[string]any{}, &cfg)
	require.Error(t, err)

	err = plugins.DecodeOptions(map[string]any{"name": "x"}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "x", cfg.Name)
}

func TestRegisterPanicsOnDuplicateName(t *testing.T) {
	name := "catalog-test-duplicate"
	plugins.Register(name, func(options map[string]any) (plugins.Plugin, error) { return nil, nil })

	assert.Panics(t, func() {
		plugins.Register(name, func(options map[string]any) (plugins.Plugin, error) { return nil, nil })
	})
}
