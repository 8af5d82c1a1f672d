// Package config loads the builder's and policy-engine's configuration the
// way the teacher's pkg/config does: a YAML file provides structural
// defaults, then environment variables (plus an optional .env file) layer
// on top.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cincinnati-graph/cincinnati/internal/plugins"
)

// ServerConfig controls one HTTP listener.
type ServerConfig struct {
	Address        string `yaml:"address" env:"SERVER_ADDRESS"`
	MetricsAddress string `yaml:"metrics_address" env:"SERVER_METRICS_ADDRESS"`
}

// LoggingConfig controls the structured logger every component builds at
// startup.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// TracingConfig names the service as it should appear in emitted spans.
type TracingConfig struct {
	ServiceName string `yaml:"service_name" env:"TRACING_SERVICE_NAME"`
}

// BuilderConfig is the graph-builder's full configuration.
type BuilderConfig struct {
	Server      ServerConfig          `yaml:"server"`
	Logging     LoggingConfig         `yaml:"logging"`
	Tracing     TracingConfig         `yaml:"tracing"`
	PauseSeconds int                  `yaml:"pause_seconds" env:"GRAPH_BUILDER_PAUSE_SECONDS"`
	Pipeline    []plugins.StageConfig `yaml:"pipeline"`
}

// PolicyEngineConfig is the policy-engine's full configuration.
type PolicyEngineConfig struct {
	Server          ServerConfig          `yaml:"server"`
	Logging         LoggingConfig         `yaml:"logging"`
	Tracing         TracingConfig         `yaml:"tracing"`
	PathPrefix      string                `yaml:"path_prefix" env:"POLICY_ENGINE_PATH_PREFIX"`
	MandatoryParams string                `yaml:"mandatory_params" env:"POLICY_ENGINE_MANDATORY_PARAMS"`
	ContentType     string                `yaml:"content_type" env:"POLICY_ENGINE_CONTENT_TYPE"`
	UpstreamURL     string                `yaml:"upstream_url" env:"POLICY_ENGINE_UPSTREAM_URL"`
	Pipeline        []plugins.StageConfig `yaml:"pipeline"`
}

// NewBuilderConfig returns a BuilderConfig populated with defaults.
func NewBuilderConfig() *BuilderConfig {
	return &BuilderConfig{
		Server: ServerConfig{
			Address:        "0.0.0.0:8080",
			MetricsAddress: "0.0.0.0:9090",
		},
		Logging:      LoggingConfig{Level: "info", Format: "text"},
		Tracing:      TracingConfig{ServiceName: "graph-builder"},
		PauseSeconds: 300,
	}
}

// NewPolicyEngineConfig returns a PolicyEngineConfig populated with
// defaults.
func NewPolicyEngineConfig() *PolicyEngineConfig {
	return &PolicyEngineConfig{
		Server: ServerConfig{
			Address:        "0.0.0.0:8081",
			MetricsAddress: "0.0.0.0:9091",
		},
		Logging:     LoggingConfig{Level: "info", Format: "text"},
		Tracing:     TracingConfig{ServiceName: "policy-engine"},
		PathPrefix:  "/",
		ContentType: "application/json",
	}
}

// LoadBuilderConfig loads a BuilderConfig from path (if non-empty and the
// file exists) and then applies environment overrides, matching the
// teacher's two-step Load order.
func LoadBuilderConfig(path string) (*BuilderConfig, error) {
	_ = godotenv.Load()

	cfg := NewBuilderConfig()
	if err := loadYAMLIfPresent(path, cfg); err != nil {
		return nil, err
	}
	if err := decodeEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPolicyEngineConfig is the policy-engine analogue of
// LoadBuilderConfig.
func LoadPolicyEngineConfig(path string) (*PolicyEngineConfig, error) {
	_ = godotenv.Load()

	cfg := NewPolicyEngineConfig()
	if err := loadYAMLIfPresent(path, cfg); err != nil {
		return nil, err
	}
	if err := decodeEnv(cfg); err != nil {
		return nil, err
	}
	cfg.PathPrefix = NormalizePathPrefix(cfg.PathPrefix)
	return cfg, nil
}

func loadYAMLIfPresent(path string, dst any) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func decodeEnv(dst any) error {
	if err := envdecode.Decode(dst); err != nil {
		if strings.Contains(err.Error(), "none of the target fields were set") {
			return nil
		}
		return fmt.Errorf("decoding environment overrides: %w", err)
	}
	return nil
}

// NormalizePathPrefix strips all leading and trailing slashes from prefix
// and re-adds exactly one leading slash, matching
// commons::parse_path_prefix.
func NormalizePathPrefix(prefix string) string {
	return "/" + strings.Trim(prefix, "/")
}

// ParseParamSet splits a comma-separated parameter list, trims whitespace
// around each entry, discards empty entries, and de-duplicates, matching
// commons::parse_params_set.
func ParseParamSet(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
