// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the CrossCheck
// server. It handles loading and parsing the YAML configuration file and
// provides structured access to application settings: server binding,
// provider credentials, judge defaults, and logging options.
package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/traylinx/crosscheck/internal/constant"
)

// Provider describes one OpenAI-compatible backend usable for answering
// and judging.
type Provider struct {
	// Name is the provider identifier (see internal/constant).
	Name string `yaml:"name" json:"name"`

	// BaseURL is the API root, e.g. "https://api.deepseek.com/v1".
	BaseURL string `yaml:"base-url" json:"base-url"`

	// APIKey authenticates requests. May reference an environment
	// variable as "env:VAR_NAME".
	APIKey string `yaml:"api-key" json:"-"`

	// Model is the upstream model id used for requests.
	Model string `yaml:"model" json:"model"`

	// Temperature is the sampling temperature for completions.
	Temperature float64 `yaml:"temperature" json:"temperature"`

	// MaxTokens caps completion length; 0 keeps the provider default.
	MaxTokens int `yaml:"max-tokens" json:"max-tokens"`
}

// Verification nests judge-related settings.
type Verification struct {
	// DefaultJudges is the judge list used when a request does not name
	// one. Empty selects the built-in defaults.
	DefaultJudges []string `yaml:"default-judges" json:"default-judges"`

	// PromptsFile optionally overrides the built-in judge prompts.
	PromptsFile string `yaml:"prompts-file" json:"prompts-file"`
}

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the network host/interface on which the API server binds.
	// Empty binds all interfaces; use "127.0.0.1" for local-only access.
	Host string `yaml:"host" json:"-"`

	// Port is the network port on which the API server listens.
	Port int `yaml:"port" json:"-"`

	// Debug enables debug-level logging and Gin debug mode.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile controls whether logs go to rotating files or stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogsMaxTotalSizeMB limits the total size (in MB) of the logs
	// directory; oldest files are deleted when exceeded. 0 disables.
	LogsMaxTotalSizeMB int `yaml:"logs-max-total-size-mb" json:"logs-max-total-size-mb"`

	// ManagementKey protects non-local management endpoints. Either a
	// bcrypt hash ("$2...") or a plaintext secret.
	ManagementKey string `yaml:"management-key" json:"-"`

	// Providers lists the configured judge/answer backends.
	Providers []Provider `yaml:"providers" json:"providers"`

	// Primary names the provider used to generate answers and quizzes.
	// Defaults to the first configured provider.
	Primary string `yaml:"primary" json:"primary"`

	// Verification nests judge-related options.
	Verification Verification `yaml:"verification" json:"verification"`
}

// LoadConfig reads the YAML file at path, applies defaults, and resolves
// env-referenced API keys.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.resolveEnvKeys()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8317
	}
	if len(c.Verification.DefaultJudges) == 0 {
		c.Verification.DefaultJudges = constant.DefaultJudges()
	}
	if c.Primary == "" && len(c.Providers) > 0 {
		c.Primary = c.Providers[0].Name
	}
	for i := range c.Providers {
		if c.Providers[i].Temperature == 0 {
			c.Providers[i].Temperature = 0.7
		}
		if c.Providers[i].MaxTokens == 0 {
			c.Providers[i].MaxTokens = 1000
		}
	}
}

// resolveEnvKeys replaces "env:VAR" api-key values with the environment
// variable's content.
func (c *Config) resolveEnvKeys() {
	for i := range c.Providers {
		if v, ok := strings.CutPrefix(c.Providers[i].APIKey, "env:"); ok {
			c.Providers[i].APIKey = os.Getenv(v)
		}
	}
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: provider with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate provider %q", p.Name)
		}
		seen[p.Name] = true
	}
	if c.Primary != "" && len(c.Providers) > 0 && !seen[c.Primary] {
		return fmt.Errorf("config: primary provider %q is not configured", c.Primary)
	}
	return nil
}

// PrimaryProvider returns the provider used for answer generation, or nil
// when none is configured.
func (c *Config) PrimaryProvider() *Provider {
	return c.ProviderByName(c.Primary)
}

// ProviderByName returns the named provider, or nil.
func (c *Config) ProviderByName(name string) *Provider {
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i]
		}
	}
	return nil
}

// CheckManagementKey reports whether the presented secret matches the
// configured management key. Bcrypt-hashed keys are compared with bcrypt;
// plaintext keys with direct comparison. An empty configured key rejects
// everything.
func (c *Config) CheckManagementKey(presented string) bool {
	if c.ManagementKey == "" || presented == "" {
		return false
	}
	if strings.HasPrefix(c.ManagementKey, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(c.ManagementKey), []byte(presented)) == nil
	}
	return c.ManagementKey == presented
}

// HashManagementKey returns the bcrypt hash for a management key, suitable
// for storing in the configuration file.
func HashManagementKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("config: hash management key: %w", err)
	}
	return string(hash), nil
}
