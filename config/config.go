// Package config carries the small configuration surface of the tagger:
// default region, environment label, extra static tags, trigger queue.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Region       string            `yaml:"region"`
	Environment  string            `yaml:"environment,omitempty"`
	ExtraTags    map[string]string `yaml:"extra_tags,omitempty"`
	QueueURL     string            `yaml:"queue_url,omitempty"`
	OTELEndpoint string            `yaml:"otel_endpoint,omitempty"`
}

// LoadConfig loads configuration from file, then applies env overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a config from environment variables alone. This is the
// Lambda path, where there is no config file to read.
func FromEnv() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return cfg
}

func (c *Config) applyEnv() {
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.Region = region
	}
	if env := os.Getenv("STAMP_ENVIRONMENT"); env != "" {
		c.Environment = env
	}
	if queue := os.Getenv("STAMP_QUEUE_URL"); queue != "" {
		c.QueueURL = queue
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.OTELEndpoint = endpoint
	}
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	return nil
}

// StaticTags returns the configured tags layered into every tag set.
func (c *Config) StaticTags() map[string]string {
	tags := map[string]string{}
	if c.Environment != "" {
		tags["Environment"] = c.Environment
	}
	for k, v := range c.ExtraTags {
		tags[k] = v
	}
	return tags
}
