package config

import (
	"github.com/kbukum/procspawn/logger"
	"github.com/kbukum/procspawn/validation"
)

var environments = []string{"development", "staging", "production"}

// ServiceConfig holds the fields every procspawn binary needs. Embed it:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Process process.RetryConfig `yaml:"process" mapstructure:"process"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig returns the embedded ServiceConfig.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values. Embedding structs that override it
// should call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base fields.
func (c *ServiceConfig) Validate() error {
	return validation.New().
		Required("name", c.Name).
		OneOf("environment", c.Environment, environments).
		Nested("logging", c.Logging.Validate()).
		Validate()
}
