package cli

import (
	"os"
	"path/filepath"

	"github.com/kbukum/procspawn/config"
	"github.com/kbukum/procspawn/observability"
	"github.com/kbukum/procspawn/process"
	"github.com/kbukum/procspawn/validation"
)

const serviceName = "procspawn"

// Config is the procspawn CLI configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Process              ProcessConfig        `yaml:"process" mapstructure:"process"`
	Observability        observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ProcessConfig configures spawning.
type ProcessConfig struct {
	// ExecPath lists directories searched for managed subcommands. Empty
	// means the PROCSPAWN_EXEC_PATH environment variable.
	ExecPath      []string            `yaml:"exec_path" mapstructure:"exec_path"`
	ManagedPrefix string              `yaml:"managed_prefix" mapstructure:"managed_prefix"`
	Retry         process.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Process.Retry.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	v := validation.New().
		Nested("service", c.ServiceConfig.Validate()).
		Nested("observability", c.Observability.Validate())
	for _, dir := range c.Process.ExecPath {
		v.Check(filepath.IsAbs(dir), "process.exec_path", "entries must be absolute paths (got: "+dir+")")
	}
	v.Check(c.Process.Retry.MaxBackoff >= c.Process.Retry.InitialBackoff,
		"process.retry.max_backoff", "must not be shorter than initial_backoff")
	return v.Validate()
}

// execPath builds the managed subcommand resolver.
func (c *Config) execPath() *process.ExecPathResolver {
	dirs := c.Process.ExecPath
	if len(dirs) == 0 {
		dirs = filepath.SplitList(os.Getenv(process.ExecPathEnv))
	}
	return &process.ExecPathResolver{Dirs: dirs, Prefix: c.Process.ManagedPrefix}
}
