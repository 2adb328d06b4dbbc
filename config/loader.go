package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/procspawn/errors"
	"github.com/kbukum/procspawn/logger"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "PROCSPAWN"

// FileSystem abstracts the file operations of the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// OSFileSystem implements FileSystem on the real file system.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads path into the process environment without overriding
// variables that are already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (OSFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolver finds the config and env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolveFiles returns explicit paths from opts when set and otherwise the
// first existing candidate, or "" when none exists.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(r.configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first([]string{".env." + serviceName, ".env"})
	}
	return files
}

func (r *Resolver) configCandidates(serviceName string) []string {
	candidates := []string{
		serviceName + ".yml",
		serviceName + ".yaml",
		filepath.Join("config", serviceName+".yml"),
		filepath.Join("cmd", serviceName, "config.yml"),
	}
	if dir, err := r.FileSystem.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, serviceName, "config.yml"))
	}
	return candidates
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	Viper      *viper.Viper
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithViper loads into v instead of a fresh instance, so flags bound to v
// take part in the merge.
func WithViper(v *viper.Viper) LoaderOption {
	return func(lc *LoaderConfig) { lc.Viper = v }
}

// Defaulter and Validatable are implemented by configs that want LoadConfig
// to finish them after unmarshalling.
type (
	Defaulter   interface{ ApplyDefaults() }
	Validatable interface{ Validate() error }
)

// LoadConfig loads configuration for serviceName into cfg. A missing config
// file is not an error; an explicit file that cannot be parsed is. When cfg
// implements Defaulter and Validatable they run after unmarshalling.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	v := lc.Viper
	if v == nil {
		v = viper.New()
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(serviceName, lc)
	log := logger.WithComponent("config")

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load env file", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}

	if files.ConfigFile != "" {
		if lc.FileSystem.Exists(files.ConfigFile) {
			v.SetConfigFile(files.ConfigFile)
			if err := v.ReadInConfig(); err != nil {
				return errors.Validation("cannot read config file " + files.ConfigFile).WithCause(err)
			}
			log.Debug("config file loaded", logger.Fields("file", files.ConfigFile))
		} else if lc.ConfigFile != "" {
			log.Warn("config file not found", logger.Fields("file", files.ConfigFile))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return errors.Validation("cannot decode config for " + serviceName).WithCause(err)
	}
	if d, ok := cfg.(Defaulter); ok {
		d.ApplyDefaults()
	}
	if val, ok := cfg.(Validatable); ok {
		return val.Validate()
	}
	return nil
}
