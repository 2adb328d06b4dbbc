package process

import (
	"sync"

	"github.com/kbukum/procspawn/logger"
	"github.com/kbukum/procspawn/observability"
)

const component = "process"

// Spawner starts and reaps children. It holds no per-child state and is safe
// for concurrent use. The zero value logs through the global logger, records
// no metrics and resolves managed subcommands from ExecPathEnv.
type Spawner struct {
	log      *logger.Logger
	metrics  *observability.SpawnMetrics
	execPath *ExecPathResolver
}

// Option configures a Spawner.
type Option func(*Spawner)

// WithLogger sets the logger used for spawn and reap events.
func WithLogger(l *logger.Logger) Option {
	return func(s *Spawner) { s.log = l }
}

// WithMetrics sets the instruments recorded around every child.
func WithMetrics(m *observability.SpawnMetrics) Option {
	return func(s *Spawner) { s.metrics = m }
}

// WithExecPath sets the managed subcommand resolver.
func WithExecPath(r *ExecPathResolver) Option {
	return func(s *Spawner) { s.execPath = r }
}

// NewSpawner creates a Spawner.
func NewSpawner(opts ...Option) *Spawner {
	s := &Spawner{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExecPath returns the managed subcommand resolver in use.
func (s *Spawner) ExecPath() *ExecPathResolver {
	if s.execPath == nil {
		return ExecPathFromEnv("")
	}
	return s.execPath
}

func (s *Spawner) logger() *logger.Logger {
	if s.log == nil {
		return logger.Get(component)
	}
	return s.log
}

var (
	defaultMu      sync.RWMutex
	defaultSpawner = &Spawner{}
)

// Default returns the Spawner used by the package-level functions.
func Default() *Spawner {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSpawner
}

// SetDefault replaces the Spawner used by the package-level functions.
func SetDefault(s *Spawner) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSpawner = s
}
