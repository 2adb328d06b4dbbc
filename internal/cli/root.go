package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kbukum/procspawn/config"
	"github.com/kbukum/procspawn/logger"
	"github.com/kbukum/procspawn/observability"
	"github.com/kbukum/procspawn/process"
	"github.com/kbukum/procspawn/version"
)

// app is the state shared by the commands of one invocation.
type app struct {
	v        *viper.Viper
	cfg      Config
	spawner  *process.Spawner
	shutdown func(context.Context) error
}

// NewRootCommand builds the procspawn command tree.
func NewRootCommand() *cobra.Command {
	return newApp().rootCommand()
}

func newApp() *app {
	return &app{v: viper.New()}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Spawn and supervise child processes",
		Long: `procspawn runs programs with explicit control over their standard
streams, working directory and environment, and reports how they ended.

Exit status mirrors the child: its exit code when it exited, 128+N when it
was killed by signal N, 127 when it could not be executed.`,
		Version:           version.Get().String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is ./procspawn.yml or $XDG_CONFIG_HOME/procspawn/config.yml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, disabled)")
	_ = a.v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newRunCommand(a),
		newCaptureCommand(a),
		newWhichCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.v.SetDefault("name", serviceName)
	a.v.SetDefault("logging.output", "stderr")

	opts := []config.LoaderOption{config.WithViper(a.v)}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(serviceName, &a.cfg, opts...); err != nil {
		return err
	}
	logger.Init(&a.cfg.Logging)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := observability.Init(ctx, serviceName, version.Get().Version, a.cfg.Observability)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	a.shutdown = shutdown

	spawnOpts := []process.Option{
		process.WithLogger(logger.WithComponent("process")),
		process.WithExecPath(a.cfg.execPath()),
	}
	if a.cfg.Observability.Enabled {
		metrics, err := observability.NewSpawnMetrics(observability.Meter(serviceName))
		if err != nil {
			return fmt.Errorf("observability: %w", err)
		}
		spawnOpts = append(spawnOpts, process.WithMetrics(metrics))
	}
	a.spawner = process.NewSpawner(spawnOpts...)
	process.SetDefault(a.spawner)

	logger.Debug("configured", logger.Fields(
		"environment", a.cfg.Environment,
		"exec_path", a.cfg.execPath().Dirs,
		"observability", a.cfg.Observability.Enabled,
	))
	return nil
}

// teardown flushes telemetry. It runs whether or not the command failed.
func (a *app) teardown(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.shutdown(ctx)
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute(ctx context.Context) int {
	a := newApp()
	root := a.rootCommand()
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(ctx); terr != nil {
		logger.Warn("flushing telemetry failed", logger.Fields(logger.FieldError, terr.Error()))
	}
	reportError(root.ErrOrStderr(), err)
	return exitCodeFor(err)
}

func reportError(w io.Writer, err error) {
	if err == nil || isChildOutcome(err) {
		return
	}
	fmt.Fprintf(w, "%s: %v\n", serviceName, err)
}
