package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kbukum/procspawn/process"
)

type spawnFlags struct {
	dir            string
	env            []string
	noStdin        bool
	stdoutToStderr bool
	managed        bool
}

func (f *spawnFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.dir, "dir", "C", "", "run in this working directory")
	fs.StringArrayVarP(&f.env, "env", "e", nil, "environment override, NAME=VALUE to set or NAME to unset (repeatable)")
	fs.BoolVar(&f.managed, "managed", false, "resolve the program as a managed subcommand")
	// Flags after the program name belong to the program.
	fs.SetInterspersed(false)
}

func (f *spawnFlags) options() process.Options {
	var opts process.Options
	if f.noStdin {
		opts |= process.NoStdin
	}
	if f.managed {
		opts |= process.Managed
	}
	if f.stdoutToStderr {
		opts |= process.StdoutToStderr
	}
	return opts
}

func newRunCommand(a *app) *cobra.Command {
	var flags spawnFlags
	cmd := &cobra.Command{
		Use:   "run [flags] -- program [args...]",
		Short: "Run a program with inherited standard streams",
		Long: `Run a program and wait for it. Standard streams are inherited unless
--no-stdin or --stdout-to-stderr says otherwise. Launch failures that may be
transient are retried according to --retries.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := process.NewCommand(args, flags.options())
			command.Dir = flags.dir
			command.Env = flags.env

			retry := a.cfg.Process.Retry
			if retry.MaxAttempts > 1 {
				return process.NewRunner(a.spawner, retry).Run(cmd.Context(), command)
			}
			return a.spawner.Run(cmd.Context(), command)
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&flags.noStdin, "no-stdin", false, "connect the program's stdin to the null device")
	cmd.Flags().BoolVar(&flags.stdoutToStderr, "stdout-to-stderr", false, "send the program's stdout to its stderr")
	cmd.Flags().Uint("retries", 0, "total launch attempts for transient failures")
	_ = a.v.BindPFlag("process.retry.max_attempts", cmd.Flags().Lookup("retries"))
	return cmd
}
