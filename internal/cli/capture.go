package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kbukum/procspawn/errors"
	"github.com/kbukum/procspawn/process"
)

// captureReport is the JSON document printed by capture.
type captureReport struct {
	Argv       []string          `json:"argv"`
	RunID      string            `json:"run_id,omitempty"`
	Pid        int               `json:"pid,omitempty"`
	ExitCode   int               `json:"exit_code"`
	Status     int               `json:"status"`
	DurationMS int64             `json:"duration_ms"`
	Stdout     string            `json:"stdout"`
	Stderr     string            `json:"stderr"`
	Error      *errors.ErrorBody `json:"error,omitempty"`
}

func newCaptureCommand(a *app) *cobra.Command {
	var flags spawnFlags
	cmd := &cobra.Command{
		Use:   "capture [flags] -- program [args...]",
		Short: "Run a program and print its output and status as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := &process.Command{
				Argv:    args,
				Dir:     flags.dir,
				Env:     flags.env,
				Stdin:   process.Null,
				Managed: flags.managed,
			}
			res, err := a.spawner.Output(cmd.Context(), command)
			if res == nil {
				return err
			}

			report := captureReport{
				Argv:       args,
				RunID:      command.RunID,
				Pid:        command.Pid,
				ExitCode:   res.ExitCode,
				Status:     process.ExitStatus(err),
				DurationMS: res.Duration.Milliseconds(),
				Stdout:     string(res.Stdout),
				Stderr:     string(res.Stderr),
			}
			if appErr, ok := errors.AsAppError(err); ok {
				body := appErr.ToResponse().Error
				report.Error = &body
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(report); encErr != nil {
				return encErr
			}
			return err
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
