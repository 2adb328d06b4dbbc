package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/procspawn/errors"
)

func newWhichCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "which name",
		Short: "Show which executable a managed subcommand resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := a.spawner.ExecPath()
			path, err := resolver.Resolve(args[0])
			if err != nil {
				return errors.ExecFailed(resolver.Name(args[0]), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
