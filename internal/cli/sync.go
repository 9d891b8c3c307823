package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/cobus/internal/app"
)

func newSyncCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "sync push|pull",
		Short:     "Run one sync with the remote store",
		Long:      "push overwrites the remote store with the local state; pull loads the remote state.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"push", "pull"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, true)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			syncErr := a.Sync(cmd.Context(), args[0] == "pull")
			if syncErr == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sync %s done\n", args[0])
			}
			return errors.Join(syncErr, a.Close())
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Load the unit from the remote store and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, true)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), a.Controller().Describe())
			return a.Close()
		},
	}
}
