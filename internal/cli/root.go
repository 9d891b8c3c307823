// Package cli provides the cobus command tree.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/cobus/internal/app"
	"github.com/MrSnakeDoc/cobus/internal/config"
)

type options struct {
	envFile       string
	configFile    string
	unit          string
	maxPassengers int
	clean         bool
}

// NewRootCommand returns `cobus`, which opens the interactive menu.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "cobus",
		Short: "Count the passengers of a transport unit and mirror them to a remote store.",
		Long: `cobus keeps the number of passengers aboard a unit and a short history ` +
			`of snapshots, mirrored to a remote store. Without a subcommand it opens ` +
			`an interactive menu.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, false)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return a.RunShell(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before reading COBUS_* variables")
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file (overrides COBUS_CONFIG_FILE)")
	fs.StringVar(&opts.unit, "unit", "", "unit name (overrides COBUS_UNIT_NAME)")
	fs.IntVar(&opts.maxPassengers, "max-passengers", 0, "capacity of the unit (overrides COBUS_MAX_PASSENGERS)")
	fs.BoolVar(&opts.clean, "clean", false, "wipe local and remote data at startup instead of loading it")

	cmd.AddCommand(newSyncCommand(opts), newStatusCommand(opts), newVersionCommand())
	return cmd
}

// load builds the configuration from file, environment and flags. Commands
// other than the menu load remote data at startup unless --clean is given.
func (o *options) load(cmd *cobra.Command, pull bool) (cfg *config.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	if o.envFile != "" {
		// Variables already set in the environment win over the file.
		if err := godotenv.Load(o.envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg = config.Load(o.configFile)

	flags := cmd.Flags()
	if flags.Changed("unit") {
		cfg.UnitName = o.unit
	}
	if flags.Changed("max-passengers") {
		cfg.MaxPassengers = o.maxPassengers
	}
	switch {
	case flags.Changed("clean"):
		cfg.CleanAtStartup = o.clean
	case pull:
		cfg.CleanAtStartup = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
