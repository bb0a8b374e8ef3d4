// Package cli holds the storefront command tree.
package cli

import (
	"fmt"

	"storefront/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootOptions holds global flags and the configuration every command shares.
type RootOptions struct {
	ConfigFile string
	Config     config.Config
}

// NewRootCommand creates the root command. Running it without a subcommand serves the API.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront - inventory-consistent cart and order API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if opts.ConfigFile != "" {
				v.SetConfigFile(opts.ConfigFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
				}
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to a config file (env vars override it)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}
