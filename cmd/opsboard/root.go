// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Opsboard CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opsboard",
		Short: "Opsboard - admin authentication and session service",
		Long: `Opsboard manages administrator accounts and bearer-token sessions
for the operations console: credential login with brute-force lockout,
session verification, and expired-session reaping.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database_url", "", "PostgreSQL connection URL")
	cmd.PersistentFlags().String("token_secret", "", "bearer token signing secret")
	cmd.PersistentFlags().String("metrics_addr", config.Default().MetricsAddr, "metrics listen address")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewBootstrapCmd())
	cmd.AddCommand(NewAccountsCmd())
	cmd.AddCommand(NewReapCmd())

	return cmd
}

// loadConfig builds the effective configuration for a subcommand and
// installs the process-wide logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.SetDefault("opsboard", version, cfg.Log.Format, cfg.Log.Level)
	return cfg, nil
}
