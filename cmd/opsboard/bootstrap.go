// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package main

import (
	"os"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opsboard/opsboard/internal/auth"
)

// NewBootstrapCmd creates the bootstrap subcommand, which seeds the first
// superadmin account.
func NewBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the initial superadmin account",
		Long: `Create a superadmin account with all capability flags set. The
password is read from the OPSBOARD_BOOTSTRAP_PASSWORD environment variable,
or prompted for interactively when unset.`,
		RunE: runBootstrap,
	}

	cmd.Flags().String("email", "", "account email address")
	cmd.Flags().String("name", "", "display name")
	_ = cmd.MarkFlagRequired("email") //nolint:errcheck // flag is defined one line above

	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	deps, err := buildDeps(cmd)
	if err != nil {
		return err
	}
	defer deps.Close()

	email, _ := cmd.Flags().GetString("email") //nolint:errcheck // defined in NewBootstrapCmd
	name, _ := cmd.Flags().GetString("name")   //nolint:errcheck // defined in NewBootstrapCmd
	if name == "" {
		name = email
	}

	password, err := readBootstrapPassword(cmd)
	if err != nil {
		return err
	}

	summary, err := deps.service.CreateAccount(
		cmd.Context(),
		email, password, name,
		auth.RoleSuperAdmin,
		auth.Capabilities{
			ManageUsers:   true,
			ManageAI:      true,
			ViewAnalytics: true,
			ManageSystem:  true,
		},
		nil,
	)
	if err != nil {
		return err
	}

	cmd.Printf("Created superadmin %s (%s)\n", summary.Email, summary.ID)
	return nil
}

func readBootstrapPassword(cmd *cobra.Command) (string, error) {
	if password := os.Getenv("OPSBOARD_BOOTSTRAP_PASSWORD"); password != "" {
		return password, nil
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", oops.Code("CONFIG_INVALID").
			Errorf("OPSBOARD_BOOTSTRAP_PASSWORD is required when not running interactively")
	}

	cmd.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	cmd.Println()
	if err != nil {
		return "", oops.Code("BOOTSTRAP_PROMPT_FAILED").Wrap(err)
	}

	cmd.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	cmd.Println()
	if err != nil {
		return "", oops.Code("BOOTSTRAP_PROMPT_FAILED").Wrap(err)
	}

	if string(password) != string(confirm) {
		return "", oops.Code("BOOTSTRAP_PROMPT_FAILED").Errorf("passwords do not match")
	}

	return string(password), nil
}
