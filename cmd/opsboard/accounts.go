// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard/internal/auth"
)

// NewAccountsCmd creates the accounts subcommand group.
func NewAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage administrator accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		RunE:  runAccountsList,
	})

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE:  runAccountsCreate,
	}
	create.Flags().String("email", "", "account email address")
	create.Flags().String("name", "", "display name")
	create.Flags().String("role", string(auth.RoleViewer), "role: superadmin, admin or viewer")
	create.Flags().String("password", "", "initial password (prefer OPSBOARD_BOOTSTRAP_PASSWORD)")
	create.Flags().Bool("manage-users", false, "grant the manage-users capability")
	create.Flags().Bool("manage-ai", false, "grant the manage-AI capability")
	create.Flags().Bool("view-analytics", false, "grant the view-analytics capability")
	create.Flags().Bool("manage-system", false, "grant the manage-system capability")
	_ = create.MarkFlagRequired("email") //nolint:errcheck // flag is defined above
	cmd.AddCommand(create)

	return cmd
}

func runAccountsList(cmd *cobra.Command, _ []string) error {
	deps, err := buildDeps(cmd)
	if err != nil {
		return err
	}
	defer deps.Close()

	summaries, err := deps.service.ListAccounts(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tACTIVE\tLAST LOGIN")
	for _, s := range summaries {
		lastLogin := "never"
		if s.LastLogin != nil {
			lastLogin = s.LastLogin.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
			s.ID, s.Email, s.Name, s.Role, s.IsActive, lastLogin)
	}
	return w.Flush() //nolint:wrapcheck // terminal output flush
}

func runAccountsCreate(cmd *cobra.Command, _ []string) error {
	deps, err := buildDeps(cmd)
	if err != nil {
		return err
	}
	defer deps.Close()

	email, _ := cmd.Flags().GetString("email") //nolint:errcheck // defined in NewAccountsCmd
	name, _ := cmd.Flags().GetString("name")   //nolint:errcheck // defined in NewAccountsCmd
	if name == "" {
		name = email
	}
	roleStr, _ := cmd.Flags().GetString("role") //nolint:errcheck // defined in NewAccountsCmd

	password, _ := cmd.Flags().GetString("password") //nolint:errcheck // defined in NewAccountsCmd
	if password == "" {
		password, err = readBootstrapPassword(cmd)
		if err != nil {
			return err
		}
	}

	caps := auth.Capabilities{}
	caps.ManageUsers, _ = cmd.Flags().GetBool("manage-users")     //nolint:errcheck // defined above
	caps.ManageAI, _ = cmd.Flags().GetBool("manage-ai")           //nolint:errcheck // defined above
	caps.ViewAnalytics, _ = cmd.Flags().GetBool("view-analytics") //nolint:errcheck // defined above
	caps.ManageSystem, _ = cmd.Flags().GetBool("manage-system")   //nolint:errcheck // defined above

	summary, err := deps.service.CreateAccount(
		cmd.Context(), email, password, name, auth.Role(roleStr), caps, nil,
	)
	if err != nil {
		return err
	}

	cmd.Printf("Created %s %s (%s)\n", summary.Role, summary.Email, summary.ID)
	return nil
}
