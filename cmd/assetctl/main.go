// assetctl is the admin companion to assetd: it bootstraps the accounts
// the web UI cannot create for itself (the first superuser, managers
// group membership) directly against the database.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"assetd/internal/config"
	"assetd/internal/db"
	"assetd/internal/policy"
	"assetd/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "assetctl",
		Short:         "Utility for managing assetd accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newUsersCommand())
	return cmd
}

func newUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User account operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newUsersCreateCommand())
	cmd.AddCommand(newUsersPromoteCommand())
	cmd.AddCommand(newUsersListCommand())
	return cmd
}

func newUsersCreateCommand() *cobra.Command {
	var (
		username  string
		name      string
		password  string
		superuser bool
		manager   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				user, err := st.CreateUser(ctx, username, name, password, superuser)
				if err != nil {
					return err
				}
				if manager {
					if err := st.AddUserToGroup(ctx, user.Username, policy.ManagersGroup); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Login name for the account")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "Grant the superuser flag")
	cmd.Flags().BoolVar(&manager, "manager", false, "Add the account to the managers group")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersPromoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote <username>",
		Short: "Add an existing user to the managers group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				if err := st.AddUserToGroup(ctx, args[0], policy.ManagersGroup); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[0], policy.ManagersGroup)
				return nil
			})
		},
	}
	return cmd
}

func newUsersListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				users, err := st.ListUsers(ctx)
				if err != nil {
					return err
				}
				for _, user := range users {
					groups := make([]string, 0, len(user.Groups))
					for _, g := range user.Groups {
						groups = append(groups, g.Name)
					}
					flags := ""
					if user.Superuser {
						flags = " [superuser]"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s%s\t%s\n", user.Username, user.Name, flags, strings.Join(groups, ","))
				}
				return nil
			})
		},
	}
	return cmd
}

// withStore connects to the configured database, runs fn, and closes the
// connection afterwards.
func withStore(ctx context.Context, fn func(context.Context, *store.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	_ = godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(database) }()

	if err := db.Migrate(ctx, database); err != nil {
		return err
	}
	if err := db.Seed(ctx, database); err != nil {
		return err
	}

	return fn(ctx, store.New(database))
}
