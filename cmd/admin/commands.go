package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"miniblog/internal/models"
	"miniblog/internal/service"

	"github.com/spf13/cobra"
)

type openFunc func(ctx context.Context) (*service.RoleService, error)

func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "admin [command]",
		Short:        "Manage MiniBlog users and roles",
		SilenceUsage: true,
	}

	withRoles := func(fn func(cmd *cobra.Command, svc *service.RoleService, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			svc, err := open(cmd.Context())
			if err != nil {
				return err
			}
			return fn(cmd, svc, args)
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "assign-role <username> <role>",
		Short: "Grant a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: withRoles(func(cmd *cobra.Command, svc *service.RoleService, args []string) error {
			view, err := svc.AssignRole(cmd.Context(), service.SystemActor, args[0], args[1])
			if err != nil {
				return err
			}
			printRoles(cmd, view)
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "remove-role <username> <role>",
		Short: "Revoke a role from a user",
		Args:  cobra.ExactArgs(2),
		RunE: withRoles(func(cmd *cobra.Command, svc *service.RoleService, args []string) error {
			view, err := svc.RemoveRole(cmd.Context(), service.SystemActor, args[0], args[1])
			if err != nil {
				return err
			}
			printRoles(cmd, view)
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "user-roles <username>",
		Short: "Show the roles a user holds",
		Args:  cobra.ExactArgs(1),
		RunE: withRoles(func(cmd *cobra.Command, svc *service.RoleService, args []string) error {
			view, err := svc.GetUserRoles(cmd.Context(), service.SystemActor, args[0])
			if err != nil {
				return err
			}
			printRoles(cmd, view)
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "roles",
		Short: "List known roles",
		Args:  cobra.NoArgs,
		RunE: withRoles(func(cmd *cobra.Command, svc *service.RoleService, _ []string) error {
			roles, err := svc.ListRoles(cmd.Context(), service.SystemActor)
			if err != nil {
				return err
			}
			for _, r := range roles {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), r.Name)
			}
			return nil
		}),
	})

	var limit, offset int
	listUsers := &cobra.Command{
		Use:   "list-users",
		Short: "List users and their roles",
		Args:  cobra.NoArgs,
		RunE: withRoles(func(cmd *cobra.Command, svc *service.RoleService, _ []string) error {
			users, err := svc.ListUsers(cmd.Context(), service.SystemActor, limit, offset)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tCONFIRMED\tROLES")
			for _, u := range users {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Email, u.EmailConfirmed, strings.Join(u.Roles, ","))
			}
			return w.Flush()
		}),
	}
	listUsers.Flags().IntVar(&limit, "limit", 50, "Maximum users to show")
	listUsers.Flags().IntVar(&offset, "offset", 0, "Users to skip")
	root.AddCommand(listUsers)

	return root
}

func printRoles(cmd *cobra.Command, view *models.UserRolesView) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", view.Username, strings.Join(view.Roles, ", "))
}
