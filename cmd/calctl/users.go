package main

import (
	"github.com/spf13/cobra"
)

func newUsersCmd(g *globalFlags) *cobra.Command {
	usersCmd := &cobra.Command{Use: "users", Short: "User directory operations"}

	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search users by name or email (attendee autocomplete)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := check(newClient(g).R().
				SetContext(cmd.Context()).
				SetQueryParam("q", args[0]).
				Get("/api/availability/users/search"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}

	registerCmd := &cobra.Command{
		Use:   "register NAME EMAIL",
		Short: "Add the caller to the user directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := check(newClient(g).R().
				SetContext(cmd.Context()).
				SetBody(map[string]string{"name": args[0], "email": args[1]}).
				Post("/api/users"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	usersCmd.AddCommand(searchCmd, registerCmd)
	return usersCmd
}
