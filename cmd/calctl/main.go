package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	api   string
	token string
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "calctl",
		Short:         "CLI client for the calendar availability API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&g.api, "api", "a", envOr("CALCTL_API", "http://localhost:8080"), "Calendar service base URL")
	root.PersistentFlags().StringVarP(&g.token, "token", "t", os.Getenv("CALCTL_TOKEN"), "Bearer token (JWT or static)")

	root.AddCommand(newCheckCmd(g), newSlotsCmd(g), newUsersCmd(g), newCalendarsCmd(g), newGoogleCmd(g))
	return root
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
