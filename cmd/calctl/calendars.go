package main

import (
	"github.com/spf13/cobra"
)

func newCalendarsCmd(g *globalFlags) *cobra.Command {
	calCmd := &cobra.Command{Use: "calendars", Short: "Manage the caller's calendars"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the caller's calendars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := check(newClient(g).R().SetContext(cmd.Context()).Get("/api/calendars"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}

	var color string
	var isDefault bool
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a calendar owned by the caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"name": args[0], "isDefault": isDefault}
			if color != "" {
				body["color"] = color
			}
			data, err := check(newClient(g).R().
				SetContext(cmd.Context()).
				SetBody(body).
				Post("/api/calendars"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	createCmd.Flags().StringVar(&color, "color", "", "Display color, e.g. #3b82f6")
	createCmd.Flags().BoolVar(&isDefault, "default", false, "Mark as the default calendar")

	calCmd.AddCommand(listCmd, createCmd, newEventsCmd(g))
	return calCmd
}

func newEventsCmd(g *globalFlags) *cobra.Command {
	eventsCmd := &cobra.Command{Use: "events", Short: "Events of one calendar"}

	var from, to string
	listCmd := &cobra.Command{
		Use:   "list CALENDAR_ID",
		Short: "List events overlapping [from, to)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := check(newClient(g).R().
				SetContext(cmd.Context()).
				SetPathParam("id", args[0]).
				SetQueryParams(map[string]string{"from": from, "to": to}).
				Get("/api/calendars/{id}/events"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	listCmd.Flags().StringVar(&from, "from", "", "Range start (required)")
	listCmd.Flags().StringVar(&to, "to", "", "Range end (required)")
	_ = listCmd.MarkFlagRequired("from")
	_ = listCmd.MarkFlagRequired("to")

	var title, start, end, description, location, recurrence string
	var allDay bool
	createCmd := &cobra.Command{
		Use:     "create CALENDAR_ID",
		Short:   "Create an event in a calendar owned by the caller",
		Example: "  calctl calendars events create c-alice-work --title Standup --start 2025-01-15T09:00:00Z --end 2025-01-15T09:15:00Z",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := check(newClient(g).R().
				SetContext(cmd.Context()).
				SetPathParam("id", args[0]).
				SetBody(map[string]any{
					"title":       title,
					"start":       start,
					"end":         end,
					"description": description,
					"location":    location,
					"recurrence":  recurrence,
					"allDay":      allDay,
				}).
				Post("/api/calendars/{id}/events"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	createCmd.Flags().StringVar(&title, "title", "", "Event title (required)")
	createCmd.Flags().StringVar(&start, "start", "", "Start time (required)")
	createCmd.Flags().StringVar(&end, "end", "", "End time (required)")
	createCmd.Flags().StringVar(&description, "description", "", "Description")
	createCmd.Flags().StringVar(&location, "location", "", "Location")
	createCmd.Flags().StringVar(&recurrence, "recurrence", "", "Recurrence label: daily, weekly, monthly")
	createCmd.Flags().BoolVar(&allDay, "all-day", false, "All-day event")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("start")
	_ = createCmd.MarkFlagRequired("end")

	eventsCmd.AddCommand(listCmd, createCmd)
	return eventsCmd
}
