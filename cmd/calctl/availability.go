package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	var emails []string
	var start, end string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether users are free for a time range",
		Example: "  calctl check -e alice@example.com -e bob@example.com " +
			"--start 2025-01-15T11:30:00Z --end 2025-01-15T12:00:00Z",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(emails) == 0 {
				return fmt.Errorf("at least one --email required")
			}
			data, err := check(newClient(g).R().
				SetContext(cmd.Context()).
				SetBody(map[string]any{"emails": emails, "startTime": start, "endTime": end}).
				Post("/api/availability/check"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringSliceVarP(&emails, "email", "e", nil, "User email (repeatable)")
	cmd.Flags().StringVar(&start, "start", "", "Start time, RFC3339 or YYYY-MM-DDTHH:MM (required)")
	cmd.Flags().StringVar(&end, "end", "", "End time, RFC3339 or YYYY-MM-DDTHH:MM (required)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newSlotsCmd(g *globalFlags) *cobra.Command {
	var emails []string
	var date string
	var duration int
	cmd := &cobra.Command{
		Use:     "slots",
		Short:   "Find common free slots on a date",
		Example: "  calctl slots -e alice@example.com -e bob@example.com --date 2025-01-15 --duration 60",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(emails) == 0 {
				return fmt.Errorf("at least one --email required")
			}
			body := map[string]any{"emails": emails, "date": date}
			if duration != 0 {
				body["durationMinutes"] = duration
			}
			data, err := check(newClient(g).R().
				SetContext(cmd.Context()).
				SetBody(body).
				Post("/api/availability/slots"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringSliceVarP(&emails, "email", "e", nil, "User email (repeatable)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date, YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&duration, "duration", 0, "Meeting length in minutes (server default when omitted)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
