package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wallcal/internal/calendar"
	"wallcal/internal/ics"
)

var listICS bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the calendar and exit",
	Long: `Load the configured and --import ICS sources into a fresh calendar
and print every event in chronological order.

Examples:
  wallcal list --import holidays.ics
  wallcal list --import https://example.com/team.ics --ics > team.ics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if listICS {
			return writeICS(cmd.OutOrStdout(), a.store)
		}
		printCalendar(cmd.OutOrStdout(), a.store.ListAll())
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listICS, "ics", false, "Write iCalendar instead of text")
	rootCmd.AddCommand(listCmd)
}

// printCalendar writes the "Upcoming events" view, one rendered line per event.
func printCalendar(w io.Writer, events []calendar.Event) {
	fmt.Fprintln(w, "Upcoming events:")
	for _, ev := range events {
		fmt.Fprintln(w, ev.String())
	}
}

func writeICS(w io.Writer, store *calendar.Store) error {
	return ics.Encode(w, "wallcal", calendar.Occurrences(store.ListAll()))
}
