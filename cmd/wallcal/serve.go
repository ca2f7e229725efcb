package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"wallcal/internal/calendar"
	appLog "wallcal/internal/log"
	"wallcal/internal/web"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calendar over HTTP",
	Long: `Serve the calendar as a JSON API and an iCalendar feed.

Endpoints:
  GET    /health
  GET    /api/events              list all events
  POST   /api/events              add an event ({"title","at","notes","frequency"})
  PATCH  /api/events              update ({"title","at","new_title"|"new_at"|"new_notes"})
  DELETE /api/events?title=&at=   remove an event
  GET    /api/events/find?title=&at=
  GET    /calendar.ics

Events that have already happened are pruned on the config "prune" cron schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	if flagListen != "" {
		a.cfg.Listen = flagListen
	}

	pruner, err := startPruner(a.cfg.PruneCron, a.store, a.loc)
	if err != nil {
		return err
	}
	defer func() {
		<-pruner.Stop().Done()
	}()

	srv := web.NewServer(a.cfg, a.store, a.loc)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	appLog.Info("wallcal exiting")
	return nil
}

// startPruner runs store.Prune on the cron schedule, evaluated in loc.
func startPruner(schedule string, store *calendar.Store, loc *time.Location) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(schedule, func() {
		if n := store.Prune(); n > 0 {
			appLog.Info("pruned elapsed events", "count", n, "remaining", store.Len())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("prune schedule %q: %w", schedule, err)
	}
	c.Start()
	appLog.Info("prune scheduler started", "schedule", schedule)
	return c, nil
}
