package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"wallcal/internal/calendar"
	"wallcal/internal/config"
	"wallcal/internal/ics"
	appLog "wallcal/internal/log"
)

var (
	flagConfigPath string
	flagTimezone   string
	flagLogLevel   string
	flagImport     []string
)

var rootCmd = &cobra.Command{
	Use:   "wallcal",
	Short: "An in-memory wall calendar",
	Long: `wallcal keeps a calendar of timed events for up to one year ahead.

Events can be scheduled once or repeat daily, weekly, monthly or yearly.
Nothing is written to disk: the calendar lives as long as the process.

  shell     Interactive prompt
  serve     HTTP API and iCalendar feed
  list      Print the calendar and exit`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", defaultConfigPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagTimezone, "timezone", "", "Reference timezone (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringSliceVar(&flagImport, "import", nil, "ICS file or URL to load at startup (repeatable)")
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "wallcal.yaml"
	}
	return filepath.Join(dir, "wallcal", "config.yaml")
}

// app is the state shared by every subcommand.
type app struct {
	cfg   *config.Config
	loc   *time.Location
	store *calendar.Store
}

// newApp loads config, applies flag overrides and builds a store seeded
// from the configured and flagged ICS sources.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		if cfg == nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		appLog.Warn("could not write default config", "config_path", flagConfigPath, "reason", err.Error())
	}

	if flagTimezone != "" {
		cfg.Timezone = flagTimezone
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	for _, u := range flagImport {
		cfg.Import = append(cfg.Import, config.SourceConfig{ID: u, URL: u})
	}

	level, err := appLog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	appLog.SetLevel(level)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		loc:   loc,
		store: calendar.NewStore(calendar.WithLocation(loc)),
	}

	appLog.Info("effective config",
		"config_path", flagConfigPath,
		"timezone", cfg.Timezone,
		"log_level", cfg.LogLevel,
		"import_count", len(cfg.Import),
	)

	if len(cfg.Import) > 0 {
		res, err := importSources(ctx, a.store, loc, cfg.Import)
		appLog.Info("import finished", "added", res.Added, "skipped", res.Skipped)
		if err != nil {
			appLog.Error("import had failures", err)
		}
	}
	return a, nil
}

// importSources fetches, parses and expands ICS sources into store. Only
// occurrences inside the store's scheduling window are kept.
func importSources(ctx context.Context, store *calendar.Store, loc *time.Location, sources []config.SourceConfig) (calendar.ImportResult, error) {
	srcs := make([]ics.Source, 0, len(sources))
	for _, s := range sources {
		if s.URL == "" {
			continue
		}
		srcs = append(srcs, ics.Source{ID: s.ID, URL: s.URL})
	}

	results, errs := ics.NewFetcher(0).FetchAll(ctx, srcs)

	var parsed []ics.ParsedEvent
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", res.Source.ID, err))
			continue
		}
		parsed = append(parsed, events...)
	}

	from, to := store.Window()
	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      from,
		RangeEnd:        to,
	})
	if err != nil {
		errs = append(errs, err)
		return calendar.ImportResult{}, errors.Join(errs...)
	}

	return store.Import(expanded.Occurrences), errors.Join(errs...)
}
