package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bc-tools/sales-board/pkg/models/domain"
	"github.com/bc-tools/sales-board/pkg/runtime/terminal"
	"github.com/bc-tools/sales-board/pkg/services/config"
	"github.com/bc-tools/sales-board/pkg/services/directory"
	"github.com/bc-tools/sales-board/pkg/services/leaderboard"
	"github.com/bc-tools/sales-board/pkg/services/period"
	"github.com/bc-tools/sales-board/pkg/services/report"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	query   period.Query
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "sales-board",
		Short: "Run one leaderboard aggregation and print the result",
		RunE:  run,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to an optional settings file (yaml)")
	rootCmd.Flags().StringVar(&query.Filter, "filter", "daily", "Aggregation window: daily, weekly, monthly, yearly or ytd")
	rootCmd.Flags().StringVar(&query.Date, "date", "", "Explicit date (YYYY-MM-DD) for the daily filter")
	rootCmd.Flags().IntVar(&query.Week, "week", 0, "Week of month (1-4) for the weekly filter")
	rootCmd.Flags().IntVar(&query.Month, "month", 0, "Month (1-12) for the weekly and monthly filters")
	rootCmd.Flags().IntVar(&query.Year, "year", 0, "Target year")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	settings, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	fetcher := report.NewClient(report.Config{
		BaseURL:       settings.Upstream.BaseURL,
		MaxPages:      settings.Upstream.MaxPages,
		MaxRetries:    settings.Upstream.MaxRetries,
		RetryWaitMin:  settings.Upstream.RetryWaitMin,
		RetryWaitMax:  settings.Upstream.RetryWaitMax,
		RateLimitWait: settings.Upstream.RateLimitWait,
		PageDelay:     settings.Upstream.PageDelay,
	})
	salesService := leaderboard.NewService(leaderboard.Options{
		Directory:  directory.NewResolver(nil, settings.Upstream.BaseURL),
		Aggregator: leaderboard.NewAggregator(fetcher, settings.Upstream.ReportDelay),
		TTL:        settings.Cache.TTL,
		Retention:  settings.Cache.Retention,
	})

	for event := range salesService.StreamLeaderboard(ctx, query) {
		switch event.Type {
		case domain.EventProgress:
			logger.Info().
				Str("clinic", event.Progress.Clinic).
				Int("percent", event.Progress.Percent).
				Int("current", event.Progress.Current).
				Int("total", event.Progress.Total).
				Msg("aggregating")
		case domain.EventError:
			return fmt.Errorf("aggregation failed: %w", event.Err)
		case domain.EventComplete:
			resolved := period.Resolve(query, time.Now())
			return terminal.NewReporter(os.Stdout).Handle(resolved, event.Rows)
		}
	}
	return fmt.Errorf("aggregation ended without a result")
}
