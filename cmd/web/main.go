package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bc-tools/sales-board/pkg/server"
	"github.com/bc-tools/sales-board/pkg/services/config"
	"github.com/bc-tools/sales-board/pkg/services/directory"
	"github.com/bc-tools/sales-board/pkg/services/leaderboard"
	"github.com/bc-tools/sales-board/pkg/services/report"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the sales leaderboard web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to an optional settings file (yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

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
	resolver := directory.NewResolver(
		&http.Client{Timeout: 15 * time.Second},
		settings.Upstream.BaseURL,
	)
	salesService := leaderboard.NewService(leaderboard.Options{
		Directory:  resolver,
		Aggregator: leaderboard.NewAggregator(fetcher, settings.Upstream.ReportDelay),
		TTL:        settings.Cache.TTL,
		Retention:  settings.Cache.Retention,
	})

	addr := settings.Addr
	if host, port := os.Getenv("SERVER_HOST"), os.Getenv("SERVER_PORT"); host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}

	logger.Info().
		Str("upstream", settings.Upstream.BaseURL).
		Dur("cache_ttl", settings.Cache.TTL).
		Msg("configuration loaded")

	api := server.NewWebAPI(server.Config{
		Addr:            addr,
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Sales:  salesService,
			Logger: logger,
		},
	})

	return api.Start()
}
