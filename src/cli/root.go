// Package cli wires the configured components together behind the
// quizsentry command.
package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/quizsentry/quizsentry/src/accounts"
	"github.com/quizsentry/quizsentry/src/answercache"
	"github.com/quizsentry/quizsentry/src/config"
	"github.com/quizsentry/quizsentry/src/logging"
	"github.com/quizsentry/quizsentry/src/monitor"
	"github.com/quizsentry/quizsentry/src/oracle"
	"github.com/quizsentry/quizsentry/src/submit"
	"github.com/quizsentry/quizsentry/src/telemetry"
	venuediscord "github.com/quizsentry/quizsentry/src/venue/discord"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "quizsentry",
	Short:         "Watches a chat venue for quiz events and answers them across many identities",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the monitoring loop",
	RunE:  runMonitor,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "quizsentry.yaml", "path to config file")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	telemetry.Init()
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Warnw("metrics server stopped", "err", err)
			}
		}()
	}

	store, err := answercache.Open(answercache.Options{
		Backend:  cfg.Cache.Backend,
		FilePath: cfg.Cache.File,
		RedisURL: cfg.Cache.RedisURL,
		MySQLDSN: cfg.Cache.MySQLDSN,
	}, log)
	if err != nil {
		return fmt.Errorf("open answer cache: %w", err)
	}
	defer func() { _ = store.Close() }()

	oracleClient := oracle.New(oracle.Config{
		Responder:       cfg.Oracle.Responder,
		ResponderSender: cfg.Oracle.ResponderSender,
		ResearchWindow:  config.Duration(cfg.Oracle.ResearchWindow, 0),
		SettleDelay:     config.Duration(cfg.Oracle.SettleDelay, 0),
		Attempts:        cfg.Oracle.Attempts,
		RetryGap:        config.Duration(cfg.Oracle.RetryGap, 0),
		FetchLimit:      cfg.Oracle.FetchLimit,
	}, log)

	coordinator := submit.New(submit.Config{
		Venue:         cfg.Venue.Target,
		EventSource:   cfg.Venue.EventSource,
		BatchSize:     cfg.Submit.BatchSize,
		BatchDelay:    config.Duration(cfg.Submit.BatchDelay, 0),
		IdentityDelay: config.Duration(cfg.Submit.IdentityDelay, 0),
		RatePause:     config.Duration(cfg.Submit.RatePause, 0),
		ScanLimit:     cfg.Submit.ScanLimit,
	}, log)

	mon := monitor.New(monitor.Config{
		Venue:                cfg.Venue.Target,
		EventSource:          cfg.Venue.EventSource,
		ScanInterval:         config.Duration(cfg.Venue.ScanInterval, 0),
		ScanLimit:            cfg.Venue.ScanLimit,
		MaxEventAge:          config.Duration(cfg.Venue.MaxEventAge, 0),
		Cooldown:             config.Duration(cfg.Venue.Cooldown, 0),
		MaxConsecutiveErrors: cfg.Venue.MaxErrors,
		ReconnectDelay:       config.Duration(cfg.Venue.ReconnectDelay, 0),
		ReconnectRetries:     cfg.Venue.ReconnectRetries,
		OracleIdentity:       cfg.Oracle.Identity,
	},
		accounts.NewFileSource(cfg.Accounts.File),
		venuediscord.NewConnector(log),
		store, oracleClient, coordinator, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("quizsentry starting", "venue", cfg.Venue.Target, "oracle", cfg.Oracle.Responder)
	return mon.Run(ctx)
}
