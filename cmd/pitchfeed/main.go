// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pitchfeed CLI. Each pipeline
// stage is a subcommand: discover, extract, dataset, normalize,
// teamform, and report. A run flows through them in that order, all
// stages sharing one run store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lstanic/pitchfeed/internal/navigator"
	"github.com/lstanic/pitchfeed/internal/secrets"
	"github.com/lstanic/pitchfeed/internal/store"
	"github.com/lstanic/pitchfeed/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds scraping credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is built once the persistent flags are parsed.
var logger *slog.Logger

const (
	defaultBaseURL      = "https://www.sofascore.com"
	defaultTimeout      = 30 * time.Second
	defaultRequestDelay = 1 * time.Second
	defaultMaxAttempts  = 3
	defaultCacheTTL     = 5 * time.Minute
	defaultDataDir      = "data"
)

// rootCmd is the base command for the pitchfeed CLI.
var rootCmd = &cobra.Command{
	Use:   "pitchfeed",
	Short: "Player-match statistics pipeline for football modeling",
	Long: `pitchfeed collects player-level football match statistics from a web
source and normalizes them into a feature table keyed by (player, date),
consumed by a downstream representation-learning model.

The pipeline runs in stages, each a subcommand sharing one run store:
discover enumerates a league season's matches, extract scrapes each match
page, dataset aggregates the raw rows, normalize produces the feature
table, and teamform derives trailing team form. report summarizes a run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = newLogger(verbose)

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			go serveMetrics(addr)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pitchfeed.yaml or ~/.config/pitchfeed/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "show debug logs")
	rootCmd.PersistentFlags().String("data-dir", "", `base directory for the run store and exports (default "data")`)
	rootCmd.PersistentFlags().String("metrics-addr", "", "address to serve Prometheus run metrics on while a stage runs")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pitchfeed")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pitchfeed"))
		}
	}

	viper.SetEnvPrefix("PITCHFEED")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the tinted slog handler; --verbose lowers the level
// to debug.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
}

// serveMetrics exposes the Prometheus collectors for the duration of
// the stage. Long scrapes are watched from outside this way.
func serveMetrics(addr string) {
	logger.Info("serving metrics", "addr", addr)
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}

// addSessionFlags registers the scraping-session flags shared by the
// discover and extract stages.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-url", "", "source root URL (default "+defaultBaseURL+")")
	cmd.Flags().String("selector-file", "", "YAML selector table replacing the built-in one")
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	cmd.Flags().Duration("request-delay", 0, "minimum pause between page fetches (default 1s)")
	cmd.Flags().Int("max-attempts", 0, "attempts per fetch before giving up (default 3)")
	cmd.Flags().Duration("cache-ttl", 0, "in-memory page cache lifetime, 0s disables (default 5m)")
}

// sessionConfig builds the navigator configuration from the session
// flags, with secrets filling the proxy and cookie when flags and
// config leave them empty.
func sessionConfig(cmd *cobra.Command) types.NavigatorConfig {
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("request-delay")
	if delay == 0 {
		delay = defaultRequestDelay
	}
	attempts, _ := cmd.Flags().GetInt("max-attempts")
	if attempts == 0 {
		attempts = defaultMaxAttempts
	}
	ttl, _ := cmd.Flags().GetDuration("cache-ttl")
	if !cmd.Flags().Changed("cache-ttl") {
		ttl = defaultCacheTTL
	}
	selectorFile, _ := cmd.Flags().GetString("selector-file")

	cfg := types.NavigatorConfig{
		HTTPConfig:   types.HTTPConfig{Timeout: timeout},
		BaseURL:      baseURL,
		SelectorFile: selectorFile,
		RequestDelay: delay,
		MaxAttempts:  attempts,
		CacheTTL:     ttl,
	}
	secrets.Apply(loadedSecrets, &cfg)
	return cfg
}

// newSession opens the run's scraping session; the caller owns it and
// must Close it when the stage ends.
func newSession(cmd *cobra.Command) (*navigator.Session, error) {
	return navigator.NewSession(sessionConfig(cmd), logger)
}

// openStore opens the shared run store under --data-dir.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = viper.GetString("store.data_dir")
	}
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	return store.NewStore(types.StoreConfig{DataDir: dataDir})
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
