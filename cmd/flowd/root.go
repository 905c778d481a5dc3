package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"flowd/internal/config"
)

// settings are the effective runtime parameters: defaults, then the config
// file, then explicitly set flags.
type settings struct {
	configFile string
	config.Config
	corsOrigins string
	corsMethods string
	corsHeaders string
}

func defaults() config.Config {
	return config.Config{
		Addr:         envStr("FLOWD_ADDR", ":8080"),
		CatalogPath:  envStr("FLOWD_CATALOG", "configs/catalog.yaml"),
		WeightsDir:   envStr("FLOWD_WEIGHTS_DIR", "~/.cache/flowd"),
		SessionStore: config.StoreMemory,
		SessionTTL:   "24h",
		LogLevel:     envStr("FLOWD_LOG_LEVEL", "info"),
		LogFormat:    "console",
	}
}

func newRootCmd() *cobra.Command {
	s := &settings{Config: defaults()}
	root := &cobra.Command{
		Use:           "flowd",
		Short:         "Pluggable inference back-end manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.resolve(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&s.configFile, "config", "", "config file (.yaml, .json or .toml)")
	f.StringVar(&s.CatalogPath, "catalog", s.CatalogPath, "catalog file describing pipelines, revisions and weights")
	f.StringVar(&s.LogLevel, "log-level", s.LogLevel, "log level: debug|info|warn|error")
	f.StringVar(&s.LogFormat, "log-format", s.LogFormat, "log format: console|json")

	root.AddCommand(newServeCmd(s))
	root.AddCommand(newCatalogCmd(s))
	root.AddCommand(newWeightsCmd(s))
	return root
}

// resolve layers the config file under the flags the user set explicitly.
func (s *settings) resolve(cmd *cobra.Command) error {
	if s.configFile == "" {
		return nil
	}
	fileCfg, err := config.Load(s.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	setStr := func(flag string, dst *string, v string) {
		if v != "" && !flags.Changed(flag) {
			*dst = v
		}
	}
	setStr("addr", &s.Addr, fileCfg.Addr)
	setStr("catalog", &s.CatalogPath, fileCfg.CatalogPath)
	setStr("weights-dir", &s.WeightsDir, fileCfg.WeightsDir)
	setStr("session-store", &s.SessionStore, fileCfg.SessionStore)
	setStr("redis-addr", &s.RedisAddr, fileCfg.RedisAddr)
	setStr("session-ttl", &s.SessionTTL, fileCfg.SessionTTL)
	setStr("log-level", &s.LogLevel, fileCfg.LogLevel)
	setStr("log-format", &s.LogFormat, fileCfg.LogFormat)
	if fileCfg.RedisDB != 0 && !flags.Changed("redis-db") {
		s.RedisDB = fileCfg.RedisDB
	}
	if fileCfg.MaxBodyBytes != 0 && !flags.Changed("max-body-bytes") {
		s.MaxBodyBytes = fileCfg.MaxBodyBytes
	}
	if fileCfg.CORSEnabled && !flags.Changed("cors-enabled") {
		s.CORSEnabled = true
	}
	setStr("cors-origins", &s.corsOrigins, strings.Join(fileCfg.CORSAllowedOrigins, ","))
	setStr("cors-methods", &s.corsMethods, strings.Join(fileCfg.CORSAllowedMethods, ","))
	setStr("cors-headers", &s.corsHeaders, strings.Join(fileCfg.CORSAllowedHeaders, ","))
	return nil
}

// newLogger builds the process logger from the resolved settings.
func (s *settings) newLogger() (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	var l zerolog.Logger
	switch s.LogFormat {
	case "json":
		l = zerolog.New(os.Stderr)
	case "", "console":
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", s.LogFormat)
	}
	return l.Level(lvl).With().Timestamp().Str("service", "flowd").Logger(), nil
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
