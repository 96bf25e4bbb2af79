package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	cfgpkg "github.com/KaramelBytes/datasense-cli/internal/config"
	"github.com/KaramelBytes/datasense-cli/internal/console"
	"github.com/KaramelBytes/datasense-cli/internal/logging"
	"github.com/KaramelBytes/datasense-cli/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Service flags (override config if set)
	flagServiceURL     string
	flagHTTPTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datasense",
	Short: "DataSense CLI: upload a CSV and ask questions about it",
	Long: `DataSense sends a CSV file to a remote analysis service and lets you ask
free-text questions about the uploaded data, keeping the answers and their
insights in a running history.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datasense/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagServiceURL, "service-url", "", "analysis service origin (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds, 0 = none (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("service-url") && flagServiceURL != "" {
		cfg.ServiceURL = flagServiceURL
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec >= 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
}

// ensureConfig covers commands run without cobra's initializers (tests).
func ensureConfig() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func newClient() *service.Client {
	c := ensureConfig()
	return service.NewClientWithPaths(c.ServiceURL, c.UploadPath, c.QueryPath, time.Duration(c.HTTPTimeoutSec)*time.Second)
}

// newLogger builds the diagnostics logger. When quiet is set (the console owns
// the terminal) logs go to log_file, or to ~/.datasense/console.log with
// --debug, or nowhere.
func newLogger(quiet bool) (*zap.Logger, io.Closer, error) {
	c := ensureConfig()
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		level = zapcore.DebugLevel
	}
	path := c.LogFile
	if quiet && path == "" {
		if !debug {
			return logging.Discard(), logging.NopCloser, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, ".datasense", "console.log")
	}
	if !quiet && path == "" && !debug {
		level = zapcore.WarnLevel
	}
	return logging.Open(path, level)
}

func newController(logger *zap.Logger) (*console.Controller, error) {
	policy, err := console.ParsePolicy(ensureConfig().QueryPolicy)
	if err != nil {
		return nil, err
	}
	return console.NewController(newClient(), console.WithPolicy(policy), console.WithLogger(logger)), nil
}
