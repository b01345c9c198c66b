package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xaitan80/fileserve/internal/config"
	"github.com/xaitan80/fileserve/internal/log"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fileserve",
	Short: "Serve a directory over a minimal HTTP responder built on raw TCP.",
	Long: `fileserve answers HTTP/1.1 and HTTP/2 GET requests with files and
directory listings from a single root directory.

Running it without a subcommand is the same as 'fileserve serve'.
`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./fileserve.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	addServeFlags(rootCmd)

	rootCmd.AddCommand(serveCmd, fetchCmd, dumpCmd)
}

// loadConfig reads the config file and sets up logging from it.
func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		path = "fileserve.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Verbose = true
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	opts := []log.Option{log.WithLevel(level)}
	if cfg.Verbose {
		opts = append(opts, log.WithDevMode())
	}
	opts = append(opts, log.WithJSON(cfg.JSONLogs))
	log.Init(opts...)
	return cfg, nil
}
