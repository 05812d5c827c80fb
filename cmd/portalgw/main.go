// Package main is the entry point for the university portal gateway.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/opencampus/portalgw/internal/config"
	"github.com/opencampus/portalgw/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	cfg := loadConfig(flags.configPath)

	logger := initProcessLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting portalgw",
		observability.String("version", version),
		observability.String("config", flags.configPath),
	)

	app, err := newApplication(cfg, flags.configPath, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", observability.Error(err))
	}

	app.run()
}

func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("PORTALGW_CONFIG_PATH", "configs/portal.yaml"),
		"Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		showVersion: *showVersion,
	}
}

func printVersion() {
	fmt.Printf("portalgw version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

func loadConfig(path string) *config.PortalConfig {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// initProcessLogger builds the zap logger backing the local sink. The
// pipeline-only "http" level maps to debug so outcome records stay
// visible locally.
func initProcessLogger(cfg *config.PortalConfig) observability.Logger {
	level := cfg.Logging.Level
	if level == "http" {
		level = "debug"
	}

	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
