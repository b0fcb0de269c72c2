package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kebairia/cofre/internal/config"
	"github.com/kebairia/cofre/internal/logger"
	"github.com/kebairia/cofre/internal/operations"
)

// ConfigFile is the path to the YAML configuration.
var (
	ConfigFile string
	// rootCmd is the base command for cofre.
	rootCmd = &cobra.Command{
		Use:   "cofre",
		Short: "Directory backup tool with catalog, retention and restore",
		Long: `cofre snapshots a directory tree into a compressed archive,
catalogs every snapshot, enforces retention policies and restores
or verifies archives on demand.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() {
	log, err := logger.Init()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig loads the configured YAML file, or the built-in defaults
// when no --config flag was given.
func loadConfig() (config.Config, error) {
	if ConfigFile == "" {
		return config.Default(), nil
	}
	var cfg config.Config
	if err := cfg.Load(ConfigFile); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newOperator builds an Operator from the active configuration.
func newOperator() (*operations.Operator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return operations.NewOperator(cfg)
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&ConfigFile, "config", "c", "", "path to YAML config file")
}
