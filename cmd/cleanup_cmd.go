package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kebairia/cofre/internal/operations"
)

var (
	cleanupDays      int
	cleanupMaxPerDir int
	cleanupMaxGB     int
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove backups past the age or per-directory count limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		op, err := operations.NewOperator(cfg)
		if err != nil {
			return err
		}

		// Flags override the configured policy.
		days, maxPerDir := cfg.Retention.DaysToKeep, cfg.Retention.MaxPerDirectory
		if cmd.Flags().Changed("days") {
			days = cleanupDays
		}
		if cmd.Flags().Changed("max-per-dir") {
			maxPerDir = cleanupMaxPerDir
		}

		stats := op.Retention().CleanupByAgeAndCount(days, maxPerDir)
		fmt.Printf("Removed %d backups, kept %d, freed %s\n",
			stats.RemovedCount, stats.KeptCount, humanize.Bytes(uint64(stats.FreedBytes)))
		return nil
	},
}

var cleanupSizeCmd = &cobra.Command{
	Use:   "cleanup-size",
	Short: "Remove oldest backups until the total size fits the limit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		op, err := operations.NewOperator(cfg)
		if err != nil {
			return err
		}

		maxGB := cfg.Retention.MaxTotalSizeGB
		if cmd.Flags().Changed("max-gb") || maxGB == 0 {
			maxGB = cleanupMaxGB
		}
		maxBytes := int64(maxGB) * 1024 * 1024 * 1024
		stats := op.Retention().CleanupBySize(maxBytes)
		fmt.Printf("Removed %d backups, kept %d, freed %s\n",
			stats.RemovedCount, stats.KeptCount, humanize.Bytes(uint64(stats.FreedBytes)))
		return nil
	},
}

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Delete archive files not referenced by the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := newOperator()
		if err != nil {
			return err
		}

		removed := op.Retention().RemoveOrphanFiles()
		fmt.Printf("Removed %d orphan files\n", removed)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "keep backups newer than this many days")
	cleanupCmd.Flags().IntVar(&cleanupMaxPerDir, "max-per-dir", 5, "keep at most this many backups per directory")
	cleanupSizeCmd.Flags().IntVar(&cleanupMaxGB, "max-gb", 10, "total size limit in GB")
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(cleanupSizeCmd)
	rootCmd.AddCommand(orphansCmd)
}
