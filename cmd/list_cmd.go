package cmd

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged backups grouped by source directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := newOperator()
		if err != nil {
			return err
		}

		grouped := op.Restore().ListAvailable()
		if len(grouped) == 0 {
			fmt.Println("No backups cataloged yet.")
			return nil
		}

		dirs := make([]string, 0, len(grouped))
		for name := range grouped {
			dirs = append(dirs, name)
		}
		sort.Strings(dirs)

		total := 0
		for _, dir := range dirs {
			records := grouped[dir]
			total += len(records)
			fmt.Printf("\n%s (%d backups)\n", dir, len(records))
			for i, record := range records {
				marker := "   "
				if i == 0 {
					marker = " * " // newest
				}
				fmt.Printf("%s%s\n", marker, record.Arquivo)
				fmt.Printf("     %s  %s  (%.1f%% compression, %s)\n",
					record.DataCriacao,
					humanize.Bytes(uint64(record.TamanhoBackup)),
					record.TaxaCompressao,
					record.TipoDiretorio)
			}
		}
		fmt.Printf("\nTotal: %d backups\n", total)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := newOperator()
		if err != nil {
			return err
		}

		stats := op.Catalog().Stats()
		fmt.Printf("Backups:            %d\n", stats.TotalBackups)
		fmt.Printf("Total size:         %s\n", humanize.Bytes(uint64(stats.TotalSize)))
		fmt.Printf("Unique directories: %d\n", stats.UniqueDirectories)
		if stats.TotalBackups > 0 {
			fmt.Printf("Oldest:             %s\n", stats.OldestBackup)
			fmt.Printf("Newest:             %s\n", stats.NewestBackup)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
}
