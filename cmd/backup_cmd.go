package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kebairia/cofre/internal/compress"
	"github.com/kebairia/cofre/internal/operations"
)

var (
	backupName    string
	backupFormat  string
	backupLevel   int
	backupExclude []string
)

var backupCmd = &cobra.Command{
	Use:   "backup <source>",
	Short: "Create a backup of a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := newOperator()
		if err != nil {
			return err
		}

		source := ""
		if len(args) == 1 {
			source = args[0]
		}

		result, err := op.CreateBackup(operations.CreateOptions{
			SourceDir:       source,
			Name:            backupName,
			Format:          compress.Format(backupFormat),
			Level:           backupLevel,
			ExtraExclusions: backupExclude,
		})
		if err != nil {
			return err
		}

		record := result.Record
		fmt.Printf("Backup complete: %s\n", result.ArchiveName)
		fmt.Printf("  files included: %d (excluded: %d files, %d dirs)\n",
			record.TotalArquivos, record.ArquivosExcluidos, record.DiretoriosExcluidos)
		fmt.Printf("  original size:  %s\n", humanize.Bytes(uint64(record.TamanhoOriginal)))
		fmt.Printf("  archive size:   %s (%.1f%% compression)\n",
			humanize.Bytes(uint64(record.TamanhoBackup)), record.TaxaCompressao)
		fmt.Printf("  hash:           %s\n", record.HashMD5)
		fmt.Printf("  location:       %s\n", result.ArchivePath)
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVarP(&backupName, "name", "n", "", "custom archive name prefix")
	backupCmd.Flags().StringVarP(&backupFormat, "format", "f", "", "archive format: tar or zip (default from config)")
	backupCmd.Flags().IntVarP(&backupLevel, "level", "l", operations.DefaultLevel, "compression level 0-9 (default from config)")
	backupCmd.Flags().StringSliceVarP(&backupExclude, "exclude", "e", nil, "extra exclusion patterns (comma separated)")
	rootCmd.AddCommand(backupCmd)
}
