package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreDest string

var restoreCmd = &cobra.Command{
	Use:   "restore <archive>",
	Short: "Restore a cataloged backup archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := newOperator()
		if err != nil {
			return err
		}

		if err := op.Restore().RestoreByName(args[0], restoreDest); err != nil {
			return err
		}
		fmt.Printf("Restored %s under %s\n", args[0], restoreDest)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <archive>",
	Short: "Verify an archive against its cataloged hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := newOperator()
		if err != nil {
			return err
		}

		ok, err := op.Restore().VerifyIntegrity(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("integrity check FAILED for %s", args[0])
		}
		fmt.Printf("Integrity OK: %s\n", args[0])
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVarP(&restoreDest, "dest", "d", ".", "destination path; extraction recreates the archived directory under its parent")
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(verifyCmd)
}
