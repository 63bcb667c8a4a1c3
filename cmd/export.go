package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export leads and scheduled actions to CSV or XLSX",
	Long: `Writes every lead with its scores, signals, and scheduled actions to a
flat file. The format follows the extension: .xlsx gets a workbook, anything
else gets CSV.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner, st, err := openRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := runner.Export(ctx, args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Exported %d leads to %s\n", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
