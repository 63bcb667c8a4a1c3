package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or migrate the lead database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner, st, err := openRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := runner.Init(ctx); err != nil {
			return err
		}
		cmd.Printf("Database ready (%s: %s)\n", cfg.Store.Driver, cfg.Store.DatabaseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
