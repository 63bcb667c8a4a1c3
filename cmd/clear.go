package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/pipeline"
)

var clearCmd = &cobra.Command{
	Use:   "clear-all",
	Short: "Delete every lead, page, and scheduled action",
	Long: `Wipes the entire store. This is the only way lead state ever goes
backward, so it demands the exact confirmation phrase:

  outreach-cli clear-all --confirm "` + pipeline.ClearConfirmToken + `"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		confirm, _ := cmd.Flags().GetString("confirm")

		runner, st, err := openRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := runner.ClearAll(ctx, confirm); err != nil {
			return err
		}
		cmd.Println("All lead data cleared.")
		return nil
	},
}

func init() {
	clearCmd.Flags().String("confirm", "", "confirmation phrase, must match exactly")
	rootCmd.AddCommand(clearCmd)
}
