package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score enriched leads and recommend outreach channels",
	Long: `Computes a keyword-based fit score from crawled page text and a contact
score from extracted signals, then blends them into the outreach score.
Channel recommendation follows strict priority: email, form, phone, linkedin.
Scoring is deterministic, so re-running it is always safe.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner, st, err := openRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := runner.Score(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Leads scored:  %d\n", res.Scored)
		cmd.Printf("With channel:  %d\n", res.WithChannel)
		cmd.Printf("No channel:    %d\n", res.NoChannel)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
