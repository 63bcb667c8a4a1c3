package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Crawl lead sites and extract contact signals",
	Long: `Fetches each un-enriched lead's homepage plus likely contact and about
pages, extracting email addresses, phone numbers, contact-form URLs, and
LinkedIn links. Unreachable sites are marked enriched with empty signals so
they do not block later runs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limit, _ := cmd.Flags().GetInt("limit")
		maxPages, _ := cmd.Flags().GetInt("max-pages")

		runner, st, err := openRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := runner.Enrich(ctx, limit, maxPages)
		if err != nil {
			return err
		}

		cmd.Printf("Leads enriched:  %d\n", res.Processed)
		cmd.Printf("With signals:    %d\n", res.WithSignals)
		cmd.Printf("Unreachable:     %d\n", res.Unreachable)
		cmd.Printf("Pages fetched:   %d\n", res.PagesFetched)
		return nil
	},
}

func init() {
	f := enrichCmd.Flags()
	f.Int("limit", 50, "max leads to enrich in this run")
	f.Int("max-pages", 0, "max pages per site (0=config default)")

	rootCmd.AddCommand(enrichCmd)
}
