package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Schedule outreach sequences for scored leads",
	Long: `Plans a touch sequence for each scored lead, highest outreach score
first. Touches are spaced by the configured interval and load-leveled so no
day exceeds the per-day cap. Leads whose recommended channel is "none" are
skipped and reported.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		startDate, _ := cmd.Flags().GetString("start-date")
		limit, _ := cmd.Flags().GetInt("limit")
		if startDate == "" {
			startDate = time.Now().UTC().Format(model.DateLayout)
		}

		runner, st, err := openRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := runner.Plan(ctx, startDate, limit)
		if err != nil {
			return err
		}

		cmd.Printf("Leads planned:        %d\n", res.LeadsPlanned)
		cmd.Printf("Actions created:      %d\n", res.ActionsCreated)
		cmd.Printf("Skipped (no channel): %d\n", res.SkippedNoChannel)
		return nil
	},
}

func init() {
	f := planCmd.Flags()
	f.String("start-date", "", "first send date, YYYY-MM-DD (default today)")
	f.Int("limit", 25, "max leads to plan in this run")

	rootCmd.AddCommand(planCmd)
}
