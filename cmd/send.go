package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Execute due outreach actions",
	Long: `Selects pending email actions scheduled on or before the target date and
executes them in sequence order. Without --live, actions are logged and
marked simulated; nothing leaves the machine. With --live, each email goes
out over the SMTP endpoint configured via OUTREACH_SMTP_* environment
variables, and missing credentials abort before anything is sent.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		actionDate, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")
		live, _ := cmd.Flags().GetBool("live")
		if actionDate == "" {
			actionDate = time.Now().UTC().Format(model.DateLayout)
		}

		runner, st, err := openRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := runner.Send(ctx, actionDate, limit, live)
		if err != nil {
			return err
		}

		mode := "dry run"
		if res.Live {
			mode = "live"
		}
		cmd.Printf("Mode:       %s\n", mode)
		cmd.Printf("Due:        %d\n", res.Due)
		cmd.Printf("Sent:       %d\n", res.Sent)
		cmd.Printf("Simulated:  %d\n", res.Simulated)
		cmd.Printf("Failed:     %d\n", res.Failed)
		cmd.Printf("Skipped:    %d\n", res.Skipped)
		return nil
	},
}

func init() {
	f := sendCmd.Flags()
	f.String("date", "", "action date, YYYY-MM-DD (default today)")
	f.Int("limit", 0, "max actions to execute (0=no limit beyond the default window)")
	f.Bool("live", false, "actually send email instead of simulating")

	rootCmd.AddCommand(sendCmd)
}
