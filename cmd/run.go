package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: discover, enrich, score, plan, dry-run send",
	Long: `Executes every stage in order against the configured store. The final
send is always a dry run; use the send command with --live for real delivery.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queries, _ := cmd.Flags().GetStringArray("query")
		statesFlag, _ := cmd.Flags().GetString("states")
		maxResults, _ := cmd.Flags().GetInt("max-results")
		enrichLimit, _ := cmd.Flags().GetInt("enrich-limit")
		planLimit, _ := cmd.Flags().GetInt("plan-limit")

		var states []string
		for _, s := range strings.Split(statesFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				states = append(states, s)
			}
		}

		runner, st, err := openRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := runner.Init(ctx); err != nil {
			return err
		}

		res, err := runner.RunAll(ctx, queries, states, maxResults, enrichLimit, planLimit)
		if err != nil {
			return err
		}

		cmd.Printf("Discovered:  %d new, %d duplicates (%d hits)\n",
			res.Discovery.Inserted, res.Discovery.Duplicates, res.Discovery.TotalHits)
		cmd.Printf("Enriched:    %d (%d with signals, %d unreachable)\n",
			res.Enrich.Processed, res.Enrich.WithSignals, res.Enrich.Unreachable)
		cmd.Printf("Scored:      %d (%d with channel)\n", res.Score.Scored, res.Score.WithChannel)
		cmd.Printf("Planned:     %d leads, %d actions\n", res.Plan.LeadsPlanned, res.Plan.ActionsCreated)
		cmd.Printf("Send (dry):  %d simulated\n", res.Send.Simulated)
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringArrayP("query", "q", nil, "search query (repeatable, default built-ins)")
	f.String("states", "", "comma-separated state names appended to each query")
	f.Int("max-results", 0, "max results per query (0=config default)")
	f.Int("enrich-limit", 50, "max leads to enrich")
	f.Int("plan-limit", 25, "max leads to plan")

	rootCmd.AddCommand(runCmd)
}
