package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long: `Serves read-only lead listing, stats, CSV download, and trigger
endpoints for each pipeline stage. Shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port, _ := cmd.Flags().GetInt("port")
		if port > 0 {
			cfg.Server.Port = port
		}

		runner, st, err := openRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := runner.Init(ctx); err != nil {
			return err
		}

		srv := server.New(runner, cfg.Server)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(gctx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (0=config default)")
	rootCmd.AddCommand(serveCmd)
}
