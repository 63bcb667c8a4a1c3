package main

import (
	"bufio"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search the web for candidate companies and seed the lead store",
	Long: `Runs each query against the search endpoints, normalizes result URLs to
root domains, and upserts them as leads. Re-discovering a known domain counts
as a duplicate, never an error, so the summary distinguishes "no results"
from "all results already known".

Examples:
  # Built-in queries
  outreach-cli discover

  # Custom queries expanded across states
  outreach-cli discover -q "cnc machine shop" -q "metal fabrication" --states Ohio,Indiana

  # Queries from a file, one per line
  outreach-cli discover --queries-file queries.txt --max-results 10`,
	RunE: runDiscover,
}

func init() {
	f := discoverCmd.Flags()
	f.StringArrayP("query", "q", nil, "search query (repeatable)")
	f.String("queries-file", "", "file with one query per line, # comments allowed")
	f.String("states", "", "comma-separated state names appended to each query")
	f.Int("max-results", 0, "max results per query (0=config default)")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queries, _ := cmd.Flags().GetStringArray("query")
	queriesFile, _ := cmd.Flags().GetString("queries-file")
	statesFlag, _ := cmd.Flags().GetString("states")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	if queriesFile != "" {
		fromFile, err := readQueriesFile(queriesFile)
		if err != nil {
			return err
		}
		queries = append(queries, fromFile...)
	}
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

	res, err := runner.Discover(ctx, queries, states, maxResults)
	if err != nil {
		return err
	}

	cmd.Printf("Queries run:        %d (%d with results)\n", res.QueriesRun, res.QueriesWithResults)
	cmd.Printf("Hits:               %d\n", res.TotalHits)
	cmd.Printf("New leads:          %d\n", res.Inserted)
	cmd.Printf("Already known:      %d\n", res.Duplicates)
	cmd.Printf("Skipped (invalid):  %d\n", res.SkippedInvalid)
	cmd.Printf("Skipped (excluded): %d\n", res.SkippedExcluded)
	return nil
}

func readQueriesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discover: open queries file %s", path)
	}
	defer func() { _ = f.Close() }()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	return queries, eris.Wrapf(scanner.Err(), "discover: read queries file %s", path)
}
