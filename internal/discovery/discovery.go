// Package discovery finds candidate companies via web search and seeds the
// lead store with their domains.
package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/store"
)

// DefaultQueries are the seed searches used when the caller supplies none.
var DefaultQueries = []string{
	"cnc machine shop",
	"precision machining services",
	"metal fabrication company",
	"contract manufacturing services",
	"injection molding company",
	"job shop machining",
}

// BuildQueries expands base queries across the given state names. With no
// states, the base queries pass through unchanged.
func BuildQueries(base, states []string) []string {
	if len(base) == 0 {
		base = DefaultQueries
	}
	if len(states) == 0 {
		return base
	}
	queries := make([]string, 0, len(base)*len(states))
	for _, q := range base {
		for _, st := range states {
			queries = append(queries, q+" "+st)
		}
	}
	return queries
}

// Result reports what one discovery run did. Inserted plus Duplicates always
// equals TotalHits, so "no results" and "all results already known" stay
// distinguishable.
type Result struct {
	TotalHits          int `json:"total_hits"`
	Inserted           int `json:"inserted"`
	Duplicates         int `json:"duplicates"`
	SkippedInvalid     int `json:"skipped_invalid"`
	SkippedExcluded    int `json:"skipped_excluded"`
	QueriesRun         int `json:"queries_run"`
	QueriesWithResults int `json:"queries_with_results"`
}

// Runner executes discovery: search, normalize, upsert.
type Runner struct {
	store    store.Store
	searcher Searcher
	cfg      config.DiscoveryConfig
}

// NewRunner creates a discovery runner.
func NewRunner(st store.Store, searcher Searcher, cfg config.DiscoveryConfig) *Runner {
	return &Runner{store: st, searcher: searcher, cfg: cfg}
}

// Run searches every query and upserts each acceptable result domain. A
// failed query is logged and skipped; it never aborts the run.
func (r *Runner) Run(ctx context.Context, queries []string, maxResults int) (*Result, error) {
	if maxResults <= 0 {
		maxResults = r.cfg.MaxResults
	}

	res := &Result{}
	for _, query := range queries {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.QueriesRun++
		log := zap.L().With(zap.String("query", query))

		hits, err := r.searcher.Search(ctx, query, maxResults)
		if err != nil {
			log.Warn("search failed", zap.Error(err))
			continue
		}
		if len(hits) > 0 {
			res.QueriesWithResults++
		}

		for _, hit := range hits {
			domain := NormalizeDomain(hit.URL)
			if domain == "" {
				res.SkippedInvalid++
				continue
			}
			if Excluded(domain, r.cfg.ExcludedDomains) {
				res.SkippedExcluded++
				continue
			}

			res.TotalHits++
			inserted, err := r.store.UpsertLead(ctx, domain, hit.URL, query)
			if err != nil {
				return res, err
			}
			if inserted {
				res.Inserted++
			} else {
				res.Duplicates++
			}
		}

		log.Info("query done",
			zap.Int("hits", len(hits)),
			zap.Int("inserted", res.Inserted),
			zap.Int("duplicates", res.Duplicates),
		)
	}
	return res, nil
}
