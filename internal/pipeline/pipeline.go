// Package pipeline wires the stages together behind one façade used by both
// the CLI and the dashboard API.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/discovery"
	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/outreach"
	"github.com/sells-group/outreach-cli/internal/scorer"
	"github.com/sells-group/outreach-cli/internal/sender"
	"github.com/sells-group/outreach-cli/internal/store"
)

// ClearConfirmToken must be typed verbatim to wipe the store.
const ClearConfirmToken = "CLEAR ALL LEAD DATA"

// Runner owns the store and executes pipeline stages.
type Runner struct {
	Store store.Store
	cfg   *config.Config
}

// New creates a pipeline runner over an open store.
func New(st store.Store, cfg *config.Config) *Runner {
	return &Runner{Store: st, cfg: cfg}
}

// Init applies store migrations.
func (r *Runner) Init(ctx context.Context) error {
	return r.Store.Migrate(ctx)
}

// Discover searches for candidate companies. Empty queries fall back to the
// defaults, expanded across states when given.
func (r *Runner) Discover(ctx context.Context, queries, states []string, maxResults int) (*discovery.Result, error) {
	runner := discovery.NewRunner(r.Store, discovery.NewDuckDuckGo(r.cfg.Discovery), r.cfg.Discovery)
	return runner.Run(ctx, discovery.BuildQueries(queries, states), maxResults)
}

// Enrich crawls eligible leads for contact signals.
func (r *Runner) Enrich(ctx context.Context, limit, maxPages int) (*enrich.Result, error) {
	runner := enrich.NewRunner(r.Store, enrich.NewFetcher(r.cfg.Crawl), r.cfg.Crawl)
	return runner.Run(ctx, limit, maxPages)
}

// Score computes scores and channel recommendations for enriched leads.
func (r *Runner) Score(ctx context.Context) (*scorer.Result, error) {
	runner := scorer.NewRunner(r.Store, scorer.New(r.cfg.Scorer))
	return runner.Run(ctx)
}

// Plan schedules outreach sequences for scored leads.
func (r *Runner) Plan(ctx context.Context, startDate string, limit int) (*outreach.PlanResult, error) {
	touches, err := outreach.LoadTouches(r.cfg.Outreach.TemplatesPath)
	if err != nil {
		return nil, err
	}
	planner := outreach.NewPlanner(r.Store, touches, r.cfg.Outreach)
	return planner.Plan(ctx, startDate, limit)
}

// Send executes due actions for the given date.
func (r *Runner) Send(ctx context.Context, actionDate string, limit int, live bool) (*sender.Result, error) {
	s := sender.New(r.Store, nil, r.cfg.SMTP, r.cfg.Outreach.SendRatePerSec)
	return s.Run(ctx, actionDate, limit, live)
}

// RunAllResult aggregates one full pipeline pass.
type RunAllResult struct {
	Discovery *discovery.Result    `json:"discovery"`
	Enrich    *enrich.Result       `json:"enrich"`
	Score     *scorer.Result       `json:"score"`
	Plan      *outreach.PlanResult `json:"plan"`
	Send      *sender.Result       `json:"send"`
}

// RunAll executes discover, enrich, score, plan, and a dry-run send for
// today, in order. Any stage error stops the pass.
func (r *Runner) RunAll(ctx context.Context, queries, states []string, maxResults, enrichLimit, planLimit int) (*RunAllResult, error) {
	res := &RunAllResult{}
	var err error

	if res.Discovery, err = r.Discover(ctx, queries, states, maxResults); err != nil {
		return res, eris.Wrap(err, "pipeline: discover")
	}
	if res.Enrich, err = r.Enrich(ctx, enrichLimit, 0); err != nil {
		return res, eris.Wrap(err, "pipeline: enrich")
	}
	if res.Score, err = r.Score(ctx); err != nil {
		return res, eris.Wrap(err, "pipeline: score")
	}

	today := time.Now().UTC().Format(model.DateLayout)
	if res.Plan, err = r.Plan(ctx, today, planLimit); err != nil {
		return res, eris.Wrap(err, "pipeline: plan")
	}
	if res.Send, err = r.Send(ctx, today, 0, false); err != nil {
		return res, eris.Wrap(err, "pipeline: send")
	}

	zap.L().Info("pipeline pass complete",
		zap.Int("discovered", res.Discovery.Inserted),
		zap.Int("enriched", res.Enrich.Processed),
		zap.Int("scored", res.Score.Scored),
		zap.Int("planned", res.Plan.LeadsPlanned),
		zap.Int("simulated", res.Send.Simulated),
	)
	return res, nil
}

// Export writes all leads to path and returns the row count.
func (r *Runner) Export(ctx context.Context, path string) (int, error) {
	return export.ToFile(ctx, r.Store, path)
}

// ClearAll wipes every lead, page, and action. The confirmation token must
// match exactly; anything else is an input error and nothing is deleted.
func (r *Runner) ClearAll(ctx context.Context, confirmToken string) error {
	if confirmToken != ClearConfirmToken {
		return eris.Errorf("pipeline: refusing to clear, confirmation must be exactly %q", ClearConfirmToken)
	}
	return r.Store.ClearAll(ctx)
}
