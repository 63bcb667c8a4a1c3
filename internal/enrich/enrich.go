package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// unreachableNote marks leads whose site never answered. They still advance
// to enriched so re-runs do not retry them forever.
const unreachableNote = "Could not fetch site"

// Result reports what one enrichment run did.
type Result struct {
	Processed    int `json:"processed"`
	WithSignals  int `json:"with_signals"`
	Unreachable  int `json:"unreachable"`
	PagesFetched int `json:"pages_fetched"`
}

// Runner crawls eligible leads and stores their contact signals.
type Runner struct {
	store   store.Store
	fetcher *Fetcher
	cfg     config.CrawlConfig
}

// NewRunner creates an enrichment runner.
func NewRunner(st store.Store, fetcher *Fetcher, cfg config.CrawlConfig) *Runner {
	return &Runner{store: st, fetcher: fetcher, cfg: cfg}
}

// Run enriches up to limit leads. maxPages <= 0 uses the configured cap.
// Page failures are logged and skipped; a lead whose every page fails is
// marked enriched with empty signals rather than left in limbo.
func (r *Runner) Run(ctx context.Context, limit, maxPages int) (*Result, error) {
	if maxPages <= 0 {
		maxPages = r.cfg.MaxPages
	}
	if maxPages <= 0 {
		maxPages = 4
	}

	leads, err := r.store.LeadsForEnrichment(ctx, limit)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, lead := range leads {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		fetched, hasSignals, err := r.enrichLead(ctx, lead, maxPages)
		if err != nil {
			return res, err
		}
		res.Processed++
		res.PagesFetched += fetched
		if fetched == 0 {
			res.Unreachable++
		}
		if hasSignals {
			res.WithSignals++
		}
	}
	return res, nil
}

func (r *Runner) enrichLead(ctx context.Context, lead model.Lead, maxPages int) (int, bool, error) {
	log := zap.L().With(zap.String("domain", lead.Domain))

	homepage := lead.URL
	if homepage == "" {
		homepage = "https://" + lead.Domain
	}

	var extracts []PageExtract
	fetched := 0

	finalURL, html, err := r.fetcher.FetchHomepage(ctx, homepage)
	if err != nil {
		log.Warn("homepage unreachable", zap.Error(err))
	} else {
		ex := ExtractPage(finalURL, html)
		extracts = append(extracts, ex)
		fetched++
		if err := r.store.SavePage(ctx, lead.ID, finalURL, ex.Title, ex.Text); err != nil {
			return fetched, false, err
		}

		for _, sub := range CandidateSubpages(finalURL, ex.Links, maxPages-1) {
			subHTML, err := r.fetcher.Fetch(ctx, sub)
			if err != nil {
				log.Warn("subpage fetch failed", zap.String("url", sub), zap.Error(err))
				continue
			}
			subEx := ExtractPage(sub, subHTML)
			extracts = append(extracts, subEx)
			fetched++
			if err := r.store.SavePage(ctx, lead.ID, sub, subEx.Title, subEx.Text); err != nil {
				return fetched, false, err
			}
		}
	}

	upd := model.EnrichmentUpdate{
		Signals:   BuildSignals(extracts),
		CrawledAt: time.Now().UTC(),
	}
	for _, ex := range extracts {
		if ex.CompanyName != "" {
			upd.Name = ex.CompanyName
			break
		}
	}
	if fetched == 0 {
		upd.Notes = unreachableNote
	}

	if err := r.store.UpdateEnrichment(ctx, lead.ID, upd); err != nil {
		return fetched, false, err
	}

	log.Info("lead enriched",
		zap.Int("pages", fetched),
		zap.Bool("email", upd.Signals.Email != ""),
		zap.Bool("phone", upd.Signals.Phone != ""),
		zap.Bool("form", upd.Signals.FormURL != ""),
		zap.Bool("linkedin", upd.Signals.LinkedInURL != ""),
	)
	return fetched, !upd.Signals.Empty(), nil
}
