package scorer

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Result reports what one scoring run did.
type Result struct {
	Scored      int `json:"scored"`
	WithChannel int `json:"with_channel"`
	NoChannel   int `json:"no_channel"`
}

// Runner scores every eligible lead.
type Runner struct {
	store  store.Store
	scorer *Scorer
}

// NewRunner creates a scoring runner.
func NewRunner(st store.Store, scorer *Scorer) *Runner {
	return &Runner{store: st, scorer: scorer}
}

// Run scores all enriched leads. Re-running rescores already-scored leads,
// which is safe because scoring is pure.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	leads, err := r.store.LeadsForScoring(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, lead := range leads {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		text, err := r.store.LeadText(ctx, lead.ID)
		if err != nil {
			return res, err
		}

		upd := r.scorer.Score(lead.Signals, text)
		if err := r.store.UpdateScore(ctx, lead.ID, upd); err != nil {
			return res, err
		}

		res.Scored++
		if upd.Channel == model.ChannelNone {
			res.NoChannel++
		} else {
			res.WithChannel++
		}

		zap.L().Debug("lead scored",
			zap.String("domain", lead.Domain),
			zap.Float64("fit", upd.FitScore),
			zap.Float64("contact", upd.ContactScore),
			zap.Float64("outreach", upd.OutreachScore),
			zap.String("channel", string(upd.Channel)),
		)
	}
	return res, nil
}
