package outreach

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// PlanResult reports what one planning run did.
type PlanResult struct {
	LeadsPlanned     int `json:"leads_planned"`
	ActionsCreated   int `json:"actions_created"`
	SkippedNoChannel int `json:"skipped_no_channel"`
}

// Planner schedules touch sequences for scored leads.
type Planner struct {
	store   store.Store
	touches []Touch
	cfg     config.OutreachConfig
}

// NewPlanner creates a planner with the given touch sequence.
func NewPlanner(st store.Store, touches []Touch, cfg config.OutreachConfig) *Planner {
	return &Planner{store: st, touches: touches, cfg: cfg}
}

// Plan schedules sequences for up to limit scored leads, highest outreach
// score first. Every touch lands on the first day at or after its natural
// slot that still has room under the per-day cap, so the cap holds across
// the whole batch and a touch never precedes its predecessor.
func (p *Planner) Plan(ctx context.Context, startDate string, limit int) (*PlanResult, error) {
	start, err := time.Parse(model.DateLayout, startDate)
	if err != nil {
		return nil, eris.Wrapf(err, "outreach: invalid start date %q (want YYYY-MM-DD)", startDate)
	}

	interval := p.cfg.IntervalDays
	if interval < 1 {
		interval = 1
	}
	perDay := p.cfg.MaxPerDay
	if perDay < 1 {
		perDay = 1
	}
	touches := p.touches
	if n := p.cfg.Touches; n > 0 && n < len(touches) {
		touches = touches[:n]
	}

	leads, err := p.store.LeadsForPlanning(ctx, limit)
	if err != nil {
		return nil, err
	}

	res := &PlanResult{}
	dayLoad := map[string]int{}

	for _, lead := range leads {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if lead.Channel == "" || lead.Channel == model.ChannelNone {
			res.SkippedNoChannel++
			continue
		}

		company := lead.Name
		if company == "" {
			company = lead.Domain
		}

		prev := start.AddDate(0, 0, -interval)
		planned := 0
		for i, touch := range touches {
			day := prev.AddDate(0, 0, interval)
			if day.Before(start) {
				day = start
			}
			for dayLoad[day.Format(model.DateLayout)] >= perDay {
				day = day.AddDate(0, 0, 1)
			}

			subject, body, err := Render(touch, TemplateData{
				Company: company,
				Domain:  lead.Domain,
				Step:    i + 1,
			})
			if err != nil {
				return res, err
			}

			action := model.OutreachAction{
				LeadID:       lead.ID,
				Step:         i + 1,
				StepName:     touch.Name,
				Channel:      lead.Channel,
				Subject:      subject,
				Body:         body,
				ScheduledFor: day.Format(model.DateLayout),
			}
			if err := p.store.InsertAction(ctx, action); err != nil {
				return res, err
			}

			dayLoad[day.Format(model.DateLayout)]++
			prev = day
			planned++
		}

		if err := p.store.MarkLeadPlanned(ctx, lead.ID); err != nil {
			return res, err
		}
		res.LeadsPlanned++
		res.ActionsCreated += planned

		zap.L().Info("lead planned",
			zap.String("domain", lead.Domain),
			zap.String("channel", string(lead.Channel)),
			zap.Int("touches", planned),
		)
	}
	return res, nil
}
