package sender

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Result reports what one send run did.
type Result struct {
	Due       int  `json:"due"`
	Sent      int  `json:"sent"`
	Simulated int  `json:"simulated"`
	Failed    int  `json:"failed"`
	Skipped   int  `json:"skipped"`
	Live      bool `json:"live"`
}

// Sender executes due actions for a target date.
type Sender struct {
	store     store.Store
	transport Transport
	smtp      config.SMTPConfig
	limiter   *rate.Limiter
}

// New creates a sender. transport may be nil for dry-run-only use; live runs
// build an SMTP transport from config when none was injected.
func New(st store.Store, transport Transport, smtpCfg config.SMTPConfig, sendRatePerSec float64) *Sender {
	if sendRatePerSec <= 0 {
		sendRatePerSec = 0.5
	}
	return &Sender{
		store:     st,
		transport: transport,
		smtp:      smtpCfg,
		limiter:   rate.NewLimiter(rate.Limit(sendRatePerSec), 1),
	}
}

// Run executes all pending actions scheduled on or before actionDate.
//
// Dry runs log each action and mark it simulated; no transport is touched and
// lead states do not change. Live runs validate SMTP config up front (a
// missing credential is fatal, no partial batch), then send sequentially:
// one failure marks that action failed, marks the lead's later actions in
// this batch skipped, and continues with other leads.
func (s *Sender) Run(ctx context.Context, actionDate string, limit int, live bool) (*Result, error) {
	if _, err := time.Parse(model.DateLayout, actionDate); err != nil {
		return nil, eris.Wrapf(err, "sender: invalid action date %q (want YYYY-MM-DD)", actionDate)
	}

	if live {
		if err := s.smtp.Validate(); err != nil {
			return nil, err
		}
		if s.transport == nil {
			s.transport = NewSMTPTransport(s.smtp)
		}
	}

	due, err := s.store.DueActions(ctx, actionDate, limit)
	if err != nil {
		return nil, err
	}

	res := &Result{Due: len(due), Live: live}
	failedLeads := map[string]bool{}

	for _, action := range due {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		log := zap.L().With(
			zap.String("domain", action.Domain),
			zap.Int("step", action.Step),
			zap.String("step_name", action.StepName),
			zap.String("scheduled_for", action.ScheduledFor),
		)

		if failedLeads[action.LeadID] {
			if err := s.store.MarkAction(ctx, action.ID, model.ActionSkipped, nil, "earlier step failed in this batch"); err != nil {
				return res, err
			}
			res.Skipped++
			log.Info("action skipped, earlier step failed")
			continue
		}

		if !live {
			log.Info("dry run, would send",
				zap.String("to", action.ToEmail),
				zap.String("subject", action.Subject),
			)
			if err := s.store.MarkAction(ctx, action.ID, model.ActionSimulated, nil, ""); err != nil {
				return res, err
			}
			res.Simulated++
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return res, eris.Wrap(err, "sender: rate limit wait")
		}

		sendErr := s.sendOne(ctx, action)
		if sendErr != nil {
			log.Warn("send failed", zap.Error(sendErr))
			if err := s.store.MarkAction(ctx, action.ID, model.ActionFailed, nil, sendErr.Error()); err != nil {
				return res, err
			}
			failedLeads[action.LeadID] = true
			res.Failed++
			continue
		}

		now := time.Now().UTC()
		if err := s.store.MarkAction(ctx, action.ID, model.ActionSent, &now, ""); err != nil {
			return res, err
		}
		if err := s.store.MarkLeadContacted(ctx, action.LeadID); err != nil {
			// The action went out; a state-guard refusal here must not fail
			// the batch.
			log.Warn("mark contacted failed", zap.Error(err))
		}
		res.Sent++
		log.Info("action sent", zap.String("to", action.ToEmail))
	}
	return res, nil
}

func (s *Sender) sendOne(ctx context.Context, action model.DueAction) error {
	if action.ToEmail == "" {
		return eris.Errorf("sender: lead %s has no email address", action.Domain)
	}
	return s.transport.Send(ctx, Message{
		From:    s.smtp.From,
		To:      action.ToEmail,
		Subject: action.Subject,
		Body:    action.Body,
	})
}
