// Package scorer turns enrichment signals and page text into a fit score and
// a recommended outreach channel. Scoring is pure: same inputs, same output,
// no network, no randomness.
package scorer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Scorer applies the configured scoring policy.
type Scorer struct {
	cfg config.ScorerConfig
}

// New creates a scorer.
func New(cfg config.ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes fit, contact, and combined outreach scores for one lead.
// All three land in [0, 100].
func (s *Scorer) Score(signals model.Signals, pageText string) model.ScoreUpdate {
	fit := s.fitScore(pageText)
	contact := s.contactScore(signals)
	outreach := clamp(fit*s.cfg.FitWeight + contact*s.cfg.ContactWeight)

	channel, reason := s.recommendChannel(signals)

	return model.ScoreUpdate{
		FitScore:      fit,
		ContactScore:  contact,
		OutreachScore: outreach,
		Channel:       channel,
		ChannelReason: reason,
	}
}

// fitScore sums keyword weights over the lead's page text. Each keyword
// counts once no matter how often it appears, then the raw sum is scaled and
// clamped to [0, 100].
func (s *Scorer) fitScore(pageText string) float64 {
	text := strings.ToLower(pageText)
	raw := 0.0
	for _, kw := range sortedKeys(s.cfg.FitKeywords) {
		if strings.Contains(text, kw) {
			raw += s.cfg.FitKeywords[kw]
		}
	}
	for _, kw := range sortedKeys(s.cfg.NegativeKeywords) {
		if strings.Contains(text, kw) {
			raw += s.cfg.NegativeKeywords[kw]
		}
	}

	scale := s.cfg.FitScale
	if scale <= 0 {
		scale = 1
	}
	return clamp(raw * scale)
}

// contactScore weighs the reachability of the lead. A direct email dominates;
// a role-owned address is worth more, a catch-all slightly less.
func (s *Scorer) contactScore(signals model.Signals) float64 {
	raw := 0.0
	if signals.Email != "" {
		raw += s.cfg.EmailWeight
		email := strings.ToLower(signals.Email)
		if containsAny(email, s.cfg.RoleEmailHints) {
			raw += s.cfg.RoleEmailBonus
		} else if hasAnyPrefix(email, s.cfg.GenericPrefixes) {
			raw -= s.cfg.GenericPenalty
		}
	}
	if signals.Phone != "" {
		raw += s.cfg.PhoneWeight
	}
	if signals.FormURL != "" {
		raw += s.cfg.FormWeight
	}
	if signals.LinkedInURL != "" {
		raw += s.cfg.LinkedInWeight
	}
	return clamp(raw)
}

// recommendChannel picks the first available channel in strict priority
// order. An empty signal set yields "none".
func (s *Scorer) recommendChannel(signals model.Signals) (model.Channel, string) {
	for _, ch := range model.ChannelPriority {
		if signals.Has(ch) {
			return ch, channelReason(ch, signals)
		}
	}
	return model.ChannelNone, "no contact signals found"
}

func channelReason(ch model.Channel, signals model.Signals) string {
	switch ch {
	case model.ChannelEmail:
		return fmt.Sprintf("direct email available (%s)", signals.Email)
	case model.ChannelForm:
		return "contact form found, no email"
	case model.ChannelPhone:
		return "phone only"
	case model.ChannelLinkedIn:
		return "linkedin only"
	}
	return ""
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// sortedKeys keeps keyword iteration deterministic; map order is not.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
