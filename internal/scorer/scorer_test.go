package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

func testScorerConfig() config.ScorerConfig {
	return config.ScorerConfig{
		FitWeight:     0.7,
		ContactWeight: 0.3,
		FitScale:      2.2,
		FitKeywords: map[string]float64{
			"cnc":          6,
			"machine shop": 7,
			"fabrication":  5,
		},
		NegativeKeywords: map[string]float64{
			"law firm": -8,
		},
		EmailWeight:     45,
		PhoneWeight:     20,
		FormWeight:      15,
		LinkedInWeight:  10,
		RoleEmailBonus:  15,
		GenericPenalty:  5,
		RoleEmailHints:  []string{"operations", "engineering"},
		GenericPrefixes: []string{"info@", "contact@", "sales@"},
	}
}

func TestScorer_EmptySignals(t *testing.T) {
	s := New(testScorerConfig())
	upd := s.Score(model.Signals{}, "")

	assert.Equal(t, model.ChannelNone, upd.Channel)
	assert.Equal(t, "no contact signals found", upd.ChannelReason)
	assert.Zero(t, upd.FitScore)
	assert.Zero(t, upd.ContactScore)
	assert.Zero(t, upd.OutreachScore)
}

func TestScorer_Deterministic(t *testing.T) {
	s := New(testScorerConfig())
	sig := model.Signals{Email: "ops@acme.test", Phone: "555-010-2030"}
	text := "full service cnc machine shop and fabrication"

	first := s.Score(sig, text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, s.Score(sig, text))
	}
}

func TestScorer_FitScore(t *testing.T) {
	s := New(testScorerConfig())

	// cnc(6) + machine shop(7) = 13, scaled by 2.2 = 28.6. "machine shop"
	// appearing twice still counts once.
	upd := s.Score(model.Signals{}, "cnc machine shop, the best machine shop around")
	assert.InDelta(t, 28.6, upd.FitScore, 0.001)

	// Negative keywords pull the score down, floored at zero.
	upd = s.Score(model.Signals{}, "law firm specializing in cnc disputes")
	assert.InDelta(t, 0, upd.FitScore, 0.001)

	// Keyword matching is case-insensitive.
	upd = s.Score(model.Signals{}, "CNC Machine Shop")
	assert.InDelta(t, 28.6, upd.FitScore, 0.001)
}

func TestScorer_ContactScore(t *testing.T) {
	s := New(testScorerConfig())

	cases := []struct {
		name string
		sig  model.Signals
		want float64
	}{
		{"role email", model.Signals{Email: "operations@acme.test"}, 60},
		{"generic email", model.Signals{Email: "info@acme.test"}, 40},
		{"personal email", model.Signals{Email: "jane@acme.test"}, 45},
		{"phone only", model.Signals{Phone: "555-010-2030"}, 20},
		{"form only", model.Signals{FormURL: "https://acme.test/contact"}, 15},
		{"linkedin only", model.Signals{LinkedInURL: "https://linkedin.com/company/acme"}, 10},
		{"everything", model.Signals{
			Email: "operations@acme.test", Phone: "555-010-2030",
			FormURL: "https://acme.test/contact", LinkedInURL: "https://linkedin.com/company/acme",
		}, 60 + 20 + 15 + 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, s.Score(tc.sig, "").ContactScore, 0.001)
		})
	}
}

func TestScorer_ChannelPriority(t *testing.T) {
	s := New(testScorerConfig())

	all := model.Signals{
		Email: "ops@acme.test", Phone: "555-010-2030",
		FormURL: "https://acme.test/contact", LinkedInURL: "https://linkedin.com/company/acme",
	}
	assert.Equal(t, model.ChannelEmail, s.Score(all, "").Channel, "email beats everything")

	noEmail := all
	noEmail.Email = ""
	assert.Equal(t, model.ChannelForm, s.Score(noEmail, "").Channel, "form beats phone")

	phoneAndLinkedIn := model.Signals{Phone: "555-010-2030", LinkedInURL: "https://linkedin.com/company/acme"}
	assert.Equal(t, model.ChannelPhone, s.Score(phoneAndLinkedIn, "").Channel, "phone beats linkedin")

	onlyLinkedIn := model.Signals{LinkedInURL: "https://linkedin.com/company/acme"}
	assert.Equal(t, model.ChannelLinkedIn, s.Score(onlyLinkedIn, "").Channel)
}

func TestScorer_OutreachScoreBlend(t *testing.T) {
	s := New(testScorerConfig())
	upd := s.Score(model.Signals{Email: "operations@acme.test"}, "cnc machine shop")

	want := upd.FitScore*0.7 + upd.ContactScore*0.3
	assert.InDelta(t, want, upd.OutreachScore, 0.001)
	assert.LessOrEqual(t, upd.OutreachScore, 100.0)
}
