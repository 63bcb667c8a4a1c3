package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func mustLead(t *testing.T, s *SQLiteStore, domain string) *model.Lead {
	t.Helper()
	lead, err := s.GetLeadByDomain(context.Background(), domain)
	require.NoError(t, err)
	require.NotNil(t, lead)
	return lead
}

func TestSQLite_UpsertLead(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	inserted, err := s.UpsertLead(ctx, "acme.test", "https://acme.test", "cnc machine shop ohio")
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same domain from a different query is a duplicate, not an error.
	inserted, err = s.UpsertLead(ctx, "acme.test", "https://acme.test/about", "precision machining ohio")
	require.NoError(t, err)
	assert.False(t, inserted)

	lead := mustLead(t, s, "acme.test")
	assert.Equal(t, model.StateNew, lead.State)
	assert.Equal(t, "https://acme.test", lead.URL, "first URL wins")
	assert.Equal(t, []string{"cnc machine shop ohio", "precision machining ohio"}, lead.SourceQueries)

	// Re-seeing the same query does not duplicate it.
	_, err = s.UpsertLead(ctx, "acme.test", "https://acme.test", "cnc machine shop ohio")
	require.NoError(t, err)
	lead = mustLead(t, s, "acme.test")
	assert.Len(t, lead.SourceQueries, 2)
}

func TestSQLite_GetLeadByDomain_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	lead, err := s.GetLeadByDomain(context.Background(), "nowhere.test")
	require.NoError(t, err)
	assert.Nil(t, lead)
}

func TestSQLite_EnrichmentLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.UpsertLead(ctx, "acme.test", "https://acme.test", "q")
	require.NoError(t, err)
	lead := mustLead(t, s, "acme.test")

	pending, err := s.LeadsForEnrichment(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	now := time.Now().UTC()
	err = s.UpdateEnrichment(ctx, lead.ID, model.EnrichmentUpdate{
		Name:      "Acme Machining",
		Signals:   model.Signals{Email: "ops@acme.test", Phone: "555-010-2030"},
		CrawledAt: now,
	})
	require.NoError(t, err)

	lead = mustLead(t, s, "acme.test")
	assert.Equal(t, model.StateEnriched, lead.State)
	assert.Equal(t, "Acme Machining", lead.Name)
	assert.Equal(t, "ops@acme.test", lead.Signals.Email)
	require.NotNil(t, lead.LastCrawledAt)

	// Enriched leads drop out of the enrichment queue.
	pending, err = s.LeadsForEnrichment(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Re-enriching is idempotent; empty name keeps the existing one.
	err = s.UpdateEnrichment(ctx, lead.ID, model.EnrichmentUpdate{
		Signals:   model.Signals{Email: "ops@acme.test"},
		CrawledAt: now,
	})
	require.NoError(t, err)
	lead = mustLead(t, s, "acme.test")
	assert.Equal(t, "Acme Machining", lead.Name)
}

func TestSQLite_UpdateScore_RequiresEnriched(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.UpsertLead(ctx, "acme.test", "https://acme.test", "q")
	require.NoError(t, err)
	lead := mustLead(t, s, "acme.test")

	err = s.UpdateScore(ctx, lead.ID, model.ScoreUpdate{FitScore: 50})
	assert.Error(t, err, "scoring a new lead must fail")

	require.NoError(t, s.UpdateEnrichment(ctx, lead.ID, model.EnrichmentUpdate{CrawledAt: time.Now().UTC()}))
	err = s.UpdateScore(ctx, lead.ID, model.ScoreUpdate{
		FitScore: 60, ContactScore: 45, OutreachScore: 55.5,
		Channel: model.ChannelEmail, ChannelReason: "direct email available",
	})
	require.NoError(t, err)

	lead = mustLead(t, s, "acme.test")
	assert.Equal(t, model.StateScored, lead.State)
	assert.InDelta(t, 55.5, lead.OutreachScore, 0.001)
	assert.Equal(t, model.ChannelEmail, lead.Channel)
}

func TestSQLite_StateGuards(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.UpsertLead(ctx, "acme.test", "https://acme.test", "q")
	require.NoError(t, err)
	lead := mustLead(t, s, "acme.test")

	assert.Error(t, s.MarkLeadPlanned(ctx, lead.ID), "cannot plan an unscored lead")
	assert.Error(t, s.MarkLeadContacted(ctx, lead.ID), "cannot contact an unplanned lead")

	require.NoError(t, s.UpdateEnrichment(ctx, lead.ID, model.EnrichmentUpdate{CrawledAt: time.Now().UTC()}))
	require.NoError(t, s.UpdateScore(ctx, lead.ID, model.ScoreUpdate{Channel: model.ChannelEmail}))
	require.NoError(t, s.MarkLeadPlanned(ctx, lead.ID))
	require.NoError(t, s.MarkLeadPlanned(ctx, lead.ID), "planning twice is idempotent")
	require.NoError(t, s.MarkLeadContacted(ctx, lead.ID))

	// No way back.
	assert.Error(t, s.UpdateScore(ctx, lead.ID, model.ScoreUpdate{}))
	assert.Equal(t, model.StateContacted, mustLead(t, s, "acme.test").State)
}

func TestSQLite_ListLeads_Filters(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	seed := []struct {
		domain string
		score  float64
	}{
		{"alpha.test", 80},
		{"beta.test", 40},
		{"gamma.test", 10},
	}
	for _, sd := range seed {
		_, err := s.UpsertLead(ctx, sd.domain, "https://"+sd.domain, "q")
		require.NoError(t, err)
		lead := mustLead(t, s, sd.domain)
		require.NoError(t, s.UpdateEnrichment(ctx, lead.ID, model.EnrichmentUpdate{CrawledAt: time.Now().UTC()}))
		require.NoError(t, s.UpdateScore(ctx, lead.ID, model.ScoreUpdate{
			OutreachScore: sd.score, Channel: model.ChannelEmail,
		}))
	}

	leads, err := s.ListLeads(ctx, LeadFilter{MinScore: 30})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "alpha.test", leads[0].Domain, "ordered by score desc")

	leads, err = s.ListLeads(ctx, LeadFilter{Search: "gamma"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "gamma.test", leads[0].Domain)

	leads, err = s.ListLeads(ctx, LeadFilter{State: model.StateScored, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}

func TestSQLite_Pages(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.UpsertLead(ctx, "acme.test", "https://acme.test", "q")
	require.NoError(t, err)
	lead := mustLead(t, s, "acme.test")

	require.NoError(t, s.SavePage(ctx, lead.ID, "https://acme.test", "Home", "cnc machining services"))
	require.NoError(t, s.SavePage(ctx, lead.ID, "https://acme.test/contact", "Contact", "reach our team"))
	// Same URL overwrites rather than duplicating.
	require.NoError(t, s.SavePage(ctx, lead.ID, "https://acme.test", "Home", "precision cnc machining"))

	text, err := s.LeadText(ctx, lead.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "precision cnc machining")
	assert.Contains(t, text, "reach our team")
	assert.NotContains(t, text, "cnc machining services")

	// Oversized text is truncated on save.
	long := strings.Repeat("x", pageExcerptLimit+100)
	require.NoError(t, s.SavePage(ctx, lead.ID, "https://acme.test/long", "Long", long))
	text, err = s.LeadText(ctx, lead.ID)
	require.NoError(t, err)
	assert.Less(t, len(text), len(long)+100)
}

func planActionFixture(t *testing.T, s *SQLiteStore, domain string) *model.Lead {
	t.Helper()
	ctx := context.Background()
	_, err := s.UpsertLead(ctx, domain, "https://"+domain, "q")
	require.NoError(t, err)
	lead := mustLead(t, s, domain)
	require.NoError(t, s.UpdateEnrichment(ctx, lead.ID, model.EnrichmentUpdate{
		Signals:   model.Signals{Email: "ops@" + domain},
		CrawledAt: time.Now().UTC(),
	}))
	require.NoError(t, s.UpdateScore(ctx, lead.ID, model.ScoreUpdate{Channel: model.ChannelEmail}))
	return mustLead(t, s, domain)
}

func TestSQLite_Actions_DueAndSequenceOrder(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := planActionFixture(t, s, "acme.test")

	steps := []model.OutreachAction{
		{LeadID: lead.ID, Step: 1, StepName: "intro", Channel: model.ChannelEmail, Subject: "Hello", ScheduledFor: "2026-08-20"},
		{LeadID: lead.ID, Step: 2, StepName: "follow-up", Channel: model.ChannelEmail, Subject: "Following up", ScheduledFor: "2026-08-24"},
		{LeadID: lead.ID, Step: 3, StepName: "breakup", Channel: model.ChannelEmail, Subject: "Closing the loop", ScheduledFor: "2026-08-28"},
	}
	for _, a := range steps {
		require.NoError(t, s.InsertAction(ctx, a))
	}

	// Only the first step is due on its date.
	due, err := s.DueActions(ctx, "2026-08-20", 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Step)
	assert.Equal(t, "ops@acme.test", due[0].ToEmail)

	// Step 2 is in the window but blocked by the still-pending step 1.
	due, err = s.DueActions(ctx, "2026-08-24", 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, 1, due[0].Step)
	assert.Equal(t, 2, due[1].Step, "steps come back in sequence order")

	// Resolving step 1 and step 2 leaves step 3 blocked only by its date.
	now := time.Now().UTC()
	require.NoError(t, s.MarkAction(ctx, due[0].ID, model.ActionSent, &now, ""))
	require.NoError(t, s.MarkAction(ctx, due[1].ID, model.ActionFailed, nil, "mailbox full"))

	due, err = s.DueActions(ctx, "2026-08-24", 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = s.DueActions(ctx, "2026-08-28", 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 3, due[0].Step, "failed earlier step still unblocks later ones")
}

func TestSQLite_InsertAction_ReplanIsIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := planActionFixture(t, s, "acme.test")

	a := model.OutreachAction{
		LeadID: lead.ID, Step: 1, StepName: "intro",
		Channel: model.ChannelEmail, Subject: "Hello", ScheduledFor: "2026-08-20",
	}
	require.NoError(t, s.InsertAction(ctx, a))
	a.Subject = "Hello again"
	require.NoError(t, s.InsertAction(ctx, a))

	actions, err := s.ListActions(ctx, ActionFilter{LeadID: lead.ID})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Hello again", actions[0].Subject)
}

func TestSQLite_InsertAction_OnePendingPerDay(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := planActionFixture(t, s, "acme.test")

	require.NoError(t, s.InsertAction(ctx, model.OutreachAction{
		LeadID: lead.ID, Step: 1, StepName: "intro",
		Channel: model.ChannelEmail, ScheduledFor: "2026-08-20",
	}))
	err := s.InsertAction(ctx, model.OutreachAction{
		LeadID: lead.ID, Step: 2, StepName: "follow-up",
		Channel: model.ChannelEmail, ScheduledFor: "2026-08-20",
	})
	assert.Error(t, err, "two pending actions on one day for one lead must be rejected")
}

func TestSQLite_MarkAction_Statuses(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := planActionFixture(t, s, "acme.test")

	require.NoError(t, s.InsertAction(ctx, model.OutreachAction{
		LeadID: lead.ID, Step: 1, StepName: "intro",
		Channel: model.ChannelEmail, ScheduledFor: "2026-08-20",
	}))
	actions, err := s.ListActions(ctx, ActionFilter{LeadID: lead.ID})
	require.NoError(t, err)
	require.Len(t, actions, 1)

	require.NoError(t, s.MarkAction(ctx, actions[0].ID, model.ActionSimulated, nil, ""))
	actions, err = s.ListActions(ctx, ActionFilter{LeadID: lead.ID, Status: model.ActionSimulated})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Nil(t, actions[0].SentAt)

	assert.Error(t, s.MarkAction(ctx, "no-such-id", model.ActionSent, nil, ""))
}

func TestSQLite_StatsAndClearAll(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := planActionFixture(t, s, "acme.test")

	require.NoError(t, s.SavePage(ctx, lead.ID, "https://acme.test", "Home", "text"))
	require.NoError(t, s.InsertAction(ctx, model.OutreachAction{
		LeadID: lead.ID, Step: 1, StepName: "intro",
		Channel: model.ChannelEmail, ScheduledFor: "2026-08-20",
	}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Leads)
	assert.Equal(t, 1, st.Pages)
	assert.Equal(t, 1, st.PendingActions)
	assert.Equal(t, 0, st.SentActions)
	assert.Equal(t, 1, st.LeadsByState["scored"])

	require.NoError(t, s.ClearAll(ctx))
	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Leads)
	assert.Equal(t, 0, st.Pages)
	assert.Equal(t, 0, st.PendingActions)
}

func TestSQLite_ExportRows(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	lead := planActionFixture(t, s, "acme.test")

	require.NoError(t, s.InsertAction(ctx, model.OutreachAction{
		LeadID: lead.ID, Step: 1, StepName: "intro",
		Channel: model.ChannelEmail, ScheduledFor: "2026-08-20",
	}))
	require.NoError(t, s.InsertAction(ctx, model.OutreachAction{
		LeadID: lead.ID, Step: 2, StepName: "follow-up",
		Channel: model.ChannelEmail, ScheduledFor: "2026-08-24",
	}))

	rows, err := s.ExportRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "acme.test", rows[0].Domain)
	assert.Equal(t, "ops@acme.test", rows[0].Email)
	assert.Equal(t, "intro@2026-08-20[pending];follow-up@2026-08-24[pending]", rows[0].Actions)
}
