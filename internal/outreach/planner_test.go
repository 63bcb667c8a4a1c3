package outreach

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func seedScoredLead(t *testing.T, st store.Store, domain string, score float64, channel model.Channel) *model.Lead {
	t.Helper()
	ctx := context.Background()
	_, err := st.UpsertLead(ctx, domain, "https://"+domain, "q")
	require.NoError(t, err)
	lead, err := st.GetLeadByDomain(ctx, domain)
	require.NoError(t, err)
	require.NoError(t, st.UpdateEnrichment(ctx, lead.ID, model.EnrichmentUpdate{
		Signals:   model.Signals{Email: "ops@" + domain},
		CrawledAt: time.Now().UTC(),
	}))
	require.NoError(t, st.UpdateScore(ctx, lead.ID, model.ScoreUpdate{
		OutreachScore: score, Channel: channel,
	}))
	return lead
}

func testOutreachConfig() config.OutreachConfig {
	return config.OutreachConfig{Touches: 3, IntervalDays: 4, MaxPerDay: 25}
}

func TestPlanner_Plan_SequenceSpacing(t *testing.T) {
	st := newTestStore(t)
	lead := seedScoredLead(t, st, "acme.test", 80, model.ChannelEmail)

	p := NewPlanner(st, DefaultTouches, testOutreachConfig())
	res, err := p.Plan(context.Background(), "2026-09-01", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LeadsPlanned)
	assert.Equal(t, 3, res.ActionsCreated)

	actions, err := st.ListActions(context.Background(), store.ActionFilter{LeadID: lead.ID})
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, "2026-09-01", actions[0].ScheduledFor)
	assert.Equal(t, "2026-09-05", actions[1].ScheduledFor)
	assert.Equal(t, "2026-09-09", actions[2].ScheduledFor)
	assert.Equal(t, "intro", actions[0].StepName)
	assert.Equal(t, model.ChannelEmail, actions[0].Channel)
	assert.Contains(t, actions[0].Subject, "Acme")

	got, err := st.GetLeadByDomain(context.Background(), "acme.test")
	require.NoError(t, err)
	assert.Equal(t, model.StatePlanned, got.State)
}

func TestPlanner_Plan_DayCapSpillsToNextDay(t *testing.T) {
	st := newTestStore(t)
	seedScoredLead(t, st, "alpha.test", 90, model.ChannelEmail)
	seedScoredLead(t, st, "beta.test", 80, model.ChannelEmail)
	seedScoredLead(t, st, "gamma.test", 70, model.ChannelEmail)

	cfg := testOutreachConfig()
	cfg.MaxPerDay = 2
	p := NewPlanner(st, DefaultTouches, cfg)
	res, err := p.Plan(context.Background(), "2026-09-01", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.LeadsPlanned)
	assert.Equal(t, 9, res.ActionsCreated)

	actions, err := st.ListActions(context.Background(), store.ActionFilter{Limit: 100})
	require.NoError(t, err)
	perDay := map[string]int{}
	for _, a := range actions {
		perDay[a.ScheduledFor]++
	}
	for day, n := range perDay {
		assert.LessOrEqual(t, n, 2, day)
	}
	// Two first touches fit on the start date; the third spills to the next day.
	assert.Equal(t, 2, perDay["2026-09-01"])
	assert.Equal(t, 1, perDay["2026-09-02"])
}

func TestPlanner_Plan_SkipsChannelNone(t *testing.T) {
	st := newTestStore(t)
	seedScoredLead(t, st, "reachable.test", 80, model.ChannelEmail)
	seedScoredLead(t, st, "silent.test", 90, model.ChannelNone)

	p := NewPlanner(st, DefaultTouches, testOutreachConfig())
	res, err := p.Plan(context.Background(), "2026-09-01", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LeadsPlanned)
	assert.Equal(t, 1, res.SkippedNoChannel)

	silent, err := st.GetLeadByDomain(context.Background(), "silent.test")
	require.NoError(t, err)
	assert.Equal(t, model.StateScored, silent.State, "channel-none leads stay scored")
	actions, err := st.ListActions(context.Background(), store.ActionFilter{LeadID: silent.ID})
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestPlanner_Plan_OrdersByScore(t *testing.T) {
	st := newTestStore(t)
	seedScoredLead(t, st, "low.test", 10, model.ChannelEmail)
	seedScoredLead(t, st, "high.test", 90, model.ChannelEmail)

	cfg := testOutreachConfig()
	cfg.MaxPerDay = 1
	p := NewPlanner(st, DefaultTouches, cfg)
	_, err := p.Plan(context.Background(), "2026-09-01", 1)
	require.NoError(t, err)

	high, err := st.GetLeadByDomain(context.Background(), "high.test")
	require.NoError(t, err)
	assert.Equal(t, model.StatePlanned, high.State, "highest score planned first")

	low, err := st.GetLeadByDomain(context.Background(), "low.test")
	require.NoError(t, err)
	assert.Equal(t, model.StateScored, low.State)
}

func TestPlanner_Plan_InvalidStartDate(t *testing.T) {
	st := newTestStore(t)
	p := NewPlanner(st, DefaultTouches, testOutreachConfig())
	_, err := p.Plan(context.Background(), "09/01/2026", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start date")
}

func TestPlanner_Plan_TouchesLimit(t *testing.T) {
	st := newTestStore(t)
	lead := seedScoredLead(t, st, "acme.test", 80, model.ChannelEmail)

	cfg := testOutreachConfig()
	cfg.Touches = 2
	p := NewPlanner(st, DefaultTouches, cfg)
	res, err := p.Plan(context.Background(), "2026-09-01", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ActionsCreated)

	actions, err := st.ListActions(context.Background(), store.ActionFilter{LeadID: lead.ID})
	require.NoError(t, err)
	assert.Len(t, actions, 2)
}
