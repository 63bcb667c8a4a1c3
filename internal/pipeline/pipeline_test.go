package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		Outreach: config.OutreachConfig{Touches: 3, IntervalDays: 4, MaxPerDay: 25},
	}
	r := New(st, cfg)
	require.NoError(t, r.Init(context.Background()))
	return r
}

func seedScored(t *testing.T, r *Runner, domain string) {
	t.Helper()
	ctx := context.Background()
	_, err := r.Store.UpsertLead(ctx, domain, "https://"+domain, "q")
	require.NoError(t, err)
	lead, err := r.Store.GetLeadByDomain(ctx, domain)
	require.NoError(t, err)
	require.NoError(t, r.Store.UpdateEnrichment(ctx, lead.ID, model.EnrichmentUpdate{
		Signals:   model.Signals{Email: "ops@" + domain},
		CrawledAt: time.Now().UTC(),
	}))
	require.NoError(t, r.Store.UpdateScore(ctx, lead.ID, model.ScoreUpdate{
		OutreachScore: 50, Channel: model.ChannelEmail,
	}))
}

func TestRunner_PlanThenSendDryRun(t *testing.T) {
	r := newTestRunner(t)
	seedScored(t, r, "acme.test")
	ctx := context.Background()

	plan, err := r.Plan(ctx, "2026-09-01", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.LeadsPlanned)
	assert.Equal(t, 3, plan.ActionsCreated)

	send, err := r.Send(ctx, "2026-09-01", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, send.Simulated)
}

// TestRunner_EndToEnd walks four fresh leads through enrich, score, plan,
// and a dry-run send. One site is unreachable and ends up without a channel;
// the other three get email sequences leveled across two days by the cap.
func TestRunner_EndToEnd(t *testing.T) {
	page := `<html><head><title>Precision Works | CNC Machining</title></head>
<body><p>Full service cnc machining and metal fabrication.</p>
<a href="mailto:ops@%s">Email our shop</a></body></html>`
	mux := http.NewServeMux()
	for _, d := range []string{"alpha.test", "beta.test", "gamma.test"} {
		domain := d
		mux.HandleFunc("/"+domain, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, page, domain)
		})
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		Crawl: config.CrawlConfig{
			MaxPages: 2, TimeoutSecs: 5, RatePerSec: 1000,
			MaxBodyBytes: 1 << 20, UserAgent: "outreach-cli-test",
		},
		Scorer: config.ScorerConfig{
			FitWeight: 0.5, ContactWeight: 0.5, FitScale: 2,
			FitKeywords: map[string]float64{"cnc": 5, "machining": 5},
			EmailWeight: 40,
		},
		Outreach: config.OutreachConfig{Touches: 3, IntervalDays: 4, MaxPerDay: 2},
	}
	r := New(st, cfg)
	ctx := context.Background()
	require.NoError(t, r.Init(ctx))

	for _, d := range []string{"alpha.test", "beta.test", "gamma.test"} {
		_, err := st.UpsertLead(ctx, d, srv.URL+"/"+d, "cnc machine shop ohio")
		require.NoError(t, err)
	}
	_, err = st.UpsertLead(ctx, "dead.test", "https://127.0.0.1:1/", "cnc machine shop ohio")
	require.NoError(t, err)

	enr, err := r.Enrich(ctx, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, enr.Processed)
	assert.Equal(t, 3, enr.WithSignals)
	assert.Equal(t, 1, enr.Unreachable)

	sc, err := r.Score(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, sc.Scored)
	assert.Equal(t, 3, sc.WithChannel)
	assert.Equal(t, 1, sc.NoChannel)

	plan, err := r.Plan(ctx, "2026-09-01", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.LeadsPlanned)
	assert.Equal(t, 9, plan.ActionsCreated)
	assert.Equal(t, 1, plan.SkippedNoChannel)

	actions, err := st.ListActions(ctx, store.ActionFilter{})
	require.NoError(t, err)
	firstTouches := map[string]int{}
	for _, a := range actions {
		if a.Step == 1 {
			firstTouches[a.ScheduledFor]++
		}
	}
	assert.Equal(t, map[string]int{"2026-09-01": 2, "2026-09-02": 1}, firstTouches)

	send, err := r.Send(ctx, "2026-09-01", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, send.Due)
	assert.Equal(t, 2, send.Simulated)
	assert.Equal(t, 0, send.Sent)

	planned, err := st.ListLeads(ctx, store.LeadFilter{State: model.StatePlanned})
	require.NoError(t, err)
	assert.Len(t, planned, 3, "dry run never advances leads")
}

func TestRunner_ClearAll_TokenGate(t *testing.T) {
	r := newTestRunner(t)
	seedScored(t, r, "acme.test")
	ctx := context.Background()

	err := r.ClearAll(ctx, "clear all lead data")
	require.Error(t, err, "token match is exact, case included")

	st, err2 := r.Store.Stats(ctx)
	require.NoError(t, err2)
	assert.Equal(t, 1, st.Leads, "nothing deleted on refused clear")

	require.NoError(t, r.ClearAll(ctx, ClearConfirmToken))
	st, err2 = r.Store.Stats(ctx)
	require.NoError(t, err2)
	assert.Equal(t, 0, st.Leads)
}

func TestRunner_Export(t *testing.T) {
	r := newTestRunner(t)
	seedScored(t, r, "acme.test")

	path := filepath.Join(t.TempDir(), "leads.csv")
	n, err := r.Export(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, path)
}
