package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

func newSeededStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { st.Close() })

	_, err = st.UpsertLead(ctx, "acme.test", "https://acme.test", "cnc ohio")
	require.NoError(t, err)
	lead, err := st.GetLeadByDomain(ctx, "acme.test")
	require.NoError(t, err)
	require.NoError(t, st.UpdateEnrichment(ctx, lead.ID, model.EnrichmentUpdate{
		Name:      "Acme Machining",
		Signals:   model.Signals{Email: "ops@acme.test"},
		CrawledAt: time.Now().UTC(),
	}))
	require.NoError(t, st.UpdateScore(ctx, lead.ID, model.ScoreUpdate{
		FitScore: 60, ContactScore: 45, OutreachScore: 55.5,
		Channel: model.ChannelEmail, ChannelReason: "direct email available",
	}))
	require.NoError(t, st.InsertAction(ctx, model.OutreachAction{
		LeadID: lead.ID, Step: 1, StepName: "intro",
		Channel: model.ChannelEmail, ScheduledFor: "2026-09-01",
	}))
	return st
}

func TestWriteCSV(t *testing.T) {
	st := newSeededStore(t)
	rows, err := st.ExportRows(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, columns, records[0])

	rec := records[1]
	assert.Equal(t, "acme.test", rec[0])
	assert.Equal(t, "Acme Machining", rec[1])
	assert.Equal(t, "scored", rec[3])
	assert.Equal(t, "55.5", rec[6])
	assert.Equal(t, "email", rec[7])
	assert.Equal(t, "ops@acme.test", rec[9])
	assert.Equal(t, "intro@2026-09-01[pending]", rec[14])
}

func TestToFile_CSV(t *testing.T) {
	st := newSeededStore(t)
	path := filepath.Join(t.TempDir(), "leads.csv")

	n, err := ToFile(context.Background(), st, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, path)
}

func TestToFile_XLSX(t *testing.T) {
	st := newSeededStore(t)
	path := filepath.Join(t.TempDir(), "leads.xlsx")

	n, err := ToFile(context.Background(), st, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	sheet := wb.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.GreaterOrEqual(t, len(sheet.Rows), 2)
	assert.Equal(t, "domain", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "acme.test", sheet.Rows[1].Cells[0].String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}
