// Package export dumps leads and their scheduled actions to flat files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/store"
)

var columns = []string{
	"domain", "name", "url", "state",
	"fit_score", "contact_score", "outreach_score",
	"channel", "channel_reason",
	"email", "phone", "form_url", "linkedin_url",
	"source_queries", "actions",
}

// ToFile exports every lead to path, picking the format from the extension:
// .xlsx gets a workbook, everything else gets CSV.
func ToFile(ctx context.Context, st store.Store, path string) (int, error) {
	rows, err := st.ExportRows(ctx)
	if err != nil {
		return 0, err
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return len(rows), writeXLSX(path, rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create %s", path)
	}
	defer func() { _ = f.Close() }()

	if err := WriteCSV(f, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// WriteCSV writes the export in CSV form.
func WriteCSV(w io.Writer, rows []store.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range rows {
		if err := cw.Write(recordOf(r)); err != nil {
			return eris.Wrapf(err, "export: write row %s", r.Domain)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func writeXLSX(path string, rows []store.ExportRow) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().SetString(col)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range recordOf(r) {
			row.AddCell().SetString(v)
		}
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func recordOf(r store.ExportRow) []string {
	return []string{
		r.Domain, r.Name, r.URL, r.State,
		formatScore(r.FitScore), formatScore(r.ContactScore), formatScore(r.OutreachScore),
		r.Channel, r.ChannelReason,
		r.Email, r.Phone, r.FormURL, r.LinkedInURL,
		r.SourceQueries, r.Actions,
	}
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
