package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	domain          TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL DEFAULT '',
	source_queries  TEXT NOT NULL DEFAULT '[]',
	state           TEXT NOT NULL DEFAULT 'new',
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	form_url        TEXT NOT NULL DEFAULT '',
	linkedin_url    TEXT NOT NULL DEFAULT '',
	fit_score       REAL NOT NULL DEFAULT 0,
	contact_score   REAL NOT NULL DEFAULT 0,
	outreach_score  REAL NOT NULL DEFAULT 0,
	channel         TEXT NOT NULL DEFAULT '',
	channel_reason  TEXT NOT NULL DEFAULT '',
	notes           TEXT NOT NULL DEFAULT '',
	last_crawled_at DATETIME,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
	id           TEXT PRIMARY KEY,
	lead_id      TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	text_excerpt TEXT NOT NULL DEFAULT '',
	fetched_at   DATETIME NOT NULL,
	UNIQUE(lead_id, url)
);

CREATE TABLE IF NOT EXISTS outreach_actions (
	id            TEXT PRIMARY KEY,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	step          INTEGER NOT NULL,
	step_name     TEXT NOT NULL,
	channel       TEXT NOT NULL,
	subject       TEXT NOT NULL DEFAULT '',
	body          TEXT NOT NULL DEFAULT '',
	scheduled_for TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	sent_at       DATETIME,
	error         TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	UNIQUE(lead_id, step, scheduled_for)
);

CREATE INDEX IF NOT EXISTS idx_leads_state ON leads(state);
CREATE INDEX IF NOT EXISTS idx_leads_outreach_score ON leads(outreach_score);
CREATE INDEX IF NOT EXISTS idx_pages_lead_id ON pages(lead_id);
CREATE INDEX IF NOT EXISTS idx_actions_lead_id ON outreach_actions(lead_id);
CREATE INDEX IF NOT EXISTS idx_actions_due ON outreach_actions(status, scheduled_for);
CREATE UNIQUE INDEX IF NOT EXISTS idx_actions_one_pending_per_day
	ON outreach_actions(lead_id, scheduled_for) WHERE status = 'pending';
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertLead inserts a lead for a new domain or merges the source query into
// an existing one. Re-discovering a known domain is never an error.
func (s *SQLiteStore) UpsertLead(ctx context.Context, domain, url, sourceQuery string) (bool, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: begin upsert lead")
	}
	defer tx.Rollback() //nolint:errcheck

	var id, queriesJSON, existingURL string
	err = tx.QueryRowContext(ctx,
		`SELECT id, source_queries, url FROM leads WHERE domain = ?`, domain,
	).Scan(&id, &queriesJSON, &existingURL)

	switch {
	case err == sql.ErrNoRows:
		queries, mErr := json.Marshal([]string{sourceQuery})
		if mErr != nil {
			return false, eris.Wrap(mErr, "sqlite: marshal source queries")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO leads (id, domain, url, source_queries, state, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), domain, url, string(queries), string(model.StateNew), now, now,
		)
		if err != nil {
			return false, eris.Wrapf(err, "sqlite: insert lead %s", domain)
		}
		if err := tx.Commit(); err != nil {
			return false, eris.Wrap(err, "sqlite: commit upsert lead")
		}
		return true, nil

	case err != nil:
		return false, eris.Wrapf(err, "sqlite: lookup lead %s", domain)
	}

	merged, err := mergeQueries(queriesJSON, sourceQuery)
	if err != nil {
		return false, err
	}
	if existingURL != "" {
		url = existingURL
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE leads SET url = ?, source_queries = ?, updated_at = ? WHERE id = ?`,
		url, merged, now, id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: update lead %s", domain)
	}
	if err := tx.Commit(); err != nil {
		return false, eris.Wrap(err, "sqlite: commit upsert lead")
	}
	return false, nil
}

func (s *SQLiteStore) GetLeadByDomain(ctx context.Context, domain string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE domain = ?`, domain,
	)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return lead, err
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Search != "" {
		wildcard := "%" + filter.Search + "%"
		query += ` AND (domain LIKE ? OR name LIKE ? OR notes LIKE ?)`
		args = append(args, wildcard, wildcard, wildcard)
	}
	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, string(filter.State))
	}
	if filter.Channel != "" {
		query += ` AND channel = ?`
		args = append(args, string(filter.Channel))
	}
	if filter.MinScore > 0 {
		query += ` AND outreach_score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY outreach_score DESC, fit_score DESC, domain ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (s *SQLiteStore) LeadsForEnrichment(ctx context.Context, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE state IN (?, ?)
		 ORDER BY created_at ASC
		 LIMIT ?`,
		string(model.StateNew), string(model.StateEnriching), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: leads for enrichment")
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (s *SQLiteStore) LeadsForScoring(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE state IN (?, ?)
		 ORDER BY created_at ASC`,
		string(model.StateEnriched), string(model.StateScored),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: leads for scoring")
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (s *SQLiteStore) LeadsForPlanning(ctx context.Context, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE state = ?
		 ORDER BY outreach_score DESC, created_at ASC
		 LIMIT ?`,
		string(model.StateScored), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: leads for planning")
	}
	defer rows.Close()
	return scanLeads(rows)
}

// UpdateEnrichment stores crawl results and advances the lead to enriched.
// The state guard in the WHERE clause keeps the state machine forward-only.
func (s *SQLiteStore) UpdateEnrichment(ctx context.Context, leadID string, upd model.EnrichmentUpdate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET
			name = CASE WHEN ? != '' THEN ? ELSE name END,
			email = ?, phone = ?, form_url = ?, linkedin_url = ?,
			notes = ?, last_crawled_at = ?, state = ?, updated_at = ?
		 WHERE id = ? AND state IN (?, ?, ?)`,
		upd.Name, upd.Name,
		upd.Signals.Email, upd.Signals.Phone, upd.Signals.FormURL, upd.Signals.LinkedInURL,
		upd.Notes, upd.CrawledAt, string(model.StateEnriched), time.Now().UTC(),
		leadID, string(model.StateNew), string(model.StateEnriching), string(model.StateEnriched),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update enrichment %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) UpdateScore(ctx context.Context, leadID string, upd model.ScoreUpdate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET
			fit_score = ?, contact_score = ?, outreach_score = ?,
			channel = ?, channel_reason = ?, state = ?, updated_at = ?
		 WHERE id = ? AND state IN (?, ?)`,
		upd.FitScore, upd.ContactScore, upd.OutreachScore,
		string(upd.Channel), upd.ChannelReason, string(model.StateScored), time.Now().UTC(),
		leadID, string(model.StateEnriched), string(model.StateScored),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update score %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) MarkLeadPlanned(ctx context.Context, leadID string) error {
	return s.advanceState(ctx, leadID, model.StatePlanned, model.StateScored, model.StatePlanned)
}

func (s *SQLiteStore) MarkLeadContacted(ctx context.Context, leadID string) error {
	return s.advanceState(ctx, leadID, model.StateContacted, model.StatePlanned, model.StateContacted)
}

func (s *SQLiteStore) advanceState(ctx context.Context, leadID string, next model.LeadState, allowed ...model.LeadState) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(allowed)), ", ")
	args := []any{string(next), time.Now().UTC(), leadID}
	for _, a := range allowed {
		args = append(args, string(a))
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE leads SET state = ?, updated_at = ? WHERE id = ? AND state IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: advance lead %s to %s", leadID, next)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) SavePage(ctx context.Context, leadID, url, title, text string) error {
	if len(text) > pageExcerptLimit {
		text = text[:pageExcerptLimit]
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (id, lead_id, url, title, text_excerpt, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(lead_id, url) DO UPDATE SET
			title = excluded.title,
			text_excerpt = excluded.text_excerpt,
			fetched_at = excluded.fetched_at`,
		uuid.New().String(), leadID, url, title, text, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save page %s", url)
}

func (s *SQLiteStore) LeadText(ctx context.Context, leadID string) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text_excerpt FROM pages WHERE lead_id = ? ORDER BY fetched_at ASC`, leadID,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: lead text %s", leadID)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return "", eris.Wrap(err, "sqlite: scan page text")
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, "\n"), eris.Wrap(rows.Err(), "sqlite: lead text iterate")
}

func (s *SQLiteStore) InsertAction(ctx context.Context, a model.OutreachAction) error {
	now := time.Now().UTC()
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outreach_actions
			(id, lead_id, step, step_name, channel, subject, body, scheduled_for, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(lead_id, step, scheduled_for) DO UPDATE SET
			channel = excluded.channel,
			subject = excluded.subject,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		id, a.LeadID, a.Step, a.StepName, string(a.Channel), a.Subject, a.Body,
		a.ScheduledFor, string(model.ActionPending), now, now,
	)
	return eris.Wrapf(err, "sqlite: insert action %s step %d", a.LeadID, a.Step)
}

func (s *SQLiteStore) ListActions(ctx context.Context, filter ActionFilter) ([]model.OutreachAction, error) {
	query := `SELECT ` + actionColumns + ` FROM outreach_actions WHERE 1=1`
	var args []any

	if filter.LeadID != "" {
		query += ` AND lead_id = ?`
		args = append(args, filter.LeadID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY scheduled_for ASC, lead_id ASC, step ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list actions")
	}
	defer rows.Close()

	var actions []model.OutreachAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, *a)
	}
	return actions, eris.Wrap(rows.Err(), "sqlite: list actions iterate")
}

// DueActions returns pending email actions scheduled on or before actionDate,
// in sequence order, excluding actions whose earlier step is still pending
// beyond the window.
func (s *SQLiteStore) DueActions(ctx context.Context, actionDate string, limit int) ([]model.DueAction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+prefixedActionColumns+`, l.domain, l.name, l.email
		 FROM outreach_actions a
		 JOIN leads l ON l.id = a.lead_id
		 WHERE a.channel = ?
		   AND a.status = ?
		   AND a.scheduled_for <= ?
		   AND NOT EXISTS (
			SELECT 1 FROM outreach_actions p
			WHERE p.lead_id = a.lead_id AND p.step < a.step
			  AND p.status = ? AND p.scheduled_for > ?
		   )
		 ORDER BY a.scheduled_for ASC, a.lead_id ASC, a.step ASC
		 LIMIT ?`,
		string(model.ChannelEmail), string(model.ActionPending), actionDate,
		string(model.ActionPending), actionDate, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: due actions")
	}
	defer rows.Close()

	var due []model.DueAction
	for rows.Next() {
		var d model.DueAction
		var sentAt sql.NullTime
		err := rows.Scan(
			&d.ID, &d.LeadID, &d.Step, &d.StepName, &d.Channel, &d.Subject, &d.Body,
			&d.ScheduledFor, &d.Status, &sentAt, &d.Error, &d.CreatedAt, &d.UpdatedAt,
			&d.Domain, &d.LeadName, &d.ToEmail,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan due action")
		}
		if sentAt.Valid {
			d.SentAt = &sentAt.Time
		}
		due = append(due, d)
	}
	return due, eris.Wrap(rows.Err(), "sqlite: due actions iterate")
}

func (s *SQLiteStore) MarkAction(ctx context.Context, actionID string, status model.ActionStatus, sentAt *time.Time, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE outreach_actions
		 SET status = ?, sent_at = COALESCE(?, sent_at), error = ?, updated_at = ?
		 WHERE id = ?`,
		string(status), sentAt, errMsg, time.Now().UTC(), actionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark action %s", actionID)
	}
	return checkRowsAffected(res, "action", actionID)
}

func (s *SQLiteStore) ExportRows(ctx context.Context) ([]ExportRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, name, url, state,
			fit_score, contact_score, outreach_score,
			channel, channel_reason, email, phone, form_url, linkedin_url,
			source_queries,
			COALESCE((
				SELECT GROUP_CONCAT(x, ';') FROM (
					SELECT a.step_name || '@' || a.scheduled_for || '[' || a.status || ']' AS x
					FROM outreach_actions a
					WHERE a.lead_id = l.id
					ORDER BY a.step ASC
				)
			), '') AS actions
		 FROM leads l
		 ORDER BY outreach_score DESC, fit_score DESC, domain ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: export rows")
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var r ExportRow
		err := rows.Scan(
			&r.Domain, &r.Name, &r.URL, &r.State,
			&r.FitScore, &r.ContactScore, &r.OutreachScore,
			&r.Channel, &r.ChannelReason, &r.Email, &r.Phone, &r.FormURL, &r.LinkedInURL,
			&r.SourceQueries, &r.Actions,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan export row")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: export rows iterate")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{LeadsByState: map[string]int{}}

	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM leads),
			(SELECT COUNT(*) FROM pages),
			(SELECT COUNT(*) FROM outreach_actions WHERE status = ?),
			(SELECT COUNT(*) FROM outreach_actions WHERE status = ?)`,
		string(model.ActionPending), string(model.ActionSent),
	).Scan(&st.Leads, &st.Pages, &st.PendingActions, &st.SentActions)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats totals")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM leads GROUP BY state`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by state")
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan state count")
		}
		st.LeadsByState[state] = n
	}
	return st, eris.Wrap(rows.Err(), "sqlite: stats iterate")
}

// ClearAll wipes leads, pages, and actions. Callers gate this behind the
// confirmation token; the store itself does not second-guess.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	for _, table := range []string{"outreach_actions", "pages", "leads"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s", table)
		}
	}
	return nil
}

// helpers

const leadColumns = `id, domain, name, url, source_queries, state,
	email, phone, form_url, linkedin_url,
	fit_score, contact_score, outreach_score,
	channel, channel_reason, notes, last_crawled_at, created_at, updated_at`

const actionColumns = `id, lead_id, step, step_name, channel, subject, body,
	scheduled_for, status, sent_at, error, created_at, updated_at`

const prefixedActionColumns = `a.id, a.lead_id, a.step, a.step_name, a.channel, a.subject, a.body,
	a.scheduled_for, a.status, a.sent_at, a.error, a.created_at, a.updated_at`

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found or state does not allow update: %s", entity, id)
	}
	return nil
}

func mergeQueries(existingJSON, newQuery string) (string, error) {
	var queries []string
	if existingJSON != "" {
		if err := json.Unmarshal([]byte(existingJSON), &queries); err != nil {
			queries = nil
		}
	}
	for _, q := range queries {
		if q == newQuery {
			merged, err := json.Marshal(queries)
			return string(merged), eris.Wrap(err, "sqlite: marshal source queries")
		}
	}
	if newQuery != "" {
		queries = append(queries, newQuery)
	}
	merged, err := json.Marshal(queries)
	return string(merged), eris.Wrap(err, "sqlite: marshal source queries")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var queriesJSON string
	var lastCrawled sql.NullTime

	err := row.Scan(
		&l.ID, &l.Domain, &l.Name, &l.URL, &queriesJSON, &l.State,
		&l.Signals.Email, &l.Signals.Phone, &l.Signals.FormURL, &l.Signals.LinkedInURL,
		&l.FitScore, &l.ContactScore, &l.OutreachScore,
		&l.Channel, &l.ChannelReason, &l.Notes, &lastCrawled, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastCrawled.Valid {
		l.LastCrawledAt = &lastCrawled.Time
	}
	if queriesJSON != "" {
		if err := json.Unmarshal([]byte(queriesJSON), &l.SourceQueries); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal source queries")
		}
	}
	return &l, nil
}

func scanLeads(rows *sql.Rows) ([]model.Lead, error) {
	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

func scanAction(row scannable) (*model.OutreachAction, error) {
	var a model.OutreachAction
	var sentAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.LeadID, &a.Step, &a.StepName, &a.Channel, &a.Subject, &a.Body,
		&a.ScheduledFor, &a.Status, &sentAt, &a.Error, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan action")
	}
	if sentAt.Valid {
		a.SentAt = &sentAt.Time
	}
	return &a, nil
}
