package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/db"
	"github.com/sells-group/outreach-cli/internal/model"
)

// PostgresStore implements Store on top of a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres wraps an existing pool. The caller owns connection setup so
// tests can substitute a mock pool.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	domain          TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL DEFAULT '',
	source_queries  JSONB NOT NULL DEFAULT '[]',
	state           TEXT NOT NULL DEFAULT 'new',
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	form_url        TEXT NOT NULL DEFAULT '',
	linkedin_url    TEXT NOT NULL DEFAULT '',
	fit_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
	contact_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	outreach_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
	channel         TEXT NOT NULL DEFAULT '',
	channel_reason  TEXT NOT NULL DEFAULT '',
	notes           TEXT NOT NULL DEFAULT '',
	last_crawled_at TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
	id           TEXT PRIMARY KEY,
	lead_id      TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	text_excerpt TEXT NOT NULL DEFAULT '',
	fetched_at   TIMESTAMPTZ NOT NULL,
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
	sent_at       TIMESTAMPTZ,
	error         TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
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

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertLead(ctx context.Context, domain, url, sourceQuery string) (bool, error) {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, eris.Wrap(err, "postgres: begin upsert lead")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var id, queriesJSON, existingURL string
	err = tx.QueryRow(ctx,
		`SELECT id, source_queries, url FROM leads WHERE domain = $1`, domain,
	).Scan(&id, &queriesJSON, &existingURL)

	switch {
	case err == pgx.ErrNoRows:
		queries, mErr := json.Marshal([]string{sourceQuery})
		if mErr != nil {
			return false, eris.Wrap(mErr, "postgres: marshal source queries")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO leads (id, domain, url, source_queries, state, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), domain, url, string(queries), string(model.StateNew), now, now,
		)
		if err != nil {
			return false, eris.Wrapf(err, "postgres: insert lead %s", domain)
		}
		if err := tx.Commit(ctx); err != nil {
			return false, eris.Wrap(err, "postgres: commit upsert lead")
		}
		return true, nil

	case err != nil:
		return false, eris.Wrapf(err, "postgres: lookup lead %s", domain)
	}

	merged, err := mergeQueries(queriesJSON, sourceQuery)
	if err != nil {
		return false, err
	}
	if existingURL != "" {
		url = existingURL
	}
	_, err = tx.Exec(ctx,
		`UPDATE leads SET url = $1, source_queries = $2, updated_at = $3 WHERE id = $4`,
		url, merged, now, id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: update lead %s", domain)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, eris.Wrap(err, "postgres: commit upsert lead")
	}
	return false, nil
}

func (s *PostgresStore) GetLeadByDomain(ctx context.Context, domain string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE domain = $1`, domain,
	)
	lead, err := scanLead(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return lead, err
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		query += fmt.Sprintf(` AND (domain ILIKE %s OR name ILIKE %s OR notes ILIKE %s)`, p, p, p)
	}
	if filter.State != "" {
		query += ` AND state = ` + arg(string(filter.State))
	}
	if filter.Channel != "" {
		query += ` AND channel = ` + arg(string(filter.Channel))
	}
	if filter.MinScore > 0 {
		query += ` AND outreach_score >= ` + arg(filter.MinScore)
	}
	query += ` ORDER BY outreach_score DESC, fit_score DESC, domain ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()
	return scanLeadRows(rows)
}

func (s *PostgresStore) LeadsForEnrichment(ctx context.Context, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE state IN ($1, $2)
		 ORDER BY created_at ASC
		 LIMIT $3`,
		string(model.StateNew), string(model.StateEnriching), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: leads for enrichment")
	}
	defer rows.Close()
	return scanLeadRows(rows)
}

func (s *PostgresStore) LeadsForScoring(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE state IN ($1, $2)
		 ORDER BY created_at ASC`,
		string(model.StateEnriched), string(model.StateScored),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: leads for scoring")
	}
	defer rows.Close()
	return scanLeadRows(rows)
}

func (s *PostgresStore) LeadsForPlanning(ctx context.Context, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE state = $1
		 ORDER BY outreach_score DESC, created_at ASC
		 LIMIT $2`,
		string(model.StateScored), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: leads for planning")
	}
	defer rows.Close()
	return scanLeadRows(rows)
}

func (s *PostgresStore) UpdateEnrichment(ctx context.Context, leadID string, upd model.EnrichmentUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET
			name = CASE WHEN $1 != '' THEN $1 ELSE name END,
			email = $2, phone = $3, form_url = $4, linkedin_url = $5,
			notes = $6, last_crawled_at = $7, state = $8, updated_at = $9
		 WHERE id = $10 AND state IN ($11, $12, $13)`,
		upd.Name,
		upd.Signals.Email, upd.Signals.Phone, upd.Signals.FormURL, upd.Signals.LinkedInURL,
		upd.Notes, upd.CrawledAt, string(model.StateEnriched), time.Now().UTC(),
		leadID, string(model.StateNew), string(model.StateEnriching), string(model.StateEnriched),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update enrichment %s", leadID)
	}
	return checkTagAffected(tag.RowsAffected(), "lead", leadID)
}

func (s *PostgresStore) UpdateScore(ctx context.Context, leadID string, upd model.ScoreUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET
			fit_score = $1, contact_score = $2, outreach_score = $3,
			channel = $4, channel_reason = $5, state = $6, updated_at = $7
		 WHERE id = $8 AND state IN ($9, $10)`,
		upd.FitScore, upd.ContactScore, upd.OutreachScore,
		string(upd.Channel), upd.ChannelReason, string(model.StateScored), time.Now().UTC(),
		leadID, string(model.StateEnriched), string(model.StateScored),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update score %s", leadID)
	}
	return checkTagAffected(tag.RowsAffected(), "lead", leadID)
}

func (s *PostgresStore) MarkLeadPlanned(ctx context.Context, leadID string) error {
	return s.advanceState(ctx, leadID, model.StatePlanned, model.StateScored, model.StatePlanned)
}

func (s *PostgresStore) MarkLeadContacted(ctx context.Context, leadID string) error {
	return s.advanceState(ctx, leadID, model.StateContacted, model.StatePlanned, model.StateContacted)
}

func (s *PostgresStore) advanceState(ctx context.Context, leadID string, next model.LeadState, allowed ...model.LeadState) error {
	placeholders := make([]string, len(allowed))
	args := []any{string(next), time.Now().UTC(), leadID}
	for i, a := range allowed {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, string(a))
	}
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE leads SET state = $1, updated_at = $2 WHERE id = $3 AND state IN (%s)`,
			strings.Join(placeholders, ", ")),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: advance lead %s to %s", leadID, next)
	}
	return checkTagAffected(tag.RowsAffected(), "lead", leadID)
}

func (s *PostgresStore) SavePage(ctx context.Context, leadID, url, title, text string) error {
	if len(text) > pageExcerptLimit {
		text = text[:pageExcerptLimit]
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pages (id, lead_id, url, title, text_excerpt, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (lead_id, url) DO UPDATE SET
			title = excluded.title,
			text_excerpt = excluded.text_excerpt,
			fetched_at = excluded.fetched_at`,
		uuid.New().String(), leadID, url, title, text, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save page %s", url)
}

func (s *PostgresStore) LeadText(ctx context.Context, leadID string) (string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT text_excerpt FROM pages WHERE lead_id = $1 ORDER BY fetched_at ASC`, leadID,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: lead text %s", leadID)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return "", eris.Wrap(err, "postgres: scan page text")
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, "\n"), eris.Wrap(rows.Err(), "postgres: lead text iterate")
}

func (s *PostgresStore) InsertAction(ctx context.Context, a model.OutreachAction) error {
	now := time.Now().UTC()
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO outreach_actions
			(id, lead_id, step, step_name, channel, subject, body, scheduled_for, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (lead_id, step, scheduled_for) DO UPDATE SET
			channel = excluded.channel,
			subject = excluded.subject,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		id, a.LeadID, a.Step, a.StepName, string(a.Channel), a.Subject, a.Body,
		a.ScheduledFor, string(model.ActionPending), now, now,
	)
	return eris.Wrapf(err, "postgres: insert action %s step %d", a.LeadID, a.Step)
}

func (s *PostgresStore) ListActions(ctx context.Context, filter ActionFilter) ([]model.OutreachAction, error) {
	query := `SELECT ` + actionColumns + ` FROM outreach_actions WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.LeadID != "" {
		query += ` AND lead_id = ` + arg(filter.LeadID)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	query += ` ORDER BY scheduled_for ASC, lead_id ASC, step ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += ` LIMIT ` + arg(limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list actions")
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
	return actions, eris.Wrap(rows.Err(), "postgres: list actions iterate")
}

func (s *PostgresStore) DueActions(ctx context.Context, actionDate string, limit int) ([]model.DueAction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+prefixedActionColumns+`, l.domain, l.name, l.email
		 FROM outreach_actions a
		 JOIN leads l ON l.id = a.lead_id
		 WHERE a.channel = $1
		   AND a.status = $2
		   AND a.scheduled_for <= $3
		   AND NOT EXISTS (
			SELECT 1 FROM outreach_actions p
			WHERE p.lead_id = a.lead_id AND p.step < a.step
			  AND p.status = $2 AND p.scheduled_for > $3
		   )
		 ORDER BY a.scheduled_for ASC, a.lead_id ASC, a.step ASC
		 LIMIT $4`,
		string(model.ChannelEmail), string(model.ActionPending), actionDate, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: due actions")
	}
	defer rows.Close()

	var due []model.DueAction
	for rows.Next() {
		var d model.DueAction
		var sentAt *time.Time
		err := rows.Scan(
			&d.ID, &d.LeadID, &d.Step, &d.StepName, &d.Channel, &d.Subject, &d.Body,
			&d.ScheduledFor, &d.Status, &sentAt, &d.Error, &d.CreatedAt, &d.UpdatedAt,
			&d.Domain, &d.LeadName, &d.ToEmail,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan due action")
		}
		d.SentAt = sentAt
		due = append(due, d)
	}
	return due, eris.Wrap(rows.Err(), "postgres: due actions iterate")
}

func (s *PostgresStore) MarkAction(ctx context.Context, actionID string, status model.ActionStatus, sentAt *time.Time, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE outreach_actions
		 SET status = $1, sent_at = COALESCE($2, sent_at), error = $3, updated_at = $4
		 WHERE id = $5`,
		string(status), sentAt, errMsg, time.Now().UTC(), actionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark action %s", actionID)
	}
	return checkTagAffected(tag.RowsAffected(), "action", actionID)
}

func (s *PostgresStore) ExportRows(ctx context.Context) ([]ExportRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT l.domain, l.name, l.url, l.state,
			l.fit_score, l.contact_score, l.outreach_score,
			l.channel, l.channel_reason, l.email, l.phone, l.form_url, l.linkedin_url,
			l.source_queries::text,
			COALESCE((
				SELECT string_agg(a.step_name || '@' || a.scheduled_for || '[' || a.status || ']', ';' ORDER BY a.step)
				FROM outreach_actions a
				WHERE a.lead_id = l.id
			), '') AS actions
		 FROM leads l
		 ORDER BY l.outreach_score DESC, l.fit_score DESC, l.domain ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: export rows")
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
			return nil, eris.Wrap(err, "postgres: scan export row")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: export rows iterate")
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{LeadsByState: map[string]int{}}

	err := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM leads),
			(SELECT COUNT(*) FROM pages),
			(SELECT COUNT(*) FROM outreach_actions WHERE status = $1),
			(SELECT COUNT(*) FROM outreach_actions WHERE status = $2)`,
		string(model.ActionPending), string(model.ActionSent),
	).Scan(&st.Leads, &st.Pages, &st.PendingActions, &st.SentActions)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats totals")
	}

	rows, err := s.pool.Query(ctx, `SELECT state, COUNT(*) FROM leads GROUP BY state`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats by state")
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan state count")
		}
		st.LeadsByState[state] = n
	}
	return st, eris.Wrap(rows.Err(), "postgres: stats iterate")
}

func (s *PostgresStore) ClearAll(ctx context.Context) error {
	for _, table := range []string{"outreach_actions", "pages", "leads"} {
		if _, err := s.pool.Exec(ctx, `DELETE FROM `+table); err != nil {
			return eris.Wrapf(err, "postgres: clear %s", table)
		}
	}
	return nil
}

func checkTagAffected(n int64, entity, id string) error {
	if n == 0 {
		return eris.Errorf("%s not found or state does not allow update: %s", entity, id)
	}
	return nil
}

func scanLeadRows(rows pgx.Rows) ([]model.Lead, error) {
	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}
