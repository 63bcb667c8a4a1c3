// Package store provides persistence for leads, crawled pages, and outreach
// actions, with SQLite and Postgres backends behind a common interface.
package store

import (
	"context"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Search   string          `json:"search,omitempty"`
	State    model.LeadState `json:"state,omitempty"`
	Channel  model.Channel   `json:"channel,omitempty"`
	MinScore float64         `json:"min_score,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// ActionFilter specifies criteria for listing outreach actions.
type ActionFilter struct {
	LeadID string             `json:"lead_id,omitempty"`
	Status model.ActionStatus `json:"status,omitempty"`
	Limit  int                `json:"limit,omitempty"`
}

// Stats summarizes the store contents for the dashboard.
type Stats struct {
	Leads          int            `json:"leads"`
	LeadsByState   map[string]int `json:"leads_by_state"`
	Pages          int            `json:"pages"`
	PendingActions int            `json:"pending_actions"`
	SentActions    int            `json:"sent_actions"`
}

// ExportRow is one flattened lead for CSV/XLSX export.
type ExportRow struct {
	Domain        string  `json:"domain"`
	Name          string  `json:"name"`
	URL           string  `json:"url"`
	State         string  `json:"state"`
	FitScore      float64 `json:"fit_score"`
	ContactScore  float64 `json:"contact_score"`
	OutreachScore float64 `json:"outreach_score"`
	Channel       string  `json:"channel"`
	ChannelReason string  `json:"channel_reason"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	FormURL       string  `json:"form_url"`
	LinkedInURL   string  `json:"linkedin_url"`
	SourceQueries string  `json:"source_queries"`
	Actions       string  `json:"actions"`
}

// Store defines the persistence interface shared by every pipeline stage.
type Store interface {
	// Leads
	UpsertLead(ctx context.Context, domain, url, sourceQuery string) (inserted bool, err error)
	GetLeadByDomain(ctx context.Context, domain string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	LeadsForEnrichment(ctx context.Context, limit int) ([]model.Lead, error)
	LeadsForScoring(ctx context.Context) ([]model.Lead, error)
	LeadsForPlanning(ctx context.Context, limit int) ([]model.Lead, error)
	UpdateEnrichment(ctx context.Context, leadID string, upd model.EnrichmentUpdate) error
	UpdateScore(ctx context.Context, leadID string, upd model.ScoreUpdate) error
	MarkLeadPlanned(ctx context.Context, leadID string) error
	MarkLeadContacted(ctx context.Context, leadID string) error

	// Pages
	SavePage(ctx context.Context, leadID, url, title, text string) error
	LeadText(ctx context.Context, leadID string) (string, error)

	// Actions
	InsertAction(ctx context.Context, a model.OutreachAction) error
	ListActions(ctx context.Context, filter ActionFilter) ([]model.OutreachAction, error)
	DueActions(ctx context.Context, actionDate string, limit int) ([]model.DueAction, error)
	MarkAction(ctx context.Context, actionID string, status model.ActionStatus, sentAt *time.Time, errMsg string) error

	// Reporting
	ExportRows(ctx context.Context) ([]ExportRow, error)
	Stats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	ClearAll(ctx context.Context) error
	Close() error
}

// pageExcerptLimit caps stored page text so one verbose page cannot bloat
// the database.
const pageExcerptLimit = 5000
