// Package model defines the lead and outreach domain types shared by every
// pipeline stage.
package model

import (
	"time"
)

// LeadState is the lifecycle state of a lead. States only advance forward;
// the only way back is the explicit bulk clear.
type LeadState string

const (
	StateNew       LeadState = "new"
	StateEnriching LeadState = "enriching"
	StateEnriched  LeadState = "enriched"
	StateScored    LeadState = "scored"
	StatePlanned   LeadState = "planned"
	StateContacted LeadState = "contacted"
)

// allowedTransitions is the forward-only state machine. Self-transitions are
// permitted everywhere so that re-running a stage stays idempotent.
var allowedTransitions = map[LeadState][]LeadState{
	StateNew:       {StateEnriching, StateEnriched},
	StateEnriching: {StateEnriched},
	StateEnriched:  {StateScored},
	StateScored:    {StatePlanned},
	StatePlanned:   {StateContacted},
	StateContacted: {},
}

// CanTransition reports whether moving from s to next is allowed.
func (s LeadState) CanTransition(next LeadState) bool {
	if s == next {
		return true
	}
	for _, t := range allowedTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known lead state.
func (s LeadState) Valid() bool {
	switch s {
	case StateNew, StateEnriching, StateEnriched, StateScored, StatePlanned, StateContacted:
		return true
	}
	return false
}

// Channel is an outreach channel recommended for a lead.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelForm     Channel = "form"
	ChannelPhone    Channel = "phone"
	ChannelLinkedIn Channel = "linkedin"
	ChannelNone     Channel = "none"
)

// ChannelPriority is the strict recommendation order. Earlier wins.
var ChannelPriority = []Channel{ChannelEmail, ChannelForm, ChannelPhone, ChannelLinkedIn}

// Signals holds the contact channels extracted by enrichment. Empty string
// means the channel was not found.
type Signals struct {
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	FormURL     string `json:"form_url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// Empty reports whether no contact channel was found at all.
func (s Signals) Empty() bool {
	return s.Email == "" && s.Phone == "" && s.FormURL == "" && s.LinkedInURL == ""
}

// Has reports whether the given channel is present in the signal set.
func (s Signals) Has(c Channel) bool {
	switch c {
	case ChannelEmail:
		return s.Email != ""
	case ChannelForm:
		return s.FormURL != ""
	case ChannelPhone:
		return s.Phone != ""
	case ChannelLinkedIn:
		return s.LinkedInURL != ""
	}
	return false
}

// Lead is a candidate company keyed by its normalized root domain.
type Lead struct {
	ID            string     `json:"id" db:"id"`
	Domain        string     `json:"domain" db:"domain"`
	Name          string     `json:"name,omitempty" db:"name"`
	URL           string     `json:"url,omitempty" db:"url"`
	SourceQueries []string   `json:"source_queries,omitempty" db:"source_queries"`
	State         LeadState  `json:"state" db:"state"`
	Signals       Signals    `json:"signals"`
	FitScore      float64    `json:"fit_score" db:"fit_score"`
	ContactScore  float64    `json:"contact_score" db:"contact_score"`
	OutreachScore float64    `json:"outreach_score" db:"outreach_score"`
	Channel       Channel    `json:"channel,omitempty" db:"channel"`
	ChannelReason string     `json:"channel_reason,omitempty" db:"channel_reason"`
	Notes         string     `json:"notes,omitempty" db:"notes"`
	LastCrawledAt *time.Time `json:"last_crawled_at,omitempty" db:"last_crawled_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// EnrichmentUpdate carries the results of crawling one lead's site.
type EnrichmentUpdate struct {
	Name      string
	Signals   Signals
	Notes     string
	CrawledAt time.Time
}

// ScoreUpdate carries the scorer's output for one lead.
type ScoreUpdate struct {
	FitScore      float64
	ContactScore  float64
	OutreachScore float64
	Channel       Channel
	ChannelReason string
}

// Page is one crawled page's text excerpt, kept for keyword scoring.
type Page struct {
	ID       string    `json:"id" db:"id"`
	LeadID   string    `json:"lead_id" db:"lead_id"`
	URL      string    `json:"url" db:"url"`
	Title    string    `json:"title,omitempty" db:"title"`
	Text     string    `json:"text,omitempty" db:"text_excerpt"`
	FetchedAt time.Time `json:"fetched_at" db:"fetched_at"`
}
