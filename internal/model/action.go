package model

import (
	"time"
)

// ActionStatus is the lifecycle status of an outreach action.
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionSent      ActionStatus = "sent"
	ActionFailed    ActionStatus = "failed"
	ActionSkipped   ActionStatus = "skipped"
	ActionSimulated ActionStatus = "simulated"
)

// Resolved reports whether the status is terminal. A resolved earlier step
// unblocks later steps of the same lead.
func (s ActionStatus) Resolved() bool {
	return s != ActionPending
}

// OutreachAction is one scheduled touch in a lead's contact sequence.
type OutreachAction struct {
	ID           string       `json:"id" db:"id"`
	LeadID       string       `json:"lead_id" db:"lead_id"`
	Step         int          `json:"step" db:"step"`
	StepName     string       `json:"step_name" db:"step_name"`
	Channel      Channel      `json:"channel" db:"channel"`
	Subject      string       `json:"subject,omitempty" db:"subject"`
	Body         string       `json:"body,omitempty" db:"body"`
	ScheduledFor string       `json:"scheduled_for" db:"scheduled_for"` // YYYY-MM-DD
	Status       ActionStatus `json:"status" db:"status"`
	SentAt       *time.Time   `json:"sent_at,omitempty" db:"sent_at"`
	Error        string       `json:"error,omitempty" db:"error"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// DueAction is an action joined with the lead fields the sender needs.
type DueAction struct {
	OutreachAction
	Domain   string `json:"domain"`
	LeadName string `json:"lead_name"`
	ToEmail  string `json:"to_email"`
}

// DateLayout is the calendar-date format used for scheduled_for values.
const DateLayout = "2006-01-02"
