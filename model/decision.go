package model

import (
	"strings"
	"time"
)

// Decision is a human decision token delivered by a button tap.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
	DecisionBacklog Decision = "backlog"
	DecisionRethink Decision = "rethink"
	DecisionDraftA  Decision = "draft_A"
	DecisionDraftB  Decision = "draft_B"
	DecisionDraftC  Decision = "draft_C"
	DecisionDraftD  Decision = "draft_D"
)

// DraftLabels lists the variant labels the Judge may produce.
var DraftLabels = []string{"A", "B", "C", "D"}

const draftPrefix = "draft_"

// DraftDecision returns the token selecting the labelled variant.
func DraftDecision(label string) Decision {
	return Decision(draftPrefix + label)
}

// DraftLabel returns the variant label selected by a draft_X token.
func (d Decision) DraftLabel() (string, bool) {
	if !strings.HasPrefix(string(d), draftPrefix) {
		return "", false
	}
	label := strings.TrimPrefix(string(d), draftPrefix)
	for _, candidate := range DraftLabels {
		if candidate == label {
			return label, true
		}
	}
	return "", false
}

// Status maps the decision to the action status it persists.
func (d Decision) Status() (ActionStatus, bool) {
	switch d {
	case DecisionApprove:
		return ActionStatusApproved, true
	case DecisionDeny:
		return ActionStatusDenied, true
	case DecisionBacklog:
		return ActionStatusBacklogged, true
	case DecisionRethink:
		return ActionStatusPendingRethink, true
	}
	if _, ok := d.DraftLabel(); ok {
		return ActionStatusApproved, true
	}
	return "", false
}

// IsApproval reports whether the decision allows the action to be executed.
func (d Decision) IsApproval() bool {
	status, ok := d.Status()
	return ok && status == ActionStatusApproved
}

// DecisionEvent is the wire message relayed from the notification channel.
type DecisionEvent struct {
	ActionID  string   `json:"action_id"`
	Decision  Decision `json:"decision"`
	Timestamp string   `json:"timestamp"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Time parses the ISO-8601 timestamp, falling back to fallback when absent or malformed.
func (e *DecisionEvent) Time(fallback time.Time) time.Time {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, e.Timestamp); err == nil {
			return ts.UTC()
		}
	}
	return fallback.UTC()
}
