package model

// ActionStatus represents the lifecycle state of an Action.
type ActionStatus string

const (
	ActionStatusPendingApproval ActionStatus = "pending_approval"
	ActionStatusApproved        ActionStatus = "approved"
	ActionStatusDenied          ActionStatus = "denied"
	ActionStatusBacklogged      ActionStatus = "backlogged"
	ActionStatusPendingRethink  ActionStatus = "pending_rethink"
	ActionStatusPosted          ActionStatus = "posted"
	ActionStatusFailed          ActionStatus = "failed"
)

// rank orders statuses along the action lifecycle. Decision statuses share a
// rank so a late human decision can replace a timeout backlog.
func (s ActionStatus) rank() int {
	switch s {
	case ActionStatusPendingApproval:
		return 0
	case ActionStatusApproved, ActionStatusDenied, ActionStatusBacklogged, ActionStatusPendingRethink:
		return 1
	case ActionStatusPosted, ActionStatusFailed:
		return 2
	}
	return -1
}

// IsValid reports whether s is a known status.
func (s ActionStatus) IsValid() bool { return s.rank() >= 0 }

// IsTerminal reports whether no further transition is possible.
func (s ActionStatus) IsTerminal() bool { return s.rank() == 2 }

// CanTransition reports whether an action in status s may move to next.
func (s ActionStatus) CanTransition(next ActionStatus) bool {
	if !next.IsValid() || s.IsTerminal() {
		return false
	}
	if s == "" {
		return true
	}
	return next.rank() >= s.rank()
}

// CandidateStatus represents the lifecycle state of a CurationCandidate.
type CandidateStatus string

const (
	CandidateStatusNew      CandidateStatus = "new"
	CandidateStatusApproved CandidateStatus = "approved"
	CandidateStatusRejected CandidateStatus = "rejected"
	CandidateStatusPosted   CandidateStatus = "posted"
)

// FindingStatus represents the lifecycle state of a Finding.
type FindingStatus string

const (
	FindingStatusQueued   FindingStatus = "queued"
	FindingStatusApproved FindingStatus = "approved"
	FindingStatusActed    FindingStatus = "acted"
)

// CalendarStatus represents the lifecycle state of a CalendarEntry.
type CalendarStatus string

const (
	CalendarStatusPlanned  CalendarStatus = "planned"
	CalendarStatusConsumed CalendarStatus = "consumed"
)

// EngagementStatus represents the lifecycle state of an EngagementOpportunity.
type EngagementStatus string

const (
	EngagementStatusPending EngagementStatus = "pending"
	EngagementStatusDone    EngagementStatus = "done"
	EngagementStatusSkipped EngagementStatus = "skipped"
)
