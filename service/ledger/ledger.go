// Package ledger defines the storage contract for calendar entries, findings,
// curation candidates, engagement opportunities and actions. Every method is
// a single-record operation; no multi-record transactions are required.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/viant/crier/model"
	"github.com/viant/crier/service/dao"
)

// InsertResult reports the outcome of a dedup-aware insert.
type InsertResult int

const (
	// Inserted means a new record was created.
	Inserted InsertResult = iota
	// Duplicate means a record with the same dedup key already existed and was left unchanged.
	Duplicate
)

func (r InsertResult) String() string {
	if r == Duplicate {
		return "duplicate"
	}
	return "inserted"
}

var (
	// ErrStatusRegression is returned when an action status update would move backwards
	// or leave a terminal status.
	ErrStatusRegression = errors.New("ledger: action status regression")
	// ErrUnknownStatus is returned for statuses outside the closed enum.
	ErrUnknownStatus = errors.New("ledger: unknown status")
)

// Calendar stores pre-planned posts.
type Calendar interface {
	AddCalendarEntry(ctx context.Context, entry *model.CalendarEntry) error
	CalendarEntries(ctx context.Context, day string) ([]*model.CalendarEntry, error)
	UpdateCalendarStatus(ctx context.Context, id string, status model.CalendarStatus) error
}

// Findings stores discovered conversations, unique on source URL.
type Findings interface {
	InsertFinding(ctx context.Context, finding *model.Finding) (InsertResult, error)
	Finding(ctx context.Context, id string) (*model.Finding, error)
	// QueuedFindings returns queued findings by relevance desc, found_at asc.
	QueuedFindings(ctx context.Context, limit int) ([]*model.Finding, error)
	UpdateFindingStatus(ctx context.Context, id string, status model.FindingStatus) error
}

// Candidates stores curation candidates, unique on URL.
type Candidates interface {
	InsertCandidate(ctx context.Context, candidate *model.CurationCandidate) (InsertResult, error)
	Candidate(ctx context.Context, id string) (*model.CurationCandidate, error)
	// NewCandidates returns unevaluated candidates by created_at asc.
	NewCandidates(ctx context.Context, limit int) ([]*model.CurationCandidate, error)
	// ApprovedCandidates returns approved candidates by final_score desc.
	ApprovedCandidates(ctx context.Context, limit int) ([]*model.CurationCandidate, error)
	// SaveEvaluation persists evaluation fields, drafts, scores and status.
	SaveEvaluation(ctx context.Context, candidate *model.CurationCandidate) error
	// UpdateCandidateStatus sets the status; posted also stamps posted_at.
	UpdateCandidateStatus(ctx context.Context, id string, status model.CandidateStatus) error
	CountPostedCurationsToday(ctx context.Context) (int, error)
}

// Engagements stores engagement opportunities, unique on (platform, post id).
type Engagements interface {
	InsertEngagement(ctx context.Context, opportunity *model.EngagementOpportunity) (InsertResult, error)
	// PendingEngagements returns pending opportunities by created_at asc.
	PendingEngagements(ctx context.Context, limit int) ([]*model.EngagementOpportunity, error)
	UpdateEngagementStatus(ctx context.Context, id string, status model.EngagementStatus) error
}

// Actions stores executed or pending actions. Actions are never deleted.
type Actions interface {
	CreateAction(ctx context.Context, action *model.Action) error
	Action(ctx context.Context, id string) (*model.Action, error)
	// ApplyDecision persists a decision outcome. content, when not nil, replaces the action content.
	ApplyDecision(ctx context.Context, id string, status model.ActionStatus, decision string, at time.Time, content *string) error
	// ExpireApproval backlogs the action with reason only while it is still
	// pending approval. Any other status returns ErrStatusRegression.
	ExpireApproval(ctx context.Context, id string, reason string, at time.Time) error
	// UpdateActionResult records the execution outcome (posted or failed).
	UpdateActionResult(ctx context.Context, id string, status model.ActionStatus, postURL string) error
	// CountPostedToday counts actions posted today, optionally restricted to platform.
	CountPostedToday(ctx context.Context, platform model.Platform) (int, error)
}

// Ledger combines every record store the orchestrator needs.
type Ledger interface {
	Calendar
	Findings
	Candidates
	Engagements
	Actions
	Close() error
}

// CheckTransition validates an action status change.
func CheckTransition(from, to model.ActionStatus) error {
	if !to.IsValid() {
		return ErrUnknownStatus
	}
	if !from.CanTransition(to) {
		return ErrStatusRegression
	}
	return nil
}

// ErrNotFound is returned by lookups and updates of missing records.
var ErrNotFound = dao.ErrNotFound
