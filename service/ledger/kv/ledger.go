// Package kv implements ledger.Ledger on top of generic dao.Service stores,
// either in memory or as JSON documents through afs.
package kv

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/internal/idgen"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/dao"
	"github.com/viant/crier/service/dao/criteria"
	"github.com/viant/crier/service/dao/fs"
	"github.com/viant/crier/service/dao/store"
	"github.com/viant/crier/service/ledger"
)

// Stores groups the record stores backing the ledger.
type Stores struct {
	Calendar    dao.Service[string, model.CalendarEntry]
	Findings    dao.Service[string, model.Finding]
	Candidates  dao.Service[string, model.CurationCandidate]
	Engagements dao.Service[string, model.EngagementOpportunity]
	Actions     dao.Service[string, model.Action]
}

// Ledger serialises read-modify-write sequences so dedup checks and status
// guards are atomic per record.
type Ledger struct {
	stores Stores
	mu     sync.Mutex
}

var _ ledger.Ledger = (*Ledger)(nil)

// New creates a ledger over the supplied stores.
func New(stores Stores) (*Ledger, error) {
	if stores.Calendar == nil || stores.Findings == nil || stores.Candidates == nil ||
		stores.Engagements == nil || stores.Actions == nil {
		return nil, fmt.Errorf("kv ledger: all stores are required")
	}
	return &Ledger{stores: stores}, nil
}

// NewMemory creates a ledger held entirely in memory.
func NewMemory() *Ledger {
	return &Ledger{stores: Stores{
		Calendar: store.NewMemoryStore[string, model.CalendarEntry](
			func(e *model.CalendarEntry) string { return e.ID },
			store.WithFilter[string, model.CalendarEntry](func(e *model.CalendarEntry, p []*dao.Parameter) bool {
				return criteria.FilterByStatus(string(e.Status), p)
			})),
		Findings: store.NewMemoryStore[string, model.Finding](
			func(f *model.Finding) string { return f.ID },
			store.WithFilter[string, model.Finding](func(f *model.Finding, p []*dao.Parameter) bool {
				return criteria.FilterByStatus(string(f.Status), p)
			})),
		Candidates: store.NewMemoryStore[string, model.CurationCandidate](
			func(c *model.CurationCandidate) string { return c.ID },
			store.WithFilter[string, model.CurationCandidate](func(c *model.CurationCandidate, p []*dao.Parameter) bool {
				return criteria.FilterByStatus(string(c.Status), p)
			})),
		Engagements: store.NewMemoryStore[string, model.EngagementOpportunity](
			func(e *model.EngagementOpportunity) string { return e.ID },
			store.WithFilter[string, model.EngagementOpportunity](func(e *model.EngagementOpportunity, p []*dao.Parameter) bool {
				return criteria.FilterByStatus(string(e.Status), p)
			})),
		Actions: store.NewMemoryStore[string, model.Action](
			func(a *model.Action) string { return a.ID },
			store.WithFilter[string, model.Action](func(a *model.Action, p []*dao.Parameter) bool {
				return criteria.FilterByStatus(string(a.Status), p)
			})),
	}}
}

// NewFS creates a ledger persisting JSON documents under baseURL.
func NewFS(baseURL string) (*Ledger, error) {
	baseURL = url.Normalize(baseURL, file.Scheme)
	calendar, err := fs.New[string, model.CalendarEntry](url.Join(baseURL, "calendar"),
		func(e *model.CalendarEntry) string { return e.ID },
		fs.WithFilter[string, model.CalendarEntry](func(e *model.CalendarEntry, p []*dao.Parameter) bool {
			return criteria.FilterByStatus(string(e.Status), p)
		}))
	if err != nil {
		return nil, err
	}
	findings, err := fs.New[string, model.Finding](url.Join(baseURL, "findings"),
		func(f *model.Finding) string { return f.ID },
		fs.WithFilter[string, model.Finding](func(f *model.Finding, p []*dao.Parameter) bool {
			return criteria.FilterByStatus(string(f.Status), p)
		}))
	if err != nil {
		return nil, err
	}
	candidates, err := fs.New[string, model.CurationCandidate](url.Join(baseURL, "candidates"),
		func(c *model.CurationCandidate) string { return c.ID },
		fs.WithFilter[string, model.CurationCandidate](func(c *model.CurationCandidate, p []*dao.Parameter) bool {
			return criteria.FilterByStatus(string(c.Status), p)
		}))
	if err != nil {
		return nil, err
	}
	engagements, err := fs.New[string, model.EngagementOpportunity](url.Join(baseURL, "engagements"),
		func(e *model.EngagementOpportunity) string { return e.ID },
		fs.WithFilter[string, model.EngagementOpportunity](func(e *model.EngagementOpportunity, p []*dao.Parameter) bool {
			return criteria.FilterByStatus(string(e.Status), p)
		}))
	if err != nil {
		return nil, err
	}
	actions, err := fs.New[string, model.Action](url.Join(baseURL, "actions"),
		func(a *model.Action) string { return a.ID },
		fs.WithFilter[string, model.Action](func(a *model.Action, p []*dao.Parameter) bool {
			return criteria.FilterByStatus(string(a.Status), p)
		}))
	if err != nil {
		return nil, err
	}
	return New(Stores{Calendar: calendar, Findings: findings, Candidates: candidates, Engagements: engagements, Actions: actions})
}

// Close is a no-op; stores hold no connections.
func (l *Ledger) Close() error { return nil }

// -- calendar --

func (l *Ledger) AddCalendarEntry(ctx context.Context, entry *model.CalendarEntry) error {
	if entry == nil {
		return dao.ErrNilEntity
	}
	if entry.ID == "" {
		entry.ID = idgen.New()
	}
	if entry.Status == "" {
		entry.Status = model.CalendarStatusPlanned
	}
	return l.stores.Calendar.Save(ctx, entry)
}

func (l *Ledger) CalendarEntries(ctx context.Context, day string) ([]*model.CalendarEntry, error) {
	all, err := l.stores.Calendar.List(ctx)
	if err != nil {
		return nil, err
	}
	var ret []*model.CalendarEntry
	for _, entry := range all {
		if entry.ScheduledDate == day {
			ret = append(ret, entry)
		}
	}
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

func (l *Ledger) UpdateCalendarStatus(ctx context.Context, id string, status model.CalendarStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, err := l.stores.Calendar.Load(ctx, id)
	if err != nil {
		return err
	}
	entry.Status = status
	return l.stores.Calendar.Save(ctx, entry)
}

// -- findings --

func (l *Ledger) InsertFinding(ctx context.Context, finding *model.Finding) (ledger.InsertResult, error) {
	if finding == nil {
		return ledger.Inserted, dao.ErrNilEntity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	all, err := l.stores.Findings.List(ctx)
	if err != nil {
		return ledger.Inserted, err
	}
	for _, existing := range all {
		if existing.SourceURL == finding.SourceURL {
			return ledger.Duplicate, nil
		}
	}
	if finding.ID == "" {
		finding.ID = idgen.New()
	}
	if finding.Status == "" {
		finding.Status = model.FindingStatusQueued
	}
	if finding.FoundAt.IsZero() {
		finding.FoundAt = clock.Now()
	}
	return ledger.Inserted, l.stores.Findings.Save(ctx, finding)
}

func (l *Ledger) Finding(ctx context.Context, id string) (*model.Finding, error) {
	return l.stores.Findings.Load(ctx, id)
}

func (l *Ledger) QueuedFindings(ctx context.Context, limit int) ([]*model.Finding, error) {
	queued, err := l.stores.Findings.List(ctx, dao.StatusParameter(string(model.FindingStatusQueued)))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(queued, func(i, j int) bool {
		if queued[i].RelevanceScore != queued[j].RelevanceScore {
			return queued[i].RelevanceScore > queued[j].RelevanceScore
		}
		return queued[i].FoundAt.Before(queued[j].FoundAt)
	})
	return truncate(queued, limit), nil
}

func (l *Ledger) UpdateFindingStatus(ctx context.Context, id string, status model.FindingStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	finding, err := l.stores.Findings.Load(ctx, id)
	if err != nil {
		return err
	}
	finding.Status = status
	return l.stores.Findings.Save(ctx, finding)
}

// -- candidates --

func (l *Ledger) InsertCandidate(ctx context.Context, candidate *model.CurationCandidate) (ledger.InsertResult, error) {
	if candidate == nil {
		return ledger.Inserted, dao.ErrNilEntity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	all, err := l.stores.Candidates.List(ctx)
	if err != nil {
		return ledger.Inserted, err
	}
	for _, existing := range all {
		if existing.URL == candidate.URL {
			return ledger.Duplicate, nil
		}
	}
	if candidate.ID == "" {
		candidate.ID = idgen.New()
	}
	if candidate.Status == "" {
		candidate.Status = model.CandidateStatusNew
	}
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = clock.Now()
	}
	return ledger.Inserted, l.stores.Candidates.Save(ctx, candidate)
}

func (l *Ledger) Candidate(ctx context.Context, id string) (*model.CurationCandidate, error) {
	return l.stores.Candidates.Load(ctx, id)
}

func (l *Ledger) NewCandidates(ctx context.Context, limit int) ([]*model.CurationCandidate, error) {
	candidates, err := l.stores.Candidates.List(ctx, dao.StatusParameter(string(model.CandidateStatusNew)))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return truncate(candidates, limit), nil
}

func (l *Ledger) ApprovedCandidates(ctx context.Context, limit int) ([]*model.CurationCandidate, error) {
	candidates, err := l.stores.Candidates.List(ctx, dao.StatusParameter(string(model.CandidateStatusApproved)))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore > candidates[j].FinalScore
	})
	return truncate(candidates, limit), nil
}

func (l *Ledger) SaveEvaluation(ctx context.Context, candidate *model.CurationCandidate) error {
	if candidate == nil {
		return dao.ErrNilEntity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, err := l.stores.Candidates.Load(ctx, candidate.ID)
	if err != nil {
		return err
	}
	now := clock.Now()
	existing.KeywordScore = candidate.KeywordScore
	existing.Evaluation = candidate.Evaluation
	existing.Share = candidate.Share
	existing.Reasoning = candidate.Reasoning
	existing.Drafts = candidate.Drafts
	existing.FinalScore = candidate.FinalScore
	existing.Status = candidate.Status
	existing.EvaluatedAt = &now
	return l.stores.Candidates.Save(ctx, existing)
}

func (l *Ledger) UpdateCandidateStatus(ctx context.Context, id string, status model.CandidateStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	candidate, err := l.stores.Candidates.Load(ctx, id)
	if err != nil {
		return err
	}
	candidate.Status = status
	if status == model.CandidateStatusPosted {
		now := clock.Now()
		candidate.PostedAt = &now
	}
	return l.stores.Candidates.Save(ctx, candidate)
}

func (l *Ledger) CountPostedCurationsToday(ctx context.Context) (int, error) {
	posted, err := l.stores.Candidates.List(ctx, dao.StatusParameter(string(model.CandidateStatusPosted)))
	if err != nil {
		return 0, err
	}
	today := clock.Today()
	count := 0
	for _, candidate := range posted {
		if candidate.PostedAt != nil && clock.Day(*candidate.PostedAt) == today {
			count++
		}
	}
	return count, nil
}

// -- engagement --

func (l *Ledger) InsertEngagement(ctx context.Context, opportunity *model.EngagementOpportunity) (ledger.InsertResult, error) {
	if opportunity == nil {
		return ledger.Inserted, dao.ErrNilEntity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	all, err := l.stores.Engagements.List(ctx)
	if err != nil {
		return ledger.Inserted, err
	}
	for _, existing := range all {
		if existing.Platform == opportunity.Platform && existing.PostID == opportunity.PostID {
			return ledger.Duplicate, nil
		}
	}
	if opportunity.ID == "" {
		opportunity.ID = idgen.New()
	}
	if opportunity.Status == "" {
		opportunity.Status = model.EngagementStatusPending
	}
	if opportunity.CreatedAt.IsZero() {
		opportunity.CreatedAt = clock.Now()
	}
	return ledger.Inserted, l.stores.Engagements.Save(ctx, opportunity)
}

func (l *Ledger) PendingEngagements(ctx context.Context, limit int) ([]*model.EngagementOpportunity, error) {
	pending, err := l.stores.Engagements.List(ctx, dao.StatusParameter(string(model.EngagementStatusPending)))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return truncate(pending, limit), nil
}

func (l *Ledger) UpdateEngagementStatus(ctx context.Context, id string, status model.EngagementStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	opportunity, err := l.stores.Engagements.Load(ctx, id)
	if err != nil {
		return err
	}
	now := clock.Now()
	opportunity.Status = status
	opportunity.ActedAt = &now
	return l.stores.Engagements.Save(ctx, opportunity)
}

// -- actions --

func (l *Ledger) CreateAction(ctx context.Context, action *model.Action) error {
	if action == nil {
		return dao.ErrNilEntity
	}
	if !action.Status.IsValid() {
		return ledger.ErrUnknownStatus
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if action.ID == "" {
		action.ID = idgen.New()
	} else if _, err := l.stores.Actions.Load(ctx, action.ID); err == nil {
		return fmt.Errorf("action %s already exists", action.ID)
	}
	if action.ActedAt.IsZero() {
		action.ActedAt = clock.Now()
	}
	return l.stores.Actions.Save(ctx, action)
}

func (l *Ledger) Action(ctx context.Context, id string) (*model.Action, error) {
	return l.stores.Actions.Load(ctx, id)
}

func (l *Ledger) ApplyDecision(ctx context.Context, id string, status model.ActionStatus, decision string, at time.Time, content *string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	action, err := l.stores.Actions.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := ledger.CheckTransition(action.Status, status); err != nil {
		return err
	}
	at = at.UTC()
	action.Status = status
	action.ApprovalDecision = decision
	action.ApprovalTimestamp = &at
	if content != nil {
		action.Content = *content
	}
	return l.stores.Actions.Save(ctx, action)
}

func (l *Ledger) ExpireApproval(ctx context.Context, id string, reason string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	action, err := l.stores.Actions.Load(ctx, id)
	if err != nil {
		return err
	}
	if action.Status != model.ActionStatusPendingApproval {
		return ledger.ErrStatusRegression
	}
	at = at.UTC()
	action.Status = model.ActionStatusBacklogged
	action.ApprovalDecision = reason
	action.ApprovalTimestamp = &at
	return l.stores.Actions.Save(ctx, action)
}

func (l *Ledger) UpdateActionResult(ctx context.Context, id string, status model.ActionStatus, postURL string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	action, err := l.stores.Actions.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := ledger.CheckTransition(action.Status, status); err != nil {
		return err
	}
	action.Status = status
	action.PostURL = postURL
	action.ActedAt = clock.Now()
	return l.stores.Actions.Save(ctx, action)
}

func (l *Ledger) CountPostedToday(ctx context.Context, platform model.Platform) (int, error) {
	posted, err := l.stores.Actions.List(ctx, dao.StatusParameter(string(model.ActionStatusPosted)))
	if err != nil {
		return 0, err
	}
	today := clock.Today()
	count := 0
	for _, action := range posted {
		if clock.Day(action.ActedAt) != today {
			continue
		}
		if platform != "" && action.Platform != platform {
			continue
		}
		count++
	}
	return count, nil
}

func truncate[T any](items []*T, limit int) []*T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
