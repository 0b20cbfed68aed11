package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/internal/idgen"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/internal/metrics"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/content"
	"github.com/viant/crier/service/executor"
	"github.com/viant/crier/service/ledger"
	"github.com/viant/crier/service/notifier"
	"github.com/viant/crier/tracing"
)

// Selector picks the drafts of a session.
type Selector interface {
	PickActions(ctx context.Context) []*model.Draft
}

// Approver asks a human to decide on an action.
type Approver interface {
	RequestApproval(ctx context.Context, prompt *notifier.Prompt) (model.Decision, error)
}

// Executor performs an action on its platform.
type Executor interface {
	Execute(ctx context.Context, request *executor.Request) (*executor.Result, error)
}

// Writer generates post text.
type Writer interface {
	Write(ctx context.Context, req content.Request) (string, error)
}

// Store is the ledger surface the processor writes to.
type Store interface {
	ledger.Actions
	UpdateCalendarStatus(ctx context.Context, id string, status model.CalendarStatus) error
	UpdateFindingStatus(ctx context.Context, id string, status model.FindingStatus) error
	UpdateCandidateStatus(ctx context.Context, id string, status model.CandidateStatus) error
	UpdateEngagementStatus(ctx context.Context, id string, status model.EngagementStatus) error
}

// Report tallies a session.
type Report struct {
	Picked     int `json:"picked"`
	Posted     int `json:"posted"`
	Failed     int `json:"failed"`
	Denied     int `json:"denied"`
	Backlogged int `json:"backlogged"`
	Rethink    int `json:"rethink"`
	Skipped    int `json:"skipped"`
	Invalid    int `json:"invalid"`
}

func (r *Report) count(status model.ActionStatus) {
	switch status {
	case model.ActionStatusPosted:
		r.Posted++
	case model.ActionStatusFailed:
		r.Failed++
	case model.ActionStatusDenied:
		r.Denied++
	case model.ActionStatusBacklogged:
		r.Backlogged++
	case model.ActionStatusPendingRethink:
		r.Rethink++
	}
}

// Service runs sessions.
type Service struct {
	selector Selector
	approver Approver
	executor Executor
	store    Store
	writer   Writer
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

// New creates a processor.
func New(selector Selector, approver Approver, exec Executor, store Store, opts ...Option) *Service {
	ret := &Service{selector: selector, approver: approver, executor: exec, store: store}
	for _, opt := range opts {
		opt(ret)
	}
	ret.logger = logging.OrDiscard(ret.logger)
	return ret
}

// RunSession processes every picked draft in order. A failing draft is
// logged and counted; the session stops early only when ctx ends.
func (s *Service) RunSession(ctx context.Context) (*Report, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.RunSession", "INTERNAL")
	report := &Report{}
	drafts := s.selector.PickActions(ctx)
	report.Picked = len(drafts)
	if len(drafts) == 0 {
		s.logger.Info("no actions to take")
		tracing.EndSpan(span, nil)
		return report, nil
	}
	for _, draft := range drafts {
		if err := ctx.Err(); err != nil {
			tracing.EndSpan(span, err)
			return report, err
		}
		if err := s.process(ctx, draft, report); err != nil {
			if ctx.Err() != nil {
				tracing.EndSpan(span, ctx.Err())
				return report, ctx.Err()
			}
			s.logger.WithError(err).WithFields(logrus.Fields{"source": draft.Source, "source_id": draft.SourceID}).Error("action failed")
		}
	}
	span.WithInt("posted", report.Posted)
	tracing.EndSpan(span, nil)
	s.logger.WithFields(logrus.Fields{
		"picked": report.Picked, "posted": report.Posted, "failed": report.Failed,
		"denied": report.Denied, "backlogged": report.Backlogged, "skipped": report.Skipped,
	}).Info("action session complete")
	return report, nil
}

func (s *Service) process(ctx context.Context, draft *model.Draft, report *Report) error {
	logger := s.logger.WithFields(logrus.Fields{"source": draft.Source, "source_id": draft.SourceID, "platform": draft.Platform})
	if !s.prepare(ctx, draft, logger) {
		report.Skipped++
		return nil
	}
	if err := content.CheckLength(draft.Content, draft.Platform); err != nil {
		report.Invalid++
		logger.WithError(err).Warn("draft rejected before dispatch")
		return nil
	}
	if draft.Tier == model.TierAuto {
		return s.executeAuto(ctx, draft, report)
	}
	return s.executeWithApproval(ctx, draft, report)
}

// prepare replaces calendar topics and reply contexts with generated text.
// It returns false when a calendar post could not be written.
func (s *Service) prepare(ctx context.Context, draft *model.Draft, logger logrus.FieldLogger) bool {
	if s.writer == nil {
		return true
	}
	switch {
	case draft.Source == model.SourceCalendar:
		text, err := s.writer.Write(ctx, content.Request{Pillar: draft.Pillar, Platform: draft.Platform, Topic: draft.Content})
		if err != nil {
			logger.WithError(err).Error("content generation failed, skipping")
			return false
		}
		draft.Content = text
	case draft.Type == model.ActionTypeReply:
		author := draft.Author
		if author == "" {
			author = "user"
		}
		text, err := s.writer.Write(ctx, content.Request{
			Pillar:   "engagement",
			Platform: draft.Platform,
			Topic:    "reply to: " + truncate(draft.Context, 100),
			Context:  fmt.Sprintf("@%s said: %s", author, draft.Context),
		})
		if err != nil {
			logger.WithError(err).Warn("reply generation failed, keeping draft")
			return true
		}
		draft.Content = text
	}
	return true
}

func (s *Service) executeAuto(ctx context.Context, draft *model.Draft, report *Report) error {
	action := draft.NewAction(idgen.New(), model.ActionStatusApproved, clock.Now())
	status, postURL, execErr := s.execute(ctx, action, draft)
	action.Status = status
	action.PostURL = postURL
	if err := s.store.CreateAction(ctx, action); err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	report.count(status)
	s.metrics.Action(string(model.TierAuto), string(status))
	if status == model.ActionStatusPosted {
		s.markSource(ctx, draft, status)
	}
	return execErr
}

func (s *Service) executeWithApproval(ctx context.Context, draft *model.Draft, report *Report) error {
	action := draft.NewAction(idgen.New(), model.ActionStatusPendingApproval, clock.Now())
	if err := s.store.CreateAction(ctx, action); err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	decision, err := s.approver.RequestApproval(ctx, notifier.NewPrompt(action.ID, draft))
	if err != nil {
		return fmt.Errorf("approval for action %s failed: %w", action.ID, err)
	}
	if !decision.IsApproval() {
		status, _ := decision.Status()
		report.count(status)
		s.metrics.Action(string(model.TierButtons), string(status))
		s.markSource(ctx, draft, status)
		return nil
	}

	// a draft_X decision may have replaced the content
	if stored, err := s.store.Action(ctx, action.ID); err == nil {
		action = stored
	}
	status, postURL, execErr := s.execute(ctx, action, draft)
	if err := s.store.UpdateActionResult(ctx, action.ID, status, postURL); err != nil {
		return fmt.Errorf("failed to record result of action %s: %w", action.ID, err)
	}
	report.count(status)
	s.metrics.Action(string(model.TierButtons), string(status))
	if status == model.ActionStatusPosted {
		s.markSource(ctx, draft, status)
	}
	return execErr
}

func (s *Service) execute(ctx context.Context, action *model.Action, draft *model.Draft) (model.ActionStatus, string, error) {
	result, err := s.executor.Execute(ctx, executor.NewRequest(action, draft))
	if err != nil {
		return model.ActionStatusFailed, "", err
	}
	return model.ActionStatusPosted, result.PostURL, nil
}

// markSource moves the originating record out of its queue. Backlogged and
// rethink curated shares keep their approved status and are offered again.
func (s *Service) markSource(ctx context.Context, draft *model.Draft, status model.ActionStatus) {
	if draft.SourceID == "" {
		return
	}
	var err error
	posted := status == model.ActionStatusPosted
	switch draft.Source {
	case model.SourceCalendar:
		err = s.store.UpdateCalendarStatus(ctx, draft.SourceID, model.CalendarStatusConsumed)
	case model.SourceFinding:
		next := model.FindingStatusActed
		if status == model.ActionStatusBacklogged || status == model.ActionStatusPendingRethink {
			next = model.FindingStatusApproved
		}
		err = s.store.UpdateFindingStatus(ctx, draft.SourceID, next)
	case model.SourceCuration:
		switch {
		case posted:
			err = s.store.UpdateCandidateStatus(ctx, draft.SourceID, model.CandidateStatusPosted)
		case status == model.ActionStatusDenied:
			err = s.store.UpdateCandidateStatus(ctx, draft.SourceID, model.CandidateStatusRejected)
		}
	case model.SourceEngagement:
		next := model.EngagementStatusSkipped
		if posted {
			next = model.EngagementStatusDone
		}
		err = s.store.UpdateEngagementStatus(ctx, draft.SourceID, next)
	}
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		s.logger.WithError(err).WithFields(logrus.Fields{"source": draft.Source, "source_id": draft.SourceID}).Error("failed to update source status")
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
