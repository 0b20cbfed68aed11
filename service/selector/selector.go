// Package selector aggregates ready work from the calendar, findings, approved
// curation candidates and engagement opportunities into one ordered list of
// action drafts under per-source daily budgets.
package selector

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
	"github.com/viant/crier/tracing"
)

// Store is the subset of the ledger the selector reads.
type Store interface {
	ledger.Calendar
	ledger.Findings
	ledger.Candidates
	ledger.Engagements
	CountPostedToday(ctx context.Context, platform model.Platform) (int, error)
}

// Config holds the daily budgets.
type Config struct {
	MaxActionsPerDay       int            `json:"maxActionsPerDay" yaml:"maxActionsPerDay" mapstructure:"maxActionsPerDay"`
	MaxCuratedSharesPerDay int            `json:"maxCuratedSharesPerDay" yaml:"maxCuratedSharesPerDay" mapstructure:"maxCuratedSharesPerDay"`
	EngagementSlots        int            `json:"engagementSlots" yaml:"engagementSlots" mapstructure:"engagementSlots"`
	CurationPlatform       model.Platform `json:"curationPlatform" yaml:"curationPlatform" mapstructure:"curationPlatform"`
}

// DefaultConfig returns the default budgets.
func DefaultConfig() Config {
	return Config{
		MaxActionsPerDay:       3,
		MaxCuratedSharesPerDay: 2,
		EngagementSlots:        3,
		CurationPlatform:       model.PlatformTwitter,
	}
}

// Validate reports the first invalid budget.
func (c Config) Validate() error {
	switch {
	case c.MaxActionsPerDay < 0:
		return fmt.Errorf("selector.maxActionsPerDay must not be negative: %d", c.MaxActionsPerDay)
	case c.MaxCuratedSharesPerDay < 0:
		return fmt.Errorf("selector.maxCuratedSharesPerDay must not be negative: %d", c.MaxCuratedSharesPerDay)
	case c.EngagementSlots < 0:
		return fmt.Errorf("selector.engagementSlots must not be negative: %d", c.EngagementSlots)
	case c.CurationPlatform == "":
		return fmt.Errorf("selector.curationPlatform is required")
	}
	return nil
}

// Selector picks the actions of a session.
type Selector struct {
	store  Store
	config Config
	logger logrus.FieldLogger
}

// Option customises a Selector.
type Option func(*Selector)

// WithConfig overrides the default budgets.
func WithConfig(config Config) Option {
	return func(s *Selector) { s.config = config }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Selector) { s.logger = logger }
}

// New creates a selector over store.
func New(store Store, opts ...Option) *Selector {
	ret := &Selector{store: store, config: DefaultConfig()}
	for _, opt := range opts {
		opt(ret)
	}
	ret.logger = logging.OrDiscard(ret.logger)
	return ret
}

// Config returns the active budgets.
func (s *Selector) Config() Config { return s.config }

// PickActions returns the drafts for this session in source order calendar,
// findings, curation, engagement. Calendar and finding drafts share the global
// daily cap; curation and engagement have budgets of their own. Ledger
// failures are logged and skip only the affected source.
//
// The read-then-decide on daily counters is not guarded against concurrent
// callers; sessions are expected to run serially.
func (s *Selector) PickActions(ctx context.Context) []*model.Draft {
	ctx, span := tracing.StartSpan(ctx, "selector.PickActions", "INTERNAL")
	defer tracing.EndSpan(span, nil)

	postedToday, err := s.store.CountPostedToday(ctx, "")
	if err != nil {
		s.logger.WithError(err).Error("failed to count today's actions")
		return nil
	}
	remaining := s.config.MaxActionsPerDay - postedToday
	if remaining <= 0 {
		s.logger.WithField("posted_today", postedToday).Info("daily action limit reached")
		return nil
	}

	drafts := s.calendarDrafts(ctx, remaining)
	if len(drafts) < remaining {
		drafts = append(drafts, s.findingDrafts(ctx, remaining-len(drafts))...)
	}
	drafts = append(drafts, s.curationDrafts(ctx)...)
	drafts = append(drafts, s.engagementDrafts(ctx)...)

	span.WithInt("drafts", len(drafts))
	s.logger.WithFields(logrus.Fields{"drafts": len(drafts), "remaining": remaining}).Info("actions picked")
	return drafts
}

func (s *Selector) calendarDrafts(ctx context.Context, limit int) []*model.Draft {
	entries, err := s.store.CalendarEntries(ctx, clock.Today())
	if err != nil {
		s.logger.WithError(err).WithField("source", model.SourceCalendar).Error("failed to read source")
		return nil
	}
	var drafts []*model.Draft
	for _, entry := range entries {
		if len(drafts) >= limit {
			break
		}
		if entry.Status != model.CalendarStatusPlanned {
			continue
		}
		drafts = append(drafts, &model.Draft{
			Source:   model.SourceCalendar,
			SourceID: entry.ID,
			Type:     model.ActionTypeOriginalPost,
			Platform: entry.Platform,
			Content:  entry.ContentDraft,
			Pillar:   entry.Pillar,
			Tier:     EscalationTier(model.ActionTypeOriginalPost, entry.Platform),
		})
	}
	return drafts
}

func (s *Selector) findingDrafts(ctx context.Context, limit int) []*model.Draft {
	findings, err := s.store.QueuedFindings(ctx, limit)
	if err != nil {
		s.logger.WithError(err).WithField("source", model.SourceFinding).Error("failed to read source")
		return nil
	}
	drafts := make([]*model.Draft, 0, len(findings))
	for _, finding := range findings {
		if len(drafts) >= limit {
			break
		}
		drafts = append(drafts, &model.Draft{
			Source:   model.SourceFinding,
			SourceID: finding.ID,
			Type:     model.ActionTypeReply,
			Platform: finding.Platform,
			Content:  finding.Content,
			Context:  finding.Content,
			ReplyTo:  finding.SourceURL,
			Author:   finding.SourceUser,
			Tier:     EscalationTier(model.ActionTypeReply, finding.Platform),
		})
	}
	return drafts
}

func (s *Selector) curationDrafts(ctx context.Context) []*model.Draft {
	posted, err := s.store.CountPostedCurationsToday(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("source", model.SourceCuration).Error("failed to count curated shares")
		return nil
	}
	budget := s.config.MaxCuratedSharesPerDay - posted
	if budget <= 0 {
		return nil
	}
	candidates, err := s.store.ApprovedCandidates(ctx, budget)
	if err != nil {
		s.logger.WithError(err).WithField("source", model.SourceCuration).Error("failed to read source")
		return nil
	}
	platform := s.config.CurationPlatform
	drafts := make([]*model.Draft, 0, len(candidates))
	for _, candidate := range candidates {
		if len(drafts) >= budget {
			break
		}
		drafts = append(drafts, &model.Draft{
			Source:   model.SourceCuration,
			SourceID: candidate.ID,
			Type:     model.ActionTypeCuratedShare,
			Platform: platform,
			Content:  candidate.PrimaryDraft(),
			Author:   candidate.Author,
			Curation: candidate,
			Tier:     EscalationTier(model.ActionTypeCuratedShare, platform),
		})
	}
	return drafts
}

func (s *Selector) engagementDrafts(ctx context.Context) []*model.Draft {
	if s.config.EngagementSlots <= 0 {
		return nil
	}
	opportunities, err := s.store.PendingEngagements(ctx, s.config.EngagementSlots)
	if err != nil {
		s.logger.WithError(err).WithField("source", model.SourceEngagement).Error("failed to read source")
		return nil
	}
	drafts := make([]*model.Draft, 0, len(opportunities))
	for _, opportunity := range opportunities {
		if len(drafts) >= s.config.EngagementSlots {
			break
		}
		drafts = append(drafts, &model.Draft{
			Source:   model.SourceEngagement,
			SourceID: opportunity.ID,
			Type:     opportunity.OpportunityType,
			Platform: opportunity.Platform,
			Content:  opportunity.Text,
			ReplyTo:  opportunity.PostURL,
			Author:   opportunity.Author,
			Tier:     EscalationTier(opportunity.OpportunityType, opportunity.Platform),
		})
	}
	return drafts
}
