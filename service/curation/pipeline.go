package curation

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/internal/metrics"
	"github.com/viant/crier/model"
	"github.com/viant/crier/progress"
	"github.com/viant/crier/service/content"
	"github.com/viant/crier/tracing"
	"golang.org/x/sync/semaphore"
)

// Judge evaluates candidates and drafts share posts for them.
type Judge interface {
	Evaluate(ctx context.Context, candidate *model.CurationCandidate) (*model.Evaluation, error)
	DraftBatch(ctx context.Context, candidate *model.CurationCandidate, evaluation *model.Evaluation, platform model.Platform) (*model.DraftBatch, error)
}

// EvaluationStore persists evaluation outcomes.
type EvaluationStore interface {
	SaveEvaluation(ctx context.Context, candidate *model.CurationCandidate) error
}

// DomainBoostSource is the boost list keyed by URL host rather than author.
const DomainBoostSource = "news_domains"

// Config tunes both pipeline stages.
type Config struct {
	KeywordThreshold  float64 `json:"keywordThreshold" yaml:"keywordThreshold" mapstructure:"keywordThreshold"`
	TopN              int     `json:"topN" yaml:"topN" mapstructure:"topN"`
	MaxParallel       int     `json:"maxParallel" yaml:"maxParallel" mapstructure:"maxParallel"`
	QualityThreshold  float64 `json:"qualityThreshold" yaml:"qualityThreshold" mapstructure:"qualityThreshold"`
	MaxDrafts         int     `json:"maxDrafts" yaml:"maxDrafts" mapstructure:"maxDrafts"`
	NewCandidateLimit int     `json:"newCandidateLimit" yaml:"newCandidateLimit" mapstructure:"newCandidateLimit"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		KeywordThreshold:  0.3,
		TopN:              20,
		MaxParallel:       5,
		QualityThreshold:  6.0,
		MaxDrafts:         4,
		NewCandidateLimit: 50,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.KeywordThreshold < 0 || c.KeywordThreshold > 1:
		return fmt.Errorf("curation.keywordThreshold must be in [0,1]: %v", c.KeywordThreshold)
	case c.TopN <= 0:
		return fmt.Errorf("curation.topN must be positive: %d", c.TopN)
	case c.MaxParallel <= 0:
		return fmt.Errorf("curation.maxParallel must be positive: %d", c.MaxParallel)
	case c.QualityThreshold < 0 || c.QualityThreshold > 10:
		return fmt.Errorf("curation.qualityThreshold must be in [0,10]: %v", c.QualityThreshold)
	case c.MaxDrafts <= 0 || c.MaxDrafts > len(model.DraftLabels):
		return fmt.Errorf("curation.maxDrafts must be in [1,%d]: %d", len(model.DraftLabels), c.MaxDrafts)
	}
	return nil
}

// Pipeline runs keyword filtering followed by a bounded Judge fan-out.
type Pipeline struct {
	judge   Judge
	store   EvaluationStore
	signals *Signals
	config  Config
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithStore persists approved and rejected outcomes.
func WithStore(store EvaluationStore) Option { return func(p *Pipeline) { p.store = store } }

// WithSignals replaces the embedded signal lists.
func WithSignals(signals *Signals) Option { return func(p *Pipeline) { p.signals = signals } }

// WithConfig replaces the default thresholds.
func WithConfig(config Config) Option { return func(p *Pipeline) { p.config = config } }

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option { return func(p *Pipeline) { p.logger = logger } }

// WithMetrics records candidate outcomes.
func WithMetrics(m *metrics.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

// New creates a pipeline.
func New(judge Judge, opts ...Option) *Pipeline {
	p := &Pipeline{judge: judge, config: DefaultConfig()}
	for _, opt := range opts {
		opt(p)
	}
	if p.signals == nil {
		p.signals = DefaultSignals()
	}
	p.logger = logging.OrDiscard(p.logger)
	return p
}

// Filter scores candidates and returns those at or above the threshold,
// highest first and truncated to TopN. Dropped candidates are marked rejected.
func (p *Pipeline) Filter(candidates []*model.CurationCandidate) (passed, dropped []*model.CurationCandidate) {
	for _, c := range candidates {
		score := ScoreKeywords(c, p.signals)
		if p.boosted(c) {
			score = round2(min(score+p.signals.BoostScore, 1))
		}
		c.KeywordScore = score
		if score < p.config.KeywordThreshold {
			c.Status = model.CandidateStatusRejected
			c.Reasoning = fmt.Sprintf("keyword score %.2f below threshold", score)
			dropped = append(dropped, c)
			continue
		}
		passed = append(passed, c)
	}
	sort.SliceStable(passed, func(i, j int) bool { return passed[i].KeywordScore > passed[j].KeywordScore })
	if len(passed) > p.config.TopN {
		passed = passed[:p.config.TopN]
	}
	return passed, dropped
}

func (p *Pipeline) boosted(c *model.CurationCandidate) bool {
	if p.signals.IsBoosted(c.Source, c.Author) {
		return true
	}
	if u, err := url.Parse(c.URL); err == nil {
		return p.signals.IsBoosted(DomainBoostSource, strings.TrimPrefix(u.Hostname(), "www."))
	}
	return false
}

// Evaluate runs both stages and returns approved candidates ordered by final
// score. Per-candidate Judge failures reject only that candidate.
func (p *Pipeline) Evaluate(ctx context.Context, candidates []*model.CurationCandidate, platform model.Platform) []*model.CurationCandidate {
	ctx, span := tracing.StartSpan(ctx, "curation.Evaluate", "INTERNAL")
	span.WithInt("candidates", len(candidates))
	defer tracing.EndSpan(span, nil)

	progress.UpdateCtx(ctx, progress.Delta{Total: len(candidates), Pending: len(candidates)})
	passed, dropped := p.Filter(candidates)
	p.logger.WithFields(logrus.Fields{"passed": len(passed), "total": len(candidates)}).Info("keyword filter complete")
	for _, c := range dropped {
		p.record(ctx, c, "filtered", nil)
	}

	errs := make([]error, len(passed))
	sem := semaphore.NewWeighted(int64(p.config.MaxParallel))
	var wg sync.WaitGroup
	launched := 0
	for i, c := range passed {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		launched++
		wg.Add(1)
		go func(i int, c *model.CurationCandidate) {
			defer wg.Done()
			defer sem.Release(1)
			errs[i] = p.evaluateOne(ctx, c, platform)
		}(i, c)
	}
	wg.Wait()
	if skipped := len(passed) - launched; skipped > 0 {
		p.logger.WithFields(logrus.Fields{"skipped": skipped}).Warn("evaluation cancelled")
		progress.UpdateCtx(ctx, progress.Delta{Pending: -skipped, Skipped: skipped})
	}

	var approved []*model.CurationCandidate
	for i, c := range passed[:launched] {
		switch {
		case errs[i] != nil:
			p.logger.WithError(errs[i]).WithField("candidate_url", c.URL).Warn("candidate evaluation failed")
			p.record(ctx, c, "failed", errs[i])
		case c.Status == model.CandidateStatusApproved:
			approved = append(approved, c)
			p.record(ctx, c, "approved", nil)
		default:
			p.record(ctx, c, "rejected", nil)
		}
	}
	sort.SliceStable(approved, func(i, j int) bool { return approved[i].FinalScore > approved[j].FinalScore })
	span.WithInt("approved", len(approved))
	p.logger.WithFields(logrus.Fields{"approved": len(approved), "evaluated": launched}).Info("evaluation complete")
	return approved
}

func (p *Pipeline) evaluateOne(ctx context.Context, c *model.CurationCandidate, platform model.Platform) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("judge panic: %v", r)
		}
		if err != nil {
			c.Status = model.CandidateStatusRejected
			c.Reasoning = "evaluation failed: " + err.Error()
		}
	}()

	evaluation, err := p.judge.Evaluate(ctx, c)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	c.Evaluation = evaluation
	c.Reasoning = evaluation.Reasoning
	c.FinalScore = round2(0.3*c.KeywordScore + 0.7*(evaluation.QualityScore/10))
	if !evaluation.Relevant || evaluation.QualityScore < p.config.QualityThreshold {
		c.Status = model.CandidateStatusRejected
		return nil
	}

	batch, err := p.judge.DraftBatch(ctx, c, evaluation, platform)
	if err != nil {
		return fmt.Errorf("draft: %w", err)
	}
	c.Share = batch.Share
	if batch.Reasoning != "" {
		c.Reasoning = batch.Reasoning
	}
	c.Drafts = p.sanitize(c, batch.Drafts, platform)
	if c.Share && len(c.Drafts) > 0 {
		c.Status = model.CandidateStatusApproved
	} else {
		c.Status = model.CandidateStatusRejected
	}
	return nil
}

// sanitize keeps at most MaxDrafts labelled variants that are non-empty after
// emoji stripping and fit the platform.
func (p *Pipeline) sanitize(c *model.CurationCandidate, drafts map[string]string, platform model.Platform) map[string]string {
	ret := map[string]string{}
	for _, label := range model.DraftLabels {
		if len(ret) == p.config.MaxDrafts {
			break
		}
		text, ok := drafts[label]
		if !ok {
			continue
		}
		if text = StripEmoji(text); text == "" {
			continue
		}
		if err := content.CheckLength(text, platform); err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{"candidate_url": c.URL, "label": label}).Warn("dropping draft variant")
			continue
		}
		ret[label] = text
	}
	return ret
}

func (p *Pipeline) record(ctx context.Context, c *model.CurationCandidate, outcome string, cause error) {
	p.metrics.Candidate(outcome)
	delta := progress.Delta{Pending: -1}
	switch outcome {
	case "approved":
		delta.Approved = 1
	case "failed":
		delta.Failed = 1
	default:
		delta.Rejected = 1
	}
	progress.UpdateCtx(ctx, delta)
	if p.store == nil || c.ID == "" {
		return
	}
	if err := p.store.SaveEvaluation(ctx, c); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{"candidate_url": c.URL, "outcome": outcome, "cause": cause}).Error("failed to persist evaluation")
	}
}
