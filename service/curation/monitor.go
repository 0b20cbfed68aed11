package curation

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/model"
	"github.com/viant/crier/progress"
	"github.com/viant/crier/service/ledger"
)

// Source discovers content worth evaluating.
type Source interface {
	Name() string
	Scan(ctx context.Context) ([]*model.CurationCandidate, error)
}

// Monitor scans sources, stores new candidates and evaluates them.
type Monitor struct {
	sources  []Source
	ledger   ledger.Candidates
	pipeline *Pipeline
	platform model.Platform
	limit    int
	logger   logrus.FieldLogger
}

// MonitorOption customises a Monitor.
type MonitorOption func(*Monitor)

// WithSources registers candidate sources.
func WithSources(sources ...Source) MonitorOption {
	return func(m *Monitor) { m.sources = append(m.sources, sources...) }
}

// WithPlatform sets the platform drafts are written for.
func WithPlatform(platform model.Platform) MonitorOption {
	return func(m *Monitor) { m.platform = platform }
}

// WithMonitorLogger sets the logger.
func WithMonitorLogger(logger logrus.FieldLogger) MonitorOption {
	return func(m *Monitor) { m.logger = logger }
}

// NewMonitor creates a monitor evaluating up to the pipeline's NewCandidateLimit per cycle.
func NewMonitor(l ledger.Candidates, pipeline *Pipeline, opts ...MonitorOption) *Monitor {
	m := &Monitor{ledger: l, pipeline: pipeline, platform: model.PlatformTwitter, limit: pipeline.config.NewCandidateLimit}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrDiscard(m.logger)
	return m
}

// Scan collects candidates from every source. A failing source is logged and skipped.
func (m *Monitor) Scan(ctx context.Context) []*model.CurationCandidate {
	seen := map[string]bool{}
	var ret []*model.CurationCandidate
	for _, source := range m.sources {
		candidates, err := source.Scan(ctx)
		if err != nil {
			m.logger.WithError(err).WithField("source", source.Name()).Error("source scan failed")
			continue
		}
		for _, c := range candidates {
			if c == nil || c.URL == "" || seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			ret = append(ret, c)
		}
	}
	return ret
}

// Store inserts candidates, returning how many were new.
func (m *Monitor) Store(ctx context.Context, candidates []*model.CurationCandidate) int {
	stored := 0
	for _, c := range candidates {
		result, err := m.ledger.InsertCandidate(ctx, c)
		if err != nil {
			m.logger.WithError(err).WithField("candidate_url", c.URL).Error("failed to store candidate")
			continue
		}
		if result == ledger.Inserted {
			stored++
		}
	}
	return stored
}

// Cycle scans, stores and evaluates new candidates. It returns the approved count.
func (m *Monitor) Cycle(ctx context.Context) (int, error) {
	ctx, tracker := progress.WithNewTracker(ctx, "curation", nil)
	scanned := m.Scan(ctx)
	stored := m.Store(ctx, scanned)
	m.logger.WithFields(logrus.Fields{"scanned": len(scanned), "stored": stored}).Info("curation scan complete")

	fresh, err := m.ledger.NewCandidates(ctx, m.limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load new candidates: %w", err)
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	approved := m.pipeline.Evaluate(ctx, fresh, m.platform)
	snapshot := tracker.Snapshot()
	m.logger.WithFields(logrus.Fields{
		"approved": snapshot.Approved, "rejected": snapshot.Rejected, "failed": snapshot.Failed,
	}).Info("curation cycle complete")
	return len(approved), nil
}
