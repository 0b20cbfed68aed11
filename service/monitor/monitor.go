// Package monitor scores discovered conversations for reply relevance and
// queues the relevant ones as findings.
package monitor

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
	"gopkg.in/yaml.v3"
)

// Threshold is the minimum relevance for a finding to be queued.
const Threshold = 0.3

//go:embed phrases.yaml
var defaultPhrases []byte

// Phrases are the lowercase signal lists used by ScoreRelevance.
type Phrases struct {
	High     []string `yaml:"high"`
	Medium   []string `yaml:"medium"`
	Boosters []string `yaml:"boosters"`
}

// ParsePhrases decodes a YAML phrase document.
func ParsePhrases(data []byte) (*Phrases, error) {
	ret := &Phrases{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse phrases: %w", err)
	}
	for _, list := range [][]string{ret.High, ret.Medium, ret.Boosters} {
		for i := range list {
			list[i] = strings.ToLower(strings.TrimSpace(list[i]))
		}
	}
	return ret, nil
}

// DefaultPhrases returns the embedded phrase lists.
var DefaultPhrases = sync.OnceValue(func() *Phrases {
	ret, err := ParsePhrases(defaultPhrases)
	if err != nil {
		panic(err)
	}
	return ret
})

// ScoreRelevance scores text in [0,1]: a high signal phrase gives 0.8, a
// medium one 0.5 and two or more boosters 0.4. Questions above 0.3 gain 0.1.
func (p *Phrases) ScoreRelevance(text string) float64 {
	lower := strings.ToLower(text)
	score := 0.0
	switch {
	case containsAny(lower, p.High):
		score = 0.8
	case containsAny(lower, p.Medium):
		score = 0.5
	case countContained(lower, p.Boosters) >= 2:
		score = 0.4
	}
	if strings.Contains(text, "?") && score > 0.3 {
		score = min(score+0.1, 1.0)
	}
	return score
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func countContained(text string, words []string) int {
	count := 0
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			count++
		}
	}
	return count
}

// RawFinding is a search hit before scoring. PostID is the platform's post
// identifier when the searcher knows it.
type RawFinding struct {
	PostID   string         `json:"postId,omitempty"`
	URL      string         `json:"url"`
	Text     string         `json:"text"`
	Author   string         `json:"author"`
	Platform model.Platform `json:"platform"`
}

// Searcher finds public conversations on one platform.
type Searcher interface {
	Platform() model.Platform
	Search(ctx context.Context, query string) ([]RawFinding, error)
}

// Monitor queues relevant findings.
type Monitor struct {
	store   ledger.Findings
	phrases *Phrases
	logger  logrus.FieldLogger
}

// Option customises a Monitor.
type Option func(*Monitor)

// WithPhrases replaces the default phrase lists.
func WithPhrases(p *Phrases) Option { return func(m *Monitor) { m.phrases = p } }

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option { return func(m *Monitor) { m.logger = logger } }

// New creates a monitor writing to store.
func New(store ledger.Findings, opts ...Option) *Monitor {
	ret := &Monitor{store: store}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.phrases == nil {
		ret.phrases = DefaultPhrases()
	}
	ret.logger = logging.OrDiscard(ret.logger)
	return ret
}

// ScoreRelevance scores text with the monitor's phrases.
func (m *Monitor) ScoreRelevance(text string) float64 {
	return m.phrases.ScoreRelevance(text)
}

// Queue scores findings and inserts those at or above Threshold, skipping
// already known URLs. It returns the number of newly queued findings.
func (m *Monitor) Queue(ctx context.Context, findings []RawFinding) (int, error) {
	queued := 0
	for _, raw := range findings {
		if raw.URL == "" {
			continue
		}
		score := m.ScoreRelevance(raw.Text)
		if score < Threshold {
			continue
		}
		result, err := m.store.InsertFinding(ctx, &model.Finding{
			Platform:       raw.Platform,
			SourceURL:      raw.URL,
			SourceUser:     raw.Author,
			Content:        raw.Text,
			RelevanceScore: score,
			Status:         model.FindingStatusQueued,
		})
		if err != nil {
			return queued, fmt.Errorf("failed to queue finding %s: %w", raw.URL, err)
		}
		if result == ledger.Inserted {
			queued++
		}
	}
	return queued, nil
}

// Scan runs every high signal phrase through each searcher and queues the
// results. A failing searcher is logged and skipped.
func (m *Monitor) Scan(ctx context.Context, searchers ...Searcher) (int, error) {
	var all []RawFinding
	for _, searcher := range searchers {
		logger := m.logger.WithField("platform", searcher.Platform())
		for _, query := range m.phrases.High {
			results, err := searcher.Search(ctx, query)
			if err != nil {
				logger.WithError(err).Warn("search failed")
				break
			}
			for _, r := range results {
				if r.Platform == "" {
					r.Platform = searcher.Platform()
				}
				all = append(all, r)
			}
		}
	}
	count, err := m.Queue(ctx, all)
	m.logger.WithFields(logrus.Fields{"queued": count, "candidates": len(all)}).Info("monitor scan complete")
	return count, err
}
