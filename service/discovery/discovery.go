// Package discovery finds third-party posts worth liking or reposting and
// stores them as engagement opportunities.
package discovery

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/curation"
	"github.com/viant/crier/service/ledger"
	"github.com/viant/crier/service/monitor"
	"gopkg.in/yaml.v3"
)

// MaxTextLength caps the stored post text, in characters.
const MaxTextLength = 500

//go:embed accounts.yaml
var defaultAccounts []byte

// Accounts lists curated handles and the search queries per platform.
type Accounts struct {
	Handles  map[model.Platform][]string `yaml:"handles"`
	Keywords []string                    `yaml:"keywords"`
	Queries  map[model.Platform]int      `yaml:"queries"`
}

// ParseAccounts decodes a YAML accounts document. Handles are matched
// case-insensitively.
func ParseAccounts(data []byte) (*Accounts, error) {
	ret := &Accounts{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	for platform, handles := range ret.Handles {
		for i := range handles {
			handles[i] = normalizeHandle(handles[i])
		}
		ret.Handles[platform] = handles
	}
	return ret, nil
}

// DefaultAccounts returns the embedded account list.
var DefaultAccounts = sync.OnceValue(func() *Accounts {
	ret, err := ParseAccounts(defaultAccounts)
	if err != nil {
		panic(err)
	}
	return ret
})

// IsCurated reports whether author is a curated handle on platform.
func (a *Accounts) IsCurated(platform model.Platform, author string) bool {
	author = normalizeHandle(author)
	if author == "" {
		return false
	}
	for _, handle := range a.Handles[platform] {
		if handle == author {
			return true
		}
	}
	return false
}

// QueriesFor returns the keywords searched on platform.
func (a *Accounts) QueriesFor(platform model.Platform) []string {
	limit, ok := a.Queries[platform]
	if !ok || limit > len(a.Keywords) {
		return a.Keywords
	}
	return a.Keywords[:max(limit, 0)]
}

func normalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// Classify picks the engagement a post warrants. Curated accounts get a
// repost on two or more signal hits and a like otherwise; other accounts get
// a like on any hit. Everything else is skipped.
func Classify(text string, curated bool, signals []string) model.ActionType {
	lower := strings.ToLower(text)
	hits := 0
	for _, signal := range signals {
		if signal != "" && strings.Contains(lower, signal) {
			hits++
		}
	}
	switch {
	case curated && hits >= 2:
		return model.ActionTypeRepost
	case curated, hits >= 1:
		return model.ActionTypeLike
	}
	return model.ActionTypeSkip
}

// Discoverer classifies search hits and stores engagement opportunities.
type Discoverer struct {
	store    ledger.Engagements
	accounts *Accounts
	signals  []string
	logger   logrus.FieldLogger
}

// Option customises a Discoverer.
type Option func(*Discoverer)

// WithAccounts replaces the embedded account list.
func WithAccounts(accounts *Accounts) Option {
	return func(d *Discoverer) { d.accounts = accounts }
}

// WithSignals replaces the positive signal keywords, which must be lowercase.
func WithSignals(signals []string) Option {
	return func(d *Discoverer) { d.signals = signals }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Discoverer) { d.logger = logger }
}

// New creates a discoverer writing to store. Signals default to the curation
// positive keywords.
func New(store ledger.Engagements, opts ...Option) *Discoverer {
	ret := &Discoverer{store: store}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.accounts == nil {
		ret.accounts = DefaultAccounts()
	}
	if ret.signals == nil {
		ret.signals = curation.DefaultSignals().Positive
	}
	ret.logger = logging.OrDiscard(ret.logger)
	return ret
}

// Classify classifies a single hit.
func (d *Discoverer) Classify(raw *monitor.RawFinding) model.ActionType {
	return Classify(raw.Text, d.accounts.IsCurated(raw.Platform, raw.Author), d.signals)
}

// Queue stores every hit not classified as skip, keyed by post id or URL
// when the id is unknown. It returns the number of new opportunities.
func (d *Discoverer) Queue(ctx context.Context, findings []monitor.RawFinding) (int, error) {
	found := 0
	for i := range findings {
		raw := &findings[i]
		postID := raw.PostID
		if postID == "" {
			postID = raw.URL
		}
		if postID == "" {
			continue
		}
		action := d.Classify(raw)
		if action == model.ActionTypeSkip {
			continue
		}
		result, err := d.store.InsertEngagement(ctx, &model.EngagementOpportunity{
			Platform:        raw.Platform,
			PostID:          postID,
			PostURL:         raw.URL,
			Author:          raw.Author,
			Text:            truncate(raw.Text, MaxTextLength),
			OpportunityType: action,
			Status:          model.EngagementStatusPending,
		})
		if err != nil {
			return found, fmt.Errorf("failed to store engagement %s: %w", postID, err)
		}
		if result == ledger.Inserted {
			found++
		}
	}
	return found, nil
}

// Scan runs the platform's queries through each searcher and stores the
// results. A failing query is logged and skipped.
func (d *Discoverer) Scan(ctx context.Context, searchers ...monitor.Searcher) (int, error) {
	total := 0
	for _, searcher := range searchers {
		platform := searcher.Platform()
		logger := d.logger.WithField("platform", platform)
		var hits []monitor.RawFinding
		for _, query := range d.accounts.QueriesFor(platform) {
			results, err := searcher.Search(ctx, query)
			if err != nil {
				logger.WithError(err).WithField("query", query).Warn("engagement search failed")
				continue
			}
			for _, r := range results {
				if r.Platform == "" {
					r.Platform = platform
				}
				hits = append(hits, r)
			}
		}
		found, err := d.Queue(ctx, hits)
		total += found
		if err != nil {
			return total, err
		}
		logger.WithFields(logrus.Fields{"found": found, "hits": len(hits)}).Info("engagement discovery complete")
	}
	return total, nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
