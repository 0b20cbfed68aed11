package crier

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/metrics"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/content"
	"github.com/viant/crier/service/curation"
	"github.com/viant/crier/service/executor"
	"github.com/viant/crier/service/ledger"
	"github.com/viant/crier/service/messaging"
	"github.com/viant/crier/service/monitor"
	"github.com/viant/crier/service/notifier"
)

// Option customises a Service.
type Option func(s *Service)

// WithConfig sets the configuration, DefaultConfig when omitted.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithLedger sets the record store; the service does not close it.
func WithLedger(l ledger.Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

// WithQueue sets the decision queue; the service does not close it.
func WithQueue(queue messaging.Queue[model.DecisionEvent]) Option {
	return func(s *Service) { s.queue = queue }
}

// WithNotifier sets the reviewer channel. It takes precedence over the
// configured Discord notifier.
func WithNotifier(n notifier.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithJudge sets the candidate judge.
func WithJudge(judge curation.Judge) Option {
	return func(s *Service) { s.judge = judge }
}

// WithGenerator sets the post text generator used for calendar entries and replies.
func WithGenerator(generator content.Generator) Option {
	return func(s *Service) { s.generator = generator }
}

// WithPosters sets the platform posters. Without any, every action is printed.
func WithPosters(posters ...executor.Poster) Option {
	return func(s *Service) { s.posters = append(s.posters, posters...) }
}

// WithSources adds curation sources to the configured feeds.
func WithSources(sources ...curation.Source) Option {
	return func(s *Service) { s.sources = append(s.sources, sources...) }
}

// WithSearchers sets the searchers used by ScanFindings and DiscoverEngagements.
func WithSearchers(searchers ...monitor.Searcher) Option {
	return func(s *Service) { s.searchers = append(s.searchers, searchers...) }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithOutput sets where dry-run posters print, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.output = w }
}
