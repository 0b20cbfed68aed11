package processor

import (
	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/metrics"
)

// Option customises the processor.
type Option func(*Service)

// WithWriter enables generated content for calendar posts and replies.
func WithWriter(w Writer) Option {
	return func(s *Service) { s.writer = w }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics counts executed actions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}
