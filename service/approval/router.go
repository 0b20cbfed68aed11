package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/internal/metrics"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
)

// ErrUnknownDecision is returned for decision tokens outside the closed set.
var ErrUnknownDecision = errors.New("approval: unknown decision")

// Router applies decision events to the ledger and wakes waiting coordinators.
type Router struct {
	store   Store
	waiters *Waiters
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// RouterOption customises a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger.
func WithRouterLogger(logger logrus.FieldLogger) RouterOption {
	return func(r *Router) { r.logger = logger }
}

// WithRouterMetrics counts processed decisions.
func WithRouterMetrics(m *metrics.Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// NewRouter creates a router resolving waiters.
func NewRouter(store Store, waiters *Waiters, opts ...RouterOption) *Router {
	ret := &Router{store: store, waiters: waiters}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.waiters == nil {
		ret.waiters = NewWaiters()
	}
	ret.logger = logging.OrDiscard(ret.logger)
	return ret
}

// ProcessPayload decodes a JSON decision event and processes it.
func (r *Router) ProcessPayload(ctx context.Context, payload []byte) (model.Decision, error) {
	event := &model.DecisionEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		return "", fmt.Errorf("failed to decode decision event: %w", err)
	}
	return r.ProcessDecision(ctx, event)
}

// ProcessDecision persists the decision and resolves the live waiter for the
// action, if any. A draft_X decision also replaces the action content with
// the selected variant. Decisions arriving after the action reached a
// terminal status are logged and ignored; repeated decisions never error.
func (r *Router) ProcessDecision(ctx context.Context, event *model.DecisionEvent) (model.Decision, error) {
	if event == nil || event.ActionID == "" {
		return "", fmt.Errorf("%w: missing action id", ErrUnknownDecision)
	}
	status, ok := event.Decision.Status()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDecision, event.Decision)
	}
	logger := r.logger.WithFields(logrus.Fields{"action_id": event.ActionID, "decision": event.Decision})

	var content *string
	if label, ok := event.Decision.DraftLabel(); ok {
		content = r.variant(ctx, event.ActionID, label, logger)
	}
	err := r.store.ApplyDecision(ctx, event.ActionID, status, string(event.Decision), event.Time(clock.Now()), content)
	switch {
	case errors.Is(err, ledger.ErrStatusRegression):
		logger.Info("decision ignored, action already settled")
		err = nil
	case err != nil:
		err = fmt.Errorf("failed to persist decision for action %s: %w", event.ActionID, err)
	}

	resolved := r.waiters.Resolve(event.ActionID, event.Decision)
	r.metrics.Decision(string(event.Decision), resolved)
	logger.WithField("resolved", resolved).Info("decision processed")
	return event.Decision, err
}

func (r *Router) variant(ctx context.Context, actionID, label string, logger logrus.FieldLogger) *string {
	action, err := r.store.Action(ctx, actionID)
	if err != nil {
		logger.WithError(err).Warn("failed to load action variants")
		return nil
	}
	text, ok := action.Variants[label]
	if !ok || text == "" {
		logger.WithField("label", label).Warn("selected variant not found, keeping content")
		return nil
	}
	return &text
}
