package approval

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/internal/metrics"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
	"github.com/viant/crier/service/notifier"
	"github.com/viant/crier/tracing"
)

// TimeoutReason is the decision recorded when nobody answers in time.
const TimeoutReason = "timeout"

// Store is the part of the ledger the approval protocol writes to.
type Store interface {
	Action(ctx context.Context, id string) (*model.Action, error)
	ApplyDecision(ctx context.Context, id string, status model.ActionStatus, decision string, at time.Time, content *string) error
	ExpireApproval(ctx context.Context, id string, reason string, at time.Time) error
}

// Config configures the coordinator.
type Config struct {
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns a two hour approval window.
func DefaultConfig() Config {
	return Config{Timeout: 2 * time.Hour}
}

// Coordinator dispatches prompts and waits for decisions.
type Coordinator struct {
	store    Store
	notifier notifier.Notifier
	waiters  *Waiters
	config   Config
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets the prompt channel. Without one every request is approved.
func WithNotifier(n notifier.Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithWaiters shares a waiter registry with a Router.
func WithWaiters(w *Waiters) Option {
	return func(c *Coordinator) { c.waiters = w }
}

// WithTimeout overrides the approval window.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) { c.config.Timeout = timeout }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithMetrics counts returned decisions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a coordinator persisting timeouts to store.
func NewCoordinator(store Store, opts ...Option) *Coordinator {
	ret := &Coordinator{store: store, config: DefaultConfig()}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.waiters == nil {
		ret.waiters = NewWaiters()
	}
	if ret.config.Timeout <= 0 {
		ret.config.Timeout = DefaultConfig().Timeout
	}
	ret.logger = logging.OrDiscard(ret.logger)
	return ret
}

// Waiters returns the registry resolved by decisions.
func (c *Coordinator) Waiters() *Waiters { return c.waiters }

// Configured reports whether prompts reach a human.
func (c *Coordinator) Configured() bool { return c.notifier != nil }

// RequestApproval sends prompt and blocks until a decision for prompt.ActionID
// arrives or the timeout elapses. A timeout backlogs the action and returns
// DecisionBacklog. An error is returned only when ctx ends first or a waiter
// for the action is already live.
func (c *Coordinator) RequestApproval(ctx context.Context, prompt *notifier.Prompt) (model.Decision, error) {
	logger := c.logger.WithField("action_id", prompt.ActionID)
	if c.notifier == nil {
		logger.Warn("notifier not configured, auto-approving")
		c.metrics.Approval(string(model.DecisionApprove))
		return model.DecisionApprove, nil
	}
	ctx, span := tracing.StartSpan(ctx, "approval.RequestApproval", "INTERNAL")
	span.WithAttributes(map[string]string{"action_id": prompt.ActionID})

	decisions, err := c.waiters.Register(prompt.ActionID)
	if err != nil {
		tracing.EndSpan(span, err)
		return "", err
	}
	if err := c.notifier.Send(ctx, prompt); err != nil {
		logger.WithError(err).Error("failed to dispatch approval prompt")
	}

	timer := time.NewTimer(c.config.Timeout)
	defer timer.Stop()

	var decision model.Decision
	select {
	case decision = <-decisions:
	case <-timer.C:
		decision = c.expire(ctx, prompt.ActionID, decisions, logger)
	case <-ctx.Done():
		if c.waiters.Remove(prompt.ActionID) {
			tracing.EndSpan(span, ctx.Err())
			return "", ctx.Err()
		}
		decision = <-decisions
	}
	span.WithAttributes(map[string]string{"decision": string(decision)})
	tracing.EndSpan(span, nil)
	c.metrics.Approval(string(decision))
	logger.WithField("decision", decision).Info("approval resolved")
	return decision, nil
}

// expire backlogs the action unless a decision raced the timer. A decision
// persisted before its waiter was resolved wins over the timeout.
func (c *Coordinator) expire(ctx context.Context, actionID string, decisions <-chan model.Decision, logger logrus.FieldLogger) model.Decision {
	if !c.waiters.Remove(actionID) {
		return <-decisions
	}
	ctx = context.WithoutCancel(ctx)
	err := c.store.ExpireApproval(ctx, actionID, TimeoutReason, clock.Now())
	switch {
	case err == nil:
		logger.Warn("approval timed out, backlogging")
	case errors.Is(err, ledger.ErrStatusRegression):
		if decision, ok := c.persisted(ctx, actionID); ok {
			logger.WithField("decision", decision).Info("decision recorded before timeout")
			return decision
		}
		logger.Warn("approval timed out on a settled action")
	default:
		logger.WithError(err).Error("failed to backlog timed out action")
	}
	return model.DecisionBacklog
}

func (c *Coordinator) persisted(ctx context.Context, actionID string) (model.Decision, bool) {
	action, err := c.store.Action(ctx, actionID)
	if err != nil {
		return "", false
	}
	decision := model.Decision(action.ApprovalDecision)
	if _, ok := decision.Status(); !ok {
		return "", false
	}
	return decision, true
}
