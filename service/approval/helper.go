package approval

import (
	"context"
	"time"

	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/notifier"
)

// Publisher accepts decision events, typically a messaging queue.
type Publisher interface {
	Publish(ctx context.Context, event *model.DecisionEvent) error
}

// DecisionFunc decides on a prompt without a human.
type DecisionFunc func(prompt *notifier.Prompt) model.Decision

// AutoDecider is a notifier that answers every prompt itself by publishing a
// decision event, exercising the full decision path without a human.
type AutoDecider struct {
	publisher Publisher
	decide    DecisionFunc
}

// NewAutoDecider creates a notifier answering with fn.
func NewAutoDecider(publisher Publisher, fn DecisionFunc) *AutoDecider {
	return &AutoDecider{publisher: publisher, decide: fn}
}

// AutoApprove answers every prompt with approve.
func AutoApprove(publisher Publisher) *AutoDecider {
	return NewAutoDecider(publisher, func(*notifier.Prompt) model.Decision { return model.DecisionApprove })
}

// AutoDeny answers every prompt with deny.
func AutoDeny(publisher Publisher) *AutoDecider {
	return NewAutoDecider(publisher, func(*notifier.Prompt) model.Decision { return model.DecisionDeny })
}

// Send publishes the decision for prompt.
func (a *AutoDecider) Send(ctx context.Context, prompt *notifier.Prompt) error {
	return a.publisher.Publish(ctx, &model.DecisionEvent{
		ActionID:  prompt.ActionID,
		Decision:  a.decide(prompt),
		Timestamp: clock.Now().Format(time.RFC3339Nano),
	})
}
