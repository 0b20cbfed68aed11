package approval

import (
	"context"
	"errors"
	"time"

	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
	"github.com/viant/crier/service/messaging"
)

// consumeRetryDelay spaces out Consume calls after transport errors.
var consumeRetryDelay = 500 * time.Millisecond

// Listen consumes decision events until ctx is cancelled or the queue closes.
// Each started decision completes its persistence write even if ctx is
// cancelled meanwhile. Malformed decisions are acknowledged and dropped;
// persistence failures are nacked for redelivery.
func (r *Router) Listen(ctx context.Context, queue messaging.Queue[model.DecisionEvent]) error {
	r.logger.Info("decision listener started")
	defer r.logger.Info("decision listener stopped")
	for {
		msg, err := queue.Consume(ctx)
		if ctx.Err() != nil || errors.Is(err, messaging.ErrClosed) {
			return nil
		}
		if err != nil {
			r.logger.WithError(err).Warn("failed to consume decision")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(consumeRetryDelay):
			}
			continue
		}
		r.handle(context.WithoutCancel(ctx), msg)
	}
}

func (r *Router) handle(ctx context.Context, msg messaging.Message[model.DecisionEvent]) {
	_, err := r.ProcessDecision(ctx, msg.T())
	switch {
	case err == nil:
		_ = msg.Ack()
	case errors.Is(err, ErrUnknownDecision):
		r.logger.WithError(err).Warn("dropping malformed decision")
		_ = msg.Ack()
	case errors.Is(err, ledger.ErrNotFound):
		r.logger.WithError(err).Warn("dropping decision for unknown action")
		_ = msg.Ack()
	default:
		r.logger.WithError(err).Error("decision processing error")
		_ = msg.Nack(err)
	}
}
