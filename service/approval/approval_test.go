package approval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger/kv"
	"github.com/viant/crier/service/messaging"
	"github.com/viant/crier/service/messaging/memory"
	"github.com/viant/crier/service/notifier"
)

// hookNotifier records prompts and runs onSend in a goroutine.
type hookNotifier struct {
	mu      sync.Mutex
	prompts []*notifier.Prompt
	onSend  func(prompt *notifier.Prompt)
	err     error
}

func (h *hookNotifier) Send(ctx context.Context, prompt *notifier.Prompt) error {
	h.mu.Lock()
	h.prompts = append(h.prompts, prompt)
	h.mu.Unlock()
	if h.onSend != nil {
		go h.onSend(prompt)
	}
	return h.err
}

func newAction(t *testing.T, l *kv.Ledger) *model.Action {
	action := &model.Action{
		Type:     model.ActionTypeCuratedShare,
		Platform: model.PlatformTwitter,
		Content:  "variant a",
		Status:   model.ActionStatusPendingApproval,
		Variants: map[string]string{"A": "variant a", "B": "variant b"},
	}
	require.NoError(t, l.CreateAction(context.Background(), action))
	return action
}

func TestWaiters(t *testing.T) {
	w := NewWaiters()
	ch, err := w.Register("a1")
	require.NoError(t, err)
	_, err = w.Register("a1")
	assert.ErrorIs(t, err, ErrWaiterExists)
	assert.True(t, w.Has("a1"))

	assert.True(t, w.Resolve("a1", model.DecisionDeny))
	assert.Equal(t, model.DecisionDeny, <-ch)
	assert.False(t, w.Resolve("a1", model.DecisionApprove))
	assert.False(t, w.Remove("a1"))
	assert.Equal(t, 0, w.Len())

	_, err = w.Register("a1")
	require.NoError(t, err)
	assert.True(t, w.Remove("a1"))
}

func TestCoordinator_AutoApproveWithoutNotifier(t *testing.T) {
	c := NewCoordinator(kv.NewMemory())
	assert.False(t, c.Configured())
	decision, err := c.RequestApproval(context.Background(), &notifier.Prompt{ActionID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, model.DecisionApprove, decision)
	assert.Equal(t, 0, c.Waiters().Len())
}

func TestCoordinator_ResolvedByRouter(t *testing.T) {
	type testCase struct {
		name     string
		decision model.Decision
		status   model.ActionStatus
		content  string
		sendErr  error
	}
	testCases := []testCase{
		{name: "approve", decision: model.DecisionApprove, status: model.ActionStatusApproved, content: "variant a"},
		{name: "draft b", decision: model.DecisionDraftB, status: model.ActionStatusApproved, content: "variant b"},
		{name: "missing draft keeps content", decision: model.DecisionDraftD, status: model.ActionStatusApproved, content: "variant a"},
		{name: "deny", decision: model.DecisionDeny, status: model.ActionStatusDenied, content: "variant a"},
		{name: "rethink", decision: model.DecisionRethink, status: model.ActionStatusPendingRethink, content: "variant a"},
		{name: "dispatch failure still waits", decision: model.DecisionBacklog, status: model.ActionStatusBacklogged, content: "variant a", sendErr: errors.New("offline")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			l := kv.NewMemory()
			action := newAction(t, l)
			waiters := NewWaiters()
			router := NewRouter(l, waiters)
			n := &hookNotifier{err: tc.sendErr, onSend: func(prompt *notifier.Prompt) {
				_, _ = router.ProcessDecision(ctx, &model.DecisionEvent{ActionID: prompt.ActionID, Decision: tc.decision, Timestamp: "2026-10-14T20:00:00Z"})
			}}
			c := NewCoordinator(l, WithNotifier(n), WithWaiters(waiters), WithTimeout(5*time.Second))

			decision, err := c.RequestApproval(ctx, &notifier.Prompt{ActionID: action.ID, Text: "review"})
			require.NoError(t, err)
			assert.Equal(t, tc.decision, decision)

			stored, err := l.Action(ctx, action.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.status, stored.Status)
			assert.Equal(t, tc.content, stored.Content)
			assert.Equal(t, string(tc.decision), stored.ApprovalDecision)
			require.NotNil(t, stored.ApprovalTimestamp)
			assert.True(t, time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC).Equal(*stored.ApprovalTimestamp))
			assert.Equal(t, 0, waiters.Len())
		})
	}
}

func TestCoordinator_Timeout(t *testing.T) {
	ctx := context.Background()
	l := kv.NewMemory()
	action := newAction(t, l)
	n := &hookNotifier{}
	c := NewCoordinator(l, WithNotifier(n), WithTimeout(20*time.Millisecond))

	decision, err := c.RequestApproval(ctx, &notifier.Prompt{ActionID: action.ID})
	require.NoError(t, err)
	assert.Equal(t, model.DecisionBacklog, decision)
	assert.Len(t, n.prompts, 1)
	assert.Equal(t, 0, c.Waiters().Len())

	stored, err := l.Action(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusBacklogged, stored.Status)
	assert.Equal(t, TimeoutReason, stored.ApprovalDecision)

	// a late human decision replaces the timeout backlog
	router := NewRouter(l, c.Waiters())
	decision, err = router.ProcessDecision(ctx, &model.DecisionEvent{ActionID: action.ID, Decision: model.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, model.DecisionApprove, decision)
	stored, err = l.Action(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusApproved, stored.Status)
}

// slowResolveStore holds ApplyDecision after the write commits, so the
// waiter is resolved only once the caller releases it.
type slowResolveStore struct {
	*kv.Ledger
	committed chan struct{}
	release   chan struct{}
}

func (s *slowResolveStore) ApplyDecision(ctx context.Context, id string, status model.ActionStatus, decision string, at time.Time, content *string) error {
	err := s.Ledger.ApplyDecision(ctx, id, status, decision, at, content)
	close(s.committed)
	<-s.release
	return err
}

func TestCoordinator_DecisionPersistedBeforeTimeout(t *testing.T) {
	ctx := context.Background()
	l := kv.NewMemory()
	action := newAction(t, l)
	store := &slowResolveStore{Ledger: l, committed: make(chan struct{}), release: make(chan struct{})}
	waiters := NewWaiters()
	router := NewRouter(store, waiters)
	routed := make(chan struct{})
	n := &hookNotifier{onSend: func(prompt *notifier.Prompt) {
		defer close(routed)
		_, _ = router.ProcessDecision(ctx, &model.DecisionEvent{ActionID: prompt.ActionID, Decision: model.DecisionApprove})
	}}
	c := NewCoordinator(store, WithNotifier(n), WithWaiters(waiters), WithTimeout(100*time.Millisecond))

	decision, err := c.RequestApproval(ctx, &notifier.Prompt{ActionID: action.ID})
	require.NoError(t, err)
	<-store.committed
	assert.Equal(t, model.DecisionApprove, decision)

	close(store.release)
	<-routed
	stored, err := l.Action(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusApproved, stored.Status)
	assert.Equal(t, string(model.DecisionApprove), stored.ApprovalDecision)
	assert.Equal(t, 0, waiters.Len())
}

func TestCoordinator_ContextCancelled(t *testing.T) {
	l := kv.NewMemory()
	action := newAction(t, l)
	ctx, cancel := context.WithCancel(context.Background())
	n := &hookNotifier{onSend: func(*notifier.Prompt) { cancel() }}
	c := NewCoordinator(l, WithNotifier(n), WithTimeout(5*time.Second))

	_, err := c.RequestApproval(ctx, &notifier.Prompt{ActionID: action.ID})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Waiters().Len())
}

func TestCoordinator_DuplicateWaiter(t *testing.T) {
	waiters := NewWaiters()
	_, err := waiters.Register("a1")
	require.NoError(t, err)
	c := NewCoordinator(kv.NewMemory(), WithNotifier(&hookNotifier{}), WithWaiters(waiters))
	_, err = c.RequestApproval(context.Background(), &notifier.Prompt{ActionID: "a1"})
	assert.ErrorIs(t, err, ErrWaiterExists)
}

func TestRouter_ProcessDecision(t *testing.T) {
	ctx := context.Background()
	l := kv.NewMemory()
	action := newAction(t, l)
	waiters := NewWaiters()
	router := NewRouter(l, waiters)

	ch, err := waiters.Register(action.ID)
	require.NoError(t, err)
	payload := []byte(`{"action_id":"` + action.ID + `","decision":"draft_B","timestamp":"2026-10-14T20:00:00+00:00"}`)
	decision, err := router.ProcessPayload(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionDraftB, decision)
	assert.Equal(t, model.DecisionDraftB, <-ch)

	// second delivery persists again without error and resolves nothing
	_, err = router.ProcessPayload(ctx, payload)
	require.NoError(t, err)
	stored, err := l.Action(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, "variant b", stored.Content)

	require.NoError(t, l.UpdateActionResult(ctx, action.ID, model.ActionStatusPosted, "https://x.com/1"))
	_, err = router.ProcessDecision(ctx, &model.DecisionEvent{ActionID: action.ID, Decision: model.DecisionDeny})
	require.NoError(t, err)
	stored, err = l.Action(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusPosted, stored.Status)
}

func TestRouter_Errors(t *testing.T) {
	router := NewRouter(kv.NewMemory(), nil)
	ctx := context.Background()
	_, err := router.ProcessDecision(ctx, &model.DecisionEvent{ActionID: "a1", Decision: "maybe"})
	assert.ErrorIs(t, err, ErrUnknownDecision)
	_, err = router.ProcessDecision(ctx, &model.DecisionEvent{Decision: model.DecisionApprove})
	assert.ErrorIs(t, err, ErrUnknownDecision)
	_, err = router.ProcessPayload(ctx, []byte("{"))
	assert.Error(t, err)
	_, err = router.ProcessDecision(ctx, &model.DecisionEvent{ActionID: "missing", Decision: model.DecisionApprove})
	assert.Error(t, err)
}

// recordedMessage tracks how the listener settled a message.
type recordedMessage struct {
	event  model.DecisionEvent
	acked  bool
	nacked bool
}

func (m *recordedMessage) T() *model.DecisionEvent { return &m.event }
func (m *recordedMessage) Ack() error { m.acked = true; return nil }
func (m *recordedMessage) Nack(error) error { m.nacked = true; return nil }

var _ messaging.Message[model.DecisionEvent] = (*recordedMessage)(nil)

func TestRouter_Handle(t *testing.T) {
	l := kv.NewMemory()
	action := newAction(t, l)
	router := NewRouter(l, NewWaiters())
	testCases := []struct {
		name  string
		event model.DecisionEvent
	}{
		{name: "applied", event: model.DecisionEvent{ActionID: action.ID, Decision: model.DecisionDeny}},
		{name: "malformed", event: model.DecisionEvent{ActionID: action.ID, Decision: "bogus"}},
		{name: "unknown action", event: model.DecisionEvent{ActionID: "missing", Decision: model.DecisionApprove}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := &recordedMessage{event: tc.event}
			router.handle(context.Background(), msg)
			assert.True(t, msg.acked)
			assert.False(t, msg.nacked)
		})
	}
}

func TestRouter_Listen(t *testing.T) {
	l := kv.NewMemory()
	action := newAction(t, l)
	queue := memory.NewQueue[model.DecisionEvent](memory.DefaultConfig())
	waiters := NewWaiters()
	router := NewRouter(l, waiters)
	c := NewCoordinator(l, WithNotifier(AutoDeny(queue)), WithWaiters(waiters), WithTimeout(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- router.Listen(ctx, queue) }()

	require.NoError(t, queue.Publish(ctx, &model.DecisionEvent{ActionID: "a1", Decision: "bogus"}))
	decision, err := c.RequestApproval(ctx, &notifier.Prompt{ActionID: action.ID})
	require.NoError(t, err)
	assert.Equal(t, model.DecisionDeny, decision)

	stored, err := l.Action(context.Background(), action.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusDenied, stored.Status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}
