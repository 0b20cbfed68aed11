package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change. Fields are signed.
type Delta struct {
	Total    int
	Approved int
	Rejected int
	Skipped  int
	Failed   int
	Pending  int
}

// Counters is a point-in-time view of a batch.
type Counters struct {
	Batch     string
	StartedAt time.Time

	Total    int
	Approved int
	Rejected int
	Skipped  int
	Failed   int
	Pending  int
}

// Progress keeps aggregated counters for one batch. It is safe for concurrent use.
type Progress struct {
	counters Counters
	mu       sync.Mutex
	onChange func(Counters)
}

// Update applies the supplied delta. The onChange callback, when set, is
// invoked with the new counters outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.mu.Lock()
	c := &p.counters
	c.Total += d.Total
	c.Approved += d.Approved
	c.Rejected += d.Rejected
	c.Skipped += d.Skipped
	c.Failed += d.Failed
	c.Pending += d.Pending
	snapshot := *c
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange registers a callback invoked after every Update. Passing nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

// New creates a tracker for the named batch.
func New(batch string) *Progress {
	return &Progress{counters: Counters{Batch: batch, StartedAt: time.Now()}}
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a new tracker, embeds it in a derived context and returns both.
func WithNewTracker(ctx context.Context, batch string, onChange func(Counters)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := New(batch)
	tr.onChange = onChange
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies the delta to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
