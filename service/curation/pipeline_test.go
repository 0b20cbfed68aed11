package curation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/internal/metrics"
	"github.com/viant/crier/model"
	"github.com/viant/crier/progress"
	"github.com/viant/crier/service/ledger/kv"
)

type fakeJudge struct {
	evaluations map[string]*model.Evaluation
	batches     map[string]*model.DraftBatch
	failures    map[string]error
	delay       time.Duration

	inFlight    int32
	maxInFlight int32
	mu          sync.Mutex
	drafted     []string
}

func (f *fakeJudge) Evaluate(_ context.Context, c *model.CurationCandidate) (*model.Evaluation, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxInFlight)
		if current <= seen || atomic.CompareAndSwapInt32(&f.maxInFlight, seen, current) {
			break
		}
	}
	time.Sleep(f.delay)
	if err := f.failures[c.Title]; err != nil {
		return nil, err
	}
	if evaluation, ok := f.evaluations[c.Title]; ok {
		return evaluation, nil
	}
	return &model.Evaluation{Relevant: true, QualityScore: 8, Reasoning: "good"}, nil
}

func (f *fakeJudge) DraftBatch(_ context.Context, c *model.CurationCandidate, _ *model.Evaluation, _ model.Platform) (*model.DraftBatch, error) {
	f.mu.Lock()
	f.drafted = append(f.drafted, c.Title)
	f.mu.Unlock()
	if batch, ok := f.batches[c.Title]; ok {
		return batch, nil
	}
	return &model.DraftBatch{Share: true, Reasoning: "share it", Drafts: map[string]string{"A": "draft for " + c.Title}}, nil
}

func candidate(title string) *model.CurationCandidate {
	return &model.CurationCandidate{Source: "news", URL: "https://example.com/" + strings.ReplaceAll(title, " ", "-"), Title: title}
}

func TestPipeline_Evaluate_IsolatesFailures(t *testing.T) {
	judge := &fakeJudge{failures: map[string]error{"tmux cli tool two": errors.New("judge unavailable")}}
	m := metrics.New()
	pipeline := New(judge, WithMetrics(m))
	ctx, tracker := progress.WithNewTracker(context.Background(), "test", nil)

	approved := pipeline.Evaluate(ctx, []*model.CurationCandidate{
		candidate("tmux cli tool one"),
		candidate("tmux cli tool two"),
		candidate("tmux cli tool three"),
	}, model.PlatformTwitter)

	require.Len(t, approved, 2)
	titles := []string{approved[0].Title, approved[1].Title}
	assert.ElementsMatch(t, []string{"tmux cli tool one", "tmux cli tool three"}, titles)
	snapshot := tracker.Snapshot()
	assert.Equal(t, 3, snapshot.Total)
	assert.Equal(t, 2, snapshot.Approved)
	assert.Equal(t, 1, snapshot.Failed)
	assert.Equal(t, 0, snapshot.Pending)
}

func TestPipeline_Evaluate_Outcomes(t *testing.T) {
	judge := &fakeJudge{
		evaluations: map[string]*model.Evaluation{
			"terminal cli irrelevant": {Relevant: false, QualityScore: 9, Reasoning: "not a dev tool"},
			"terminal cli weak":       {Relevant: true, QualityScore: 5.9, Reasoning: "thin"},
			"terminal cli strong":     {Relevant: true, QualityScore: 9, Reasoning: "great"},
		},
		batches: map[string]*model.DraftBatch{
			"terminal cli skipped":  {Share: false, Reasoning: "promo", Drafts: map[string]string{}},
			"terminal cli emoji":    {Share: true, Drafts: map[string]string{"A": "\U0001F680\U0001F525"}},
			"terminal cli long":     {Share: true, Drafts: map[string]string{"A": strings.Repeat("x", 281), "B": "short one"}},
			"terminal cli too many": {Share: true, Drafts: map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"}},
		},
	}
	config := DefaultConfig()
	config.MaxDrafts = 2
	store := kv.NewMemory()
	pipeline := New(judge, WithConfig(config), WithStore(store))

	inputs := []*model.CurationCandidate{
		candidate("terminal cli irrelevant"),
		candidate("terminal cli weak"),
		candidate("terminal cli strong"),
		candidate("terminal cli skipped"),
		candidate("terminal cli emoji"),
		candidate("terminal cli long"),
		candidate("terminal cli too many"),
		candidate("cooking show"),
	}
	for _, c := range inputs {
		_, err := store.InsertCandidate(context.Background(), c)
		require.NoError(t, err)
	}
	approved := pipeline.Evaluate(context.Background(), inputs, model.PlatformTwitter)

	byTitle := map[string]*model.CurationCandidate{}
	for _, c := range approved {
		byTitle[c.Title] = c
	}
	require.Len(t, approved, 3)
	assert.Equal(t, "terminal cli strong", approved[0].Title)
	assert.InDelta(t, 0.3*0.6+0.7*0.9, approved[0].FinalScore, 0.005)
	assert.Equal(t, map[string]string{"B": "short one"}, byTitle["terminal cli long"].Drafts)
	assert.Equal(t, map[string]string{"A": "a", "B": "b"}, byTitle["terminal cli too many"].Drafts)

	assert.NotContains(t, judge.drafted, "terminal cli irrelevant")
	assert.NotContains(t, judge.drafted, "terminal cli weak")
	assert.NotContains(t, judge.drafted, "cooking show")

	for _, c := range inputs {
		stored, err := store.Candidate(context.Background(), c.ID)
		require.NoError(t, err)
		_, ok := byTitle[c.Title]
		if ok {
			assert.Equal(t, model.CandidateStatusApproved, stored.Status, c.Title)
			continue
		}
		assert.Equal(t, model.CandidateStatusRejected, stored.Status, c.Title)
		assert.NotEmpty(t, stored.Reasoning, c.Title)
	}
	weak, err := store.Candidate(context.Background(), inputs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "thin", weak.Reasoning)
}

func TestPipeline_Evaluate_Cancelled(t *testing.T) {
	judge := &fakeJudge{}
	pipeline := New(judge)
	ctx, tracker := progress.WithNewTracker(context.Background(), "test", nil)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	approved := pipeline.Evaluate(ctx, []*model.CurationCandidate{
		candidate("tmux cli tool one"),
		candidate("tmux cli tool two"),
		candidate("cooking show"),
	}, model.PlatformTwitter)

	assert.Empty(t, approved)
	assert.Empty(t, judge.drafted)
	snapshot := tracker.Snapshot()
	assert.Equal(t, 3, snapshot.Total)
	assert.Equal(t, 1, snapshot.Rejected)
	assert.Equal(t, 2, snapshot.Skipped)
	assert.Equal(t, 0, snapshot.Pending)
}

func TestPipeline_Evaluate_BoundedConcurrency(t *testing.T) {
	judge := &fakeJudge{delay: 20 * time.Millisecond}
	config := DefaultConfig()
	config.MaxParallel = 2
	pipeline := New(judge, WithConfig(config))
	var inputs []*model.CurationCandidate
	for _, title := range []string{"ssh a", "ssh b", "ssh c", "ssh d", "ssh e", "ssh f"} {
		inputs = append(inputs, candidate(title))
	}
	approved := pipeline.Evaluate(context.Background(), inputs, model.PlatformBluesky)
	assert.Len(t, approved, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&judge.maxInFlight), int32(2))
}

func TestPipeline_Filter(t *testing.T) {
	config := DefaultConfig()
	config.TopN = 2
	pipeline := New(&fakeJudge{}, WithConfig(config))
	boosted := &model.CurationCandidate{Source: "youtube", Author: "Fireship", URL: "https://youtube.com/1", Title: "vim tricks"}
	passed, dropped := pipeline.Filter([]*model.CurationCandidate{
		candidate("cooking"),
		candidate("terminal cli ssh"),
		boosted,
		candidate("tmux"),
	})
	require.Len(t, passed, 2)
	assert.Equal(t, "terminal cli ssh", passed[0].Title)
	assert.Equal(t, boosted, passed[1])
	assert.InDelta(t, 0.55, boosted.KeywordScore, 1e-9)
	require.Len(t, dropped, 1)
	assert.Equal(t, model.CandidateStatusRejected, dropped[0].Status)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	config := DefaultConfig()
	config.MaxDrafts = 5
	assert.Error(t, config.Validate())
	config = DefaultConfig()
	config.MaxParallel = 0
	assert.Error(t, config.Validate())
}
