package selector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger/kv"
)

var now = time.Date(2026, 10, 14, 19, 0, 0, 0, time.UTC)

func fixClock(t *testing.T) {
	restore := clock.NowFunc
	clock.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { clock.NowFunc = restore })
}

type seed struct {
	calendar    int
	findings    []float64
	candidates  []float64
	engagements int
	postedToday int
}

func newLedger(t *testing.T, s seed) *kv.Ledger {
	ctx := context.Background()
	l := kv.NewMemory()
	for i := 0; i < s.calendar; i++ {
		require.NoError(t, l.AddCalendarEntry(ctx, &model.CalendarEntry{
			ID:            fmt.Sprintf("cal-%d", i),
			ScheduledDate: clock.Today(),
			Pillar:        "demo",
			Platform:      model.PlatformTwitter,
			ContentDraft:  fmt.Sprintf("calendar post %d", i),
		}))
	}
	for i, score := range s.findings {
		_, err := l.InsertFinding(ctx, &model.Finding{
			Platform:       model.PlatformBluesky,
			SourceURL:      fmt.Sprintf("https://bsky.app/post/%d", i),
			SourceUser:     "dev",
			Content:        fmt.Sprintf("finding %d", i),
			RelevanceScore: score,
			FoundAt:        now.Add(-time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	for i, score := range s.candidates {
		candidate := &model.CurationCandidate{Source: "github", URL: fmt.Sprintf("https://github.com/x/%d", i), Title: fmt.Sprintf("tool %d", i)}
		_, err := l.InsertCandidate(ctx, candidate)
		require.NoError(t, err)
		candidate.Status = model.CandidateStatusApproved
		candidate.FinalScore = score
		candidate.Drafts = map[string]string{"B": "second angle", "A": fmt.Sprintf("share tool %d", i)}
		require.NoError(t, l.SaveEvaluation(ctx, candidate))
	}
	for i := 0; i < s.engagements; i++ {
		_, err := l.InsertEngagement(ctx, &model.EngagementOpportunity{
			Platform:        model.PlatformTwitter,
			PostID:          fmt.Sprintf("p%d", i),
			Author:          "someone",
			OpportunityType: model.ActionTypeLike,
			CreatedAt:       now.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	for i := 0; i < s.postedToday; i++ {
		require.NoError(t, l.CreateAction(ctx, &model.Action{Type: model.ActionTypeOriginalPost, Platform: model.PlatformTwitter, Status: model.ActionStatusPosted}))
	}
	return l
}

func countBySource(drafts []*model.Draft) map[model.Source]int {
	ret := map[model.Source]int{}
	for _, d := range drafts {
		ret[d.Source]++
	}
	return ret
}

func TestSelector_PickActions(t *testing.T) {
	fixClock(t)
	type testCase struct {
		name     string
		seed     seed
		expected map[model.Source]int
	}
	testCases := []testCase{
		{
			name:     "calendar takes priority under the cap",
			seed:     seed{calendar: 2, findings: []float64{0.9, 0.8}},
			expected: map[model.Source]int{model.SourceCalendar: 2, model.SourceFinding: 1},
		},
		{
			name:     "calendar alone exhausts the cap",
			seed:     seed{calendar: 5, findings: []float64{0.9}},
			expected: map[model.Source]int{model.SourceCalendar: 3},
		},
		{
			name:     "curation and engagement budgets are separate",
			seed:     seed{calendar: 3, candidates: []float64{0.9, 0.8, 0.7}, engagements: 5},
			expected: map[model.Source]int{model.SourceCalendar: 3, model.SourceCuration: 2, model.SourceEngagement: 3},
		},
		{
			name:     "posted actions shrink the cap",
			seed:     seed{calendar: 3, postedToday: 2},
			expected: map[model.Source]int{model.SourceCalendar: 1},
		},
		{
			name:     "exhausted budget returns nothing",
			seed:     seed{calendar: 1, candidates: []float64{0.9}, engagements: 1, postedToday: 3},
			expected: map[model.Source]int{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(newLedger(t, tc.seed))
			drafts := s.PickActions(context.Background())
			assert.Equal(t, tc.expected, countBySource(drafts))
			global := countBySource(drafts)[model.SourceCalendar] + countBySource(drafts)[model.SourceFinding]
			assert.LessOrEqual(t, global, s.Config().MaxActionsPerDay)
		})
	}
}

func TestSelector_SourceOrder(t *testing.T) {
	fixClock(t)
	s := New(newLedger(t, seed{calendar: 1, findings: []float64{0.4, 0.9}, candidates: []float64{0.5, 0.95}, engagements: 1}))
	drafts := s.PickActions(context.Background())
	require.Len(t, drafts, 6)
	sources := make([]model.Source, len(drafts))
	for i, d := range drafts {
		sources[i] = d.Source
	}
	assert.Equal(t, []model.Source{
		model.SourceCalendar, model.SourceFinding, model.SourceFinding,
		model.SourceCuration, model.SourceCuration, model.SourceEngagement,
	}, sources)
	assert.Equal(t, "finding 1", drafts[1].Content)
	assert.Equal(t, "share tool 1", drafts[3].Content)
	assert.Equal(t, model.ActionTypeCuratedShare, drafts[3].Type)
	assert.Equal(t, model.TierButtons, drafts[3].Tier)
	assert.Equal(t, model.PlatformTwitter, drafts[3].Platform)
	assert.Equal(t, map[string]string{"A": "share tool 1", "B": "second angle"}, drafts[3].Variants())
	assert.Equal(t, model.TierAuto, drafts[5].Tier)
}

func TestSelector_FindingBecomesReply(t *testing.T) {
	fixClock(t)
	s := New(newLedger(t, seed{findings: []float64{0.85}}))
	drafts := s.PickActions(context.Background())
	require.Len(t, drafts, 1)
	assert.Equal(t, model.SourceFinding, drafts[0].Source)
	assert.Equal(t, model.ActionTypeReply, drafts[0].Type)
	assert.Equal(t, "https://bsky.app/post/0", drafts[0].ReplyTo)
	assert.Equal(t, model.TierButtons, drafts[0].Tier)
}

func TestSelector_CalendarNotReused(t *testing.T) {
	fixClock(t)
	ctx := context.Background()
	l := newLedger(t, seed{calendar: 1})
	s := New(l)
	drafts := s.PickActions(ctx)
	require.Len(t, drafts, 1)
	assert.Equal(t, model.SourceCalendar, drafts[0].Source)
	assert.Equal(t, "calendar post 0", drafts[0].Content)

	require.NoError(t, l.UpdateCalendarStatus(ctx, drafts[0].SourceID, model.CalendarStatusConsumed))
	assert.Empty(t, s.PickActions(ctx))
}

type failingStore struct {
	*kv.Ledger
}

func (f failingStore) QueuedFindings(ctx context.Context, limit int) ([]*model.Finding, error) {
	return nil, errors.New("disk on fire")
}

func TestSelector_IsolatesSourceErrors(t *testing.T) {
	fixClock(t)
	s := New(failingStore{newLedger(t, seed{calendar: 1, findings: []float64{0.9}, engagements: 1})})
	drafts := s.PickActions(context.Background())
	assert.Equal(t, map[model.Source]int{model.SourceCalendar: 1, model.SourceEngagement: 1}, countBySource(drafts))
}

func TestEscalationTier(t *testing.T) {
	type testCase struct {
		actionType model.ActionType
		platform   model.Platform
		expected   model.Tier
	}
	testCases := []testCase{
		{model.ActionTypeLike, model.PlatformTwitter, model.TierAuto},
		{model.ActionTypeRepost, model.PlatformBluesky, model.TierAuto},
		{model.ActionTypeFollow, model.PlatformTwitter, model.TierAuto},
		{model.ActionTypeOriginalPost, model.PlatformBluesky, model.TierAuto},
		{model.ActionTypeOriginalPost, model.PlatformReddit, model.TierButtons},
		{model.ActionTypeLike, model.PlatformHN, model.TierButtons},
		{model.ActionTypeReply, model.PlatformTwitter, model.TierButtons},
		{model.ActionTypeOutreachDM, model.PlatformBluesky, model.TierButtons},
		{model.ActionTypeQuoteRepost, model.PlatformTwitter, model.TierButtons},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s on %s", tc.actionType, tc.platform), func(t *testing.T) {
			assert.Equal(t, tc.expected, EscalationTier(tc.actionType, tc.platform))
		})
	}
	for _, platform := range []model.Platform{model.PlatformTwitter, model.PlatformBluesky, model.PlatformReddit, model.PlatformHN, model.PlatformDevTo, model.PlatformProductHunt, "mastodon"} {
		assert.Equal(t, model.TierButtons, EscalationTier(model.ActionTypeCuratedShare, platform))
	}
}
