// Package ledgertest provides a conformance suite every ledger.Ledger
// implementation runs from its own tests.
package ledgertest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
)

// Factory creates an empty ledger for a single test.
type Factory func(t *testing.T) ledger.Ledger

// Now is the fixed clock used by the suite.
var Now = time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC)

// Run executes the conformance suite.
func Run(t *testing.T, factory Factory) {
	restore := clock.NowFunc
	clock.NowFunc = func() time.Time { return Now }
	defer func() { clock.NowFunc = restore }()

	t.Run("candidate dedup", func(t *testing.T) { testCandidateDedup(t, factory(t)) })
	t.Run("candidate lifecycle", func(t *testing.T) { testCandidateLifecycle(t, factory(t)) })
	t.Run("finding order", func(t *testing.T) { testFindings(t, factory(t)) })
	t.Run("engagement dedup", func(t *testing.T) { testEngagements(t, factory(t)) })
	t.Run("calendar", func(t *testing.T) { testCalendar(t, factory(t)) })
	t.Run("action lifecycle", func(t *testing.T) { testActions(t, factory(t)) })
}

func testCandidateDedup(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	first := &model.CurationCandidate{Source: "news", URL: "https://example.com/a", Title: "first"}
	result, err := l.InsertCandidate(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, ledger.Inserted, result)
	require.NotEmpty(t, first.ID)

	second := &model.CurationCandidate{Source: "news", URL: "https://example.com/a", Title: "second"}
	result, err = l.InsertCandidate(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, ledger.Duplicate, result)

	stored, err := l.Candidate(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Title)
	assert.Equal(t, model.CandidateStatusNew, stored.Status)
}

func testCandidateLifecycle(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	var ids []string
	for i, url := range []string{"https://a.dev", "https://b.dev", "https://c.dev"} {
		c := &model.CurationCandidate{Source: "youtube", URL: url, Title: url, CreatedAt: Now.Add(time.Duration(i) * time.Minute)}
		_, err := l.InsertCandidate(ctx, c)
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	fresh, err := l.NewCandidates(ctx, 2)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, ids[0], fresh[0].ID)
	assert.Equal(t, ids[1], fresh[1].ID)

	for i, score := range []float64{0.61, 0.93} {
		c, err := l.Candidate(ctx, ids[i])
		require.NoError(t, err)
		c.KeywordScore = 0.4
		c.Evaluation = &model.Evaluation{Relevant: true, QualityScore: 8, Reasoning: "useful"}
		c.Share = true
		c.Drafts = map[string]string{"A": "draft a", "B": "draft b"}
		c.FinalScore = score
		c.Status = model.CandidateStatusApproved
		require.NoError(t, l.SaveEvaluation(ctx, c))
	}
	rejected, err := l.Candidate(ctx, ids[2])
	require.NoError(t, err)
	rejected.Status = model.CandidateStatusRejected
	rejected.Evaluation = &model.Evaluation{Reasoning: "off topic"}
	require.NoError(t, l.SaveEvaluation(ctx, rejected))

	approved, err := l.ApprovedCandidates(ctx, 5)
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, ids[1], approved[0].ID)
	assert.Equal(t, map[string]string{"A": "draft a", "B": "draft b"}, approved[0].Drafts)
	require.NotNil(t, approved[0].Evaluation)
	assert.Equal(t, 8.0, approved[0].Evaluation.QualityScore)
	assert.NotNil(t, approved[0].EvaluatedAt)

	stored, err := l.Candidate(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, model.CandidateStatusRejected, stored.Status)
	require.NotNil(t, stored.Evaluation)
	assert.Equal(t, "off topic", stored.Evaluation.Reasoning)

	count, err := l.CountPostedCurationsToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, l.UpdateCandidateStatus(ctx, ids[1], model.CandidateStatusPosted))
	count, err = l.CountPostedCurationsToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	approved, err = l.ApprovedCandidates(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func testFindings(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	findings := []*model.Finding{
		{Platform: model.PlatformTwitter, SourceURL: "https://x.com/1", SourceUser: "a", Content: "low", RelevanceScore: 0.5, FoundAt: Now.Add(-3 * time.Hour)},
		{Platform: model.PlatformTwitter, SourceURL: "https://x.com/2", SourceUser: "b", Content: "late", RelevanceScore: 0.9, FoundAt: Now.Add(-1 * time.Hour)},
		{Platform: model.PlatformBluesky, SourceURL: "https://bsky.app/3", SourceUser: "c", Content: "early", RelevanceScore: 0.9, FoundAt: Now.Add(-2 * time.Hour)},
	}
	for _, f := range findings {
		result, err := l.InsertFinding(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, ledger.Inserted, result)
	}
	result, err := l.InsertFinding(ctx, &model.Finding{Platform: model.PlatformTwitter, SourceURL: "https://x.com/1", Content: "dup", RelevanceScore: 1})
	require.NoError(t, err)
	assert.Equal(t, ledger.Duplicate, result)

	queued, err := l.QueuedFindings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queued, 3)
	assert.Equal(t, "early", queued[0].Content)
	assert.Equal(t, "late", queued[1].Content)
	assert.Equal(t, "low", queued[2].Content)

	require.NoError(t, l.UpdateFindingStatus(ctx, queued[0].ID, model.FindingStatusActed))
	queued, err = l.QueuedFindings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, "late", queued[0].Content)

	acted, err := l.Finding(ctx, findings[2].ID)
	require.NoError(t, err)
	assert.Equal(t, model.FindingStatusActed, acted.Status)
}

func testEngagements(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	first := &model.EngagementOpportunity{Platform: model.PlatformTwitter, PostID: "42", PostURL: "https://x.com/42", Author: "dev", OpportunityType: model.ActionTypeLike, CreatedAt: Now.Add(-time.Hour)}
	result, err := l.InsertEngagement(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, ledger.Inserted, result)

	result, err = l.InsertEngagement(ctx, &model.EngagementOpportunity{Platform: model.PlatformTwitter, PostID: "42", PostURL: "https://x.com/42", Author: "other", OpportunityType: model.ActionTypeRepost})
	require.NoError(t, err)
	assert.Equal(t, ledger.Duplicate, result)

	other := &model.EngagementOpportunity{Platform: model.PlatformBluesky, PostID: "42", PostURL: "https://bsky.app/42", Author: "dev", OpportunityType: model.ActionTypeFollow, CreatedAt: Now}
	result, err = l.InsertEngagement(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, ledger.Inserted, result)

	pending, err := l.PendingEngagements(ctx, 3)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, "dev", pending[0].Author)
	assert.Equal(t, model.ActionTypeLike, pending[0].OpportunityType)

	require.NoError(t, l.UpdateEngagementStatus(ctx, first.ID, model.EngagementStatusDone))
	pending, err = l.PendingEngagements(ctx, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ID, pending[0].ID)
}

func testCalendar(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	today := clock.Day(Now)
	entry := &model.CalendarEntry{ScheduledDate: today, Pillar: "demo", Platform: model.PlatformTwitter, ContentDraft: "Terminal key row in action"}
	require.NoError(t, l.AddCalendarEntry(ctx, entry))
	require.NoError(t, l.AddCalendarEntry(ctx, &model.CalendarEntry{ScheduledDate: clock.Day(Now.Add(24 * time.Hour)), Pillar: "awareness", Platform: model.PlatformBluesky, ContentDraft: "tomorrow"}))

	entries, err := l.CalendarEntries(ctx, today)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.CalendarStatusPlanned, entries[0].Status)
	assert.Equal(t, "Terminal key row in action", entries[0].ContentDraft)

	require.NoError(t, l.UpdateCalendarStatus(ctx, entry.ID, model.CalendarStatusConsumed))
	entries, err = l.CalendarEntries(ctx, today)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.CalendarStatusConsumed, entries[0].Status)
}

func testActions(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	_, err := l.Action(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	action := &model.Action{
		Type:     model.ActionTypeCuratedShare,
		Platform: model.PlatformTwitter,
		Content:  "draft a",
		Status:   model.ActionStatusPendingApproval,
		Source:   model.SourceCuration,
		SourceID: "c1",
		Variants: map[string]string{"A": "draft a", "B": "draft b"},
	}
	require.NoError(t, l.CreateAction(ctx, action))
	require.NotEmpty(t, action.ID)

	decidedAt := Now.Add(time.Minute)
	assert.ErrorIs(t, l.ExpireApproval(ctx, "missing", "timeout", decidedAt), ledger.ErrNotFound)
	require.NoError(t, l.ExpireApproval(ctx, action.ID, "timeout", decidedAt))
	assert.ErrorIs(t, l.ExpireApproval(ctx, action.ID, "timeout", decidedAt), ledger.ErrStatusRegression)
	expired, err := l.Action(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusBacklogged, expired.Status)
	assert.Equal(t, "timeout", expired.ApprovalDecision)
	variant := "draft b"
	require.NoError(t, l.ApplyDecision(ctx, action.ID, model.ActionStatusApproved, "draft_B", decidedAt, &variant))

	stored, err := l.Action(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusApproved, stored.Status)
	assert.Equal(t, "draft_B", stored.ApprovalDecision)
	assert.Equal(t, "draft b", stored.Content)
	assert.Equal(t, map[string]string{"A": "draft a", "B": "draft b"}, stored.Variants)
	require.NotNil(t, stored.ApprovalTimestamp)
	assert.True(t, decidedAt.Equal(*stored.ApprovalTimestamp))

	count, err := l.CountPostedToday(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, l.UpdateActionResult(ctx, action.ID, model.ActionStatusPosted, "https://x.com/status/1"))
	err = l.ApplyDecision(ctx, action.ID, model.ActionStatusDenied, "deny", decidedAt, nil)
	assert.ErrorIs(t, err, ledger.ErrStatusRegression)

	auto := &model.Action{Type: model.ActionTypeLike, Platform: model.PlatformBluesky, Status: model.ActionStatusFailed}
	require.NoError(t, l.CreateAction(ctx, auto))

	count, err = l.CountPostedToday(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = l.CountPostedToday(ctx, model.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = l.CountPostedToday(ctx, model.PlatformBluesky)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	stored, err = l.Action(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/status/1", stored.PostURL)
}
