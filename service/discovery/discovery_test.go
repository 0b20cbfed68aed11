package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/curation"
	"github.com/viant/crier/service/ledger/kv"
	"github.com/viant/crier/service/monitor"
)

func TestClassify(t *testing.T) {
	type testCase struct {
		name     string
		text     string
		curated  bool
		expected model.ActionType
	}
	testCases := []testCase{
		{name: "curated with two hits", text: "Just released a new terminal emulator", curated: true, expected: model.ActionTypeRepost},
		{name: "curated with one hit", text: "my tmux setup", curated: true, expected: model.ActionTypeLike},
		{name: "curated without hits", text: "Beautiful sunset photo today", curated: true, expected: model.ActionTypeLike},
		{name: "unknown with one hit", text: "Check out this new CLI tool I built", expected: model.ActionTypeLike},
		{name: "unknown with many hits", text: "tmux and neovim in the terminal", expected: model.ActionTypeLike},
		{name: "unknown irrelevant", text: "Beautiful sunset photo today", expected: model.ActionTypeSkip},
		{name: "empty", text: "", expected: model.ActionTypeSkip},
	}
	signals := curation.DefaultSignals().Positive
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.text, tc.curated, signals))
		})
	}
}

func TestAccounts(t *testing.T) {
	accounts := DefaultAccounts()
	assert.True(t, accounts.IsCurated(model.PlatformTwitter, "@ThePrimeagen"))
	assert.True(t, accounts.IsCurated(model.PlatformTwitter, "mitchellh"))
	assert.True(t, accounts.IsCurated(model.PlatformBluesky, "mitchellh.com"))
	assert.False(t, accounts.IsCurated(model.PlatformBluesky, "mitchellh"))
	assert.False(t, accounts.IsCurated(model.PlatformTwitter, ""))

	assert.Equal(t, []string{"terminal emulator", "CLI tool", "open source keyboard", "neovim", "tmux"}, accounts.QueriesFor(model.PlatformTwitter))
	assert.Len(t, accounts.QueriesFor(model.PlatformBluesky), 3)
	assert.Len(t, accounts.QueriesFor(model.PlatformReddit), len(accounts.Keywords))

	_, err := ParseAccounts([]byte("handles: ["))
	assert.Error(t, err)
}

type fakeSearcher struct {
	platform model.Platform
	results  map[string][]monitor.RawFinding
	errs     map[string]error
	queries  []string
}

func (f *fakeSearcher) Platform() model.Platform { return f.platform }

func (f *fakeSearcher) Search(_ context.Context, query string) ([]monitor.RawFinding, error) {
	f.queries = append(f.queries, query)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

func TestDiscoverer_Scan(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	long := strings.Repeat("é", 600) + " cli"
	repost := monitor.RawFinding{PostID: "1", URL: "https://x.com/ThePrimeagen/status/1", Author: "ThePrimeagen", Text: "new terminal emulator dropped"}
	twitter := &fakeSearcher{
		platform: model.PlatformTwitter,
		results: map[string][]monitor.RawFinding{
			"neovim": {
				repost,
				{PostID: "2", URL: "https://x.com/dev/status/2", Author: "dev", Text: "neovim plugin of the week"},
				{PostID: "3", URL: "https://x.com/chef/status/3", Author: "chef", Text: "dinner tonight"},
			},
			"tmux": {
				repost,
				{URL: "https://x.com/dev/status/4", Author: "dev", Text: long},
				{Author: "dev", Text: "tmux without a url"},
			},
		},
		errs: map[string]error{"CLI tool": errors.New("rate limited")},
	}
	bluesky := &fakeSearcher{platform: model.PlatformBluesky}

	found, err := New(store).Scan(ctx, twitter, bluesky)
	require.NoError(t, err)
	assert.Equal(t, 3, found)
	assert.Len(t, twitter.queries, 5)
	assert.Len(t, bluesky.queries, 3)

	pending, err := store.PendingEngagements(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	byPost := map[string]*model.EngagementOpportunity{}
	for _, opportunity := range pending {
		byPost[opportunity.PostID] = opportunity
		assert.Equal(t, model.PlatformTwitter, opportunity.Platform)
		assert.Equal(t, model.EngagementStatusPending, opportunity.Status)
	}
	assert.Equal(t, model.ActionTypeRepost, byPost["1"].OpportunityType)
	assert.Equal(t, model.ActionTypeLike, byPost["2"].OpportunityType)
	assert.NotContains(t, byPost, "3")

	truncated := byPost["https://x.com/dev/status/4"]
	require.NotNil(t, truncated)
	assert.Equal(t, model.ActionTypeLike, truncated.OpportunityType)
	assert.Equal(t, MaxTextLength, len([]rune(truncated.Text)))

	// a second pass finds nothing new
	found, err = New(store).Scan(ctx, twitter)
	require.NoError(t, err)
	assert.Equal(t, 0, found)
}

func TestDiscoverer_CustomAccounts(t *testing.T) {
	accounts, err := ParseAccounts([]byte("handles:\n  bluesky: ['@Friend.bsky.social']\nkeywords: [anything]\n"))
	require.NoError(t, err)
	store := kv.NewMemory()
	discoverer := New(store, WithAccounts(accounts), WithSignals([]string{"zig"}))

	found, err := discoverer.Queue(context.Background(), []monitor.RawFinding{
		{Platform: model.PlatformBluesky, PostID: "at://1", URL: "https://bsky.app/1", Author: "friend.bsky.social", Text: "lunch"},
		{Platform: model.PlatformBluesky, PostID: "at://2", URL: "https://bsky.app/2", Author: "other", Text: "terminal cli"},
		{Platform: model.PlatformBluesky, PostID: "at://3", URL: "https://bsky.app/3", Author: "other", Text: "zig release"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, found)
}
