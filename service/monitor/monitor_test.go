package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger/kv"
)

func TestScoreRelevance(t *testing.T) {
	type testCase struct {
		name     string
		text     string
		expected float64
	}
	testCases := []testCase{
		{name: "high signal", text: "Need a keyboard for SSH sessions", expected: 0.8},
		{name: "high signal question", text: "Anyone got a keyboard for ssh?", expected: 0.9},
		{name: "medium signal", text: "mobile coding is rough", expected: 0.5},
		{name: "medium question", text: "how is mobile coding?", expected: 0.6},
		{name: "boosters", text: "my android phone hates me", expected: 0.4},
		{name: "booster question", text: "android phone recommendations?", expected: 0.5},
		{name: "single booster", text: "new android release", expected: 0},
		{name: "question alone", text: "what should I eat?", expected: 0},
	}
	phrases := DefaultPhrases()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := phrases.ScoreRelevance(tc.text)
			assert.InDelta(t, tc.expected, actual, 1e-9)
			assert.GreaterOrEqual(t, actual, 0.0)
			assert.LessOrEqual(t, actual, 1.0)
		})
	}
}

func TestMonitor_Queue(t *testing.T) {
	ctx := context.Background()
	l := kv.NewMemory()
	m := New(l)
	findings := []RawFinding{
		{URL: "https://x.com/1", Text: "ssh from phone is painful", Author: "a", Platform: model.PlatformTwitter},
		{URL: "https://x.com/1", Text: "ssh from phone is painful", Author: "a", Platform: model.PlatformTwitter},
		{URL: "https://x.com/2", Text: "nice weather", Author: "b", Platform: model.PlatformTwitter},
		{URL: "", Text: "keyboard for cli", Author: "c", Platform: model.PlatformTwitter},
	}
	count, err := m.Queue(ctx, findings)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = m.Queue(ctx, findings)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	queued, err := l.QueuedFindings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, 0.8, queued[0].RelevanceScore)
	assert.Equal(t, model.FindingStatusQueued, queued[0].Status)
}

type fakeSearcher struct {
	platform model.Platform
	results  map[string][]RawFinding
	err      error
	queries  []string
}

func (f *fakeSearcher) Platform() model.Platform { return f.platform }

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]RawFinding, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func TestMonitor_Scan(t *testing.T) {
	phrases, err := ParsePhrases([]byte("high: [\"Keyboard for SSH\", \"terminal on phone\"]\nboosters: [phone]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"keyboard for ssh", "terminal on phone"}, phrases.High)

	working := &fakeSearcher{platform: model.PlatformBluesky, results: map[string][]RawFinding{
		"terminal on phone": {{URL: "https://bsky.app/p/1", Text: "terminal on phone, any tips?", Author: "dev"}},
	}}
	broken := &fakeSearcher{platform: model.PlatformTwitter, err: errors.New("rate limited")}

	l := kv.NewMemory()
	m := New(l, WithPhrases(phrases))
	count, err := m.Scan(context.Background(), broken, working)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, broken.queries, 1)
	assert.Len(t, working.queries, 2)

	queued, err := l.QueuedFindings(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, model.PlatformBluesky, queued[0].Platform)
	assert.InDelta(t, 0.9, queued[0].RelevanceScore, 1e-9)
}
