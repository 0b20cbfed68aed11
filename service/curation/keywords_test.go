package curation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/crier/model"
)

func TestScoreKeywords(t *testing.T) {
	signals := DefaultSignals()
	testCases := []struct {
		description string
		title       string
		desc        string
		expect      float64
	}{
		{description: "no signals", title: "Cooking pasta", expect: 0.1},
		{description: "one positive", title: "A new tmux layout", expect: 0.4},
		{description: "two positive", title: "tmux over ssh", expect: 0.6},
		{description: "three positive plus indie", title: "Terminal emulator for Android", desc: "open source on github.com", expect: 1},
		{description: "one indie", title: "vim plugin", desc: "indie", expect: 0.55},
		{description: "one negative", title: "tmux discount", expect: 0.1},
		{description: "two negatives force zero", title: "terminal cli ssh crypto nft", expect: 0},
		{description: "negative floors at zero", title: "sponsored cooking", expect: 0},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			score := ScoreKeywords(&model.CurationCandidate{Title: testCase.title, Description: testCase.desc}, signals)
			assert.InDelta(t, testCase.expect, score, 1e-9)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestSignals_IsBoosted(t *testing.T) {
	signals := DefaultSignals()
	assert.True(t, signals.IsBoosted("youtube", "theprimeagen"))
	assert.True(t, signals.IsBoosted("YouTube", "Dreams of Code"))
	assert.False(t, signals.IsBoosted("twitch", "Fireship"))
	assert.False(t, signals.IsBoosted("youtube", ""))
	assert.True(t, signals.IsBoosted(DomainBoostSource, "lobste.rs"))
}

func TestParseSignals(t *testing.T) {
	signals, err := ParseSignals([]byte("positive: [Go]\nboost:\n  blog: [Alice]\nboostScore: 0.2\n"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"go"}, signals.Positive)
	assert.True(t, signals.IsBoosted("blog", "alice"))
	assert.Equal(t, 0.2, signals.BoostScore)

	_, err = ParseSignals([]byte("positive: {"))
	assert.Error(t, err)
}

func TestStripEmoji(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "plain text", expect: "plain text"},
		{input: "\U0001F680 launch day \U0001F525", expect: "launch day"},
		{input: "ok ✅ done", expect: "ok  done"},
		{input: "\U0001F600\U0001F600", expect: ""},
		{input: "heart ❤️", expect: "heart"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, StripEmoji(testCase.input), testCase.input)
	}
}
