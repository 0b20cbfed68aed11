package curation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvaluation(t *testing.T) {
	evaluation, err := ParseEvaluation(`RELEVANT: yes
REASONING: Useful terminal multiplexer written by a solo dev
OPEN_SOURCE: yes
INDIE: Yes
CORPORATE: no
CLICKBAIT: no
QUALITY: 7.5/10`)
	require.NoError(t, err)
	assert.True(t, evaluation.Relevant)
	assert.True(t, evaluation.IsOSS)
	assert.True(t, evaluation.IsIndie)
	assert.False(t, evaluation.IsCorporate)
	assert.False(t, evaluation.IsClickbait)
	assert.Equal(t, 7.5, evaluation.QualityScore)
	assert.Equal(t, "Useful terminal multiplexer written by a solo dev", evaluation.Reasoning)

	evaluation, err = ParseEvaluation("RELEVANT: no\nREASONING: cooking video")
	require.NoError(t, err)
	assert.False(t, evaluation.Relevant)
	assert.Equal(t, 0.0, evaluation.QualityScore)

	_, err = ParseEvaluation("I cannot evaluate this")
	assert.ErrorIs(t, err, ErrMalformedResponse)
	_, err = ParseEvaluation("")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseBatchDrafts(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		share       bool
		reasoning   string
		drafts      map[string]string
		malformed   bool
	}{
		{
			description: "partial A and B",
			input: `DECISION: SHARE
REASONING: solid tool
DRAFT_A: tmux config generator by @dev. https://example.com
DRAFT_B: small cli, does one thing. https://example.com`,
			share:     true,
			reasoning: "solid tool",
			drafts: map[string]string{
				"A": "tmux config generator by @dev. https://example.com",
				"B": "small cli, does one thing. https://example.com",
			},
		},
		{
			description: "multi-line continuation and emoji",
			input:       "DECISION: share\nREASONING: ok\nDRAFT_A: line one\nline two \U0001F680\nDRAFT_B: \U0001F525\nDRAFT_C: third",
			share:       true,
			reasoning:   "ok",
			drafts:      map[string]string{"A": "line one\nline two", "C": "third"},
		},
		{
			description: "skip drops drafts",
			input:       "DECISION: SKIP\nREASONING: promo\nDRAFT_A: should vanish",
			reasoning:   "promo",
			drafts:      map[string]string{},
		},
		{
			description: "no decision",
			input:       "DRAFT_A: hello",
			malformed:   true,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			batch, err := ParseBatchDrafts(testCase.input)
			if testCase.malformed {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.share, batch.Share)
			assert.Equal(t, testCase.reasoning, batch.Reasoning)
			assert.Equal(t, testCase.drafts, batch.Drafts)
		})
	}
}
