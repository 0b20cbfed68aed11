package notifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/model"
)

func TestParseCallback(t *testing.T) {
	type testCase struct {
		name     string
		data     string
		decision model.Decision
		actionID string
		wantErr  bool
	}
	testCases := []testCase{
		{name: "approve", data: "kw:approve:a1", decision: model.DecisionApprove, actionID: "a1"},
		{name: "draft", data: "kw:draft_B:a1", decision: model.DecisionDraftB, actionID: "a1"},
		{name: "id with colon", data: "kw:deny:a:1", decision: model.DecisionDeny, actionID: "a:1"},
		{name: "wrong prefix", data: "xx:approve:a1", wantErr: true},
		{name: "missing id", data: "kw:approve:", wantErr: true},
		{name: "too short", data: "kw:approve", wantErr: true},
		{name: "unknown decision", data: "kw:maybe:a1", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decision, actionID, err := ParseCallback(tc.data)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedCallback)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.decision, decision)
			assert.Equal(t, tc.actionID, actionID)
		})
	}
}

func TestKeyboards(t *testing.T) {
	approval := ApprovalKeyboard("a1")
	require.Len(t, approval, 1)
	var tokens []string
	for _, b := range approval[0] {
		tokens = append(tokens, b.Token)
	}
	assert.Equal(t, []string{"kw:approve:a1", "kw:deny:a1", "kw:backlog:a1", "kw:rethink:a1"}, tokens)

	curation := CurationKeyboard("a2", []string{"A", "B", "C"})
	require.Len(t, curation, 2)
	assert.Equal(t, Button{Label: "C", Token: "kw:draft_C:a2"}, curation[0][2])
	assert.Len(t, curation[1], 3)
	for _, row := range curation {
		for _, b := range row {
			decision, id, err := ParseCallback(b.Token)
			require.NoError(t, err)
			assert.Equal(t, "a2", id)
			assert.NotEqual(t, model.DecisionApprove, decision)
		}
	}
	assert.Len(t, CurationKeyboard("a3", nil), 1)
}

func TestFormatEscalation(t *testing.T) {
	text := FormatEscalation(model.ActionTypeReply, model.PlatformBluesky, "@dev said: *wow*", "thanks for sharing")
	assert.Equal(t, strings.Join([]string{
		"**[crier] Action ready**",
		"",
		"**Type:** reply",
		"**Platform:** bluesky",
		`**Context:** @dev said: \*wow\*`,
		"",
		"**Draft:**",
		"```\nthanks for sharing\n```",
	}, "\n"), text)
	assert.NotContains(t, FormatEscalation(model.ActionTypeOriginalPost, model.PlatformTwitter, "", "post"), "Context")
}

func TestFormatCuration(t *testing.T) {
	candidate := &model.CurationCandidate{
		Source:     "github",
		Author:     "ana",
		Title:      "tiny_tmux",
		FinalScore: 0.827,
		Reasoning:  "solo dev, useful",
		Drafts:     map[string]string{"B": "second", "A": "first"},
	}
	text := FormatCuration(candidate)
	assert.Equal(t, strings.Join([]string{
		"**[CURATE] github -- ana**",
		`tiny\_tmux (score: 0.83)`,
		"",
		"**A:** first",
		"",
		"**B:** second",
		"",
		"*solo dev, useful*",
	}, "\n"), text)
}

func TestNewPrompt(t *testing.T) {
	curated := &model.Draft{
		Type:     model.ActionTypeCuratedShare,
		Source:   model.SourceCuration,
		Curation: &model.CurationCandidate{Title: "t", Drafts: map[string]string{"A": "a", "B": "b"}},
	}
	prompt := NewPrompt("a1", curated)
	assert.Equal(t, "a1", prompt.ActionID)
	assert.Len(t, prompt.Rows, 2)
	assert.Contains(t, prompt.Text, "[CURATE]")

	reply := &model.Draft{Type: model.ActionTypeReply, Source: model.SourceFinding, Platform: model.PlatformTwitter, Content: "generated", Context: "original"}
	prompt = NewPrompt("a2", reply)
	assert.Equal(t, ApprovalKeyboard("a2"), prompt.Rows)
	assert.Contains(t, prompt.Text, "**Context:** original")
	assert.Contains(t, prompt.Text, "generated")
}
