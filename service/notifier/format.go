package notifier

import (
	"fmt"
	"strings"

	"github.com/viant/crier/model"
)

// Header prefixes escalation prompts.
var Header = "[crier] Action ready"

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
	">", `\>`,
)

// Escape neutralises markdown in user supplied text.
func Escape(text string) string {
	return markdownEscaper.Replace(text)
}

func codeBlock(text string) string {
	return "```\n" + strings.ReplaceAll(text, "```", "'''") + "\n```"
}

// FormatEscalation renders the approval message for a generic action.
// conversation is omitted when empty.
func FormatEscalation(actionType model.ActionType, platform model.Platform, conversation, draft string) string {
	lines := []string{
		"**" + Header + "**",
		"",
		"**Type:** " + string(actionType),
		"**Platform:** " + string(platform),
	}
	if conversation != "" {
		lines = append(lines, "**Context:** "+Escape(conversation))
	}
	lines = append(lines, "", "**Draft:**", codeBlock(draft))
	return strings.Join(lines, "\n")
}

// FormatCuration renders a curated share with every draft variant by label.
func FormatCuration(candidate *model.CurationCandidate) string {
	lines := []string{
		fmt.Sprintf("**[CURATE] %s -- %s**", Escape(candidate.Source), Escape(candidate.Author)),
		fmt.Sprintf("%s (score: %.2f)", Escape(candidate.Title), candidate.FinalScore),
		"",
	}
	for _, label := range candidate.DraftLabels() {
		lines = append(lines, fmt.Sprintf("**%s:** %s", label, Escape(candidate.Drafts[label])), "")
	}
	if candidate.Reasoning != "" {
		lines = append(lines, "*"+Escape(candidate.Reasoning)+"*")
	}
	return strings.Join(lines, "\n")
}

// NewPrompt builds the prompt for an action created from draft.
// Curated shares offer one button per variant; everything else gets the approval row.
func NewPrompt(actionID string, draft *model.Draft) *Prompt {
	if draft.Type == model.ActionTypeCuratedShare && draft.Curation != nil {
		return &Prompt{
			ActionID: actionID,
			Text:     FormatCuration(draft.Curation),
			Rows:     CurationKeyboard(actionID, draft.Curation.DraftLabels()),
		}
	}
	return &Prompt{
		ActionID: actionID,
		Text:     FormatEscalation(draft.Type, draft.Platform, draft.Context, draft.Content),
		Rows:     ApprovalKeyboard(actionID),
	}
}
