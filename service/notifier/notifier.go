// Package notifier formats approval prompts and defines the button protocol
// shared by every notification channel. Buttons carry callback tokens of the
// form kw:<decision>:<action id>.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/crier/model"
)

// ErrMalformedCallback is returned for callback tokens outside the kw protocol.
var ErrMalformedCallback = errors.New("notifier: malformed callback data")

const callbackPrefix = "kw"

// Button is a single decision button.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Prompt is a message dispatched to a human reviewer.
type Prompt struct {
	ActionID string     `json:"actionId"`
	Text     string     `json:"text"`
	Rows     [][]Button `json:"rows"`
}

// Notifier dispatches prompts to a human reviewer.
type Notifier interface {
	Send(ctx context.Context, prompt *Prompt) error
}

// CallbackData builds the button token for a decision on an action.
func CallbackData(decision model.Decision, actionID string) string {
	return callbackPrefix + ":" + string(decision) + ":" + actionID
}

// ParseCallback splits a button token into decision and action id.
func ParseCallback(data string) (model.Decision, string, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != callbackPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedCallback, data)
	}
	decision := model.Decision(parts[1])
	if _, ok := decision.Status(); !ok {
		return "", "", fmt.Errorf("%w: unknown decision %q", ErrMalformedCallback, parts[1])
	}
	return decision, parts[2], nil
}

func button(label string, decision model.Decision, actionID string) Button {
	return Button{Label: label, Token: CallbackData(decision, actionID)}
}

// ApprovalKeyboard returns the approve, deny, backlog and rethink row.
func ApprovalKeyboard(actionID string) [][]Button {
	return [][]Button{{
		button("Approve", model.DecisionApprove, actionID),
		button("Deny", model.DecisionDeny, actionID),
		button("Backlog", model.DecisionBacklog, actionID),
		button("Rethink", model.DecisionRethink, actionID),
	}}
}

// CurationKeyboard returns one button per draft label followed by the control row.
func CurationKeyboard(actionID string, labels []string) [][]Button {
	drafts := make([]Button, 0, len(labels))
	for _, label := range labels {
		drafts = append(drafts, button(label, model.DraftDecision(label), actionID))
	}
	controls := []Button{
		button("Deny", model.DecisionDeny, actionID),
		button("Backlog", model.DecisionBacklog, actionID),
		button("Rethink", model.DecisionRethink, actionID),
	}
	if len(drafts) == 0 {
		return [][]Button{controls}
	}
	return [][]Button{drafts, controls}
}
