package model

import "time"

// ActionType enumerates the operations an automated account can perform.
type ActionType string

const (
	ActionTypeOriginalPost ActionType = "original_post"
	ActionTypeReply        ActionType = "reply"
	ActionTypeLike         ActionType = "like"
	ActionTypeRepost       ActionType = "repost"
	ActionTypeQuoteRepost  ActionType = "quote_repost"
	ActionTypeFollow       ActionType = "follow"
	ActionTypeCuratedShare ActionType = "curated_share"
	ActionTypeOutreachDM   ActionType = "outreach_dm"
	ActionTypeSkip         ActionType = "skip"
)

// Source names the queue an action draft was selected from.
type Source string

const (
	SourceCalendar   Source = "calendar"
	SourceFinding    Source = "finding"
	SourceCuration   Source = "curation"
	SourceEngagement Source = "engagement"
)

// Action is a single social-platform operation recorded in the ledger.
type Action struct {
	ID                string            `json:"id"`
	Type              ActionType        `json:"actionType"`
	Platform          Platform          `json:"platform"`
	Content           string            `json:"content"`
	Status            ActionStatus      `json:"status"`
	Source            Source            `json:"source,omitempty"`
	SourceID          string            `json:"sourceId,omitempty"`
	Variants          map[string]string `json:"variants,omitempty"`
	PostURL           string            `json:"postUrl,omitempty"`
	ActedAt           time.Time         `json:"actedAt"`
	ApprovalDecision  string            `json:"approvalDecision,omitempty"`
	ApprovalTimestamp *time.Time        `json:"approvalTimestamp,omitempty"`
}

// Draft is a selected, not yet persisted, action together with the metadata
// needed to prompt a human and to update its originating record.
type Draft struct {
	Source   Source     `json:"source"`
	SourceID string     `json:"sourceId"`
	Type     ActionType `json:"actionType"`
	Platform Platform   `json:"platform"`
	Content  string     `json:"content"`
	Tier     Tier       `json:"tier"`

	// Pillar is set for calendar drafts.
	Pillar string `json:"pillar,omitempty"`
	// ReplyTo and Author identify the conversation for finding and engagement drafts.
	ReplyTo string `json:"replyTo,omitempty"`
	Author  string `json:"author,omitempty"`
	// Context is the conversation being replied to, shown to the reviewer.
	Context string `json:"context,omitempty"`
	// Curation carries the originating candidate for curated shares.
	Curation *CurationCandidate `json:"curation,omitempty"`
}

// Variants returns the labelled alternatives a reviewer may pick from.
func (d *Draft) Variants() map[string]string {
	if d.Curation == nil {
		return nil
	}
	return d.Curation.Drafts
}

// NewAction creates a ledger record for the draft.
func (d *Draft) NewAction(id string, status ActionStatus, at time.Time) *Action {
	return &Action{
		ID:       id,
		Type:     d.Type,
		Platform: d.Platform,
		Content:  d.Content,
		Status:   status,
		Source:   d.Source,
		SourceID: d.SourceID,
		Variants: d.Variants(),
		ActedAt:  at,
	}
}
