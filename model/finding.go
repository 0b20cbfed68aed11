package model

import "time"

// Finding is a discovered conversation worth replying to.
type Finding struct {
	ID             string        `json:"id"`
	Platform       Platform      `json:"platform"`
	SourceURL      string        `json:"sourceUrl"`
	SourceUser     string        `json:"sourceUser"`
	Content        string        `json:"content"`
	RelevanceScore float64       `json:"relevanceScore"`
	Status         FindingStatus `json:"status"`
	FoundAt        time.Time     `json:"foundAt"`
}

// CalendarEntry is a pre-planned post for a given day.
type CalendarEntry struct {
	ID            string         `json:"id"`
	ScheduledDate string         `json:"scheduledDate"` // YYYY-MM-DD
	Pillar        string         `json:"pillar"`
	Platform      Platform       `json:"platform"`
	ContentDraft  string         `json:"contentDraft"`
	Status        CalendarStatus `json:"status"`
}

// EngagementOpportunity is a third-party post to like, repost or follow.
type EngagementOpportunity struct {
	ID              string           `json:"id"`
	Platform        Platform         `json:"platform"`
	PostID          string           `json:"postId"`
	PostURL         string           `json:"postUrl"`
	Author          string           `json:"author"`
	Text            string           `json:"text,omitempty"`
	OpportunityType ActionType       `json:"opportunityType"`
	Status          EngagementStatus `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	ActedAt         *time.Time       `json:"actedAt,omitempty"`
}

// DateLayout is the calendar day format used by the ledger.
const DateLayout = "2006-01-02"
