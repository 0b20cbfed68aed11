package model

import (
	"sort"
	"time"
)

// CurationCandidate is a piece of discovered content evaluated for a curated share.
type CurationCandidate struct {
	ID          string            `json:"id"`
	Source      string            `json:"source"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Author      string            `json:"author,omitempty"`
	PublishedAt *time.Time        `json:"publishedAt,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`

	KeywordScore float64           `json:"keywordScore"`
	Evaluation   *Evaluation       `json:"evaluation,omitempty"`
	Share        bool              `json:"share"`
	Reasoning    string            `json:"reasoning,omitempty"`
	Drafts       map[string]string `json:"drafts,omitempty"`
	FinalScore   float64           `json:"finalScore"`

	Status      CandidateStatus `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	EvaluatedAt *time.Time      `json:"evaluatedAt,omitempty"`
	PostedAt    *time.Time      `json:"postedAt,omitempty"`
}

// DraftLabels returns the candidate's draft labels in ascending order.
func (c *CurationCandidate) DraftLabels() []string {
	labels := make([]string, 0, len(c.Drafts))
	for label := range c.Drafts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// PrimaryDraft returns the first draft by label, or the title when no draft exists.
func (c *CurationCandidate) PrimaryDraft() string {
	if labels := c.DraftLabels(); len(labels) > 0 {
		return c.Drafts[labels[0]]
	}
	return c.Title
}

// Evaluation is the outcome of the Judge evaluate call.
type Evaluation struct {
	Relevant     bool    `json:"relevant"`
	Reasoning    string  `json:"reasoning,omitempty"`
	QualityScore float64 `json:"qualityScore"`
	IsOSS        bool    `json:"isOss"`
	IsIndie      bool    `json:"isIndie"`
	IsCorporate  bool    `json:"isCorporate"`
	IsClickbait  bool    `json:"isClickbait"`
	Raw          string  `json:"raw,omitempty"`
}

// DraftBatch is the outcome of the Judge draft call.
type DraftBatch struct {
	Share     bool              `json:"share"`
	Reasoning string            `json:"reasoning,omitempty"`
	Drafts    map[string]string `json:"drafts,omitempty"`
}
