package curation

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/viant/crier/model"
)

// FeedSource reads candidates from an RSS 2.0 or Atom feed.
type FeedSource struct {
	// Label is stored as the candidate source.
	Label string
	URL   string
	Limit int

	client *http.Client
}

// NewFeedSource creates a feed source with a 30s client timeout.
func NewFeedSource(label, feedURL string) *FeedSource {
	return &FeedSource{Label: label, URL: feedURL, Limit: 20, client: &http.Client{Timeout: 30 * time.Second}}
}

// Name returns the feed label.
func (f *FeedSource) Name() string { return f.Label }

// Scan fetches and parses the feed.
func (f *FeedSource) Scan(ctx context.Context) ([]*model.CurationCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", f.Label, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned %s", f.Label, resp.Status)
	}
	return f.parse(resp.Body)
}

type rssDocument struct {
	Items []struct {
		Title       string `xml:"title"`
		Link        string `xml:"link"`
		Description string `xml:"description"`
		Author      string `xml:"author"`
		Creator     string `xml:"http://purl.org/dc/elements/1.1/ creator"`
		PubDate     string `xml:"pubDate"`
	} `xml:"channel>item"`
	Entries []struct {
		Title string `xml:"title"`
		Links []struct {
			Href string `xml:"href,attr"`
			Rel  string `xml:"rel,attr"`
		} `xml:"link"`
		Summary   string `xml:"summary"`
		Content   string `xml:"content"`
		Author    string `xml:"author>name"`
		Published string `xml:"published"`
		Updated   string `xml:"updated"`
	} `xml:"entry"`
}

var tagExpr = regexp.MustCompile(`<[^>]+>`)

func (f *FeedSource) parse(r io.Reader) ([]*model.CurationCandidate, error) {
	doc := &rssDocument{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode feed %s: %w", f.Label, err)
	}
	var ret []*model.CurationCandidate
	add := func(title, link, description, author, published string) {
		title, link = strings.TrimSpace(title), strings.TrimSpace(link)
		if title == "" || link == "" || (f.Limit > 0 && len(ret) >= f.Limit) {
			return
		}
		ret = append(ret, &model.CurationCandidate{
			Source:      f.Label,
			URL:         link,
			Title:       title,
			Description: truncateRunes(strings.TrimSpace(tagExpr.ReplaceAllString(description, "")), 500),
			Author:      strings.TrimSpace(author),
			PublishedAt: parseFeedTime(published),
			Metadata:    map[string]string{"feed": f.Label},
		})
	}
	for _, item := range doc.Items {
		author := item.Author
		if author == "" {
			author = item.Creator
		}
		add(item.Title, item.Link, item.Description, author, item.PubDate)
	}
	for _, entry := range doc.Entries {
		link := ""
		for _, l := range entry.Links {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}
		description := entry.Summary
		if description == "" {
			description = entry.Content
		}
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}
		add(entry.Title, link, description, entry.Author, published)
	}
	return ret, nil
}

var feedTimeLayouts = []string{time.RFC1123Z, time.RFC1123, time.RFC3339}

func parseFeedTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func truncateRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
