package curation

import (
	"math"
	"regexp"
	"strings"

	"github.com/viant/crier/model"
)

// ScoreKeywords scores title and description in [0,1] against the signal lists.
func ScoreKeywords(c *model.CurationCandidate, signals *Signals) float64 {
	text := strings.ToLower(c.Title + " " + c.Description)

	negative := hits(text, signals.Negative)
	if negative >= 2 {
		return 0
	}

	var score float64
	switch positive := hits(text, signals.Positive); {
	case positive >= 3:
		score = 0.8
	case positive >= 2:
		score = 0.6
	case positive >= 1:
		score = 0.4
	default:
		score = 0.1
	}

	switch indie := hits(text, signals.Indie); {
	case indie >= 2:
		score = math.Min(score+0.25, 1)
	case indie >= 1:
		score = math.Min(score+0.15, 1)
	}

	score = math.Max(score-0.3*float64(negative), 0)
	return round2(score)
}

func hits(text string, signals []string) int {
	count := 0
	for _, signal := range signals {
		if strings.Contains(text, signal) {
			count++
		}
	}
	return count
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

var emojiExpr = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}` +
	`\x{1F900}-\x{1F9FF}\x{1FA00}-\x{1FA6F}\x{1FA70}-\x{1FAFF}\x{2702}-\x{27B0}\x{24C2}-\x{1F251}\x{FE0F}]+`)

// StripEmoji removes emoji code points and trims surrounding space.
func StripEmoji(text string) string {
	return strings.TrimSpace(emojiExpr.ReplaceAllString(text, ""))
}
