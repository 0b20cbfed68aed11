package curation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/viant/crier/model"
)

// ErrMalformedResponse is returned when a Judge reply cannot be interpreted.
var ErrMalformedResponse = errors.New("curation: malformed judge response")

var qualityExpr = regexp.MustCompile(`QUALITY:\s*(\d+(?:\.\d+)?)\s*/\s*10`)

var flagExprs = map[string]*regexp.Regexp{}

func init() {
	for _, key := range []string{"RELEVANT", "OPEN_SOURCE", "INDIE", "CORPORATE", "CLICKBAIT"} {
		flagExprs[key] = regexp.MustCompile(key + `:\s*(YES)`)
	}
}

func flag(upper, key string) bool { return flagExprs[key].MatchString(upper) }

// ParseEvaluation reads a line-oriented evaluation reply:
//
//	RELEVANT: yes|no
//	REASONING: ...
//	OPEN_SOURCE / INDIE / CORPORATE / CLICKBAIT: yes|no
//	QUALITY: N/10
func ParseEvaluation(text string) (*model.Evaluation, error) {
	text = strings.TrimSpace(text)
	upper := strings.ToUpper(text)
	if !strings.Contains(upper, "RELEVANT:") {
		return nil, ErrMalformedResponse
	}
	ret := &model.Evaluation{
		Relevant:    flag(upper, "RELEVANT"),
		IsOSS:       flag(upper, "OPEN_SOURCE"),
		IsIndie:     flag(upper, "INDIE"),
		IsCorporate: flag(upper, "CORPORATE"),
		IsClickbait: flag(upper, "CLICKBAIT"),
		Raw:         text,
	}
	if match := qualityExpr.FindStringSubmatch(upper); match != nil {
		ret.QualityScore, _ = strconv.ParseFloat(match[1], 64)
	}
	for _, line := range strings.Split(text, "\n") {
		if value, ok := field(line, "REASONING"); ok {
			ret.Reasoning = value
			break
		}
	}
	return ret, nil
}

// ParseBatchDrafts reads a DECISION / REASONING / DRAFT_A..DRAFT_D reply.
// Draft text may continue over several lines. Drafts are emoji-stripped,
// empty ones dropped, and none are kept unless the decision is SHARE.
func ParseBatchDrafts(text string) (*model.DraftBatch, error) {
	text = strings.TrimSpace(text)
	if !strings.Contains(strings.ToUpper(text), "DECISION:") {
		return nil, ErrMalformedResponse
	}
	ret := &model.DraftBatch{Drafts: map[string]string{}}
	var label string
	var lines []string
	flush := func() {
		if label != "" && len(lines) > 0 {
			if draft := StripEmoji(strings.Join(lines, "\n")); draft != "" {
				ret.Drafts[label] = draft
			}
		}
		label, lines = "", nil
	}

	for _, line := range strings.Split(text, "\n") {
		if value, ok := field(line, "DECISION"); ok {
			flush()
			ret.Share = strings.Contains(strings.ToUpper(value), "SHARE")
			continue
		}
		if value, ok := field(line, "REASONING"); ok {
			flush()
			ret.Reasoning = value
			continue
		}
		if next, value, ok := draftField(line); ok {
			flush()
			label, lines = next, []string{value}
			continue
		}
		if label != "" {
			lines = append(lines, line)
		}
	}
	flush()
	if !ret.Share {
		ret.Drafts = map[string]string{}
	}
	return ret, nil
}

func field(line, key string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(strings.ToUpper(trimmed), key+":") {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(key)+1:]), true
}

func draftField(line string) (string, string, bool) {
	for _, label := range model.DraftLabels {
		if value, ok := field(line, "DRAFT_"+label); ok {
			return label, value, true
		}
	}
	return "", "", false
}
