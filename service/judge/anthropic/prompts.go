package anthropic

import (
	"bytes"
	"text/template"

	"github.com/viant/crier/model"
)

const evaluatePrompt = `Evaluate this content for {{.Account}}, a developer tools curation account that shares interesting CLI tools, terminal projects, and indie developer work.

Title: {{.Candidate.Title}}
Author: {{.Candidate.Author}}
Description: {{.Description}}
Source: {{.Candidate.Source}}
URL: {{.Candidate.URL}}

Answer each line exactly in this format:
RELEVANT: yes or no
REASONING: one-line explanation
OPEN_SOURCE: yes or no or unknown
INDIE: yes or no or unknown (is the creator a solo/indie dev or small team?)
CORPORATE: yes or no (is this a large company product launch?)
CLICKBAIT: yes or no (only if the title is actively deceptive; standard video SEO titles do not count)
QUALITY: N/10 (overall quality and relevance score)`

const draftPrompt = `You are drafting social media posts for {{.Account}}, a developer tools curation account.

Voice: developer-to-developer. Short sentences. No hype. No exclamation marks. No hashtag spam. Contractions are fine.

Rules, a draft breaking any of them is rejected:
- No emoji at all.
- No hashtags unless the creator uses one as a brand name.
- No "thread" or "1/" numbering.
- Sentence case only.
- No filler phrases ("check this out", "you need to see this", "this is amazing").

Content to share:
Title: {{.Candidate.Title}}
Author: {{.Candidate.Author}}
Source: {{.Candidate.Source}}
URL: {{.Candidate.URL}}

Evaluation: {{.Evaluation.Reasoning}}
Quality: {{.Evaluation.QualityScore}}/10

Should we share this? SHARE if it's genuinely useful or interesting to developers who use CLI tools and terminals. SKIP if it's low effort, clickbaity, overly promotional, or not interesting enough to warrant a post.

If SHARE, write {{.Count}} different {{.Platform}} posts (each max {{.Limit}} chars). Each variant takes a different angle: the tech, the creator, the use case, what makes it stand out. All add context, credit the creator, and put the link at the end.

Format your response exactly like this:
DECISION: SHARE or SKIP
REASONING: [one line why]
{{- range .Labels}}
DRAFT_{{.}}: [variant {{.}} text, only if SHARE]
{{- end}}`

var (
	evaluateTemplate = template.Must(template.New("evaluate").Parse(evaluatePrompt))
	draftTemplate    = template.Must(template.New("draft").Parse(draftPrompt))
)

func renderEvaluate(account string, c *model.CurationCandidate) (string, error) {
	description := []rune(c.Description)
	if len(description) > 500 {
		description = description[:500]
	}
	buf := &bytes.Buffer{}
	err := evaluateTemplate.Execute(buf, map[string]interface{}{
		"Account":     account,
		"Candidate":   c,
		"Description": string(description),
	})
	return buf.String(), err
}

func renderDraft(account string, c *model.CurationCandidate, evaluation *model.Evaluation, platform model.Platform, count int) (string, error) {
	if count <= 0 || count > len(model.DraftLabels) {
		count = len(model.DraftLabels)
	}
	if evaluation == nil {
		evaluation = &model.Evaluation{}
	}
	buf := &bytes.Buffer{}
	err := draftTemplate.Execute(buf, map[string]interface{}{
		"Account":    account,
		"Candidate":  c,
		"Evaluation": evaluation,
		"Platform":   platform,
		"Limit":      platform.CharLimit(),
		"Count":      count,
		"Labels":     model.DraftLabels[:count],
	})
	return buf.String(), err
}
