package content

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/model"
)

// Generator produces raw text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request describes a post to write.
type Request struct {
	Pillar   string
	Platform model.Platform
	Topic    string
	// Context is the conversation being replied to, if any.
	Context string
}

// Product is what the account promotes.
type Product struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	Pitch    string `json:"pitch" yaml:"pitch" mapstructure:"pitch"`
	URL      string `json:"url" yaml:"url" mapstructure:"url"`
	Campaign string `json:"campaign" yaml:"campaign" mapstructure:"campaign"`
}

// TrackedURL returns the product URL tagged for platform.
func (p Product) TrackedURL(platform model.Platform) string {
	if p.URL == "" {
		return ""
	}
	campaign := p.Campaign
	if campaign == "" {
		campaign = "crier"
	}
	sep := "?"
	if strings.Contains(p.URL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sutm_source=%s&utm_medium=social&utm_campaign=%s", p.URL, sep, platform, campaign)
}

var promptTemplate = template.Must(template.New("post").Parse(`Write a {{.Platform}} post. Max {{.Limit}} characters.
Content pillar: {{.Pillar}}.
Topic: {{.Topic}}.
{{- if .Context}}
This is a reply. Context: {{.Context}}
{{- end}}
{{- if .Product.Name}}
About {{.Product.Name}}: {{.Product.Pitch}}{{if .URL}} Link: {{.URL}}{{end}}
{{- end}}
Writing rules: developer-to-developer voice. Short sentences. Use contractions. Max 2 sentences before getting to the point. No rhetorical questions. No hashtag spam. No exclamation marks. No emoji strings. No hype words. No filler. No fake emotion. Never trash competitors. Put links at the end if needed.{{if .URL}} If you include the link, use EXACTLY: {{.URL}}{{end}}
{{- if .Violations}}
Your previous attempt broke these rules: {{.Violations}}. Fix them.
{{- end}}
Output ONLY the post text, nothing else. Max {{.Limit}} characters.`))

// BuildPrompt renders the generation prompt. violations lists rules a previous attempt broke.
func BuildPrompt(req Request, product Product, violations []string) (string, error) {
	buf := &bytes.Buffer{}
	err := promptTemplate.Execute(buf, map[string]interface{}{
		"Platform":   req.Platform,
		"Limit":      req.Platform.CharLimit(),
		"Pillar":     req.Pillar,
		"Topic":      req.Topic,
		"Context":    req.Context,
		"Product":    product,
		"URL":        product.TrackedURL(req.Platform),
		"Violations": strings.Join(violations, "; "),
	})
	return buf.String(), err
}

// Writer drafts posts with a Generator and one regeneration attempt on rule violations.
type Writer struct {
	generator Generator
	product   Product
	logger    logrus.FieldLogger
}

// NewWriter creates a writer.
func NewWriter(generator Generator, product Product, logger logrus.FieldLogger) *Writer {
	return &Writer{generator: generator, product: product, logger: logging.OrDiscard(logger)}
}

// Write returns clean text, or the final violations when both attempts fail.
func (w *Writer) Write(ctx context.Context, req Request) (string, error) {
	var previous []string
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		prompt, err := BuildPrompt(req, w.product, previous)
		if err != nil {
			return "", err
		}
		text, err := w.generator.Generate(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("failed to generate %s post: %w", req.Platform, err)
		}
		text = unquote(strings.TrimSpace(text))
		if text == "" {
			lastErr = fmt.Errorf("generator returned empty text")
			continue
		}
		violations := Validate(text, req.Platform)
		if len(violations) == 0 {
			return text, nil
		}
		w.logger.WithFields(logrus.Fields{"platform": req.Platform, "attempt": attempt + 1}).
			WithField("violations", violations.Details()).Warn("generated content broke rules")
		previous = violations.Details()
		lastErr = violations.Err()
	}
	return "", lastErr
}

func unquote(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return text[1 : len(text)-1]
	}
	return text
}
