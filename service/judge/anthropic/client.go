// Package anthropic implements the curation Judge and the content Generator
// on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/internal/metrics"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/curation"
	"github.com/viant/crier/tracing"
)

// ErrAPIKeyRequired is returned when no API key is configured.
var ErrAPIKeyRequired = errors.New("anthropic: API key required")

// Config configures the client.
type Config struct {
	APIKey        string        `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
	BaseURL       string        `json:"baseURL,omitempty" yaml:"baseURL,omitempty" mapstructure:"baseURL"`
	Account       string        `json:"account" yaml:"account" mapstructure:"account"`
	EvaluateModel string        `json:"evaluateModel" yaml:"evaluateModel" mapstructure:"evaluateModel"`
	DraftModel    string        `json:"draftModel" yaml:"draftModel" mapstructure:"draftModel"`
	WriteModel    string        `json:"writeModel" yaml:"writeModel" mapstructure:"writeModel"`
	MaxTokens     int64         `json:"maxTokens" yaml:"maxTokens" mapstructure:"maxTokens"`
	MaxRetries    int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
	Backoff       time.Duration `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
	Drafts        int           `json:"drafts" yaml:"drafts" mapstructure:"drafts"`
}

// DefaultConfig returns default models and retry policy.
func DefaultConfig() Config {
	return Config{
		Account:       "our account",
		EvaluateModel: "claude-3-5-haiku-latest",
		DraftModel:    "claude-sonnet-4-0",
		WriteModel:    "claude-sonnet-4-0",
		MaxTokens:     1024,
		MaxRetries:    3,
		Backoff:       time.Second,
		Drafts:        len(model.DraftLabels),
	}
}

// Client calls the Messages API.
type Client struct {
	client  sdk.Client
	config  Config
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option { return func(c *Client) { c.logger = logger } }

// WithMetrics records call latency.
func WithMetrics(m *metrics.Metrics) Option { return func(c *Client) { c.metrics = m } }

// New creates a client. ANTHROPIC_API_KEY is used when config carries no key.
func New(config Config, opts ...Option) (*Client, error) {
	if config.APIKey == "" {
		config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or judge.apiKey", ErrAPIKeyRequired)
	}
	defaults := DefaultConfig()
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	if config.Backoff <= 0 {
		config.Backoff = defaults.Backoff
	}
	if config.Account == "" {
		config.Account = defaults.Account
	}
	requestOptions := []option.RequestOption{option.WithAPIKey(config.APIKey), option.WithMaxRetries(0)}
	if config.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(config.BaseURL))
	}
	ret := &Client{client: sdk.NewClient(requestOptions...), config: config}
	for _, opt := range opts {
		opt(ret)
	}
	ret.logger = logging.OrDiscard(ret.logger)
	return ret, nil
}

// Evaluate asks for relevance and quality of a candidate.
func (c *Client) Evaluate(ctx context.Context, candidate *model.CurationCandidate) (*model.Evaluation, error) {
	prompt, err := renderEvaluate(c.config.Account, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to render evaluate prompt: %w", err)
	}
	text, err := c.call(ctx, "evaluate", c.config.EvaluateModel, prompt)
	if err != nil {
		return nil, err
	}
	return curation.ParseEvaluation(text)
}

// DraftBatch asks for a share decision and labelled draft variants.
func (c *Client) DraftBatch(ctx context.Context, candidate *model.CurationCandidate, evaluation *model.Evaluation, platform model.Platform) (*model.DraftBatch, error) {
	prompt, err := renderDraft(c.config.Account, candidate, evaluation, platform, c.config.Drafts)
	if err != nil {
		return nil, fmt.Errorf("failed to render draft prompt: %w", err)
	}
	text, err := c.call(ctx, "draft", c.config.DraftModel, prompt)
	if err != nil {
		return nil, err
	}
	return curation.ParseBatchDrafts(text)
}

// Generate returns raw post text for a content prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, "generate", c.config.WriteModel, prompt)
}

func (c *Client) call(ctx context.Context, operation, modelName, prompt string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "judge."+operation, "CLIENT")
	span.WithAttributes(map[string]string{"model": modelName})
	started := time.Now()

	params := sdk.MessageNewParams{
		Model:     sdk.Model(modelName),
		MaxTokens: c.config.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.Backoff
	bo.MaxElapsedTime = 0
	attempts := 0
	var text string
	err := backoff.Retry(func() error {
		attempts++
		message, err := c.client.Messages.New(ctx, params)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			c.logger.WithError(err).WithFields(logrus.Fields{"operation": operation, "attempt": attempts}).Warn("judge call failed, retrying")
			return err
		}
		if len(message.Content) == 0 {
			return backoff.Permanent(fmt.Errorf("%w: no content blocks", curation.ErrMalformedResponse))
		}
		block := message.Content[0]
		if block.Type != "text" {
			return backoff.Permanent(fmt.Errorf("%w: not a text block (type=%s)", curation.ErrMalformedResponse, block.Type))
		}
		text = block.Text
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(max(c.config.MaxRetries, 0))), ctx))

	c.metrics.ObserveJudge(operation, time.Since(started))
	span.WithInt("attempts", attempts)
	tracing.EndSpan(span, err)
	if err != nil {
		return "", fmt.Errorf("judge %s failed after %d attempt(s): %w", operation, attempts, err)
	}
	return text, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
