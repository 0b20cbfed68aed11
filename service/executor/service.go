package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/model"
)

// Request is a single operation handed to a poster.
type Request struct {
	ActionID string           `json:"actionId"`
	Type     model.ActionType `json:"actionType"`
	Platform model.Platform   `json:"platform"`
	Content  string           `json:"content"`
	// ReplyTo is the target post URL for replies, likes, reposts and follows.
	ReplyTo string `json:"replyTo,omitempty"`
	Author  string `json:"author,omitempty"`
}

// Result is the outcome of a successful operation.
type Result struct {
	PostURL string `json:"postUrl,omitempty"`
}

// Poster performs actions on one platform.
type Poster interface {
	Platform() model.Platform
	Execute(ctx context.Context, request *Request) (*Result, error)
}

// Listener observes every executed request, successful or not.
type Listener func(request *Request, result *Result, err error)

// LogListener logs each execution outcome.
func LogListener(logger logrus.FieldLogger) Listener {
	return func(request *Request, result *Result, err error) {
		entry := logger.WithFields(logrus.Fields{
			"action_id": request.ActionID,
			"platform":  request.Platform,
			"type":      request.Type,
		})
		if err != nil {
			entry.WithError(err).Warn("action failed")
			return
		}
		entry.WithField("post_url", result.PostURL).Info("action executed")
	}
}

// Option customises the executor.
type Option func(*Service)

// WithPoster registers posters.
func WithPoster(posters ...Poster) Option {
	return func(s *Service) {
		for _, p := range posters {
			s.posters[p.Platform()] = p
		}
	}
}

// WithListener sets the execution listener. Passing nil disables it.
func WithListener(l Listener) Option {
	return func(s *Service) { s.listener = l }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service routes requests to platform posters.
type Service struct {
	mu       sync.RWMutex
	posters  map[model.Platform]Poster
	listener Listener
	logger   logrus.FieldLogger
}

// New creates an executor.
func New(opts ...Option) *Service {
	ret := &Service{posters: map[model.Platform]Poster{}}
	for _, opt := range opts {
		opt(ret)
	}
	ret.logger = logging.OrDiscard(ret.logger)
	return ret
}

// Register adds or replaces the poster for its platform.
func (s *Service) Register(p Poster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posters[p.Platform()] = p
}

// Supports reports whether a poster is registered for platform.
func (s *Service) Supports(platform model.Platform) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.posters[platform]
	return ok
}

// NewRequest builds the request for action created from draft.
func NewRequest(action *model.Action, draft *model.Draft) *Request {
	ret := &Request{ActionID: action.ID, Type: action.Type, Platform: action.Platform, Content: action.Content}
	if draft != nil {
		ret.ReplyTo = draft.ReplyTo
		ret.Author = draft.Author
	}
	return ret
}

// Execute performs request on its platform.
func (s *Service) Execute(ctx context.Context, request *Request) (*Result, error) {
	s.mu.RLock()
	poster, ok := s.posters[request.Platform]
	s.mu.RUnlock()
	var result *Result
	var err error
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnsupportedPlatform, request.Platform)
	} else {
		result, err = poster.Execute(ctx, request)
		if err == nil && result == nil {
			result = &Result{}
		}
	}
	if s.listener != nil {
		s.listener(request, result, err)
	}
	return result, err
}
