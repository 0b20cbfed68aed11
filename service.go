package crier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/internal/metrics"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/approval"
	"github.com/viant/crier/service/calendar"
	"github.com/viant/crier/service/content"
	"github.com/viant/crier/service/curation"
	"github.com/viant/crier/service/discovery"
	"github.com/viant/crier/service/executor"
	"github.com/viant/crier/service/executor/printer"
	"github.com/viant/crier/service/judge/anthropic"
	"github.com/viant/crier/service/ledger"
	"github.com/viant/crier/service/messaging"
	"github.com/viant/crier/service/monitor"
	"github.com/viant/crier/service/notifier"
	"github.com/viant/crier/service/notifier/discord"
	"github.com/viant/crier/service/processor"
	"github.com/viant/crier/service/selector"
)

// ErrJudgeRequired is returned by RunCuration when no judge is available.
var ErrJudgeRequired = errors.New("crier: curation requires a judge")

// Platforms lists the platforms served by dry-run posters.
var Platforms = []model.Platform{
	model.PlatformTwitter, model.PlatformBluesky, model.PlatformReddit,
	model.PlatformHN, model.PlatformDevTo, model.PlatformProductHunt,
}

// Service wires the ledger, decision transport and services into one
// orchestrator.
type Service struct {
	config    *Config
	ledger    ledger.Ledger
	queue     messaging.Queue[model.DecisionEvent]
	notifier  notifier.Notifier
	judge     curation.Judge
	generator content.Generator
	posters   []executor.Poster
	sources   []curation.Source
	searchers []monitor.Searcher
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
	output    io.Writer

	session  *discordgo.Session
	closers  closers
	selector *selector.Selector
	approver *approval.Coordinator
	router   *approval.Router
	executor *executor.Service
	sessions *processor.Service
	findings *monitor.Monitor
	engaged  *discovery.Discoverer
	curation *curation.Monitor
}

// New creates a service. Resources opened from the configuration are
// released by Close.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	if err := ret.init(options); err != nil {
		_ = ret.Close()
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}
	s.selector = selector.New(s.ledger,
		selector.WithConfig(s.config.Selector),
		selector.WithLogger(s.logger.WithField("component", "selector")))
	waiters := approval.NewWaiters()
	s.approver = approval.NewCoordinator(s.ledger,
		approval.WithNotifier(s.notifier),
		approval.WithWaiters(waiters),
		approval.WithTimeout(s.config.Approval.Timeout),
		approval.WithLogger(s.logger.WithField("component", "approval")),
		approval.WithMetrics(s.metrics))
	s.router = approval.NewRouter(s.ledger, waiters,
		approval.WithRouterLogger(s.logger.WithField("component", "router")),
		approval.WithRouterMetrics(s.metrics))
	s.executor = executor.New(
		executor.WithPoster(s.posters...),
		executor.WithListener(executor.LogListener(s.logger.WithField("component", "executor"))),
		executor.WithLogger(s.logger))

	sessionOptions := []processor.Option{
		processor.WithLogger(s.logger.WithField("component", "processor")),
		processor.WithMetrics(s.metrics),
	}
	if s.generator != nil {
		sessionOptions = append(sessionOptions, processor.WithWriter(content.NewWriter(s.generator, s.config.Product, s.logger)))
	}
	s.sessions = processor.New(s.selector, s.approver, s.executor, s.ledger, sessionOptions...)
	s.findings = monitor.New(s.ledger, monitor.WithLogger(s.logger.WithField("component", "monitor")))
	s.engaged = discovery.New(s.ledger, discovery.WithLogger(s.logger.WithField("component", "discovery")))

	if s.judge != nil {
		signals, err := s.loadSignals(context.Background())
		if err != nil {
			return err
		}
		pipeline := curation.New(s.judge,
			curation.WithStore(s.ledger),
			curation.WithSignals(signals),
			curation.WithConfig(s.config.Curation.Config),
			curation.WithLogger(s.logger.WithField("component", "curation")),
			curation.WithMetrics(s.metrics))
		s.curation = curation.NewMonitor(s.ledger, pipeline,
			curation.WithSources(s.sources...),
			curation.WithPlatform(s.config.Selector.CurationPlatform),
			curation.WithMonitorLogger(s.logger.WithField("component", "curation")))
	}
	return nil
}

func (s *Service) ensureBaseSetup() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if s.logger == nil {
		s.logger = logging.New(s.config.Log.Level, s.config.Log.Format)
	}
	if s.ledger == nil {
		l, err := OpenLedger(s.config.Ledger)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		s.ledger = l
		s.closers = append(s.closers, l)
	}
	if s.queue == nil {
		queue, closer, err := OpenQueue(context.Background(), s.config.Decisions, s.logger)
		if err != nil {
			return fmt.Errorf("failed to open decision queue: %w", err)
		}
		s.queue = queue
		s.closers = append(s.closers, closer)
	}
	if s.notifier == nil && s.config.Notifier.Enabled() {
		if err := s.setupDiscord(); err != nil {
			return err
		}
	}
	if s.judge == nil || s.generator == nil {
		s.setupAnthropic()
	}
	if s.config.DryRun || len(s.posters) == 0 {
		if !s.config.DryRun {
			s.logger.Warn("no posters registered, printing actions")
		}
		s.posters = printer.All(s.output, Platforms...)
	}
	for _, feed := range s.config.Curation.Feeds {
		name := feed.Name
		if name == "" {
			name = feed.URL
		}
		s.sources = append(s.sources, curation.NewFeedSource(name, feed.URL))
	}
	return nil
}

func (s *Service) setupDiscord() error {
	session, err := discord.NewSession(s.config.Notifier)
	if err != nil {
		return err
	}
	logger := s.logger.WithField("component", "discord")
	n, err := discord.New(session, s.config.Notifier.ChannelID, logger)
	if err != nil {
		return err
	}
	relay := discord.NewRelay(s.queue, s.config.Notifier.AllowedUsers, logger)
	session.AddHandler(relay.Handler())
	s.session = session
	s.notifier = n
	return nil
}

func (s *Service) setupAnthropic() {
	client, err := anthropic.New(s.config.Judge,
		anthropic.WithLogger(s.logger.WithField("component", "judge")),
		anthropic.WithMetrics(s.metrics))
	if err != nil {
		if errors.Is(err, anthropic.ErrAPIKeyRequired) {
			s.logger.Warn("no judge API key, language model features disabled")
			return
		}
		s.logger.WithError(err).Warn("judge unavailable")
		return
	}
	if s.judge == nil {
		s.judge = client
	}
	if s.generator == nil {
		s.generator = client
	}
}

func (s *Service) loadSignals(ctx context.Context) (*curation.Signals, error) {
	if s.config.Curation.SignalsFile == "" {
		return curation.DefaultSignals(), nil
	}
	data, err := afs.New().DownloadWithURL(ctx, s.config.Curation.SignalsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signals %s: %w", s.config.Curation.SignalsFile, err)
	}
	return curation.ParseSignals(data)
}

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// Ledger returns the record store.
func (s *Service) Ledger() ledger.Ledger { return s.ledger }

// Queue returns the decision queue.
func (s *Service) Queue() messaging.Queue[model.DecisionEvent] { return s.queue }

// Router returns the decision router.
func (s *Service) Router() *approval.Router { return s.router }

// Executor returns the platform executor.
func (s *Service) Executor() *executor.Service { return s.executor }

// Open connects the Discord gateway so button taps are relayed. It is a
// no-op without a configured bot.
func (s *Service) Open() error {
	if s.session == nil {
		return nil
	}
	if err := s.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	s.closers = append(closers{s.session}, s.closers...)
	return nil
}

// RunSession picks and processes today's actions.
func (s *Service) RunSession(ctx context.Context) (*processor.Report, error) {
	return s.sessions.RunSession(ctx)
}

// PickActions returns the drafts a session would process now.
func (s *Service) PickActions(ctx context.Context) []*model.Draft {
	return s.selector.PickActions(ctx)
}

// RunCuration scans sources and evaluates new candidates, returning the approved count.
func (s *Service) RunCuration(ctx context.Context) (int, error) {
	if s.curation == nil {
		return 0, ErrJudgeRequired
	}
	return s.curation.Cycle(ctx)
}

// ScanFindings searches every registered searcher and queues relevant conversations.
func (s *Service) ScanFindings(ctx context.Context) (int, error) {
	return s.findings.Scan(ctx, s.searchers...)
}

// DiscoverEngagements searches every registered searcher for posts to like
// or repost and stores them as engagement opportunities.
func (s *Service) DiscoverEngagements(ctx context.Context) (int, error) {
	return s.engaged.Scan(ctx, s.searchers...)
}

// QueueFindings scores and queues externally discovered conversations.
func (s *Service) QueueFindings(ctx context.Context, findings []monitor.RawFinding) (int, error) {
	return s.findings.Queue(ctx, findings)
}

// GenerateCalendar plans the week containing start.
func (s *Service) GenerateCalendar(ctx context.Context, start time.Time) (int, error) {
	return calendar.GenerateWeek(ctx, s.ledger, nil, start)
}

// Listen routes decision events until ctx is done.
func (s *Service) Listen(ctx context.Context) error {
	return s.router.Listen(ctx, s.queue)
}

// Close releases resources opened by the service.
func (s *Service) Close() error {
	err := s.closers.Close()
	s.closers = nil
	return err
}
