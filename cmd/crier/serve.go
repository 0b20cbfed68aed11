package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viant/crier"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/internal/metrics"
	"github.com/viant/crier/tracing"
)

// app bundles a service with the process level concerns around it.
type app struct {
	srv     *crier.Service
	logger  *logrus.Entry
	metrics *metrics.Metrics
	config  *crier.Config
}

func newApp() (*app, error) {
	cfg, err := loadConfig(configFile, envFile)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithService("crier", cfg.Log.Level, cfg.Log.Format)
	if cfg.Tracing.Enabled {
		if err := tracing.Init("crier", Version, cfg.Tracing.Output); err != nil {
			return nil, err
		}
	}
	m := metrics.New()
	srv, err := crier.New(crier.WithConfig(cfg), crier.WithLogger(logger), crier.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	return &app{srv: srv, logger: logger, metrics: m, config: cfg}, nil
}

// listen starts the decision listener and returns a func waiting for it to stop.
func (a *app) listen(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.srv.Listen(ctx); err != nil {
			a.logger.WithError(err).Error("decision listener failed")
		}
	}()
	return func() { <-done }
}

func (a *app) serveMetrics() *http.Server {
	if a.config.Metrics.Address == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	server := &http.Server{Addr: a.config.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("metrics server failed")
		}
	}()
	a.logger.WithField("address", a.config.Metrics.Address).Info("metrics endpoint listening")
	return server
}

func (a *app) schedule(ctx context.Context) (*cron.Cron, error) {
	scheduler := cron.New()
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{name: "session", spec: a.config.Schedule.Session, run: func(ctx context.Context) error {
			_, err := a.srv.RunSession(ctx)
			return err
		}},
		{name: "curation", spec: a.config.Schedule.Curation, run: func(ctx context.Context) error {
			_, err := a.srv.RunCuration(ctx)
			if errors.Is(err, crier.ErrJudgeRequired) {
				return nil
			}
			return err
		}},
		{name: "calendar", spec: a.config.Schedule.Calendar, run: func(ctx context.Context) error {
			_, err := a.srv.GenerateCalendar(ctx, clock.Now())
			return err
		}},
		{name: "discovery", spec: a.config.Schedule.Discovery, run: func(ctx context.Context) error {
			_, err := a.srv.DiscoverEngagements(ctx)
			return err
		}},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		logger := a.logger.WithField("job", job.name)
		run := job.run
		if _, err := scheduler.AddJob(job.spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
			started := time.Now()
			if err := run(ctx); err != nil {
				logger.WithError(err).Error("job failed")
				return
			}
			logger.WithField("elapsed", time.Since(started).String()).Info("job complete")
		}))); err != nil {
			return nil, err
		}
		logger.WithField("spec", job.spec).Info("job scheduled")
	}
	scheduler.Start()
	return scheduler, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled sessions, curation and the decision listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.srv.Close()
			if err := a.srv.Open(); err != nil {
				return err
			}
			wait := a.listen(ctx)
			server := a.serveMetrics()
			scheduler, err := a.schedule(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("crier is running")
			<-ctx.Done()

			<-scheduler.Stop().Done()
			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}
			wait()
			return nil
		},
	}
}
