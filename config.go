package crier

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/service/approval"
	"github.com/viant/crier/service/content"
	"github.com/viant/crier/service/curation"
	"github.com/viant/crier/service/judge/anthropic"
	"github.com/viant/crier/service/messaging"
	"github.com/viant/crier/service/notifier/discord"
	"github.com/viant/crier/service/selector"
)

// Ledger drivers.
const (
	LedgerSQLite = "sqlite"
	LedgerMemory = "memory"
	LedgerFS     = "fs"
)

// Config is a serialisable representation of the orchestrator configuration.
// It can be populated from YAML, JSON or environment variables; DefaultConfig
// supplies every documented default.
type Config struct {
	Selector  selector.Config  `json:"selector" yaml:"selector" mapstructure:"selector"`
	Curation  CurationConfig   `json:"curation" yaml:"curation" mapstructure:"curation"`
	Approval  approval.Config  `json:"approval" yaml:"approval" mapstructure:"approval"`
	Ledger    LedgerConfig     `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Decisions DecisionsConfig  `json:"decisions" yaml:"decisions" mapstructure:"decisions"`
	Notifier  discord.Config   `json:"notifier" yaml:"notifier" mapstructure:"notifier"`
	Judge     anthropic.Config `json:"judge" yaml:"judge" mapstructure:"judge"`
	Product   content.Product  `json:"product" yaml:"product" mapstructure:"product"`
	Schedule  ScheduleConfig   `json:"schedule" yaml:"schedule" mapstructure:"schedule"`
	Log       LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
	Tracing   TracingConfig    `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
	Metrics   MetricsConfig    `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	// DryRun prints actions instead of posting them.
	DryRun bool `json:"dryRun" yaml:"dryRun" mapstructure:"dryRun"`
}

// CurationConfig holds pipeline thresholds and candidate feeds.
type CurationConfig struct {
	curation.Config `yaml:",inline" mapstructure:",squash"`
	Feeds           []FeedConfig `json:"feeds,omitempty" yaml:"feeds,omitempty" mapstructure:"feeds"`
	// SignalsFile replaces the embedded keyword signals when set.
	SignalsFile string `json:"signalsFile,omitempty" yaml:"signalsFile,omitempty" mapstructure:"signalsFile"`
}

// FeedConfig names an RSS or Atom feed scanned for candidates.
type FeedConfig struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
}

// LedgerConfig selects the record store.
type LedgerConfig struct {
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`
	// Path is the sqlite database file.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
	// BaseURL is the afs location of the fs driver.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty" mapstructure:"baseURL"`
}

// DecisionsConfig selects the transport carrying decision events.
type DecisionsConfig struct {
	Vendor     messaging.Vendor `json:"vendor" yaml:"vendor" mapstructure:"vendor"`
	Channel    string           `json:"channel" yaml:"channel" mapstructure:"channel"`
	MaxRetries int              `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
	Redis      RedisConfig      `json:"redis" yaml:"redis" mapstructure:"redis"`
	// Inbox is the directory of the fs vendor.
	Inbox string `json:"inbox,omitempty" yaml:"inbox,omitempty" mapstructure:"inbox"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `json:"db" yaml:"db" mapstructure:"db"`
}

// ScheduleConfig holds cron specs; an empty spec disables the job.
type ScheduleConfig struct {
	Session   string `json:"session" yaml:"session" mapstructure:"session"`
	Curation  string `json:"curation" yaml:"curation" mapstructure:"curation"`
	Calendar  string `json:"calendar" yaml:"calendar" mapstructure:"calendar"`
	Discovery string `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string         `json:"level" yaml:"level" mapstructure:"level"`
	Format logging.Format `json:"format" yaml:"format" mapstructure:"format"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Output  string `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Address string `json:"address,omitempty" yaml:"address,omitempty" mapstructure:"address"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Selector: selector.DefaultConfig(),
		Curation: CurationConfig{Config: curation.DefaultConfig()},
		Approval: approval.DefaultConfig(),
		Ledger:   LedgerConfig{Driver: LedgerSQLite, Path: "data/crier.db"},
		Decisions: DecisionsConfig{
			Vendor:     messaging.VendorMemory,
			Channel:    "crier:decisions",
			MaxRetries: 3,
			Redis:      RedisConfig{Addr: "localhost:6379"},
			Inbox:      "data/inbox",
		},
		Judge: anthropic.DefaultConfig(),
		Schedule: ScheduleConfig{
			Session:   "0 19 * * *",
			Curation:  "0 */4 * * *",
			Calendar:  "0 6 * * 1",
			Discovery: "0 17 * * 1-5",
		},
		Log: LogConfig{Level: "info", Format: logging.FormatJSON},
	}
}

// Validate returns the aggregated configuration errors or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.Selector.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Curation.Config.Validate(); err != nil {
		errs = append(errs, err)
	}
	for i, feed := range c.Curation.Feeds {
		if feed.URL == "" {
			errs = append(errs, fmt.Errorf("curation.feeds[%d].url is required", i))
		}
	}
	if c.Approval.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("approval.timeout must be > 0"))
	} else if c.Approval.Timeout < time.Second {
		errs = append(errs, fmt.Errorf("approval.timeout must be at least 1s: %s", c.Approval.Timeout))
	}
	switch c.Ledger.Driver {
	case LedgerSQLite:
		if c.Ledger.Path == "" {
			errs = append(errs, fmt.Errorf("ledger.path is required for the sqlite driver"))
		}
	case LedgerFS:
		if c.Ledger.BaseURL == "" {
			errs = append(errs, fmt.Errorf("ledger.baseURL is required for the fs driver"))
		}
	case LedgerMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported ledger.driver: %q", c.Ledger.Driver))
	}
	switch c.Decisions.Vendor {
	case messaging.VendorMemory:
	case messaging.VendorRedis:
		if c.Decisions.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("decisions.redis.addr is required for the redis vendor"))
		}
	case messaging.VendorFS:
		if c.Decisions.Inbox == "" {
			errs = append(errs, fmt.Errorf("decisions.inbox is required for the fs vendor"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported decisions.vendor: %q", c.Decisions.Vendor))
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for key, spec := range map[string]string{"schedule.session": c.Schedule.Session, "schedule.curation": c.Schedule.Curation, "schedule.calendar": c.Schedule.Calendar, "schedule.discovery": c.Schedule.Discovery} {
		if spec == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
