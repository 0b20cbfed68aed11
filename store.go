package crier

import (
	"context"
	"errors"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
	"github.com/viant/crier/service/ledger/kv"
	"github.com/viant/crier/service/ledger/sqlite"
	"github.com/viant/crier/service/messaging"
	fsq "github.com/viant/crier/service/messaging/fs"
	"github.com/viant/crier/service/messaging/memory"
	redisq "github.com/viant/crier/service/messaging/redis"
)

// OpenLedger opens the record store selected by config.
func OpenLedger(config LedgerConfig) (ledger.Ledger, error) {
	switch config.Driver {
	case LedgerSQLite, "":
		return sqlite.Open(config.Path)
	case LedgerMemory:
		return kv.NewMemory(), nil
	case LedgerFS:
		return kv.NewFS(config.BaseURL)
	}
	return nil, fmt.Errorf("unsupported ledger driver: %q", config.Driver)
}

// OpenQueue opens the decision transport selected by config. The returned
// closer releases every resource the queue holds and is never nil.
func OpenQueue(ctx context.Context, config DecisionsConfig, logger logrus.FieldLogger) (messaging.Queue[model.DecisionEvent], io.Closer, error) {
	switch config.Vendor {
	case messaging.VendorMemory, "":
		cfg := memory.DefaultConfig()
		if config.MaxRetries > 0 {
			cfg.MaxRetries = config.MaxRetries
		}
		queue := memory.NewQueue[model.DecisionEvent](cfg)
		return queue, queue, nil
	case messaging.VendorRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		queue, err := redisq.NewQueue[model.DecisionEvent](ctx, client,
			redisq.Config{Channel: config.Channel, MaxRetries: config.MaxRetries},
			redisq.WithLogger[model.DecisionEvent](logger))
		if err != nil {
			_ = client.Close()
			return nil, nopCloser{}, err
		}
		return queue, closers{queue, client}, nil
	case messaging.VendorFS:
		cfg := fsq.DefaultConfig()
		cfg.BasePath = config.Inbox
		if config.MaxRetries > 0 {
			cfg.MaxRetries = config.MaxRetries
		}
		queue, err := fsq.NewQueue[model.DecisionEvent](afs.New(), cfg)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return queue, nopCloser{}, nil
	}
	return nil, nopCloser{}, fmt.Errorf("unsupported decisions vendor: %q", config.Vendor)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// closers closes in order and joins the errors.
type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, closer := range c {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
