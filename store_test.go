package crier

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/internal/logging"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/messaging"
)

func TestOpenLedger(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		description string
		config      LedgerConfig
		expectErr   bool
	}{
		{description: "memory", config: LedgerConfig{Driver: LedgerMemory}},
		{description: "sqlite", config: LedgerConfig{Driver: LedgerSQLite, Path: filepath.Join(dir, "db", "crier.db")}},
		{description: "fs", config: LedgerConfig{Driver: LedgerFS, BaseURL: filepath.Join(dir, "ledger")}},
		{description: "unknown", config: LedgerConfig{Driver: "mongo"}, expectErr: true},
	}
	for _, testCase := range testCases {
		l, err := OpenLedger(testCase.config)
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		count, err := l.CountPostedToday(context.Background(), "")
		assert.NoError(t, err, testCase.description)
		assert.Zero(t, count, testCase.description)
		assert.NoError(t, l.Close(), testCase.description)
	}
}

func TestOpenQueue(t *testing.T) {
	redis := miniredis.RunT(t)
	testCases := []struct {
		description string
		config      DecisionsConfig
	}{
		{description: "memory", config: DecisionsConfig{Vendor: messaging.VendorMemory}},
		{description: "fs", config: DecisionsConfig{Vendor: messaging.VendorFS, Inbox: t.TempDir()}},
		{description: "redis", config: DecisionsConfig{Vendor: messaging.VendorRedis, Channel: "crier:test", Redis: RedisConfig{Addr: redis.Addr()}}},
	}
	for _, testCase := range testCases {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		queue, closer, err := OpenQueue(ctx, testCase.config, logging.Discard())
		require.NoError(t, err, testCase.description)

		event := &model.DecisionEvent{ActionID: "a1", Decision: model.DecisionApprove}
		require.NoError(t, queue.Publish(ctx, event), testCase.description)
		msg, err := queue.Consume(ctx)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, "a1", msg.T().ActionID, testCase.description)
		assert.NoError(t, msg.Ack(), testCase.description)
		assert.NoError(t, closer.Close(), testCase.description)
		cancel()
	}

	_, closer, err := OpenQueue(context.Background(), DecisionsConfig{Vendor: "kafka"}, nil)
	assert.Error(t, err)
	assert.NotNil(t, closer)
}
