package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
	"github.com/viant/crier/service/ledger/ledgertest"
)

func TestLedger(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Ledger {
		l, err := Open(Memory)
		require.NoError(t, err)
		t.Cleanup(func() { _ = l.Close() })
		return l
	})
}

func TestOpen_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "crier.db")
	l, err := Open(path)
	require.NoError(t, err)
	action := &model.Action{Type: model.ActionTypeOriginalPost, Platform: model.PlatformBluesky, Content: "hello", Status: model.ActionStatusPendingApproval}
	require.NoError(t, l.CreateAction(context.Background(), action))
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	stored, err := reopened.Action(context.Background(), action.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Content)
	assert.Nil(t, stored.Variants)
}

func TestLedger_UpdateMissing(t *testing.T) {
	l, err := Open(Memory)
	require.NoError(t, err)
	defer l.Close()
	assert.ErrorIs(t, l.UpdateFindingStatus(context.Background(), "nope", model.FindingStatusActed), ledger.ErrNotFound)
	assert.ErrorIs(t, l.ApplyDecision(context.Background(), "nope", model.ActionStatusApproved, "approve", ledgertest.Now, nil), ledger.ErrNotFound)
}
