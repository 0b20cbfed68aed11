package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/service/dao"
	"github.com/viant/crier/service/dao/criteria"
)

type record struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	baseDir := filepath.Join(t.TempDir(), "records")
	var skipped []string
	s, err := New[string, record](baseDir, func(r *record) string { return r.ID },
		WithFilter[string, record](func(r *record, p []*dao.Parameter) bool {
			return criteria.FilterByStatus(r.Status, p)
		}),
		WithErrorHandler[string, record](func(url string, err error) { skipped = append(skipped, url) }),
	)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, &record{ID: "a", Status: "queued"}))
	require.NoError(t, s.Save(ctx, &record{ID: "b", Status: "acted"}))
	assert.ErrorIs(t, s.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, s.Save(ctx, &record{}), dao.ErrInvalidID)

	loaded, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, &record{ID: "a", Status: "queued"}, loaded)

	_, err = s.Load(ctx, "zzz")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "broken.json"), []byte("{"), 0o644))

	queued, err := s.List(ctx, dao.StatusParameter("queued"))
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, "a", queued[0].ID)
	assert.Len(t, skipped, 1)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), dao.ErrNotFound)
}
