package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger/kv"
)

func TestMonday(t *testing.T) {
	expected := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	for _, day := range []int{12, 14, 18} {
		assert.Equal(t, expected, Monday(time.Date(2026, 10, day, 15, 0, 0, 0, time.UTC)))
	}
}

func TestPlan_Generate(t *testing.T) {
	plan := DefaultPlan()
	entries := plan.Generate(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC))
	// five weekdays plus bonus entries on offsets 0, 2 and 4
	require.Len(t, entries, 8)

	type expectation struct {
		date     string
		pillar   string
		platform model.Platform
		draft    string
	}
	expected := []expectation{
		{"2026-10-12", "awareness", model.PlatformTwitter, "Standard keyboards failing at CLI tasks"},
		{"2026-10-12", "engagement", model.PlatformBluesky, "Reply to mobile SSH conversations"},
		{"2026-10-13", "demo", model.PlatformTwitter, "Voice input composing a coding agent prompt"},
		{"2026-10-14", "engagement", model.PlatformBluesky, "Help someone with their CLI workflow"},
		{"2026-10-14", "engagement", model.PlatformTwitter, "Share tips for phone-based development"},
		{"2026-10-15", "social_proof", model.PlatformBluesky, "Download milestone update"},
		{"2026-10-16", "behind_scenes", model.PlatformTwitter, "What is being worked on next"},
		{"2026-10-16", "engagement", model.PlatformBluesky, "Reply to mobile SSH conversations"},
	}
	for i, e := range expected {
		assert.Equal(t, e.date, entries[i].ScheduledDate, i)
		assert.Equal(t, e.pillar, entries[i].Pillar, i)
		assert.Equal(t, e.platform, entries[i].Platform, i)
		assert.Equal(t, e.draft, entries[i].ContentDraft, i)
		assert.Equal(t, model.CalendarStatusPlanned, entries[i].Status, i)
	}
}

func TestGenerateWeek(t *testing.T) {
	ctx := context.Background()
	l := kv.NewMemory()
	count, err := GenerateWeek(ctx, l, nil, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	monday, err := l.CalendarEntries(ctx, "2026-10-12")
	require.NoError(t, err)
	assert.Len(t, monday, 2)
	weekend, err := l.CalendarEntries(ctx, "2026-10-17")
	require.NoError(t, err)
	assert.Empty(t, weekend)
}

func TestParsePlan_Invalid(t *testing.T) {
	_, err := ParsePlan([]byte("pillars: [demo]\nplatforms: [twitter]\ntopics:\n  demo: [x]\n"))
	assert.ErrorContains(t, err, "engagement")
	_, err = ParsePlan([]byte("pillars: []\n"))
	assert.Error(t, err)
}
