// Package calendar plans a week of original posts by rotating content pillars,
// platforms and per-pillar topics across weekdays.
package calendar

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/viant/crier/model"
	"github.com/viant/crier/service/ledger"
	"gopkg.in/yaml.v3"
)

// EngagementPillar receives a bonus entry on even day offsets.
const EngagementPillar = "engagement"

//go:embed topics.yaml
var defaultPlan []byte

// Plan lists pillars, platforms and topics to rotate through.
type Plan struct {
	Pillars   []string            `yaml:"pillars"`
	Platforms []model.Platform    `yaml:"platforms"`
	Topics    map[string][]string `yaml:"topics"`
}

// ParsePlan decodes and validates a YAML plan.
func ParsePlan(data []byte) (*Plan, error) {
	ret := &Plan{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse calendar plan: %w", err)
	}
	return ret, ret.Validate()
}

// Validate checks every pillar, including engagement, has topics.
func (p *Plan) Validate() error {
	if len(p.Pillars) == 0 || len(p.Platforms) == 0 {
		return fmt.Errorf("calendar plan needs pillars and platforms")
	}
	for _, pillar := range append([]string{EngagementPillar}, p.Pillars...) {
		if len(p.Topics[pillar]) == 0 {
			return fmt.Errorf("calendar plan has no topics for pillar %q", pillar)
		}
	}
	return nil
}

// DefaultPlan returns the embedded plan.
var DefaultPlan = sync.OnceValue(func() *Plan {
	ret, err := ParsePlan(defaultPlan)
	if err != nil {
		panic(err)
	}
	return ret
})

type cycle[T any] struct {
	items []T
	next  int
}

func (c *cycle[T]) Next() T {
	item := c.items[c.next%len(c.items)]
	c.next++
	return item
}

// Monday returns the Monday starting the week that contains day.
func Monday(day time.Time) time.Time {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Generate returns the planned entries for the week starting on the Monday of
// start, skipping weekends. Even day offsets get an extra engagement entry.
func (p *Plan) Generate(start time.Time) []*model.CalendarEntry {
	pillars := &cycle[string]{items: p.Pillars}
	platforms := &cycle[model.Platform]{items: p.Platforms}
	topics := map[string]*cycle[string]{}
	topic := func(pillar string) string {
		c, ok := topics[pillar]
		if !ok {
			c = &cycle[string]{items: p.Topics[pillar]}
			topics[pillar] = c
		}
		return c.Next()
	}

	monday := Monday(start)
	var entries []*model.CalendarEntry
	for offset := 0; offset < 7; offset++ {
		day := monday.AddDate(0, 0, offset)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		pillar := pillars.Next()
		entries = append(entries, &model.CalendarEntry{
			ScheduledDate: day.Format(model.DateLayout),
			Pillar:        pillar,
			Platform:      platforms.Next(),
			ContentDraft:  topic(pillar),
			Status:        model.CalendarStatusPlanned,
		})
		if offset%2 == 0 {
			entries = append(entries, &model.CalendarEntry{
				ScheduledDate: day.Format(model.DateLayout),
				Pillar:        EngagementPillar,
				Platform:      platforms.Next(),
				ContentDraft:  topic(EngagementPillar),
				Status:        model.CalendarStatusPlanned,
			})
		}
	}
	return entries
}

// GenerateWeek stores a week of entries and returns how many were created.
func GenerateWeek(ctx context.Context, store ledger.Calendar, plan *Plan, start time.Time) (int, error) {
	if plan == nil {
		plan = DefaultPlan()
	}
	count := 0
	for _, entry := range plan.Generate(start) {
		if err := store.AddCalendarEntry(ctx, entry); err != nil {
			return count, fmt.Errorf("failed to add calendar entry for %s: %w", entry.ScheduledDate, err)
		}
		count++
	}
	return count, nil
}
