package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.Candidate("approved")
	m.Candidate("approved")
	m.Approval("backlog")
	m.Decision("approve", true)
	m.Action("auto", "posted")
	m.ObserveJudge("evaluate", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.candidates.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.approvals.WithLabelValues("backlog")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("approve", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("auto", "posted")))

	// independent registries must not collide
	other := New()
	assert.Equal(t, 0.0, testutil.ToFloat64(other.candidates.WithLabelValues("approved")))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Candidate("approved")
		m.Approval("approve")
		m.Decision("deny", false)
		m.Action("buttons", "failed")
		m.ObserveJudge("draft", time.Second)
	})
	assert.Nil(t, m.Registry())
}
