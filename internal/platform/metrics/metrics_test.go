package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObservePost(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObservePost("posted", 10*time.Millisecond)
	m.ObservePost("posted", 5*time.Millisecond)
	m.ObservePost("rejected", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.posts.WithLabelValues("posted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.posts.WithLabelValues("rejected")))
}

func TestMetrics_ObserveTrialBalanceAndTransition(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveTrialBalance(false, time.Millisecond)
	m.ObserveTransition(domain.AuditEntryPost)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.tbRuns.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("entry.posted")))
}

func TestTracker_End(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("ledger:integrity_check").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("ledger:integrity_check").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("ledger:integrity_check", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("ledger:integrity_check", "failure")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePost("posted", time.Millisecond)
	m.ObserveTransition(domain.AuditEntryPost)
	assert.NoError(t, m.Track("x").End(nil))
}
