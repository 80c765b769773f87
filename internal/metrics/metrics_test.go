package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncSubmission("rab", "new")
	m.IncSubmission("rab", "new")
	m.IncReview("lpj", "diterima")
	m.IncRejection("rab", "rab_window_closed")
	m.IncOrphanCleanup()
	m.ObserveUpload("bukti_rab", 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("rab", "new")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reviews.WithLabelValues("lpj", "diterima")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("rab", "rab_window_closed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrphanCleanups))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncSubmission("rab", "new")
		m.IncReview("rab", "revisi")
		m.IncRejection("lpj", "x")
		m.ObserveUpload("bukti_lpj", time.Second)
		m.IncOrphanCleanup()
	})
}
