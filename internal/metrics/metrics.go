package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for document submission and review.
type Metrics struct {
	// Successful submissions by kind (rab, lpj) and mode (new, resubmit)
	Submissions *prometheus.CounterVec

	// Review outcomes by kind and outcome (diterima, revisi)
	Reviews *prometheus.CounterVec

	// Rejected commands by kind and error reason
	Rejections *prometheus.CounterVec

	// Evidence upload latency by bucket
	UploadLatency *prometheus.HistogramVec

	// Orphaned evidence objects scheduled for deletion
	OrphanCleanups prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pondok_document_submissions_total",
			Help: "Total successful document submissions by kind and mode",
		}, []string{"kind", "mode"}),

		Reviews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pondok_document_reviews_total",
			Help: "Total document review decisions by kind and outcome",
		}, []string{"kind", "outcome"}),

		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pondok_document_rejections_total",
			Help: "Total rejected document commands by kind and reason",
		}, []string{"kind", "reason"}),

		UploadLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pondok_evidence_upload_duration_seconds",
			Help:    "Duration of evidence uploads by bucket",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"bucket"}),

		OrphanCleanups: factory.NewCounter(prometheus.CounterOpts{
			Name: "pondok_evidence_orphan_cleanups_total",
			Help: "Total orphaned evidence objects scheduled for deletion",
		}),
	}
}

func (m *Metrics) IncSubmission(kind, mode string) {
	if m != nil {
		m.Submissions.WithLabelValues(kind, mode).Inc()
	}
}

func (m *Metrics) IncReview(kind, outcome string) {
	if m != nil {
		m.Reviews.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) IncRejection(kind, reason string) {
	if m != nil {
		m.Rejections.WithLabelValues(kind, reason).Inc()
	}
}

func (m *Metrics) ObserveUpload(bucket string, d time.Duration) {
	if m != nil {
		m.UploadLatency.WithLabelValues(bucket).Observe(d.Seconds())
	}
}

func (m *Metrics) IncOrphanCleanup() {
	if m != nil {
		m.OrphanCleanups.Inc()
	}
}
