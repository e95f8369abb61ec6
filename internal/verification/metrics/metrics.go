package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification pipeline.
// All methods are nil-safe so services can run without metrics in tests.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	Verdicts           *prometheus.CounterVec
	SupersededVerdicts *prometheus.CounterVec
	CrossChecks        *prometheus.CounterVec
	DispatchFailures   *prometheus.CounterVec
	ExpiredCredentials prometheus.Counter
	ExtractionDuration *prometheus.HistogramVec
	InspectionDuration prometheus.Histogram
	JobRetries         *prometheus.CounterVec
}

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60}

// New creates a new Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carematch_verification_submissions_total",
			Help: "Accepted submissions by stage and method",
		}, []string{"stage", "method"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carematch_verification_transitions_total",
			Help: "Committed stage transitions by stage and target status",
		}, []string{"stage", "to"}),
		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carematch_verification_verdicts_total",
			Help: "Extraction verdicts written back by phase and resulting status",
		}, []string{"phase", "status"}),
		SupersededVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carematch_verification_superseded_verdicts_total",
			Help: "Verdicts discarded because their submission was no longer current",
		}, []string{"phase"}),
		CrossChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carematch_verification_cross_checks_total",
			Help: "Cross-check runs by result",
		}, []string{"result"}),
		DispatchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carematch_verification_dispatch_failures_total",
			Help: "Submissions rejected because the extraction job could not be dispatched",
		}, []string{"phase"}),
		ExpiredCredentials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carematch_verification_credentials_expired_total",
			Help: "Credentials moved to expired by the expiry sweep",
		}),
		ExtractionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carematch_verification_extraction_duration_seconds",
			Help:    "Duration of extraction collaborator calls",
			Buckets: durationBuckets,
		}, []string{"phase", "result"}),
		InspectionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "carematch_verification_inspection_duration_seconds",
			Help:    "Duration of local clearance document inspection",
			Buckets: durationBuckets,
		}),
		JobRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carematch_verification_job_retries_total",
			Help: "Extraction job retries after transient collaborator errors",
		}, []string{"phase"}),
	}
}

func (m *Metrics) IncSubmission(stage, method string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(stage, method).Inc()
}

func (m *Metrics) IncTransition(stage, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(stage, to).Inc()
}

func (m *Metrics) IncVerdict(phase, status string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(phase, status).Inc()
}

func (m *Metrics) IncSuperseded(phase string) {
	if m == nil {
		return
	}
	m.SupersededVerdicts.WithLabelValues(phase).Inc()
}

func (m *Metrics) IncCrossCheck(result string) {
	if m == nil {
		return
	}
	m.CrossChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) IncDispatchFailure(phase string) {
	if m == nil {
		return
	}
	m.DispatchFailures.WithLabelValues(phase).Inc()
}

func (m *Metrics) AddExpired(n int) {
	if m == nil {
		return
	}
	m.ExpiredCredentials.Add(float64(n))
}

// ObserveExtraction records the duration of a collaborator call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveExtraction(phase, result string, start time.Time) {
	if m == nil {
		return
	}
	m.ExtractionDuration.WithLabelValues(phase, result).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveInspection(start time.Time) {
	if m == nil {
		return
	}
	m.InspectionDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncRetry(phase string) {
	if m == nil {
		return
	}
	m.JobRetries.WithLabelValues(phase).Inc()
}
